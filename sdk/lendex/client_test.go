package lendex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientRoundTrips(t *testing.T) {
	var gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Lendex-Shared-Secret")
		switch r.URL.Path {
		case "/v1/market/init":
			var req InitMarketRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if req.Market != "lend1qqqq" {
				t.Fatalf("unexpected market %q", req.Market)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"address": req.Market})
		case "/v1/reserve/init":
			_ = json.NewEncoder(w).Encode(map[string]string{"address": "lend1reserve"})
		case "/v1/obligation/lend1pos":
			_ = json.NewEncoder(w).Encode(Obligation{
				Reserve:      "lend1reserve",
				Owner:        "lend1owner",
				InputAmount:  "10",
				OutputAmount: "2",
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client, err := New(srv.URL, WithSharedSecret("X-Lendex-Shared-Secret", "hunter2"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	if err := client.InitMarket(ctx, InitMarketRequest{Market: "lend1qqqq"}); err != nil {
		t.Fatalf("init market: %v", err)
	}
	if gotSecret != "hunter2" {
		t.Fatalf("shared secret not attached, got %q", gotSecret)
	}

	reserve, err := client.InitReserve(ctx, InitReserveRequest{})
	if err != nil {
		t.Fatalf("init reserve: %v", err)
	}
	if reserve != "lend1reserve" {
		t.Fatalf("unexpected reserve address %q", reserve)
	}

	position, err := client.GetObligation(ctx, "lend1pos")
	if err != nil {
		t.Fatalf("get obligation: %v", err)
	}
	if position.InputAmount != "10" || position.OutputAmount != "2" {
		t.Fatalf("unexpected position %+v", position)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "lending: max borrow rate breached"})
	}))
	defer srv.Close()

	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.BorrowLiquidity(context.Background(), BorrowLiquidityRequest{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", apiErr.Status)
	}
	if apiErr.Message != "lending: max borrow rate breached" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestClientRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("   "); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}
