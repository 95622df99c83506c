package oracle

import (
	"errors"
	"math/big"
	"testing"

	"lendex/crypto"
)

func feedAddress(suffix byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[0] = suffix
	return crypto.NewAddress(crypto.AccountPrefix, raw)
}

func TestDecodeRoundTrip(t *testing.T) {
	in := &Aggregator{
		Initialized: true,
		Version:     2,
		UpdatedAt:   1_700_000_123,
		Owner:       feedAddress(0x11),
		Answer:      big.NewInt(987_654_321),
	}
	in.Config.Oracles = []crypto.Address{feedAddress(0x21), feedAddress(0x22)}
	in.Config.MinAnswerThreshold = 2
	in.Config.StalenessThreshold = 30
	in.Config.Decimals = 6
	in.Submissions[0] = Submission{Timestamp: 1_700_000_100, Value: big.NewInt(987_000_000)}
	in.Submissions[3] = Submission{Timestamp: 1_700_000_110, Value: big.NewInt(988_000_000)}

	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Initialized || out.Version != 2 || out.UpdatedAt != in.UpdatedAt {
		t.Fatalf("header mismatch: %+v", out)
	}
	if !out.Owner.Equal(in.Owner) {
		t.Fatalf("owner mismatch: %s", out.Owner)
	}
	if len(out.Config.Oracles) != 2 || !out.Config.Oracles[1].Equal(feedAddress(0x22)) {
		t.Fatalf("oracle list mismatch: %v", out.Config.Oracles)
	}
	if out.Config.MinAnswerThreshold != 2 || out.Config.StalenessThreshold != 30 || out.Config.Decimals != 6 {
		t.Fatalf("config mismatch: %+v", out.Config)
	}
	if out.Submissions[3].Timestamp != 1_700_000_110 || out.Submissions[3].Value.Cmp(big.NewInt(988_000_000)) != 0 {
		t.Fatalf("submission mismatch: %+v", out.Submissions[3])
	}
	if out.Answer.Cmp(in.Answer) != 0 {
		t.Fatalf("answer mismatch: %s", out.Answer)
	}
}

func TestDecodeLargeAnswer(t *testing.T) {
	answer := new(big.Int).Lsh(big.NewInt(1), 120)
	in := &Aggregator{Initialized: true, Version: 1, Answer: answer}

	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Answer.Cmp(answer) != 0 {
		t.Fatalf("expected %s, got %s", answer, out.Answer)
	}
}

func TestDecodeTruncated(t *testing.T) {
	blob := Encode(&Aggregator{Initialized: true, Version: 1, Answer: big.NewInt(1)})
	for _, cut := range []int{0, 1, 5, 9, 12, len(blob) - 1} {
		if _, err := Decode(blob[:cut]); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("cut %d: expected ErrInvalidRecord, got %v", cut, err)
		}
	}
}

func TestDecodeRejectsOversizedOracleList(t *testing.T) {
	in := &Aggregator{Initialized: true, Version: 1}
	blob := Encode(in)
	// Overwrite the oracle count field with an impossible length.
	blob[5] = 0xFF
	blob[6] = 0xFF
	if _, err := Decode(blob); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestDecodeRejectsUnknownAnswerTag(t *testing.T) {
	blob := Encode(&Aggregator{Initialized: true, Version: 1})
	blob[len(blob)-1] = 9
	if _, err := Decode(blob); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestCurrentAnswer(t *testing.T) {
	agg := &Aggregator{Answer: big.NewInt(42)}
	agg.Config.Decimals = 3
	price, decimals, err := agg.CurrentAnswer()
	if err != nil {
		t.Fatalf("current answer: %v", err)
	}
	if price.Cmp(big.NewInt(42)) != 0 || decimals != 3 {
		t.Fatalf("unexpected answer %s/%d", price, decimals)
	}
	// The returned value must be detached from the record.
	price.SetInt64(0)
	if agg.Answer.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("answer aliased into caller")
	}

	if _, _, err := (&Aggregator{}).CurrentAnswer(); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for missing answer, got %v", err)
	}
}
