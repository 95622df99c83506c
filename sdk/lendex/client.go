// Package lendex provides a Go client for the lendingd REST endpoints.
package lendex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client wraps the lendingd REST endpoints.
type Client struct {
	baseURL      *url.URL
	secretHeader string
	secretValue  string
	httpClient   *http.Client
}

// Option mutates the client configuration during construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithSharedSecret attaches the shared-secret header to every request.
func WithSharedSecret(header, value string) Option {
	return func(c *Client) {
		c.secretHeader = header
		c.secretValue = value
	}
}

// New constructs a client pointed at the supplied base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, fmt.Errorf("baseURL required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// APIError carries the HTTP status and server-reported message of a failed
// call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lendingd: status %d: %s", e.Status, e.Message)
}

// Market mirrors the market query response.
type Market struct {
	Owner           string `json:"owner"`
	OracleProgramID string `json:"oracleProgramId"`
}

// Reserve mirrors the reserve query response. Amounts and prices are decimal
// strings.
type Reserve struct {
	IsLive                        bool   `json:"isLive"`
	LendingMarket                 string `json:"lendingMarket"`
	LiquidityMint                 string `json:"liquidityMint"`
	LiquidityAccount              string `json:"liquidityAccount"`
	LiquidityOracle               string `json:"liquidityOracle"`
	CollateralMint                string `json:"collateralMint"`
	CollateralAccount             string `json:"collateralAccount"`
	TotalLiquidity                string `json:"totalLiquidity"`
	TotalCollateral               string `json:"totalCollateral"`
	MaxBorrowRateNumerator        uint64 `json:"maxBorrowRateNumerator"`
	MaxBorrowRateDenominator      uint64 `json:"maxBorrowRateDenominator"`
	LiquidityMarketPrice          string `json:"liquidityMarketPrice"`
	LiquidityMarketPriceDecimals  uint8  `json:"liquidityMarketPriceDecimals"`
	CollateralMarketPrice         string `json:"collateralMarketPrice"`
	CollateralMarketPriceDecimals uint8  `json:"collateralMarketPriceDecimals"`
	Bump                          uint8  `json:"bump"`
}

// Obligation mirrors the obligation query response.
type Obligation struct {
	Reserve      string `json:"reserve"`
	Owner        string `json:"owner"`
	InputAmount  string `json:"inputAmount"`
	OutputAmount string `json:"outputAmount"`
	Bump         uint8  `json:"bump"`
}

// InitMarketRequest creates a lending market.
type InitMarketRequest struct {
	Market          string `json:"market"`
	Owner           string `json:"owner"`
	OracleProgramID string `json:"oracleProgramId"`
}

// SetMarketOwnerRequest hands a market to a new owner.
type SetMarketOwnerRequest struct {
	Market   string `json:"market"`
	Owner    string `json:"owner"`
	NewOwner string `json:"newOwner"`
}

// InitReserveRequest creates a reserve under a market.
type InitReserveRequest struct {
	Market                   string `json:"market"`
	Owner                    string `json:"owner"`
	CollateralMint           string `json:"collateralMint"`
	CollateralAccount        string `json:"collateralAccount"`
	LiquidityMint            string `json:"liquidityMint"`
	LiquidityAccount         string `json:"liquidityAccount"`
	OraclePrice              string `json:"oraclePrice"`
	Bump                     uint8  `json:"bump"`
	MaxBorrowRateNumerator   uint64 `json:"maxBorrowRateNumerator"`
	MaxBorrowRateDenominator uint64 `json:"maxBorrowRateDenominator"`
}

// ReserveLiveRequest flips a reserve's activation flag.
type ReserveLiveRequest struct {
	Market  string `json:"market"`
	Owner   string `json:"owner"`
	Reserve string `json:"reserve"`
	IsLive  bool   `json:"isLive"`
}

// SetBorrowRateRequest overwrites a reserve's collateralization ceiling.
type SetBorrowRateRequest struct {
	Market      string `json:"market"`
	Owner       string `json:"owner"`
	Reserve     string `json:"reserve"`
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

// SetMarketPriceRequest refreshes a reserve's price snapshot.
type SetMarketPriceRequest struct {
	Market                        string `json:"market"`
	Owner                         string `json:"owner"`
	Reserve                       string `json:"reserve"`
	OraclePrice                   string `json:"oraclePrice"`
	CollateralMarketPrice         string `json:"collateralMarketPrice"`
	CollateralMarketPriceDecimals uint8  `json:"collateralMarketPriceDecimals"`
}

// InitObligationRequest opens a position on a reserve.
type InitObligationRequest struct {
	Reserve string `json:"reserve"`
	Owner   string `json:"owner"`
	Bump    uint8  `json:"bump"`
}

// DepositCollateralRequest moves collateral into a position.
type DepositCollateralRequest struct {
	Owner            string `json:"owner"`
	Reserve          string `json:"reserve"`
	Obligation       string `json:"obligation"`
	SourceCollateral string `json:"sourceCollateral"`
	DestCollateral   string `json:"destCollateral"`
	Amount           string `json:"amount"`
}

// WithdrawCollateralRequest releases collateral from a position.
type WithdrawCollateralRequest struct {
	Owner            string `json:"owner"`
	Market           string `json:"market"`
	Reserve          string `json:"reserve"`
	Obligation       string `json:"obligation"`
	CollateralMint   string `json:"collateralMint"`
	LiquidityMint    string `json:"liquidityMint"`
	SourceCollateral string `json:"sourceCollateral"`
	DestCollateral   string `json:"destCollateral"`
	OraclePrice      string `json:"oraclePrice"`
	Amount           string `json:"amount"`
}

// BorrowLiquidityRequest draws liquidity against a position.
type BorrowLiquidityRequest struct {
	Owner           string `json:"owner"`
	Market          string `json:"market"`
	Reserve         string `json:"reserve"`
	Obligation      string `json:"obligation"`
	CollateralMint  string `json:"collateralMint"`
	LiquidityMint   string `json:"liquidityMint"`
	SourceLiquidity string `json:"sourceLiquidity"`
	DestLiquidity   string `json:"destLiquidity"`
	OraclePrice     string `json:"oraclePrice"`
	Amount          string `json:"amount"`
}

// RepayLiquidityRequest returns borrowed liquidity.
type RepayLiquidityRequest struct {
	Owner           string `json:"owner"`
	Reserve         string `json:"reserve"`
	Obligation      string `json:"obligation"`
	SourceLiquidity string `json:"sourceLiquidity"`
	DestLiquidity   string `json:"destLiquidity"`
	Amount          string `json:"amount"`
}

type addressResponse struct {
	Address string `json:"address"`
}

// InitMarket creates a lending market.
func (c *Client) InitMarket(ctx context.Context, req InitMarketRequest) error {
	return c.post(ctx, "/v1/market/init", req, nil)
}

// SetMarketOwner transfers market ownership.
func (c *Client) SetMarketOwner(ctx context.Context, req SetMarketOwnerRequest) error {
	return c.post(ctx, "/v1/market/owner", req, nil)
}

// GetMarket fetches a market record.
func (c *Client) GetMarket(ctx context.Context, address string) (*Market, error) {
	var out Market
	if err := c.get(ctx, "/v1/market/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitReserve creates a reserve and returns its derived address.
func (c *Client) InitReserve(ctx context.Context, req InitReserveRequest) (string, error) {
	var out addressResponse
	if err := c.post(ctx, "/v1/reserve/init", req, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

// SetReserveLive flips the reserve activation flag.
func (c *Client) SetReserveLive(ctx context.Context, req ReserveLiveRequest) error {
	return c.post(ctx, "/v1/reserve/live", req, nil)
}

// SetBorrowRate overwrites the collateralization ceiling.
func (c *Client) SetBorrowRate(ctx context.Context, req SetBorrowRateRequest) error {
	return c.post(ctx, "/v1/reserve/rate", req, nil)
}

// SetMarketPrice refreshes the reserve price snapshot.
func (c *Client) SetMarketPrice(ctx context.Context, req SetMarketPriceRequest) error {
	return c.post(ctx, "/v1/reserve/price", req, nil)
}

// GetReserve fetches a reserve record.
func (c *Client) GetReserve(ctx context.Context, address string) (*Reserve, error) {
	var out Reserve
	if err := c.get(ctx, "/v1/reserve/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InitObligation opens a position and returns its derived address.
func (c *Client) InitObligation(ctx context.Context, req InitObligationRequest) (string, error) {
	var out addressResponse
	if err := c.post(ctx, "/v1/obligation/init", req, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

// DepositCollateral grows a position's collateral.
func (c *Client) DepositCollateral(ctx context.Context, req DepositCollateralRequest) error {
	return c.post(ctx, "/v1/obligation/deposit", req, nil)
}

// WithdrawCollateral releases collateral from a position.
func (c *Client) WithdrawCollateral(ctx context.Context, req WithdrawCollateralRequest) error {
	return c.post(ctx, "/v1/obligation/withdraw", req, nil)
}

// BorrowLiquidity draws liquidity against a position.
func (c *Client) BorrowLiquidity(ctx context.Context, req BorrowLiquidityRequest) error {
	return c.post(ctx, "/v1/obligation/borrow", req, nil)
}

// RepayLiquidity returns borrowed liquidity.
func (c *Client) RepayLiquidity(ctx context.Context, req RepayLiquidityRequest) error {
	return c.post(ctx, "/v1/obligation/repay", req, nil)
}

// GetObligation fetches a position record.
func (c *Client) GetObligation(ctx context.Context, address string) (*Obligation, error) {
	var out Obligation
	if err := c.get(ctx, "/v1/obligation/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) resolve(path string) string {
	ref := *c.baseURL
	ref.Path = strings.TrimRight(ref.Path, "/") + path
	return ref.String()
}

func (c *Client) send(req *http.Request, out interface{}) error {
	if c.secretHeader != "" && c.secretValue != "" {
		req.Header.Set(c.secretHeader, c.secretValue)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
