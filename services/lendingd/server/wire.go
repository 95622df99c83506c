package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	nativecommon "lendex/native/common"
	"lendex/native/lending"
	"lendex/native/token"

	"lendex/crypto"
)

type initMarketRequest struct {
	Market          string `json:"market"`
	Owner           string `json:"owner"`
	OracleProgramID string `json:"oracleProgramId"`
}

type setMarketOwnerRequest struct {
	Market   string `json:"market"`
	Owner    string `json:"owner"`
	NewOwner string `json:"newOwner"`
}

type initReserveRequest struct {
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

type reserveLiveRequest struct {
	Market  string `json:"market"`
	Owner   string `json:"owner"`
	Reserve string `json:"reserve"`
	IsLive  bool   `json:"isLive"`
}

type setBorrowRateRequest struct {
	Market      string `json:"market"`
	Owner       string `json:"owner"`
	Reserve     string `json:"reserve"`
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

type setMarketPriceRequest struct {
	Market                        string `json:"market"`
	Owner                         string `json:"owner"`
	Reserve                       string `json:"reserve"`
	OraclePrice                   string `json:"oraclePrice"`
	CollateralMarketPrice         string `json:"collateralMarketPrice"`
	CollateralMarketPriceDecimals uint8  `json:"collateralMarketPriceDecimals"`
}

type initObligationRequest struct {
	Reserve string `json:"reserve"`
	Owner   string `json:"owner"`
	Bump    uint8  `json:"bump"`
}

type depositCollateralRequest struct {
	Owner            string `json:"owner"`
	Reserve          string `json:"reserve"`
	Obligation       string `json:"obligation"`
	SourceCollateral string `json:"sourceCollateral"`
	DestCollateral   string `json:"destCollateral"`
	Amount           string `json:"amount"`
}

type withdrawCollateralRequest struct {
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

type borrowLiquidityRequest struct {
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

type repayLiquidityRequest struct {
	Owner           string `json:"owner"`
	Reserve         string `json:"reserve"`
	Obligation      string `json:"obligation"`
	SourceLiquidity string `json:"sourceLiquidity"`
	DestLiquidity   string `json:"destLiquidity"`
	Amount          string `json:"amount"`
}

type redeemReserveCollateralRequest struct {
	Owner            string `json:"owner"`
	Market           string `json:"market"`
	Reserve          string `json:"reserve"`
	SourceCollateral string `json:"sourceCollateral"`
	DestCollateral   string `json:"destCollateral"`
	Amount           string `json:"amount"`
}

type depositReserveLiquidityRequest struct {
	Owner           string `json:"owner"`
	Reserve         string `json:"reserve"`
	SourceLiquidity string `json:"sourceLiquidity"`
	DestLiquidity   string `json:"destLiquidity"`
	Amount          string `json:"amount"`
}

type createMintRequest struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

type createTokenAccountRequest struct {
	Address   string `json:"address"`
	Mint      string `json:"mint"`
	Authority string `json:"authority"`
	Balance   string `json:"balance"`
}

type setTokenAuthorityRequest struct {
	Account   string `json:"account"`
	Authority string `json:"authority"`
	NewOwner  string `json:"newAuthority"`
}

type publishPriceRecordRequest struct {
	Address   string `json:"address"`
	Issuer    string `json:"issuer"`
	Decimals  uint8  `json:"decimals"`
	Answer    string `json:"answer"`
	HasAnswer bool   `json:"hasAnswer"`
	UpdatedAt int64  `json:"updatedAt"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type marketResponse struct {
	Owner           string `json:"owner"`
	OracleProgramID string `json:"oracleProgramId"`
}

type reserveResponse struct {
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

type obligationResponse struct {
	Reserve      string `json:"reserve"`
	Owner        string `json:"owner"`
	InputAmount  string `json:"inputAmount"`
	OutputAmount string `json:"outputAmount"`
	Bump         uint8  `json:"bump"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toReserveResponse(r *lending.Reserve) reserveResponse {
	return reserveResponse{
		IsLive:                        r.IsLive,
		LendingMarket:                 r.LendingMarket.String(),
		LiquidityMint:                 r.LiquidityMint.String(),
		LiquidityAccount:              r.LiquidityAccount.String(),
		LiquidityOracle:               r.LiquidityOracle.String(),
		CollateralMint:                r.CollateralMint.String(),
		CollateralAccount:             r.CollateralAccount.String(),
		TotalLiquidity:                strconv.FormatUint(r.TotalLiquidity, 10),
		TotalCollateral:               strconv.FormatUint(r.TotalCollateral, 10),
		MaxBorrowRateNumerator:        r.MaxBorrowRateNumerator,
		MaxBorrowRateDenominator:      r.MaxBorrowRateDenominator,
		LiquidityMarketPrice:          bigString(r.LiquidityMarketPrice),
		LiquidityMarketPriceDecimals:  r.LiquidityMarketPriceDecimals,
		CollateralMarketPrice:         bigString(r.CollateralMarketPrice),
		CollateralMarketPriceDecimals: r.CollateralMarketPriceDecimals,
		Bump:                          r.Bump,
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodeBody(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseAddress(field, raw string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return addr, nil
}

func parseAddressFields(fields map[string]string) (map[string]crypto.Address, error) {
	parsed := make(map[string]crypto.Address, len(fields))
	for field, raw := range fields {
		addr, err := parseAddress(field, raw)
		if err != nil {
			return nil, err
		}
		parsed[field] = addr
	}
	return parsed, nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(field, raw string) (uint64, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return value, nil
}

func parsePrice(field, raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: expected non-negative integer string", field)
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, lending.ErrUnknownMarket),
		errors.Is(err, lending.ErrUnknownReserve),
		errors.Is(err, lending.ErrUnknownObligation):
		return http.StatusNotFound
	case errors.Is(err, lending.ErrRecordExists):
		return http.StatusConflict
	case errors.Is(err, lending.ErrNotMatchOwnerAddress):
		return http.StatusForbidden
	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, lending.ErrInvalidOracleConfig),
		errors.Is(err, lending.ErrMathOverflow),
		errors.Is(err, lending.ErrNotMatchLiquidityAccount),
		errors.Is(err, lending.ErrNotMatchLiquidityMint),
		errors.Is(err, lending.ErrNotMatchCollateralMint),
		errors.Is(err, lending.ErrNotMatchCollateralAccount),
		errors.Is(err, lending.ErrNotMatchReserveAddress),
		errors.Is(err, lending.ErrNotMatchLendingMarket),
		errors.Is(err, lending.ErrDerivedKeyInvalid),
		errors.Is(err, lending.ErrNotEnoughLiquidity),
		errors.Is(err, lending.ErrNotEnoughCollateral),
		errors.Is(err, lending.ErrInvalidBorrowRate),
		errors.Is(err, token.ErrTransferFailed),
		errors.Is(err, token.ErrSetAuthorityFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
