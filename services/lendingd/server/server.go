package server

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"lendex/native/lending"
	"lendex/native/oracle"
	"lendex/native/token"
)

// Options configures the HTTP surface.
type Options struct {
	Logger             *slog.Logger
	SharedSecretHeader string
	SharedSecretValue  string
	RateLimitPerMin    int
}

// Server exposes one route per lending operation plus queries, health and
// metrics.
type Server struct {
	node   *Node
	logger *slog.Logger
	opts   Options

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// New constructs the HTTP server around a node.
func New(node *Node, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		node:     node,
		logger:   logger,
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.rateLimit)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		if s.opts.SharedSecretValue != "" {
			v1.Use(s.sharedSecret)
		}
		v1.Post("/market/init", s.handleInitMarket)
		v1.Post("/market/owner", s.handleSetMarketOwner)
		v1.Get("/market/{address}", s.handleGetMarket)

		v1.Post("/reserve/init", s.handleInitReserve)
		v1.Post("/reserve/live", s.handleReserveLive)
		v1.Post("/reserve/rate", s.handleSetBorrowRate)
		v1.Post("/reserve/price", s.handleSetMarketPrice)
		v1.Post("/reserve/redeem", s.handleRedeemReserveCollateral)
		v1.Post("/reserve/deposit", s.handleDepositReserveLiquidity)
		v1.Get("/reserve/{address}", s.handleGetReserve)

		v1.Post("/obligation/init", s.handleInitObligation)
		v1.Post("/obligation/deposit", s.handleDepositCollateral)
		v1.Post("/obligation/withdraw", s.handleWithdrawCollateral)
		v1.Post("/obligation/borrow", s.handleBorrowLiquidity)
		v1.Post("/obligation/repay", s.handleRepayLiquidity)
		v1.Get("/obligation/{address}", s.handleGetObligation)

		v1.Post("/token/mint", s.handleCreateMint)
		v1.Post("/token/account", s.handleCreateTokenAccount)
		v1.Post("/token/authority", s.handleSetTokenAuthority)
		v1.Post("/oracle/record", s.handlePublishPriceRecord)
	})
	return r
}

// --- middleware ---

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.opts.RateLimitPerMin <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiterFor(host).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(host string) *rate.Limiter {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		perSecond := rate.Limit(float64(s.opts.RateLimitPerMin) / 60.0)
		limiter = rate.NewLimiter(perSecond, s.opts.RateLimitPerMin)
		s.limiters[host] = limiter
	}
	return limiter
}

func (s *Server) sharedSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(s.opts.SharedSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.opts.SharedSecretValue)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid shared secret"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- registry handlers ---

func (s *Server) handleInitMarket(w http.ResponseWriter, r *http.Request) {
	var req initMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	market, err := parseAddress("market", req.Market)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	oracleProgram, err := parseAddress("oracleProgramId", req.OracleProgramID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.InitLendingMarket(market, owner, oracleProgram); err != nil {
		s.logger.Error("init lending market failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{Address: market.String()})
}

func (s *Server) handleSetMarketOwner(w http.ResponseWriter, r *http.Request) {
	var req setMarketOwnerRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	market, err := parseAddress("market", req.Market)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	newOwner, err := parseAddress("newOwner", req.NewOwner)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.SetLendingMarketOwner(market, owner, newOwner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	market, err := s.node.GetLendingMarket(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, marketResponse{
		Owner:           market.Owner.String(),
		OracleProgramID: market.OracleProgramID.String(),
	})
}

func (s *Server) handleInitReserve(w http.ResponseWriter, r *http.Request) {
	var req initReserveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	fields := map[string]string{
		"market":            req.Market,
		"owner":             req.Owner,
		"collateralMint":    req.CollateralMint,
		"collateralAccount": req.CollateralAccount,
		"liquidityMint":     req.LiquidityMint,
		"liquidityAccount":  req.LiquidityAccount,
		"oraclePrice":       req.OraclePrice,
	}
	parsed, err := parseAddressFields(fields)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	addr, err := s.node.InitReserve(lending.InitReserveParams{
		Market:                   parsed["market"],
		Owner:                    parsed["owner"],
		CollateralMint:           parsed["collateralMint"],
		CollateralAccount:        parsed["collateralAccount"],
		LiquidityMint:            parsed["liquidityMint"],
		LiquidityAccount:         parsed["liquidityAccount"],
		OraclePrice:              parsed["oraclePrice"],
		Bump:                     req.Bump,
		MaxBorrowRateNumerator:   req.MaxBorrowRateNumerator,
		MaxBorrowRateDenominator: req.MaxBorrowRateDenominator,
	})
	if err != nil {
		s.logger.Error("init reserve failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{Address: addr.String()})
}

func (s *Server) handleReserveLive(w http.ResponseWriter, r *http.Request) {
	var req reserveLiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"market": req.Market, "owner": req.Owner, "reserve": req.Reserve,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.ReserveLiveControl(parsed["market"], parsed["owner"], parsed["reserve"], req.IsLive); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleSetBorrowRate(w http.ResponseWriter, r *http.Request) {
	var req setBorrowRateRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"market": req.Market, "owner": req.Owner, "reserve": req.Reserve,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.SetBorrowRate(parsed["market"], parsed["owner"], parsed["reserve"], req.Numerator, req.Denominator); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleSetMarketPrice(w http.ResponseWriter, r *http.Request) {
	var req setMarketPriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"market": req.Market, "owner": req.Owner, "reserve": req.Reserve, "oraclePrice": req.OraclePrice,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	price, err := parsePrice("collateralMarketPrice", req.CollateralMarketPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.SetMarketPrice(parsed["market"], parsed["owner"], parsed["reserve"], parsed["oraclePrice"], price, req.CollateralMarketPriceDecimals); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleGetReserve(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	reserve, err := s.node.GetReserve(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReserveResponse(reserve))
}

// --- position handlers ---

func (s *Server) handleInitObligation(w http.ResponseWriter, r *http.Request) {
	var req initObligationRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{"reserve": req.Reserve, "owner": req.Owner})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	addr, err := s.node.InitObligation(parsed["reserve"], parsed["owner"], req.Bump)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{Address: addr.String()})
}

func (s *Server) handleDepositCollateral(w http.ResponseWriter, r *http.Request) {
	var req depositCollateralRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"owner": req.Owner, "reserve": req.Reserve, "obligation": req.Obligation,
		"sourceCollateral": req.SourceCollateral, "destCollateral": req.DestCollateral,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.DepositCollateral(lending.DepositCollateralParams{
		Owner:            parsed["owner"],
		Reserve:          parsed["reserve"],
		Obligation:       parsed["obligation"],
		SourceCollateral: parsed["sourceCollateral"],
		DestCollateral:   parsed["destCollateral"],
		Amount:           amount,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleWithdrawCollateral(w http.ResponseWriter, r *http.Request) {
	var req withdrawCollateralRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"owner": req.Owner, "market": req.Market, "reserve": req.Reserve,
		"obligation": req.Obligation, "collateralMint": req.CollateralMint,
		"liquidityMint": req.LiquidityMint, "sourceCollateral": req.SourceCollateral,
		"destCollateral": req.DestCollateral, "oraclePrice": req.OraclePrice,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.WithdrawCollateral(lending.WithdrawCollateralParams{
		Owner:            parsed["owner"],
		Market:           parsed["market"],
		Reserve:          parsed["reserve"],
		Obligation:       parsed["obligation"],
		CollateralMint:   parsed["collateralMint"],
		LiquidityMint:    parsed["liquidityMint"],
		SourceCollateral: parsed["sourceCollateral"],
		DestCollateral:   parsed["destCollateral"],
		OraclePrice:      parsed["oraclePrice"],
		Amount:           amount,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleBorrowLiquidity(w http.ResponseWriter, r *http.Request) {
	var req borrowLiquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"owner": req.Owner, "market": req.Market, "reserve": req.Reserve,
		"obligation": req.Obligation, "collateralMint": req.CollateralMint,
		"liquidityMint": req.LiquidityMint, "sourceLiquidity": req.SourceLiquidity,
		"destLiquidity": req.DestLiquidity, "oraclePrice": req.OraclePrice,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.BorrowLiquidity(lending.BorrowLiquidityParams{
		Owner:           parsed["owner"],
		Market:          parsed["market"],
		Reserve:         parsed["reserve"],
		Obligation:      parsed["obligation"],
		CollateralMint:  parsed["collateralMint"],
		LiquidityMint:   parsed["liquidityMint"],
		SourceLiquidity: parsed["sourceLiquidity"],
		DestLiquidity:   parsed["destLiquidity"],
		OraclePrice:     parsed["oraclePrice"],
		Amount:          amount,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleRepayLiquidity(w http.ResponseWriter, r *http.Request) {
	var req repayLiquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"owner": req.Owner, "reserve": req.Reserve, "obligation": req.Obligation,
		"sourceLiquidity": req.SourceLiquidity, "destLiquidity": req.DestLiquidity,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.RepayLiquidity(lending.RepayLiquidityParams{
		Owner:           parsed["owner"],
		Reserve:         parsed["reserve"],
		Obligation:      parsed["obligation"],
		SourceLiquidity: parsed["sourceLiquidity"],
		DestLiquidity:   parsed["destLiquidity"],
		Amount:          amount,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleRedeemReserveCollateral(w http.ResponseWriter, r *http.Request) {
	var req redeemReserveCollateralRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"owner": req.Owner, "market": req.Market, "reserve": req.Reserve,
		"sourceCollateral": req.SourceCollateral, "destCollateral": req.DestCollateral,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.RedeemReserveCollateral(lending.RedeemReserveCollateralParams{
		Owner:            parsed["owner"],
		Market:           parsed["market"],
		Reserve:          parsed["reserve"],
		SourceCollateral: parsed["sourceCollateral"],
		DestCollateral:   parsed["destCollateral"],
		Amount:           amount,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleDepositReserveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req depositReserveLiquidityRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"owner": req.Owner, "reserve": req.Reserve,
		"sourceLiquidity": req.SourceLiquidity, "destLiquidity": req.DestLiquidity,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.DepositReserveLiquidity(lending.DepositReserveLiquidityParams{
		Owner:           parsed["owner"],
		Reserve:         parsed["reserve"],
		SourceLiquidity: parsed["sourceLiquidity"],
		DestLiquidity:   parsed["destLiquidity"],
		Amount:          amount,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleGetObligation(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	obligation, err := s.node.GetObligation(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, obligationResponse{
		Reserve:      obligation.Reserve.String(),
		Owner:        obligation.Owner.String(),
		InputAmount:  formatUint(obligation.InputAmount),
		OutputAmount: formatUint(obligation.OutputAmount),
		Bump:         obligation.Bump,
	})
}

// --- provisioning handlers ---

func (s *Server) handleCreateMint(w http.ResponseWriter, r *http.Request) {
	var req createMintRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	addr, err := parseAddress("address", req.Address)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.CreateTokenMint(addr, req.Decimals); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{Address: addr.String()})
}

func (s *Server) handleCreateTokenAccount(w http.ResponseWriter, r *http.Request) {
	var req createTokenAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"address": req.Address, "mint": req.Mint, "authority": req.Authority,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	balance := uint64(0)
	if req.Balance != "" {
		balance, err = parseAmount("balance", req.Balance)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	if err := s.node.CreateTokenAccount(parsed["address"], &token.Account{
		Mint:      parsed["mint"],
		Authority: parsed["authority"],
		Balance:   balance,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{Address: parsed["address"].String()})
}

func (s *Server) handleSetTokenAuthority(w http.ResponseWriter, r *http.Request) {
	var req setTokenAuthorityRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"account": req.Account, "authority": req.Authority, "newAuthority": req.NewOwner,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.node.SetTokenAuthority(parsed["account"], parsed["authority"], parsed["newAuthority"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handlePublishPriceRecord(w http.ResponseWriter, r *http.Request) {
	var req publishPriceRecordRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	parsed, err := parseAddressFields(map[string]string{
		"address": req.Address, "issuer": req.Issuer,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	aggregator := &oracle.Aggregator{
		Initialized: true,
		Version:     1,
		UpdatedAt:   req.UpdatedAt,
		Owner:       parsed["issuer"],
	}
	aggregator.Config.Decimals = req.Decimals
	if req.HasAnswer {
		answer, err := parsePrice("answer", req.Answer)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		aggregator.Answer = answer
	}
	record := &oracle.Record{Owner: parsed["issuer"], Data: oracle.Encode(aggregator)}
	if err := s.node.PublishPriceRecord(parsed["address"], record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressResponse{Address: parsed["address"].String()})
}
