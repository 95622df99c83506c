package lending

import (
	"fmt"

	"lendex/crypto"
	nativecommon "lendex/native/common"
	"lendex/native/token"
)

type engineState interface {
	GetLendingMarket(addr crypto.Address) (*LendingMarket, error)
	GetReserve(addr crypto.Address) (*Reserve, error)
	PutReserve(addr crypto.Address, reserve *Reserve) error
	GetObligation(addr crypto.Address) (*Obligation, error)
	PutObligation(addr crypto.Address, obligation *Obligation) error
}

// Engine owns the Obligation records and implements the position operations:
// deposit, withdraw, borrow and repay, plus the operator-level reserve moves.
// Every operation validates the full relationship graph between the records
// it names before the single external transfer; a failed precondition leaves
// no partial state behind.
type Engine struct {
	state   engineState
	ledger  token.Ledger
	gateway *token.Gateway
	pauses  nativecommon.PauseView
}

// NewEngine constructs an unwired position engine.
func NewEngine() *Engine {
	return &Engine{}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) {
	if e == nil {
		return
	}
	e.state = state
}

// SetLedger wires the engine to the external asset ledger.
func (e *Engine) SetLedger(ledger token.Ledger) {
	if e == nil {
		return
	}
	e.ledger = ledger
}

// SetGateway wires the engine to the asset transfer gateway.
func (e *Engine) SetGateway(gateway *token.Gateway) {
	if e == nil {
		return
	}
	e.gateway = gateway
}

// SetPauses installs the administrative pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if e.gateway == nil {
		return errNilGateway
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

// InitObligation creates the zero-balance position for (reserve, owner) at
// its deterministic address and returns that address. Creation fails if the
// address is already occupied.
func (e *Engine) InitObligation(reserveAddr, owner crypto.Address, bump byte) (crypto.Address, error) {
	if e == nil || e.state == nil {
		return crypto.Address{}, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return crypto.Address{}, err
	}
	if _, err := e.loadReserve(reserveAddr); err != nil {
		return crypto.Address{}, err
	}
	addr := ObligationAddress(reserveAddr, owner)
	existing, err := e.state.GetObligation(addr)
	if err != nil {
		return crypto.Address{}, err
	}
	if existing != nil {
		return crypto.Address{}, fmt.Errorf("%w: obligation %s", ErrRecordExists, addr)
	}
	obligation := &Obligation{
		Reserve:      reserveAddr,
		Owner:        owner,
		InputAmount:  0,
		OutputAmount: 0,
		Bump:         bump,
	}
	if err := e.state.PutObligation(addr, obligation); err != nil {
		return crypto.Address{}, err
	}
	return addr, nil
}

// DepositCollateralParams names the records involved in a deposit.
type DepositCollateralParams struct {
	Owner            crypto.Address
	Reserve          crypto.Address
	Obligation       crypto.Address
	SourceCollateral crypto.Address
	DestCollateral   crypto.Address
	Amount           uint64
}

// DepositCollateral moves collateral from the caller into the reserve's
// collateral account and grows the position. Collateral can only improve the
// ratio, so no collateralization check is required.
func (e *Engine) DepositCollateral(p DepositCollateralParams) error {
	if err := e.ready(); err != nil {
		return err
	}
	obligation, err := e.loadObligation(p.Obligation, p.Reserve, p.Owner, true)
	if err != nil {
		return err
	}
	reserve, err := e.loadReserve(p.Reserve)
	if err != nil {
		return err
	}
	if !reserve.CollateralAccount.Equal(p.DestCollateral) {
		return ErrNotMatchCollateralAccount
	}
	source, err := e.loadTokenAccount(p.SourceCollateral)
	if err != nil {
		return err
	}
	dest, err := e.loadTokenAccount(p.DestCollateral)
	if err != nil {
		return err
	}
	if !source.Mint.Equal(reserve.CollateralMint) {
		return ErrNotMatchCollateralMint
	}
	if !dest.Mint.Equal(reserve.CollateralMint) {
		return ErrNotMatchLiquidityMint
	}

	newInput, err := checkedAdd(obligation.InputAmount, p.Amount)
	if err != nil {
		return err
	}
	newTotal, err := checkedAdd(reserve.TotalCollateral, p.Amount)
	if err != nil {
		return err
	}

	if err := e.gateway.TransferWithOwner(p.SourceCollateral, p.DestCollateral, p.Owner, p.Amount); err != nil {
		return err
	}

	obligation.InputAmount = newInput
	reserve.TotalCollateral = newTotal
	if err := e.state.PutObligation(p.Obligation, obligation); err != nil {
		return err
	}
	return e.state.PutReserve(p.Reserve, reserve)
}

// WithdrawCollateralParams names the records involved in a withdrawal.
type WithdrawCollateralParams struct {
	Owner            crypto.Address
	Market           crypto.Address
	Reserve          crypto.Address
	Obligation       crypto.Address
	CollateralMint   crypto.Address
	LiquidityMint    crypto.Address
	SourceCollateral crypto.Address
	DestCollateral   crypto.Address
	OraclePrice      crypto.Address
	Amount           uint64
}

// WithdrawCollateral releases collateral back to the caller. The requested
// amount is clamped to the position's recorded collateral; the remaining
// position must still satisfy the collateralization ceiling against the
// current debt.
func (e *Engine) WithdrawCollateral(p WithdrawCollateralParams) error {
	if err := e.ready(); err != nil {
		return err
	}
	obligation, err := e.loadObligation(p.Obligation, p.Reserve, p.Owner, true)
	if err != nil {
		return err
	}
	reserve, err := e.loadReserve(p.Reserve)
	if err != nil {
		return err
	}
	if !reserve.LendingMarket.Equal(p.Market) {
		return ErrNotMatchLendingMarket
	}
	if !reserve.CollateralAccount.Equal(p.SourceCollateral) {
		return ErrNotMatchCollateralAccount
	}
	if !reserve.LiquidityOracle.Equal(p.OraclePrice) {
		return ErrInvalidOracleConfig
	}
	source, err := e.loadTokenAccount(p.SourceCollateral)
	if err != nil {
		return err
	}
	dest, err := e.loadTokenAccount(p.DestCollateral)
	if err != nil {
		return err
	}
	liquidityMint, err := e.loadMint(p.LiquidityMint)
	if err != nil {
		return err
	}
	collateralMint, err := e.loadMint(p.CollateralMint)
	if err != nil {
		return err
	}
	if !reserve.CollateralMint.Equal(p.CollateralMint) {
		return ErrNotMatchCollateralMint
	}
	if !reserve.LiquidityMint.Equal(p.LiquidityMint) {
		return ErrNotMatchCollateralMint
	}
	if !source.Mint.Equal(reserve.CollateralMint) {
		return ErrNotMatchCollateralMint
	}
	if !dest.Mint.Equal(reserve.CollateralMint) {
		return ErrNotMatchLiquidityMint
	}

	if p.Amount > source.Balance {
		return ErrNotEnoughCollateral
	}
	realAmount := p.Amount
	if realAmount > obligation.InputAmount {
		realAmount = obligation.InputAmount
	}
	remaining := obligation.InputAmount - realAmount

	if !borrowWithinLimit(
		obligation.OutputAmount, reserve.LiquidityMarketPrice, reserve.MaxBorrowRateDenominator,
		uint(liquidityMint.Decimals)+uint(reserve.LiquidityMarketPriceDecimals),
		remaining, reserve.CollateralMarketPrice, reserve.MaxBorrowRateNumerator,
		uint(collateralMint.Decimals)+uint(reserve.CollateralMarketPriceDecimals),
	) {
		return ErrInvalidBorrowRate
	}

	newTotal, err := checkedSub(reserve.TotalCollateral, realAmount)
	if err != nil {
		return err
	}

	if err := e.gateway.TransferWithAuthority(p.SourceCollateral, p.DestCollateral, reserve.authoritySeed(), realAmount); err != nil {
		return err
	}

	obligation.InputAmount = remaining
	reserve.TotalCollateral = newTotal
	if err := e.state.PutObligation(p.Obligation, obligation); err != nil {
		return err
	}
	return e.state.PutReserve(p.Reserve, reserve)
}

// BorrowLiquidityParams names the records involved in a borrow.
type BorrowLiquidityParams struct {
	Owner           crypto.Address
	Market          crypto.Address
	Reserve         crypto.Address
	Obligation      crypto.Address
	CollateralMint  crypto.Address
	LiquidityMint   crypto.Address
	SourceLiquidity crypto.Address
	DestLiquidity   crypto.Address
	OraclePrice     crypto.Address
	Amount          uint64
}

// BorrowLiquidity disburses liquidity from the reserve to the caller. The
// projected debt must satisfy the collateralization ceiling against the
// position's current collateral.
func (e *Engine) BorrowLiquidity(p BorrowLiquidityParams) error {
	if err := e.ready(); err != nil {
		return err
	}
	obligation, err := e.loadObligation(p.Obligation, p.Reserve, p.Owner, false)
	if err != nil {
		return err
	}
	reserve, err := e.loadReserve(p.Reserve)
	if err != nil {
		return err
	}
	if !reserve.LendingMarket.Equal(p.Market) {
		return ErrNotMatchLendingMarket
	}
	if !reserve.LiquidityAccount.Equal(p.SourceLiquidity) {
		return ErrNotMatchLiquidityAccount
	}
	if !reserve.LiquidityOracle.Equal(p.OraclePrice) {
		return ErrInvalidOracleConfig
	}
	source, err := e.loadTokenAccount(p.SourceLiquidity)
	if err != nil {
		return err
	}
	dest, err := e.loadTokenAccount(p.DestLiquidity)
	if err != nil {
		return err
	}
	liquidityMint, err := e.loadMint(p.LiquidityMint)
	if err != nil {
		return err
	}
	collateralMint, err := e.loadMint(p.CollateralMint)
	if err != nil {
		return err
	}
	if !reserve.CollateralMint.Equal(p.CollateralMint) {
		return ErrNotMatchCollateralMint
	}
	if !reserve.LiquidityMint.Equal(p.LiquidityMint) {
		return ErrNotMatchLiquidityMint
	}
	if !source.Mint.Equal(reserve.LiquidityMint) {
		return ErrNotMatchLiquidityMint
	}
	if !dest.Mint.Equal(reserve.LiquidityMint) {
		return ErrNotMatchLiquidityMint
	}

	if p.Amount > source.Balance {
		return ErrNotEnoughLiquidity
	}
	newOutput, err := checkedAdd(obligation.OutputAmount, p.Amount)
	if err != nil {
		return err
	}

	if !borrowWithinLimit(
		newOutput, reserve.LiquidityMarketPrice, reserve.MaxBorrowRateDenominator,
		uint(liquidityMint.Decimals)+uint(reserve.LiquidityMarketPriceDecimals),
		obligation.InputAmount, reserve.CollateralMarketPrice, reserve.MaxBorrowRateNumerator,
		uint(collateralMint.Decimals)+uint(reserve.CollateralMarketPriceDecimals),
	) {
		return ErrInvalidBorrowRate
	}

	newTotal, err := checkedAdd(reserve.TotalLiquidity, p.Amount)
	if err != nil {
		return err
	}

	if err := e.gateway.TransferWithAuthority(p.SourceLiquidity, p.DestLiquidity, reserve.authoritySeed(), p.Amount); err != nil {
		return err
	}

	obligation.OutputAmount = newOutput
	reserve.TotalLiquidity = newTotal
	if err := e.state.PutObligation(p.Obligation, obligation); err != nil {
		return err
	}
	return e.state.PutReserve(p.Reserve, reserve)
}

// RepayLiquidityParams names the records involved in a repayment.
type RepayLiquidityParams struct {
	Owner           crypto.Address
	Reserve         crypto.Address
	Obligation      crypto.Address
	SourceLiquidity crypto.Address
	DestLiquidity   crypto.Address
	Amount          uint64
}

// RepayLiquidity returns liquidity to the reserve. The offered amount is
// clamped to the outstanding debt; repayment can only improve the ratio, so
// no collateralization check is required.
func (e *Engine) RepayLiquidity(p RepayLiquidityParams) error {
	if err := e.ready(); err != nil {
		return err
	}
	obligation, err := e.loadObligation(p.Obligation, p.Reserve, p.Owner, true)
	if err != nil {
		return err
	}
	reserve, err := e.loadReserve(p.Reserve)
	if err != nil {
		return err
	}
	if !reserve.LiquidityAccount.Equal(p.DestLiquidity) {
		return ErrNotMatchLiquidityAccount
	}
	source, err := e.loadTokenAccount(p.SourceLiquidity)
	if err != nil {
		return err
	}
	dest, err := e.loadTokenAccount(p.DestLiquidity)
	if err != nil {
		return err
	}
	if !source.Mint.Equal(reserve.LiquidityMint) {
		return ErrNotMatchLiquidityMint
	}
	if !dest.Mint.Equal(reserve.LiquidityMint) {
		return ErrNotMatchLiquidityMint
	}

	realAmount := p.Amount
	if realAmount > obligation.OutputAmount {
		realAmount = obligation.OutputAmount
	}
	newTotal, err := checkedSub(reserve.TotalLiquidity, realAmount)
	if err != nil {
		return err
	}

	if err := e.gateway.TransferWithOwner(p.SourceLiquidity, p.DestLiquidity, p.Owner, realAmount); err != nil {
		return err
	}

	obligation.OutputAmount -= realAmount
	reserve.TotalLiquidity = newTotal
	if err := e.state.PutObligation(p.Obligation, obligation); err != nil {
		return err
	}
	return e.state.PutReserve(p.Reserve, reserve)
}

// RedeemReserveCollateralParams names the records for an operator-level
// collateral redemption.
type RedeemReserveCollateralParams struct {
	Owner            crypto.Address
	Market           crypto.Address
	Reserve          crypto.Address
	SourceCollateral crypto.Address
	DestCollateral   crypto.Address
	Amount           uint64
}

// RedeemReserveCollateral moves collateral out of a reserve's holding account
// under the market owner's direction. It bypasses per-position accounting:
// totals and obligations are untouched.
func (e *Engine) RedeemReserveCollateral(p RedeemReserveCollateralParams) error {
	if err := e.ready(); err != nil {
		return err
	}
	market, err := e.state.GetLendingMarket(p.Market)
	if err != nil {
		return err
	}
	if market == nil {
		return ErrUnknownMarket
	}
	if !market.Owner.Equal(p.Owner) {
		return ErrNotMatchOwnerAddress
	}
	reserve, err := e.loadReserve(p.Reserve)
	if err != nil {
		return err
	}
	if !reserve.LendingMarket.Equal(p.Market) {
		return ErrNotMatchLendingMarket
	}
	if !reserve.CollateralAccount.Equal(p.SourceCollateral) {
		return ErrNotMatchCollateralAccount
	}
	source, err := e.loadTokenAccount(p.SourceCollateral)
	if err != nil {
		return err
	}
	dest, err := e.loadTokenAccount(p.DestCollateral)
	if err != nil {
		return err
	}
	if !source.Mint.Equal(reserve.CollateralMint) {
		return ErrNotMatchCollateralMint
	}
	if !dest.Mint.Equal(reserve.CollateralMint) {
		return ErrNotMatchLiquidityMint
	}
	if source.Balance < p.Amount {
		return ErrNotEnoughCollateral
	}
	return e.gateway.TransferWithAuthority(p.SourceCollateral, p.DestCollateral, reserve.authoritySeed(), p.Amount)
}

// DepositReserveLiquidityParams names the records for an operator-level
// liquidity top-up.
type DepositReserveLiquidityParams struct {
	Owner           crypto.Address
	Reserve         crypto.Address
	SourceLiquidity crypto.Address
	DestLiquidity   crypto.Address
	Amount          uint64
}

// DepositReserveLiquidity moves liquidity into a reserve's holding account
// outside the per-position accounting.
func (e *Engine) DepositReserveLiquidity(p DepositReserveLiquidityParams) error {
	if err := e.ready(); err != nil {
		return err
	}
	reserve, err := e.loadReserve(p.Reserve)
	if err != nil {
		return err
	}
	if !reserve.LiquidityAccount.Equal(p.DestLiquidity) {
		return ErrNotMatchLiquidityAccount
	}
	source, err := e.loadTokenAccount(p.SourceLiquidity)
	if err != nil {
		return err
	}
	if !source.Mint.Equal(reserve.LiquidityMint) {
		return ErrNotMatchLiquidityMint
	}
	return e.gateway.TransferWithOwner(p.SourceLiquidity, p.DestLiquidity, p.Owner, p.Amount)
}

// GetObligation returns a copy of the obligation record.
func (e *Engine) GetObligation(addr crypto.Address) (*Obligation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	obligation, err := e.state.GetObligation(addr)
	if err != nil {
		return nil, err
	}
	if obligation == nil {
		return nil, ErrUnknownObligation
	}
	return obligation.Clone(), nil
}

// loadObligation fetches and structurally validates the obligation: its
// address must reproduce from the (reserve, owner) seed tuple and it must
// belong to the named reserve. checkOwner additionally enforces the recorded
// owner, matching the operations that require the owner's signature over the
// position itself.
func (e *Engine) loadObligation(addr, reserveAddr, owner crypto.Address, checkOwner bool) (*Obligation, error) {
	obligation, err := e.state.GetObligation(addr)
	if err != nil {
		return nil, err
	}
	if obligation == nil {
		return nil, ErrUnknownObligation
	}
	if !ObligationAddress(reserveAddr, owner).Equal(addr) {
		return nil, ErrDerivedKeyInvalid
	}
	if checkOwner && !obligation.Owner.Equal(owner) {
		return nil, ErrNotMatchOwnerAddress
	}
	if !obligation.Reserve.Equal(reserveAddr) {
		return nil, ErrNotMatchReserveAddress
	}
	return obligation.Clone(), nil
}

func (e *Engine) loadReserve(addr crypto.Address) (*Reserve, error) {
	reserve, err := e.state.GetReserve(addr)
	if err != nil {
		return nil, err
	}
	if reserve == nil {
		return nil, ErrUnknownReserve
	}
	return reserve.Clone(), nil
}

func (e *Engine) loadTokenAccount(addr crypto.Address) (*token.Account, error) {
	account, err := e.ledger.GetTokenAccount(addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", errUnknownTokens, addr)
	}
	return account, nil
}

func (e *Engine) loadMint(addr crypto.Address) (*token.Mint, error) {
	mint, err := e.ledger.GetTokenMint(addr)
	if err != nil {
		return nil, err
	}
	if mint == nil {
		return nil, fmt.Errorf("%w: %s", errUnknownMint, addr)
	}
	return mint, nil
}
