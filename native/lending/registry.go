package lending

import (
	"fmt"
	"math/big"

	"lendex/crypto"
	"lendex/native/oracle"
	"lendex/native/token"
)

type registryState interface {
	GetLendingMarket(addr crypto.Address) (*LendingMarket, error)
	PutLendingMarket(addr crypto.Address, market *LendingMarket) error
	GetReserve(addr crypto.Address) (*Reserve, error)
	PutReserve(addr crypto.Address, reserve *Reserve) error
	GetPriceRecord(addr crypto.Address) (*oracle.Record, error)
}

// Registry owns the LendingMarket and Reserve records: creation, ownership
// transfer, activation and configuration. Position accounting lives in the
// Engine.
type Registry struct {
	state  registryState
	ledger token.Ledger
}

// NewRegistry constructs an unwired registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetState wires the registry to the external persistence layer.
func (r *Registry) SetState(state registryState) {
	if r == nil {
		return
	}
	r.state = state
}

// SetLedger wires the registry to the external asset ledger.
func (r *Registry) SetLedger(ledger token.Ledger) {
	if r == nil {
		return
	}
	r.ledger = ledger
}

// InitLendingMarket creates the market record. The caller becomes the owner
// and the supplied identity becomes the only trusted price-feed issuer for
// the market's reserves.
func (r *Registry) InitLendingMarket(market, owner, oracleProgramID crypto.Address) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	existing, err := r.state.GetLendingMarket(market)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: market %s", ErrRecordExists, market)
	}
	return r.state.PutLendingMarket(market, &LendingMarket{
		Owner:           owner,
		OracleProgramID: oracleProgramID,
	})
}

// SetLendingMarketOwner hands the market to a new owner. Only the recorded
// owner may call it.
func (r *Registry) SetLendingMarketOwner(market, caller, newOwner crypto.Address) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	record, err := r.loadMarket(market, caller)
	if err != nil {
		return err
	}
	record.Owner = newOwner
	return r.state.PutLendingMarket(market, record)
}

// InitReserveParams names every record a new reserve is bound to.
type InitReserveParams struct {
	Market crypto.Address
	// Owner is the caller; it must match the market's recorded owner.
	Owner crypto.Address

	CollateralMint    crypto.Address
	CollateralAccount crypto.Address
	LiquidityMint     crypto.Address
	LiquidityAccount  crypto.Address
	OraclePrice       crypto.Address

	Bump                     byte
	MaxBorrowRateNumerator   uint64
	MaxBorrowRateDenominator uint64
}

// InitReserve creates a reserve for the (market, collateral mint, liquidity
// mint) triple. Both holding accounts must already be controlled by the
// reserve's derived authority, which guarantees the protocol and not any
// external party moves funds out of them.
func (r *Registry) InitReserve(p InitReserveParams) (crypto.Address, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, errNilState
	}
	if r.ledger == nil {
		return crypto.Address{}, errNilLedger
	}
	market, err := r.loadMarket(p.Market, p.Owner)
	if err != nil {
		return crypto.Address{}, err
	}

	reserveAddr := ReserveAddress(p.Market, p.CollateralMint, p.LiquidityMint)
	existing, err := r.state.GetReserve(reserveAddr)
	if err != nil {
		return crypto.Address{}, err
	}
	if existing != nil {
		return crypto.Address{}, fmt.Errorf("%w: reserve %s", ErrRecordExists, reserveAddr)
	}

	liquidityAccount, err := r.loadTokenAccount(p.LiquidityAccount)
	if err != nil {
		return crypto.Address{}, err
	}
	collateralAccount, err := r.loadTokenAccount(p.CollateralAccount)
	if err != nil {
		return crypto.Address{}, err
	}
	if _, err := r.loadMint(p.LiquidityMint); err != nil {
		return crypto.Address{}, err
	}
	if _, err := r.loadMint(p.CollateralMint); err != nil {
		return crypto.Address{}, err
	}

	if !liquidityAccount.Mint.Equal(p.LiquidityMint) {
		return crypto.Address{}, ErrNotMatchLiquidityMint
	}
	if !collateralAccount.Mint.Equal(p.CollateralMint) {
		return crypto.Address{}, ErrNotMatchCollateralMint
	}

	record, err := r.state.GetPriceRecord(p.OraclePrice)
	if err != nil {
		return crypto.Address{}, err
	}
	if record == nil || !record.Owner.Equal(market.OracleProgramID) {
		return crypto.Address{}, ErrInvalidOracleConfig
	}

	authority := crypto.DeriveAuthority(p.Market, p.CollateralMint, p.LiquidityMint, p.Bump)
	if !collateralAccount.Authority.Equal(authority) {
		return crypto.Address{}, ErrNotMatchCollateralAccount
	}
	if !liquidityAccount.Authority.Equal(authority) {
		return crypto.Address{}, ErrNotMatchLiquidityAccount
	}

	reserve := &Reserve{
		IsLive:                   false,
		LendingMarket:            p.Market,
		LiquidityMint:            p.LiquidityMint,
		LiquidityAccount:         p.LiquidityAccount,
		LiquidityOracle:          p.OraclePrice,
		CollateralMint:           p.CollateralMint,
		CollateralAccount:        p.CollateralAccount,
		TotalLiquidity:           0,
		TotalCollateral:          0,
		MaxBorrowRateNumerator:   p.MaxBorrowRateNumerator,
		MaxBorrowRateDenominator: p.MaxBorrowRateDenominator,
		LiquidityMarketPrice:     big.NewInt(0),
		CollateralMarketPrice:    big.NewInt(0),
		Bump:                     p.Bump,
	}
	if err := r.state.PutReserve(reserveAddr, reserve); err != nil {
		return crypto.Address{}, err
	}
	return reserveAddr, nil
}

// ReserveLiveControl flips the reserve's activation flag. The flag gates
// nothing today; it is recorded for operators and downstream consumers.
func (r *Registry) ReserveLiveControl(market, caller, reserveAddr crypto.Address, isLive bool) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if _, err := r.loadMarket(market, caller); err != nil {
		return err
	}
	reserve, err := r.loadReserve(reserveAddr)
	if err != nil {
		return err
	}
	if !reserve.LendingMarket.Equal(market) {
		return ErrNotMatchLendingMarket
	}
	reserve.IsLive = isLive
	return r.state.PutReserve(reserveAddr, reserve)
}

// SetBorrowRate overwrites the reserve's collateralization ceiling. Open
// positions are not re-validated retroactively.
func (r *Registry) SetBorrowRate(market, caller, reserveAddr crypto.Address, numerator, denominator uint64) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if _, err := r.loadMarket(market, caller); err != nil {
		return err
	}
	reserve, err := r.loadReserve(reserveAddr)
	if err != nil {
		return err
	}
	if !reserve.LendingMarket.Equal(market) {
		return ErrNotMatchLendingMarket
	}
	reserve.MaxBorrowRateNumerator = numerator
	reserve.MaxBorrowRateDenominator = denominator
	return r.state.PutReserve(reserveAddr, reserve)
}

// SetMarketPrice refreshes the reserve's price snapshot. The liquidity price
// always comes live from the oracle record; the collateral price is asserted
// by the caller.
func (r *Registry) SetMarketPrice(market, caller, reserveAddr, oraclePrice crypto.Address, collateralPrice *big.Int, collateralDecimals uint8) error {
	if r == nil || r.state == nil {
		return errNilState
	}
	if _, err := r.loadMarket(market, caller); err != nil {
		return err
	}
	reserve, err := r.loadReserve(reserveAddr)
	if err != nil {
		return err
	}
	if !reserve.LendingMarket.Equal(market) {
		return ErrNotMatchLendingMarket
	}
	if !reserve.LiquidityOracle.Equal(oraclePrice) {
		return ErrInvalidOracleConfig
	}
	if collateralPrice == nil || collateralPrice.Sign() < 0 {
		return errInvalidPrice
	}

	record, err := r.state.GetPriceRecord(oraclePrice)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrInvalidOracleConfig
	}
	aggregator, err := oracle.Decode(record.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOracleConfig, err)
	}
	price, decimals, err := aggregator.CurrentAnswer()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOracleConfig, err)
	}

	reserve.LiquidityMarketPrice = price
	reserve.LiquidityMarketPriceDecimals = decimals
	reserve.CollateralMarketPrice = new(big.Int).Set(collateralPrice)
	reserve.CollateralMarketPriceDecimals = collateralDecimals
	return r.state.PutReserve(reserveAddr, reserve)
}

// GetLendingMarket returns a copy of the market record.
func (r *Registry) GetLendingMarket(addr crypto.Address) (*LendingMarket, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	record, err := r.state.GetLendingMarket(addr)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrUnknownMarket
	}
	return record.Clone(), nil
}

// GetReserve returns a copy of the reserve record.
func (r *Registry) GetReserve(addr crypto.Address) (*Reserve, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	reserve, err := r.loadReserve(addr)
	if err != nil {
		return nil, err
	}
	return reserve.Clone(), nil
}

func (r *Registry) loadMarket(market, caller crypto.Address) (*LendingMarket, error) {
	record, err := r.state.GetLendingMarket(market)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrUnknownMarket
	}
	if !record.Owner.Equal(caller) {
		return nil, ErrNotMatchOwnerAddress
	}
	return record.Clone(), nil
}

func (r *Registry) loadReserve(addr crypto.Address) (*Reserve, error) {
	reserve, err := r.state.GetReserve(addr)
	if err != nil {
		return nil, err
	}
	if reserve == nil {
		return nil, ErrUnknownReserve
	}
	return reserve, nil
}

func (r *Registry) loadTokenAccount(addr crypto.Address) (*token.Account, error) {
	account, err := r.ledger.GetTokenAccount(addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", errUnknownTokens, addr)
	}
	return account, nil
}

func (r *Registry) loadMint(addr crypto.Address) (*token.Mint, error) {
	mint, err := r.ledger.GetTokenMint(addr)
	if err != nil {
		return nil, err
	}
	if mint == nil {
		return nil, fmt.Errorf("%w: %s", errUnknownMint, addr)
	}
	return mint, nil
}
