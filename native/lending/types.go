package lending

import (
	"math/big"

	"lendex/crypto"
	"lendex/native/token"
)

const moduleName = "lending"

// LendingMarket is the root record of one deployed market. The owner
// administers the market and its reserves; the oracle program identity scopes
// which price feeds the market's reserves will trust.
type LendingMarket struct {
	Owner           crypto.Address
	OracleProgramID crypto.Address
}

// Clone returns a copy of the market record.
func (m *LendingMarket) Clone() *LendingMarket {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Reserve is a market's bookkeeping unit for one collateral/liquidity asset
// pair. It is addressed deterministically by (market, collateral mint,
// liquidity mint) and its two holding accounts are permanently bound to the
// reserve's derived authority.
type Reserve struct {
	// IsLive is an activation flag. No operation currently gates on it;
	// it is informational only.
	IsLive        bool
	LendingMarket crypto.Address

	LiquidityMint    crypto.Address
	LiquidityAccount crypto.Address
	LiquidityOracle  crypto.Address

	CollateralMint    crypto.Address
	CollateralAccount crypto.Address

	// TotalLiquidity and TotalCollateral are running sums over all
	// obligations on this reserve. They are unsigned and must never
	// underflow.
	TotalLiquidity  uint64
	TotalCollateral uint64

	// MaxBorrowRateNumerator over MaxBorrowRateDenominator is the ceiling
	// on borrowed value relative to collateral value.
	MaxBorrowRateNumerator   uint64
	MaxBorrowRateDenominator uint64

	// Last price snapshot pulled by SetMarketPrice. The liquidity side
	// always comes live from the oracle; the collateral side is asserted
	// by the market owner.
	LiquidityMarketPrice          *big.Int
	LiquidityMarketPriceDecimals  uint8
	CollateralMarketPrice         *big.Int
	CollateralMarketPriceDecimals uint8

	// Bump is the derivation salt for the reserve's derived authority,
	// fixed at creation.
	Bump byte
}

// Clone returns a deep copy of the reserve record.
func (r *Reserve) Clone() *Reserve {
	if r == nil {
		return nil
	}
	clone := *r
	if r.LiquidityMarketPrice != nil {
		clone.LiquidityMarketPrice = new(big.Int).Set(r.LiquidityMarketPrice)
	}
	if r.CollateralMarketPrice != nil {
		clone.CollateralMarketPrice = new(big.Int).Set(r.CollateralMarketPrice)
	}
	return &clone
}

// authoritySeed rebuilds the seed tuple that derives this reserve's transfer
// authority.
func (r *Reserve) authoritySeed() token.AuthoritySeed {
	return token.AuthoritySeed{
		Market:         r.LendingMarket,
		CollateralMint: r.CollateralMint,
		LiquidityMint:  r.LiquidityMint,
		Bump:           r.Bump,
	}
}

// Obligation is one participant's open position against one reserve:
// InputAmount is collateral deposited and not yet withdrawn, OutputAmount is
// liquidity borrowed and not yet repaid. It is addressed deterministically by
// (reserve, owner).
type Obligation struct {
	Reserve      crypto.Address
	Owner        crypto.Address
	InputAmount  uint64
	OutputAmount uint64
	Bump         byte
}

// Clone returns a copy of the obligation record.
func (o *Obligation) Clone() *Obligation {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

// ReserveAddress derives the record identity for a reserve from its key
// tuple. Creation fails if the derived address is already occupied.
func ReserveAddress(market, collateralMint, liquidityMint crypto.Address) crypto.Address {
	return crypto.DeriveRecordAddress(market, collateralMint, liquidityMint)
}

// ObligationAddress derives the record identity for the (reserve, owner)
// position.
func ObligationAddress(reserve, owner crypto.Address) crypto.Address {
	return crypto.DeriveRecordAddress(reserve, owner)
}
