package lending

import "errors"

// Every structural or economic check has its own reportable failure. All of
// them abort the request before any transfer or bookkeeping mutation.
var (
	// ErrInvalidOracleConfig covers price-feed records with the wrong
	// identity or issuer, and records that cannot be decoded or carry no
	// current answer.
	ErrInvalidOracleConfig = errors.New("lending: invalid oracle config")
	// ErrMathOverflow is returned when a counter update would wrap its
	// 64-bit width.
	ErrMathOverflow = errors.New("lending: math operation overflow")
	// ErrNotMatchLiquidityAccount flags a holding record that is not the
	// reserve's registered liquidity account.
	ErrNotMatchLiquidityAccount = errors.New("lending: not match liquidity account")
	// ErrNotMatchLiquidityMint flags a token account bound to the wrong
	// liquidity asset.
	ErrNotMatchLiquidityMint = errors.New("lending: not match liquidity mint")
	// ErrNotMatchOwnerAddress is returned when the caller is not the
	// recorded owner of the record being administered.
	ErrNotMatchOwnerAddress = errors.New("lending: not match owner address")
	// ErrNotMatchCollateralMint flags a token account bound to the wrong
	// collateral asset.
	ErrNotMatchCollateralMint = errors.New("lending: not match collateral mint")
	// ErrNotMatchCollateralAccount flags a holding record that is not the
	// reserve's registered collateral account.
	ErrNotMatchCollateralAccount = errors.New("lending: not match collateral account")
	// ErrNotMatchReserveAddress is returned when an obligation does not
	// belong to the named reserve.
	ErrNotMatchReserveAddress = errors.New("lending: not match reserve address")
	// ErrNotEnoughLiquidity means the requested borrow exceeds the
	// liquidity record's actual balance.
	ErrNotEnoughLiquidity = errors.New("lending: not enough liquidity")
	// ErrInvalidBorrowRate means the collateralization inequality would be
	// violated after the operation.
	ErrInvalidBorrowRate = errors.New("lending: invalid borrow rate")
	// ErrNotEnoughCollateral means the requested withdrawal exceeds the
	// collateral record's actual balance.
	ErrNotEnoughCollateral = errors.New("lending: not enough collateral")
	// ErrNotMatchLendingMarket is returned when a reserve does not belong
	// to the named market.
	ErrNotMatchLendingMarket = errors.New("lending: not match lending market")
	// ErrDerivedKeyInvalid is returned when a caller-supplied record
	// address does not reproduce from its seed tuple.
	ErrDerivedKeyInvalid = errors.New("lending: derived key invalid")
	// ErrRecordExists is returned when creating a record whose address is
	// already occupied.
	ErrRecordExists = errors.New("lending: record already exists")

	// ErrUnknownMarket, ErrUnknownReserve and ErrUnknownObligation flag
	// references to records that do not exist in state.
	ErrUnknownMarket     = errors.New("lending: unknown lending market")
	ErrUnknownReserve    = errors.New("lending: unknown reserve")
	ErrUnknownObligation = errors.New("lending: unknown obligation")
)

var (
	errNilState      = errors.New("lending engine: state not configured")
	errNilLedger     = errors.New("lending engine: ledger not configured")
	errNilGateway    = errors.New("lending engine: transfer gateway not configured")
	errInvalidPrice  = errors.New("lending: price must not be negative")
	errUnknownTokens = errors.New("lending: token account not found")
	errUnknownMint   = errors.New("lending: token mint not found")
)
