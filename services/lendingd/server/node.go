package server

import (
	"math/big"
	"sync"
	"time"

	"lendex/crypto"
	nativecommon "lendex/native/common"
	"lendex/native/lending"
	"lendex/native/oracle"
	"lendex/native/token"
	"lendex/observability"
	"lendex/state"
	"lendex/storage"
)

// Node binds the registry, the position engine and the transfer gateway to
// one state manager and executes every request under a single lock. That
// serial execution is what gives each request the atomicity the core
// assumes: no two requests touch the same reserve or obligation
// concurrently.
type Node struct {
	mu       sync.Mutex
	state    *state.Manager
	registry *lending.Registry
	engine   *lending.Engine
	gateway  *token.Gateway
	metrics  *observability.LendingMetrics
}

// StaticPauses is a fixed pause set loaded from configuration.
type StaticPauses map[string]bool

// IsPaused reports whether the module is halted.
func (p StaticPauses) IsPaused(module string) bool { return p[module] }

// NewNode wires a node over the provided database.
func NewNode(db storage.Database, pauses nativecommon.PauseView) *Node {
	manager := state.NewManager(db)
	gateway := token.NewGateway(manager)

	registry := lending.NewRegistry()
	registry.SetState(manager)
	registry.SetLedger(manager)

	engine := lending.NewEngine()
	engine.SetState(manager)
	engine.SetLedger(manager)
	engine.SetGateway(gateway)
	engine.SetPauses(pauses)

	return &Node{
		state:    manager,
		registry: registry,
		engine:   engine,
		gateway:  gateway,
		metrics:  observability.Lending(),
	}
}

func (n *Node) observe(operation string, fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	start := time.Now()
	err := fn()
	n.metrics.Observe(operation, start, err)
	return err
}

// --- registry operations ---

func (n *Node) InitLendingMarket(market, owner, oracleProgramID crypto.Address) error {
	return n.observe("init_lending_market", func() error {
		return n.registry.InitLendingMarket(market, owner, oracleProgramID)
	})
}

func (n *Node) SetLendingMarketOwner(market, caller, newOwner crypto.Address) error {
	return n.observe("set_lending_market_owner", func() error {
		return n.registry.SetLendingMarketOwner(market, caller, newOwner)
	})
}

func (n *Node) InitReserve(p lending.InitReserveParams) (crypto.Address, error) {
	var addr crypto.Address
	err := n.observe("init_reserve", func() error {
		var innerErr error
		addr, innerErr = n.registry.InitReserve(p)
		return innerErr
	})
	return addr, err
}

func (n *Node) ReserveLiveControl(market, caller, reserve crypto.Address, isLive bool) error {
	return n.observe("reserve_live_control", func() error {
		return n.registry.ReserveLiveControl(market, caller, reserve, isLive)
	})
}

func (n *Node) SetBorrowRate(market, caller, reserve crypto.Address, numerator, denominator uint64) error {
	return n.observe("set_borrow_rate", func() error {
		return n.registry.SetBorrowRate(market, caller, reserve, numerator, denominator)
	})
}

func (n *Node) SetMarketPrice(market, caller, reserve, oraclePrice crypto.Address, collateralPrice *big.Int, collateralDecimals uint8) error {
	return n.observe("set_market_price", func() error {
		return n.registry.SetMarketPrice(market, caller, reserve, oraclePrice, collateralPrice, collateralDecimals)
	})
}

// --- position operations ---

func (n *Node) InitObligation(reserve, owner crypto.Address, bump byte) (crypto.Address, error) {
	var addr crypto.Address
	err := n.observe("init_obligation", func() error {
		var innerErr error
		addr, innerErr = n.engine.InitObligation(reserve, owner, bump)
		return innerErr
	})
	return addr, err
}

func (n *Node) DepositCollateral(p lending.DepositCollateralParams) error {
	return n.observe("deposit_collateral", func() error { return n.engine.DepositCollateral(p) })
}

func (n *Node) WithdrawCollateral(p lending.WithdrawCollateralParams) error {
	return n.observe("withdraw_collateral", func() error { return n.engine.WithdrawCollateral(p) })
}

func (n *Node) BorrowLiquidity(p lending.BorrowLiquidityParams) error {
	return n.observe("borrow_liquidity", func() error { return n.engine.BorrowLiquidity(p) })
}

func (n *Node) RepayLiquidity(p lending.RepayLiquidityParams) error {
	return n.observe("repay_liquidity", func() error { return n.engine.RepayLiquidity(p) })
}

func (n *Node) RedeemReserveCollateral(p lending.RedeemReserveCollateralParams) error {
	return n.observe("redeem_reserve_collateral", func() error { return n.engine.RedeemReserveCollateral(p) })
}

func (n *Node) DepositReserveLiquidity(p lending.DepositReserveLiquidityParams) error {
	return n.observe("deposit_reserve_liquidity", func() error { return n.engine.DepositReserveLiquidity(p) })
}

// --- queries ---

func (n *Node) GetLendingMarket(addr crypto.Address) (*lending.LendingMarket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.GetLendingMarket(addr)
}

func (n *Node) GetReserve(addr crypto.Address) (*lending.Reserve, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.GetReserve(addr)
}

func (n *Node) GetObligation(addr crypto.Address) (*lending.Obligation, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.GetObligation(addr)
}

// --- provisioning of external collaborator records ---

func (n *Node) CreateTokenMint(addr crypto.Address, decimals uint8) error {
	return n.observe("create_token_mint", func() error {
		return n.state.PutTokenMint(addr, &token.Mint{Decimals: decimals})
	})
}

func (n *Node) CreateTokenAccount(addr crypto.Address, account *token.Account) error {
	return n.observe("create_token_account", func() error {
		return n.state.PutTokenAccount(addr, account)
	})
}

func (n *Node) SetTokenAuthority(account, current, next crypto.Address) error {
	return n.observe("set_token_authority", func() error {
		return n.gateway.SetAuthority(account, current, next)
	})
}

func (n *Node) PublishPriceRecord(addr crypto.Address, record *oracle.Record) error {
	return n.observe("publish_price_record", func() error {
		return n.state.PutPriceRecord(addr, record)
	})
}
