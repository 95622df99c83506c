package lending

import (
	"math/big"
	"testing"

	"lendex/crypto"
	"lendex/native/oracle"
	"lendex/native/token"
)

type stubPauseView struct {
	modules map[string]bool
}

func (s stubPauseView) IsPaused(module string) bool {
	if s.modules == nil {
		return false
	}
	return s.modules[module]
}

type mockState struct {
	markets     map[string]*LendingMarket
	reserves    map[string]*Reserve
	obligations map[string]*Obligation
	accounts    map[string]*token.Account
	mints       map[string]*token.Mint
	records     map[string]*oracle.Record
}

func newMockState() *mockState {
	return &mockState{
		markets:     make(map[string]*LendingMarket),
		reserves:    make(map[string]*Reserve),
		obligations: make(map[string]*Obligation),
		accounts:    make(map[string]*token.Account),
		mints:       make(map[string]*token.Mint),
		records:     make(map[string]*oracle.Record),
	}
}

func (m *mockState) key(addr crypto.Address) string { return string(addr.Bytes()) }

func (m *mockState) GetLendingMarket(addr crypto.Address) (*LendingMarket, error) {
	return m.markets[m.key(addr)].Clone(), nil
}

func (m *mockState) PutLendingMarket(addr crypto.Address, market *LendingMarket) error {
	m.markets[m.key(addr)] = market.Clone()
	return nil
}

func (m *mockState) GetReserve(addr crypto.Address) (*Reserve, error) {
	return m.reserves[m.key(addr)].Clone(), nil
}

func (m *mockState) PutReserve(addr crypto.Address, reserve *Reserve) error {
	m.reserves[m.key(addr)] = reserve.Clone()
	return nil
}

func (m *mockState) GetObligation(addr crypto.Address) (*Obligation, error) {
	return m.obligations[m.key(addr)].Clone(), nil
}

func (m *mockState) PutObligation(addr crypto.Address, obligation *Obligation) error {
	m.obligations[m.key(addr)] = obligation.Clone()
	return nil
}

func (m *mockState) GetPriceRecord(addr crypto.Address) (*oracle.Record, error) {
	return m.records[m.key(addr)].Clone(), nil
}

func (m *mockState) GetTokenAccount(addr crypto.Address) (*token.Account, error) {
	return m.accounts[m.key(addr)].Clone(), nil
}

func (m *mockState) PutTokenAccount(addr crypto.Address, account *token.Account) error {
	m.accounts[m.key(addr)] = account.Clone()
	return nil
}

func (m *mockState) GetTokenMint(addr crypto.Address) (*token.Mint, error) {
	return m.mints[m.key(addr)].Clone(), nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = suffix
	return crypto.NewAddress(crypto.AccountPrefix, raw)
}

func encodedFeed(owner crypto.Address, answer int64, decimals uint8) []byte {
	agg := &oracle.Aggregator{
		Initialized: true,
		Version:     1,
		UpdatedAt:   1_700_000_000,
		Owner:       owner,
		Answer:      big.NewInt(answer),
	}
	agg.Config.Decimals = decimals
	return oracle.Encode(agg)
}

// fixture assembles one market with one reserve over a collateral/liquidity
// mint pair, holding accounts already bound to the derived authority, and a
// price feed answering 100 for the liquidity asset.
type fixture struct {
	state    *mockState
	registry *Registry
	engine   *Engine

	market      crypto.Address
	marketOwner crypto.Address
	oracleID    crypto.Address
	oracleFeed  crypto.Address

	collateralMint    crypto.Address
	collateralAccount crypto.Address
	liquidityMint     crypto.Address
	liquidityAccount  crypto.Address

	reserve crypto.Address
	bump    byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		state:             newMockState(),
		market:            makeAddress(0x01),
		marketOwner:       makeAddress(0x02),
		oracleID:          makeAddress(0x03),
		oracleFeed:        makeAddress(0x04),
		collateralMint:    makeAddress(0x05),
		collateralAccount: makeAddress(0x06),
		liquidityMint:     makeAddress(0x07),
		liquidityAccount:  makeAddress(0x08),
		bump:              7,
	}

	gateway := token.NewGateway(f.state)
	f.registry = NewRegistry()
	f.registry.SetState(f.state)
	f.registry.SetLedger(f.state)
	f.engine = NewEngine()
	f.engine.SetState(f.state)
	f.engine.SetLedger(f.state)
	f.engine.SetGateway(gateway)

	f.state.mints[f.state.key(f.collateralMint)] = &token.Mint{Decimals: 0}
	f.state.mints[f.state.key(f.liquidityMint)] = &token.Mint{Decimals: 0}

	authority := crypto.DeriveAuthority(f.market, f.collateralMint, f.liquidityMint, f.bump)
	f.state.accounts[f.state.key(f.collateralAccount)] = &token.Account{
		Mint:      f.collateralMint,
		Authority: authority,
	}
	f.state.accounts[f.state.key(f.liquidityAccount)] = &token.Account{
		Mint:      f.liquidityMint,
		Authority: authority,
		Balance:   1_000,
	}

	f.state.records[f.state.key(f.oracleFeed)] = &oracle.Record{
		Owner: f.oracleID,
		Data:  encodedFeed(f.oracleID, 100, 0),
	}

	if err := f.registry.InitLendingMarket(f.market, f.marketOwner, f.oracleID); err != nil {
		t.Fatalf("init market: %v", err)
	}
	reserveAddr, err := f.registry.InitReserve(InitReserveParams{
		Market:                   f.market,
		Owner:                    f.marketOwner,
		CollateralMint:           f.collateralMint,
		CollateralAccount:        f.collateralAccount,
		LiquidityMint:            f.liquidityMint,
		LiquidityAccount:         f.liquidityAccount,
		OraclePrice:              f.oracleFeed,
		Bump:                     f.bump,
		MaxBorrowRateNumerator:   1,
		MaxBorrowRateDenominator: 2,
	})
	if err != nil {
		t.Fatalf("init reserve: %v", err)
	}
	f.reserve = reserveAddr

	// Liquidity answers 100 from the feed; collateral is asserted at 50.
	if err := f.registry.SetMarketPrice(f.market, f.marketOwner, f.reserve, f.oracleFeed, big.NewInt(50), 0); err != nil {
		t.Fatalf("set market price: %v", err)
	}
	return f
}

// newUserAccounts provisions a participant with personal collateral and
// liquidity accounts and returns (owner, collateral, liquidity).
func (f *fixture) newUserAccounts(suffix byte, collateralBalance, liquidityBalance uint64) (crypto.Address, crypto.Address, crypto.Address) {
	owner := makeAddress(0xA0 + suffix)
	collateral := makeAddress(0xB0 + suffix)
	liquidity := makeAddress(0xC0 + suffix)
	f.state.accounts[f.state.key(collateral)] = &token.Account{
		Mint:      f.collateralMint,
		Authority: owner,
		Balance:   collateralBalance,
	}
	f.state.accounts[f.state.key(liquidity)] = &token.Account{
		Mint:      f.liquidityMint,
		Authority: owner,
		Balance:   liquidityBalance,
	}
	return owner, collateral, liquidity
}

func (f *fixture) accountBalance(t *testing.T, addr crypto.Address) uint64 {
	t.Helper()
	account := f.state.accounts[f.state.key(addr)]
	if account == nil {
		t.Fatalf("unknown account %s", addr)
	}
	return account.Balance
}

func (f *fixture) reserveRecord(t *testing.T) *Reserve {
	t.Helper()
	reserve := f.state.reserves[f.state.key(f.reserve)]
	if reserve == nil {
		t.Fatalf("reserve record missing")
	}
	return reserve
}
