package state

import (
	"math/big"
	"testing"

	"lendex/crypto"
	"lendex/native/lending"
	"lendex/native/oracle"
	"lendex/native/token"
	"lendex/storage"
)

func managerAddress(suffix byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[2] = suffix
	return crypto.NewAddress(crypto.AccountPrefix, raw)
}

func TestMissingRecordsReturnNil(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := managerAddress(1)

	if market, err := m.GetLendingMarket(addr); err != nil || market != nil {
		t.Fatalf("expected nil market, got %v, %v", market, err)
	}
	if reserve, err := m.GetReserve(addr); err != nil || reserve != nil {
		t.Fatalf("expected nil reserve, got %v, %v", reserve, err)
	}
	if obligation, err := m.GetObligation(addr); err != nil || obligation != nil {
		t.Fatalf("expected nil obligation, got %v, %v", obligation, err)
	}
	if account, err := m.GetTokenAccount(addr); err != nil || account != nil {
		t.Fatalf("expected nil account, got %v, %v", account, err)
	}
}

func TestLendingMarketPersistence(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := managerAddress(1)
	market := &lending.LendingMarket{
		Owner:           managerAddress(2),
		OracleProgramID: managerAddress(3),
	}
	if err := m.PutLendingMarket(addr, market); err != nil {
		t.Fatalf("put market: %v", err)
	}
	loaded, err := m.GetLendingMarket(addr)
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if !loaded.Owner.Equal(market.Owner) || !loaded.OracleProgramID.Equal(market.OracleProgramID) {
		t.Fatalf("market mismatch: %+v", loaded)
	}
}

func TestReservePersistence(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := managerAddress(1)
	reserve := &lending.Reserve{
		IsLive:                        true,
		LendingMarket:                 managerAddress(2),
		LiquidityMint:                 managerAddress(3),
		LiquidityAccount:              managerAddress(4),
		LiquidityOracle:               managerAddress(5),
		CollateralMint:                managerAddress(6),
		CollateralAccount:             managerAddress(7),
		TotalLiquidity:                11,
		TotalCollateral:               22,
		MaxBorrowRateNumerator:        1,
		MaxBorrowRateDenominator:      2,
		LiquidityMarketPrice:          big.NewInt(123_456),
		LiquidityMarketPriceDecimals:  4,
		CollateralMarketPrice:         big.NewInt(789),
		CollateralMarketPriceDecimals: 2,
		Bump:                          9,
	}
	if err := m.PutReserve(addr, reserve); err != nil {
		t.Fatalf("put reserve: %v", err)
	}
	loaded, err := m.GetReserve(addr)
	if err != nil {
		t.Fatalf("get reserve: %v", err)
	}
	if !loaded.IsLive || loaded.TotalLiquidity != 11 || loaded.TotalCollateral != 22 {
		t.Fatalf("reserve scalar mismatch: %+v", loaded)
	}
	if !loaded.LiquidityAccount.Equal(reserve.LiquidityAccount) || !loaded.CollateralAccount.Equal(reserve.CollateralAccount) {
		t.Fatalf("reserve account mismatch: %+v", loaded)
	}
	if loaded.LiquidityMarketPrice.Cmp(reserve.LiquidityMarketPrice) != 0 || loaded.LiquidityMarketPriceDecimals != 4 {
		t.Fatalf("liquidity price mismatch: %s/%d", loaded.LiquidityMarketPrice, loaded.LiquidityMarketPriceDecimals)
	}
	if loaded.CollateralMarketPrice.Cmp(reserve.CollateralMarketPrice) != 0 || loaded.CollateralMarketPriceDecimals != 2 {
		t.Fatalf("collateral price mismatch: %s/%d", loaded.CollateralMarketPrice, loaded.CollateralMarketPriceDecimals)
	}
	if loaded.Bump != 9 {
		t.Fatalf("bump mismatch: %d", loaded.Bump)
	}
}

func TestReserveNilPricesStoredAsZero(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := managerAddress(1)
	if err := m.PutReserve(addr, &lending.Reserve{}); err != nil {
		t.Fatalf("put reserve: %v", err)
	}
	loaded, err := m.GetReserve(addr)
	if err != nil {
		t.Fatalf("get reserve: %v", err)
	}
	if loaded.LiquidityMarketPrice == nil || loaded.LiquidityMarketPrice.Sign() != 0 {
		t.Fatalf("expected zero liquidity price, got %v", loaded.LiquidityMarketPrice)
	}
	if loaded.CollateralMarketPrice == nil || loaded.CollateralMarketPrice.Sign() != 0 {
		t.Fatalf("expected zero collateral price, got %v", loaded.CollateralMarketPrice)
	}
}

func TestObligationAndTokenPersistence(t *testing.T) {
	m := NewManager(storage.NewMemDB())

	obligationAddr := managerAddress(1)
	obligation := &lending.Obligation{
		Reserve:      managerAddress(2),
		Owner:        managerAddress(3),
		InputAmount:  77,
		OutputAmount: 33,
		Bump:         5,
	}
	if err := m.PutObligation(obligationAddr, obligation); err != nil {
		t.Fatalf("put obligation: %v", err)
	}
	loadedObligation, err := m.GetObligation(obligationAddr)
	if err != nil {
		t.Fatalf("get obligation: %v", err)
	}
	if loadedObligation.InputAmount != 77 || loadedObligation.OutputAmount != 33 || loadedObligation.Bump != 5 {
		t.Fatalf("obligation mismatch: %+v", loadedObligation)
	}

	accountAddr := managerAddress(4)
	account := &token.Account{
		Mint:      managerAddress(5),
		Authority: managerAddress(6),
		Balance:   1_000,
		Frozen:    true,
	}
	if err := m.PutTokenAccount(accountAddr, account); err != nil {
		t.Fatalf("put account: %v", err)
	}
	loadedAccount, err := m.GetTokenAccount(accountAddr)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if loadedAccount.Balance != 1_000 || !loadedAccount.Frozen || !loadedAccount.Mint.Equal(account.Mint) {
		t.Fatalf("account mismatch: %+v", loadedAccount)
	}

	mintAddr := managerAddress(7)
	if err := m.PutTokenMint(mintAddr, &token.Mint{Decimals: 6}); err != nil {
		t.Fatalf("put mint: %v", err)
	}
	mint, err := m.GetTokenMint(mintAddr)
	if err != nil {
		t.Fatalf("get mint: %v", err)
	}
	if mint.Decimals != 6 {
		t.Fatalf("mint mismatch: %+v", mint)
	}
}

func TestPriceRecordPersistence(t *testing.T) {
	m := NewManager(storage.NewMemDB())
	addr := managerAddress(1)
	record := &oracle.Record{
		Owner: managerAddress(2),
		Data:  []byte{1, 2, 3, 4},
	}
	if err := m.PutPriceRecord(addr, record); err != nil {
		t.Fatalf("put record: %v", err)
	}
	loaded, err := m.GetPriceRecord(addr)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if !loaded.Owner.Equal(record.Owner) || len(loaded.Data) != 4 {
		t.Fatalf("record mismatch: %+v", loaded)
	}
	// The byte slice must be detached from the stored copy.
	loaded.Data[0] = 0xFF
	again, err := m.GetPriceRecord(addr)
	if err != nil {
		t.Fatalf("reload record: %v", err)
	}
	if again.Data[0] != 1 {
		t.Fatalf("record data aliased: %v", again.Data)
	}
}
