package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"lendex/crypto"
	"lendex/native/lending"
	"lendex/native/oracle"
	"lendex/native/token"
	"lendex/storage"
)

var (
	lendingMarketPrefix = []byte("lending/market/")
	reservePrefix       = []byte("lending/reserve/")
	obligationPrefix    = []byte("lending/obligation/")
	tokenAccountPrefix  = []byte("token/account/")
	tokenMintPrefix     = []byte("token/mint/")
	priceRecordPrefix   = []byte("oracle/record/")
)

// Manager persists every record type the lending core reads and writes. It
// backs the registry, the position engine and the transfer gateway with one
// key-value store, which is what makes a request's mutations land together.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// KVGet decodes the RLP value stored under key into out. It reports whether
// the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut RLP-encodes value and stores it under key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

func recordKey(prefix []byte, addr crypto.Address) []byte {
	key := make([]byte, 0, len(prefix)+crypto.AddressLength)
	key = append(key, prefix...)
	return append(key, addr.Bytes()...)
}

func toRaw(addr crypto.Address) [crypto.AddressLength]byte {
	var raw [crypto.AddressLength]byte
	copy(raw[:], addr.Bytes())
	return raw
}

func fromRaw(raw [crypto.AddressLength]byte) crypto.Address {
	return crypto.NewAddress(crypto.AccountPrefix, append([]byte(nil), raw[:]...))
}

// --- lending markets ---

type storedLendingMarket struct {
	Owner           [crypto.AddressLength]byte
	OracleProgramID [crypto.AddressLength]byte
}

func (m *Manager) GetLendingMarket(addr crypto.Address) (*lending.LendingMarket, error) {
	var stored storedLendingMarket
	ok, err := m.KVGet(recordKey(lendingMarketPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &lending.LendingMarket{
		Owner:           fromRaw(stored.Owner),
		OracleProgramID: fromRaw(stored.OracleProgramID),
	}, nil
}

func (m *Manager) PutLendingMarket(addr crypto.Address, market *lending.LendingMarket) error {
	if market == nil {
		return fmt.Errorf("state: market must not be nil")
	}
	stored := storedLendingMarket{
		Owner:           toRaw(market.Owner),
		OracleProgramID: toRaw(market.OracleProgramID),
	}
	return m.KVPut(recordKey(lendingMarketPrefix, addr), &stored)
}

// --- reserves ---

type storedReserve struct {
	IsLive        bool
	LendingMarket [crypto.AddressLength]byte

	LiquidityMint    [crypto.AddressLength]byte
	LiquidityAccount [crypto.AddressLength]byte
	LiquidityOracle  [crypto.AddressLength]byte

	CollateralMint    [crypto.AddressLength]byte
	CollateralAccount [crypto.AddressLength]byte

	TotalLiquidity  uint64
	TotalCollateral uint64

	MaxBorrowRateNumerator   uint64
	MaxBorrowRateDenominator uint64

	LiquidityMarketPrice          *big.Int
	LiquidityMarketPriceDecimals  uint8
	CollateralMarketPrice         *big.Int
	CollateralMarketPriceDecimals uint8

	Bump uint8
}

func (m *Manager) GetReserve(addr crypto.Address) (*lending.Reserve, error) {
	var stored storedReserve
	ok, err := m.KVGet(recordKey(reservePrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	reserve := &lending.Reserve{
		IsLive:                        stored.IsLive,
		LendingMarket:                 fromRaw(stored.LendingMarket),
		LiquidityMint:                 fromRaw(stored.LiquidityMint),
		LiquidityAccount:              fromRaw(stored.LiquidityAccount),
		LiquidityOracle:               fromRaw(stored.LiquidityOracle),
		CollateralMint:                fromRaw(stored.CollateralMint),
		CollateralAccount:             fromRaw(stored.CollateralAccount),
		TotalLiquidity:                stored.TotalLiquidity,
		TotalCollateral:               stored.TotalCollateral,
		MaxBorrowRateNumerator:        stored.MaxBorrowRateNumerator,
		MaxBorrowRateDenominator:      stored.MaxBorrowRateDenominator,
		LiquidityMarketPriceDecimals:  stored.LiquidityMarketPriceDecimals,
		CollateralMarketPriceDecimals: stored.CollateralMarketPriceDecimals,
		Bump:                          stored.Bump,
	}
	reserve.LiquidityMarketPrice = big.NewInt(0)
	if stored.LiquidityMarketPrice != nil {
		reserve.LiquidityMarketPrice.Set(stored.LiquidityMarketPrice)
	}
	reserve.CollateralMarketPrice = big.NewInt(0)
	if stored.CollateralMarketPrice != nil {
		reserve.CollateralMarketPrice.Set(stored.CollateralMarketPrice)
	}
	return reserve, nil
}

func (m *Manager) PutReserve(addr crypto.Address, reserve *lending.Reserve) error {
	if reserve == nil {
		return fmt.Errorf("state: reserve must not be nil")
	}
	stored := storedReserve{
		IsLive:                        reserve.IsLive,
		LendingMarket:                 toRaw(reserve.LendingMarket),
		LiquidityMint:                 toRaw(reserve.LiquidityMint),
		LiquidityAccount:              toRaw(reserve.LiquidityAccount),
		LiquidityOracle:               toRaw(reserve.LiquidityOracle),
		CollateralMint:                toRaw(reserve.CollateralMint),
		CollateralAccount:             toRaw(reserve.CollateralAccount),
		TotalLiquidity:                reserve.TotalLiquidity,
		TotalCollateral:               reserve.TotalCollateral,
		MaxBorrowRateNumerator:        reserve.MaxBorrowRateNumerator,
		MaxBorrowRateDenominator:      reserve.MaxBorrowRateDenominator,
		LiquidityMarketPrice:          zeroIfNil(reserve.LiquidityMarketPrice),
		LiquidityMarketPriceDecimals:  reserve.LiquidityMarketPriceDecimals,
		CollateralMarketPrice:         zeroIfNil(reserve.CollateralMarketPrice),
		CollateralMarketPriceDecimals: reserve.CollateralMarketPriceDecimals,
		Bump:                          reserve.Bump,
	}
	return m.KVPut(recordKey(reservePrefix, addr), &stored)
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// --- obligations ---

type storedObligation struct {
	Reserve      [crypto.AddressLength]byte
	Owner        [crypto.AddressLength]byte
	InputAmount  uint64
	OutputAmount uint64
	Bump         uint8
}

func (m *Manager) GetObligation(addr crypto.Address) (*lending.Obligation, error) {
	var stored storedObligation
	ok, err := m.KVGet(recordKey(obligationPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &lending.Obligation{
		Reserve:      fromRaw(stored.Reserve),
		Owner:        fromRaw(stored.Owner),
		InputAmount:  stored.InputAmount,
		OutputAmount: stored.OutputAmount,
		Bump:         stored.Bump,
	}, nil
}

func (m *Manager) PutObligation(addr crypto.Address, obligation *lending.Obligation) error {
	if obligation == nil {
		return fmt.Errorf("state: obligation must not be nil")
	}
	stored := storedObligation{
		Reserve:      toRaw(obligation.Reserve),
		Owner:        toRaw(obligation.Owner),
		InputAmount:  obligation.InputAmount,
		OutputAmount: obligation.OutputAmount,
		Bump:         obligation.Bump,
	}
	return m.KVPut(recordKey(obligationPrefix, addr), &stored)
}

// --- token ledger ---

type storedTokenAccount struct {
	Mint      [crypto.AddressLength]byte
	Authority [crypto.AddressLength]byte
	Balance   uint64
	Frozen    bool
}

func (m *Manager) GetTokenAccount(addr crypto.Address) (*token.Account, error) {
	var stored storedTokenAccount
	ok, err := m.KVGet(recordKey(tokenAccountPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &token.Account{
		Mint:      fromRaw(stored.Mint),
		Authority: fromRaw(stored.Authority),
		Balance:   stored.Balance,
		Frozen:    stored.Frozen,
	}, nil
}

func (m *Manager) PutTokenAccount(addr crypto.Address, account *token.Account) error {
	if account == nil {
		return fmt.Errorf("state: token account must not be nil")
	}
	stored := storedTokenAccount{
		Mint:      toRaw(account.Mint),
		Authority: toRaw(account.Authority),
		Balance:   account.Balance,
		Frozen:    account.Frozen,
	}
	return m.KVPut(recordKey(tokenAccountPrefix, addr), &stored)
}

type storedTokenMint struct {
	Decimals uint8
}

func (m *Manager) GetTokenMint(addr crypto.Address) (*token.Mint, error) {
	var stored storedTokenMint
	ok, err := m.KVGet(recordKey(tokenMintPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &token.Mint{Decimals: stored.Decimals}, nil
}

func (m *Manager) PutTokenMint(addr crypto.Address, mint *token.Mint) error {
	if mint == nil {
		return fmt.Errorf("state: token mint must not be nil")
	}
	return m.KVPut(recordKey(tokenMintPrefix, addr), &storedTokenMint{Decimals: mint.Decimals})
}

// --- oracle records ---

type storedPriceRecord struct {
	Owner [crypto.AddressLength]byte
	Data  []byte
}

func (m *Manager) GetPriceRecord(addr crypto.Address) (*oracle.Record, error) {
	var stored storedPriceRecord
	ok, err := m.KVGet(recordKey(priceRecordPrefix, addr), &stored)
	if err != nil || !ok {
		return nil, err
	}
	return &oracle.Record{
		Owner: fromRaw(stored.Owner),
		Data:  append([]byte(nil), stored.Data...),
	}, nil
}

func (m *Manager) PutPriceRecord(addr crypto.Address, record *oracle.Record) error {
	if record == nil {
		return fmt.Errorf("state: price record must not be nil")
	}
	stored := storedPriceRecord{
		Owner: toRaw(record.Owner),
		Data:  append([]byte(nil), record.Data...),
	}
	return m.KVPut(recordKey(priceRecordPrefix, addr), &stored)
}
