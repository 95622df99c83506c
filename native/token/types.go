package token

import "lendex/crypto"

// Account is one asset-holding record on the external ledger. Balance moves
// only through the Gateway, and only when the recorded Authority matches the
// party authorising the move.
type Account struct {
	// Mint identifies the asset this account holds.
	Mint crypto.Address
	// Authority is the principal allowed to move funds out of the account.
	// For reserve-held accounts this is a derived authority, not a keyed
	// principal.
	Authority crypto.Address
	// Balance is the current holding, denominated in the mint's base units.
	Balance uint64
	// Frozen blocks all outgoing transfers while set.
	Frozen bool
}

// Clone returns a copy so callers cannot mutate ledger-held state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// Mint describes an asset type. Only the decimal scale matters to the lending
// core; supply management belongs to the external ledger.
type Mint struct {
	// Decimals is the base-10 scale of one whole unit.
	Decimals uint8
}

// Clone returns a copy of the mint record.
func (m *Mint) Clone() *Mint {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}
