package token

import (
	"errors"
	"fmt"

	"lendex/crypto"
)

var (
	// ErrTransferFailed covers every reason the ledger rejects a move:
	// unknown accounts, mismatched authority, frozen accounts, insufficient
	// balance or a balance that would overflow on credit.
	ErrTransferFailed = errors.New("token: transfer failed")
	// ErrSetAuthorityFailed is returned when reassigning an account's
	// controlling authority is rejected.
	ErrSetAuthorityFailed = errors.New("token: set authority failed")

	errNilLedger = errors.New("token gateway: ledger not configured")
)

// Ledger abstracts the external asset ledger the gateway moves value on.
type Ledger interface {
	GetTokenAccount(addr crypto.Address) (*Account, error)
	PutTokenAccount(addr crypto.Address, account *Account) error
	GetTokenMint(addr crypto.Address) (*Mint, error)
}

// AuthoritySeed is the tuple a reserve's derived authority is recomputed from.
// Every program-authorized transfer re-derives the authority from these seeds
// rather than trusting any stored identity.
type AuthoritySeed struct {
	Market         crypto.Address
	CollateralMint crypto.Address
	LiquidityMint  crypto.Address
	Bump           byte
}

// Derive returns the authority identity for the seed tuple.
func (s AuthoritySeed) Derive() crypto.Address {
	return crypto.DeriveAuthority(s.Market, s.CollateralMint, s.LiquidityMint, s.Bump)
}

// Gateway is the sole path by which value moves between asset-holding
// records. It distinguishes transfers authorized by a keyed principal from
// transfers authorized by a reserve's deterministic derived authority.
type Gateway struct {
	ledger Ledger
}

// NewGateway constructs a gateway bound to the provided ledger.
func NewGateway(ledger Ledger) *Gateway {
	return &Gateway{ledger: ledger}
}

// TransferWithOwner moves amount from source to destination under the
// authority of a keyed principal. The principal must be the authority
// recorded on the source account.
func (g *Gateway) TransferWithOwner(source, destination, owner crypto.Address, amount uint64) error {
	if g == nil || g.ledger == nil {
		return errNilLedger
	}
	src, dst, err := g.loadPair(source, destination)
	if err != nil {
		return err
	}
	if !src.Authority.Equal(owner) {
		return fmt.Errorf("%w: source authority mismatch", ErrTransferFailed)
	}
	return g.move(source, destination, src, dst, amount)
}

// TransferWithAuthority moves amount from source to destination under a
// reserve's derived authority. The authority is recomputed from the seed
// tuple on every call; a mismatched tuple derives a different identity and
// the transfer is rejected.
func (g *Gateway) TransferWithAuthority(source, destination crypto.Address, seed AuthoritySeed, amount uint64) error {
	if g == nil || g.ledger == nil {
		return errNilLedger
	}
	src, dst, err := g.loadPair(source, destination)
	if err != nil {
		return err
	}
	if !src.Authority.Equal(seed.Derive()) {
		return fmt.Errorf("%w: derived authority mismatch", ErrTransferFailed)
	}
	return g.move(source, destination, src, dst, amount)
}

// SetAuthority reassigns the controlling authority of an account. The current
// authority must sign off on the change.
func (g *Gateway) SetAuthority(account, current, next crypto.Address) error {
	if g == nil || g.ledger == nil {
		return errNilLedger
	}
	acct, err := g.ledger.GetTokenAccount(account)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetAuthorityFailed, err)
	}
	if acct == nil {
		return fmt.Errorf("%w: unknown account %s", ErrSetAuthorityFailed, account)
	}
	if !acct.Authority.Equal(current) {
		return fmt.Errorf("%w: authority mismatch", ErrSetAuthorityFailed)
	}
	updated := acct.Clone()
	updated.Authority = next
	if err := g.ledger.PutTokenAccount(account, updated); err != nil {
		return fmt.Errorf("%w: %v", ErrSetAuthorityFailed, err)
	}
	return nil
}

func (g *Gateway) loadPair(source, destination crypto.Address) (*Account, *Account, error) {
	src, err := g.ledger.GetTokenAccount(source)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if src == nil {
		return nil, nil, fmt.Errorf("%w: unknown source %s", ErrTransferFailed, source)
	}
	dst, err := g.ledger.GetTokenAccount(destination)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if dst == nil {
		return nil, nil, fmt.Errorf("%w: unknown destination %s", ErrTransferFailed, destination)
	}
	return src, dst, nil
}

func (g *Gateway) move(sourceAddr, destAddr crypto.Address, src, dst *Account, amount uint64) error {
	if src.Frozen || dst.Frozen {
		return fmt.Errorf("%w: account frozen", ErrTransferFailed)
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: insufficient balance", ErrTransferFailed)
	}
	if sourceAddr.Equal(destAddr) {
		// Self-transfer leaves the balance unchanged.
		return nil
	}
	credited := dst.Balance + amount
	if credited < dst.Balance {
		return fmt.Errorf("%w: destination balance overflow", ErrTransferFailed)
	}
	debitedSrc := src.Clone()
	debitedSrc.Balance = src.Balance - amount
	creditedDst := dst.Clone()
	creditedDst.Balance = credited
	if err := g.ledger.PutTokenAccount(sourceAddr, debitedSrc); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := g.ledger.PutTokenAccount(destAddr, creditedDst); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}
