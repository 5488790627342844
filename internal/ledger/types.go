package ledger

import (
	"context"

	"github.com/stellar/go/txnbuild"
)

// Asset identifies a credit asset by code and issuing account.
type Asset struct {
	Code   string `json:"code"`
	Issuer string `json:"issuer"`
}

// String renders the asset in the CODE:ISSUER form used by Horizon filters.
func (a Asset) String() string {
	return a.Code + ":" + a.Issuer
}

func (a Asset) credit() txnbuild.CreditAsset {
	return txnbuild.CreditAsset{Code: a.Code, Issuer: a.Issuer}
}

// Trustline is an account's opt-in to hold one asset.
// Authorized is nil when the ledger did not report the flag.
type Trustline struct {
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`
	Authorized  *bool  `json:"authorized,omitempty"`
}

// Frozen reports whether the authorized flag is explicitly false.
func (t Trustline) Frozen() bool {
	return t.Authorized != nil && !*t.Authorized
}

// Account is the ledger state needed to build transactions and read flags.
type Account struct {
	ID         string      `json:"id"`
	Sequence   int64       `json:"sequence"`
	Trustlines []Trustline `json:"trustlines"`
}

// Trustline returns the account's trustline for asset, if any.
func (a Account) Trustline(asset Asset) (Trustline, bool) {
	for _, tl := range a.Trustlines {
		if tl.AssetCode == asset.Code && tl.AssetIssuer == asset.Issuer {
			return tl, true
		}
	}
	return Trustline{}, false
}

// HolderPage is one page of the holder enumeration for an asset.
// A page shorter than the requested limit is the last one.
type HolderPage struct {
	Holders []string
	Cursor  string
}

// Network is the boundary to the ledger network.
type Network interface {
	// LoadAccount returns ErrAccountNotFound when the account does not exist.
	LoadAccount(ctx context.Context, accountID string) (Account, error)
	// SubmitTransaction returns the hash of the confirmed transaction.
	SubmitTransaction(ctx context.Context, tx *txnbuild.Transaction) (string, error)
	// ListHolders pages through accounts holding a trustline for asset.
	ListHolders(ctx context.Context, asset Asset, cursor string, limit int) (HolderPage, error)
}
