package ledger

import (
	"fmt"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

const (
	// MaxOperationsPerTx is the network ceiling on operations in one transaction.
	MaxOperationsPerTx = 100

	// DefaultBaseFee is twice the network minimum. Flag changes get rejected
	// under surge pricing more often than payments do.
	DefaultBaseFee = 2 * txnbuild.MinBaseFee

	DefaultTxTimeout = 3 * time.Minute
)

// Builder assembles and signs authorization-flag transactions.
type Builder struct {
	passphrase string
	baseFee    int64
	timeout    time.Duration
}

// NewBuilder returns a Builder for the network identified by passphrase.
// Non-positive fee or timeout fall back to the defaults.
func NewBuilder(passphrase string, baseFee int64, timeout time.Duration) *Builder {
	if baseFee <= 0 {
		baseFee = DefaultBaseFee
	}
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	return &Builder{passphrase: passphrase, baseFee: baseFee, timeout: timeout}
}

// Passphrase returns the network passphrase transactions are signed for.
func (b *Builder) Passphrase() string { return b.passphrase }

// Build creates one transaction holding a SetTrustLineFlags operation per
// trustor, consuming the next sequence number of source, signed by signer only.
// authorize=false clears the authorized flag (freeze), true sets it (unfreeze).
func (b *Builder) Build(source Account, signer *keypair.Full, asset Asset, authorize bool, trustors []string) (*txnbuild.Transaction, error) {
	switch {
	case len(trustors) == 0:
		return nil, ErrEmptyBatch
	case len(trustors) > MaxOperationsPerTx:
		return nil, ErrBatchTooLarge
	}

	ops := make([]txnbuild.Operation, 0, len(trustors))
	for _, trustor := range trustors {
		ops = append(ops, trustlineFlagOp(trustor, asset, authorize))
	}

	account := txnbuild.NewSimpleAccount(source.ID, source.Sequence)
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              b.baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(b.timeout / time.Second)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assemble transaction: %w", err)
	}

	tx, err = tx.Sign(b.passphrase, signer)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

func trustlineFlagOp(trustor string, asset Asset, authorize bool) *txnbuild.SetTrustLineFlags {
	op := &txnbuild.SetTrustLineFlags{
		Trustor: trustor,
		Asset:   asset.credit(),
	}
	flags := []txnbuild.TrustLineFlag{txnbuild.TrustLineAuthorized}
	if authorize {
		op.SetFlags = flags
	} else {
		op.ClearFlags = flags
	}
	return op
}
