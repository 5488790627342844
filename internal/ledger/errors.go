package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAccountNotFound means the ledger has no account with the requested id.
	ErrAccountNotFound = errors.New("ledger account not found")
	ErrEmptyBatch      = errors.New("transaction batch has no operations")
	ErrBatchTooLarge   = fmt.Errorf("transaction batch exceeds %d operations", MaxOperationsPerTx)
)

// RejectionError is returned when the ledger refused a request. For failed
// submissions it carries the transaction and per-operation result codes.
type RejectionError struct {
	Op              string
	Status          int
	TransactionCode string
	OperationCodes  []string
	Err             error
}

func (e *RejectionError) Error() string {
	var b strings.Builder
	b.WriteString("ledger rejected ")
	b.WriteString(e.Op)
	if e.TransactionCode != "" {
		b.WriteString(": ")
		b.WriteString(e.TransactionCode)
	}
	if len(e.OperationCodes) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.OperationCodes, ","))
		b.WriteString("]")
	}
	if e.TransactionCode == "" && e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RejectionError) Unwrap() error { return e.Err }

// Codes returns the transaction code followed by the operation codes.
func (e *RejectionError) Codes() []string {
	codes := make([]string, 0, len(e.OperationCodes)+1)
	if e.TransactionCode != "" {
		codes = append(codes, e.TransactionCode)
	}
	return append(codes, e.OperationCodes...)
}

// TransientError wraps timeouts, connectivity failures and server-side errors
// talking to the ledger. Nothing in this module retries them.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
