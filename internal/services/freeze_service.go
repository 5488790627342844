package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/keypair"
	stellarnet "github.com/stellar/go/network"

	"github.com/trustfreeze/backend/internal/events"
	"github.com/trustfreeze/backend/internal/ledger"
	"github.com/trustfreeze/backend/internal/logger"
	"github.com/trustfreeze/backend/internal/metrics"
	"github.com/trustfreeze/backend/internal/models"
)

const (
	// BatchSize is the number of holders changed by one global-freeze transaction.
	BatchSize = ledger.MaxOperationsPerTx

	DefaultHolderPageSize = 200

	// DefaultPublishTimeout bounds event publishing after each audited batch.
	DefaultPublishTimeout = 5 * time.Second

	DefaultLogPage  = 1
	DefaultLogLimit = 20
	MaxLogLimit     = 100
)

// ErrHolderCursorStalled is returned when holder enumeration hands back a full
// page without a new cursor.
var ErrHolderCursorStalled = errors.New("holder enumeration did not advance")

// FreezeResult describes one trustline whose authorization the ledger changed.
type FreezeResult struct {
	TxHash        string              `json:"tx_hash"`
	Action        models.FreezeAction `json:"action"`
	Scope         models.FreezeScope  `json:"scope"`
	TargetAccount string              `json:"target_account"`
	AssetCode     string              `json:"asset_code"`
	AssetIssuer   string              `json:"asset_issuer"`
}

// FreezeService freezes and unfreezes trustlines of issued assets and keeps
// the forensic audit trail of every confirmed change.
type FreezeService struct {
	mu      sync.RWMutex
	network ledger.Network

	store          FreezeAuditStore
	builder        *ledger.Builder
	publisher      events.Publisher
	holderPageSize int
	publishTimeout time.Duration
}

type FreezeOption func(*FreezeService)

// WithBuilder replaces the transaction builder. The default signs for the
// public test network.
func WithBuilder(b *ledger.Builder) FreezeOption {
	return func(s *FreezeService) { s.builder = b }
}

func WithPublisher(p events.Publisher) FreezeOption {
	return func(s *FreezeService) { s.publisher = p }
}

func WithPublishTimeout(d time.Duration) FreezeOption {
	return func(s *FreezeService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

func WithHolderPageSize(n int) FreezeOption {
	return func(s *FreezeService) {
		if n > 0 {
			s.holderPageSize = n
		}
	}
}

func NewFreezeService(network ledger.Network, store FreezeAuditStore, opts ...FreezeOption) *FreezeService {
	s := &FreezeService{
		network:        network,
		store:          store,
		builder:        ledger.NewBuilder(stellarnet.TestNetworkPassphrase, 0, 0),
		publisher:      events.NopPublisher{},
		holderPageSize: DefaultHolderPageSize,
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNetwork swaps the ledger client used by subsequent calls.
func (s *FreezeService) SetNetwork(network ledger.Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = network
}

func (s *FreezeService) net() ledger.Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.network
}

// ToggleAccountFreeze changes the authorization of one holder's trustline in a
// single-operation transaction and records one audit row once the ledger
// confirmed it. Calls are not deduplicated: every call is its own audited event.
func (s *FreezeService) ToggleAccountFreeze(ctx context.Context, issuerSecret, targetAccount, assetCode string, action models.FreezeAction, reason string) (FreezeResult, error) {
	if err := validateAccountID("target_account", targetAccount); err != nil {
		return FreezeResult{}, err
	}
	if err := validateAssetCode(assetCode); err != nil {
		return FreezeResult{}, err
	}
	if err := validateAction(action); err != nil {
		return FreezeResult{}, err
	}
	why, err := normalizeReason(reason)
	if err != nil {
		return FreezeResult{}, err
	}
	issuer, err := parseIssuerKey(issuerSecret)
	if err != nil {
		return FreezeResult{}, err
	}

	op := batchOp{
		operationID: newOperationID(),
		issuer:      issuer,
		asset:       ledger.Asset{Code: assetCode, Issuer: issuer.Address()},
		action:      action,
		scope:       models.FreezeScopeAccount,
		reason:      why,
	}
	results, err := s.applyBatch(ctx, s.net(), op, []string{targetAccount})
	metrics.IncFreezeOperation(string(op.scope), string(action), outcome(len(results), err))
	if len(results) == 0 {
		return FreezeResult{}, err
	}
	return results[0], err
}

// ToggleGlobalFreeze changes the authorization of every holder of the asset
// issued by the key behind issuerSecret. Holders are walked page by page and
// changed in sequential batches of at most BatchSize operations.
//
// There is no cross-batch atomicity. On failure the results of the batches
// already confirmed are returned together with the error.
func (s *FreezeService) ToggleGlobalFreeze(ctx context.Context, issuerSecret, assetCode string, action models.FreezeAction, reason string) ([]FreezeResult, error) {
	if err := validateAssetCode(assetCode); err != nil {
		return nil, err
	}
	if err := validateAction(action); err != nil {
		return nil, err
	}
	why, err := normalizeReason(reason)
	if err != nil {
		return nil, err
	}
	issuer, err := parseIssuerKey(issuerSecret)
	if err != nil {
		return nil, err
	}

	op := batchOp{
		operationID: newOperationID(),
		issuer:      issuer,
		asset:       ledger.Asset{Code: assetCode, Issuer: issuer.Address()},
		action:      action,
		scope:       models.FreezeScopeGlobal,
		reason:      why,
	}
	// Enumeration runs to completion or to the first failure. A caller that
	// goes away does not stop it halfway.
	ctx = context.WithoutCancel(ctx)
	results, err := s.toggleAllHolders(ctx, op)
	metrics.IncFreezeOperation(string(op.scope), string(action), outcome(len(results), err))

	entry := logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation_id": op.operationID,
		"asset":        op.asset.String(),
		"action":       action,
		"changed":      len(results),
	})
	if err != nil {
		entry.WithError(err).Warn("global freeze aborted")
	} else {
		entry.Info("global freeze completed")
	}
	return results, err
}

func (s *FreezeService) toggleAllHolders(ctx context.Context, op batchOp) ([]FreezeResult, error) {
	network := s.net()
	results := make([]FreezeResult, 0)
	cursor := ""
	for {
		page, err := network.ListHolders(ctx, op.asset, cursor, s.holderPageSize)
		if err != nil {
			return results, fmt.Errorf("list holders of %s: %w", op.asset, err)
		}

		holders := excludeAccount(page.Holders, op.issuer.Address())
		for start := 0; start < len(holders); start += BatchSize {
			batch := holders[start:min(start+BatchSize, len(holders))]
			applied, err := s.applyBatch(ctx, network, op, batch)
			results = append(results, applied...)
			if err != nil {
				return results, err
			}
		}

		if len(page.Holders) < s.holderPageSize {
			return results, nil
		}
		if page.Cursor == "" || page.Cursor == cursor {
			return results, ErrHolderCursorStalled
		}
		cursor = page.Cursor
	}
}

// batchOp carries what every batch of one invocation shares.
type batchOp struct {
	operationID string
	issuer      *keypair.Full
	asset       ledger.Asset
	action      models.FreezeAction
	scope       models.FreezeScope
	reason      *string
}

// applyBatch submits one transaction for trustors and audits it. The issuer is
// reloaded first so the transaction uses the sequence left by the previous one.
// The returned results are non-empty only when the ledger confirmed the
// transaction, even if the audit write then failed.
func (s *FreezeService) applyBatch(ctx context.Context, network ledger.Network, op batchOp, trustors []string) ([]FreezeResult, error) {
	entry := logger.FromContext(ctx).WithFields(logrus.Fields{
		"operation_id": op.operationID,
		"asset":        op.asset.String(),
		"action":       op.action,
		"scope":        op.scope,
		"ops":          len(trustors),
	})

	source, err := network.LoadAccount(ctx, op.issuer.Address())
	if err != nil {
		return nil, fmt.Errorf("load issuer account: %w", err)
	}
	tx, err := s.builder.Build(source, op.issuer, op.asset, op.action.Authorize(), trustors)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	hash, err := network.SubmitTransaction(ctx, tx)
	if err != nil {
		metrics.IncTransactionSubmitted(metrics.OutcomeFailure)
		entry.WithError(err).Warn("ledger rejected authorization change")
		return nil, fmt.Errorf("submit transaction: %w", err)
	}
	metrics.IncTransactionSubmitted(metrics.OutcomeSuccess)
	metrics.AddTrustlinesChanged(string(op.action), len(trustors))
	entry = entry.WithField("tx_hash", hash)
	entry.Info("authorization change confirmed")

	rows := make([]models.FreezeAuditLog, len(trustors))
	results := make([]FreezeResult, len(trustors))
	for i, trustor := range trustors {
		rows[i] = models.FreezeAuditLog{
			OperationID:   op.operationID,
			TargetAccount: trustor,
			AssetCode:     op.asset.Code,
			AssetIssuer:   op.asset.Issuer,
			Action:        op.action,
			Scope:         op.scope,
			TxHash:        hash,
			InitiatedBy:   op.issuer.Address(),
			Reason:        op.reason,
		}
		results[i] = FreezeResult{
			TxHash:        hash,
			Action:        op.action,
			Scope:         op.scope,
			TargetAccount: trustor,
			AssetCode:     op.asset.Code,
			AssetIssuer:   op.asset.Issuer,
		}
	}

	// The transaction is final on the ledger, so its audit row is written even
	// when the caller has given up.
	ctx = context.WithoutCancel(ctx)
	if len(rows) == 1 {
		err = s.store.Insert(ctx, &rows[0])
	} else {
		err = s.store.InsertBatch(ctx, rows)
	}
	if err != nil {
		// The ledger change stands; only the log can reconcile it now.
		metrics.IncAuditWriteFailure()
		entry.WithError(err).Error("audit write failed for confirmed transaction")
		return results, fmt.Errorf("record audit for tx %s: %w", hash, err)
	}

	s.publish(ctx, entry, op, hash, trustors)
	return results, nil
}

func (s *FreezeService) publish(ctx context.Context, entry *logrus.Entry, op batchOp, hash string, trustors []string) {
	now := time.Now().UTC()
	evs := make([]events.FreezeEvent, len(trustors))
	for i, trustor := range trustors {
		evs[i] = events.FreezeEvent{
			OperationID:   op.operationID,
			TxHash:        hash,
			Action:        string(op.action),
			Scope:         string(op.scope),
			TargetAccount: trustor,
			AssetCode:     op.asset.Code,
			AssetIssuer:   op.asset.Issuer,
			OccurredAt:    now,
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		entry.WithError(err).Warn("publish freeze events")
	}
}

// IsFrozen reports whether account's trustline for the asset has its
// authorized flag explicitly cleared. A missing account or a missing trustline
// both count as not frozen.
func (s *FreezeService) IsFrozen(ctx context.Context, account, assetCode, assetIssuer string) (bool, error) {
	if err := validateAccountID("account", account); err != nil {
		return false, err
	}
	if err := validateAssetCode(assetCode); err != nil {
		return false, err
	}
	if err := validateAccountID("asset_issuer", assetIssuer); err != nil {
		return false, err
	}

	acc, err := s.net().LoadAccount(ctx, account)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	tl, ok := acc.Trustline(ledger.Asset{Code: assetCode, Issuer: assetIssuer})
	if !ok {
		return false, nil
	}
	return tl.Frozen(), nil
}

// ListLogs returns one page of audit rows, newest first.
func (s *FreezeService) ListLogs(ctx context.Context, filter LogFilter) (LogPage, error) {
	filter, err := normalizeLogFilter(filter)
	if err != nil {
		return LogPage{}, err
	}
	rows, total, err := s.store.List(ctx, filter, (filter.Page-1)*filter.Limit, filter.Limit)
	if err != nil {
		return LogPage{}, err
	}
	return LogPage{Data: rows, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// GetLatestLog returns the most recent audit row for the trustline, or nil.
func (s *FreezeService) GetLatestLog(ctx context.Context, account, assetCode, assetIssuer string) (*models.FreezeAuditLog, error) {
	if err := validateAccountID("account", account); err != nil {
		return nil, err
	}
	if err := validateAssetCode(assetCode); err != nil {
		return nil, err
	}
	if err := validateAccountID("asset_issuer", assetIssuer); err != nil {
		return nil, err
	}
	return s.store.Latest(ctx, account, assetCode, assetIssuer)
}

func normalizeLogFilter(f LogFilter) (LogFilter, error) {
	if f.Page < 0 {
		return f, invalid("page", "must be at least 1")
	}
	if f.Limit < 0 {
		return f, invalid("limit", "must be at least 1")
	}
	if f.Action != "" {
		if err := validateAction(f.Action); err != nil {
			return f, err
		}
	}
	if f.Page == 0 {
		f.Page = DefaultLogPage
	}
	switch {
	case f.Limit == 0:
		f.Limit = DefaultLogLimit
	case f.Limit > MaxLogLimit:
		f.Limit = MaxLogLimit
	}
	return f, nil
}

func excludeAccount(ids []string, account string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != account {
			out = append(out, id)
		}
	}
	return out
}

func outcome(changed int, err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case changed > 0:
		return metrics.OutcomePartial
	default:
		return metrics.OutcomeFailure
	}
}
