package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	freezeOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustfreeze_operations_total",
		Help: "Freeze control operations by scope, action and outcome",
	}, []string{"scope", "action", "outcome"})
	transactionsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustfreeze_transactions_submitted_total",
		Help: "Ledger transactions submitted by outcome",
	}, []string{"outcome"})
	trustlinesChangedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trustfreeze_trustlines_changed_total",
		Help: "Trustline authorization changes confirmed by the ledger",
	}, []string{"action"})
	auditWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trustfreeze_audit_write_failures_total",
		Help: "Audit inserts that failed after the ledger confirmed the transaction",
	})
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailure = "failure"
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(freezeOperationsTotal, transactionsSubmittedTotal, trustlinesChangedTotal, auditWriteFailuresTotal)
}

// IncFreezeOperation counts one finished freeze control operation.
func IncFreezeOperation(scope, action, outcome string) {
	freezeOperationsTotal.WithLabelValues(scope, action, outcome).Inc()
}

// IncTransactionSubmitted counts one ledger submission.
func IncTransactionSubmitted(outcome string) {
	transactionsSubmittedTotal.WithLabelValues(outcome).Inc()
}

// AddTrustlinesChanged adds n confirmed authorization changes.
func AddTrustlinesChanged(action string, n int) {
	trustlinesChangedTotal.WithLabelValues(action).Add(float64(n))
}

// IncAuditWriteFailure counts an audit write lost after ledger confirmation.
func IncAuditWriteFailure() { auditWriteFailuresTotal.Inc() }
