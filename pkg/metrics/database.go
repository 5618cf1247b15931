package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Session transaction outcomes.
const (
	OutcomeStarted   = "started"
	OutcomeCommitted = "committed"
	OutcomeAborted   = "aborted"
)

// Database holds the collectors shared by the retry policy, the transaction
// bridge and the sequence generators. A nil *Database records nothing.
type Database struct {
	retries      *prometheus.CounterVec
	enlistments  prometheus.Counter
	transactions *prometheus.CounterVec
	sequences    *prometheus.CounterVec
}

// NewDatabase registers the collectors on registerer, or on the default
// registerer when nil.
func NewDatabase(registerer prometheus.Registerer) *Database {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Database{
		retries: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "nosql_retry_attempts_total",
			Help: "Total number of store operations re-executed after a transient fault",
		}, []string{"operation"}),
		enlistments: registerCounter(registerer, prometheus.CounterOpts{
			Name: "nosql_enlistments_total",
			Help: "Total number of session transactions enlisted in an ambient transaction",
		}),
		transactions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "nosql_session_transactions_total",
			Help: "Total number of session transactions by outcome",
		}, []string{"outcome"}),
		sequences: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "nosql_sequence_increments_total",
			Help: "Total number of sequence values handed out",
		}, []string{"backend"}),
	}
}

// RecordRetry counts one re-execution of operation.
func (m *Database) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}

// RecordEnlistment counts one enlistment.
func (m *Database) RecordEnlistment() {
	if m == nil {
		return
	}
	m.enlistments.Inc()
}

// RecordTransaction counts one session transaction transition.
func (m *Database) RecordTransaction(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

// RecordSequence counts one value handed out by backend.
func (m *Database) RecordSequence(backend string) {
	if m == nil {
		return
	}
	m.sequences.WithLabelValues(backend).Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}
