// Package metrics defines Prometheus collectors for litesql instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors for litesql.Conn statement and cache metrics.
var (
	StatementsExecutedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_statements_executed_total",
		Help: "Cumulative number of statements driven to completion.",
	})
	StatementCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_statement_cache_hits_total",
		Help: "Cumulative number of prepared statement cache hits.",
	})
	StatementCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_statement_cache_misses_total",
		Help: "Cumulative number of prepared statement cache misses.",
	})
	FunctionCallsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_function_calls_total",
		Help: "Cumulative number of custom SQL function invocations.",
	})
	BusyRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_busy_retries_total",
		Help: "Cumulative number of retries granted by BusyRetry policies.",
	})
)

// Collectors for litesql transaction metrics.
var (
	TxnsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_txns_started_total",
		Help: "Cumulative number of transactions begun by InTransaction.",
	})
	TxnsCommittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_txns_committed_total",
		Help: "Cumulative number of transactions committed.",
	})
	TxnsRolledBackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_txns_rolled_back_total",
		Help: "Cumulative number of transactions rolled back.",
	})
	TxnVetoesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "litesql_txn_vetoes_total",
		Help: "Cumulative number of commits vetoed by transaction observers.",
	})
)

// LiteSQLCollectors returns the collectors of this package, for
// registration with a prometheus.Registerer.
func LiteSQLCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		StatementsExecutedTotal,
		StatementCacheHitsTotal,
		StatementCacheMissesTotal,
		FunctionCallsTotal,
		BusyRetriesTotal,
		TxnsStartedTotal,
		TxnsCommittedTotal,
		TxnsRolledBackTotal,
		TxnVetoesTotal,
	}
}
