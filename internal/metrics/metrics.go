package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal counts login attempts by status
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	// ChatMessagesTotal counts chat messages by intent
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_chat_messages_total",
			Help: "Total number of chat messages processed",
		},
		[]string{"intent"},
	)

	// InferenceDuration tracks LLM inference round-trip time
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_inference_duration_seconds",
			Help:    "LLM inference duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	// TradesTotal counts swap attempts by direction and outcome
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_trades_total",
			Help: "Total number of swap attempts",
		},
		[]string{"direction", "outcome"},
	)

	// TradeDuration tracks swap execution time including confirmation wait
	TradeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_trade_duration_seconds",
			Help:    "Swap execution duration in seconds",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
		},
		[]string{"direction"},
	)

	// MemoryDivergenceTotal counts divergences between the local store and
	// the decentralized memory mirror
	MemoryDivergenceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_memory_divergence_total",
			Help: "Total number of detected memory mirror divergences",
		},
		[]string{"kind"},
	)

	// MirrorWritesTotal counts writes to the memory mirror by status
	MirrorWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_mirror_writes_total",
			Help: "Total number of memory mirror writes",
		},
		[]string{"status"},
	)

	// ErrorsTotal counts errors by component and type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
