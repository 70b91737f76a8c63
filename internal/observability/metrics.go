package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the process-wide instrument set. All rooms share one instance.
type Metrics struct {
	RoomsActive      prometheus.Gauge
	ClientsConnected prometheus.Gauge
	CommandsTotal    *prometheus.CounterVec
	CommandErrors    *prometheus.CounterVec
	BroadcastsTotal  prometheus.Counter
	JudgeLatency     prometheus.Histogram
	JudgeFailures    prometheus.Counter
	MatchesStarted   prometheus.Counter
	MatchesEnded     *prometheus.CounterVec
	Eliminations     prometheus.Counter
	AttacksEmitted   *prometheus.CounterVec
}

// NewMetrics registers all instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codeclash_rooms_active",
			Help: "Number of live room actors.",
		}),
		ClientsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codeclash_clients_connected",
			Help: "Number of open websocket connections.",
		}),
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeclash_commands_total",
			Help: "Commands processed, by type.",
		}, []string{"type"}),
		CommandErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeclash_command_errors_total",
			Help: "Commands rejected, by error code.",
		}, []string{"code"}),
		BroadcastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "codeclash_broadcasts_total",
			Help: "Events broadcast to room members.",
		}),
		JudgeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "codeclash_judge_latency_seconds",
			Help:    "Round-trip latency of judge calls.",
			Buckets: prometheus.DefBuckets,
		}),
		JudgeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "codeclash_judge_failures_total",
			Help: "Judge calls that failed or timed out.",
		}),
		MatchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "codeclash_matches_started_total",
			Help: "Matches started.",
		}),
		MatchesEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeclash_matches_ended_total",
			Help: "Matches ended, by reason.",
		}, []string{"reason"}),
		Eliminations: factory.NewCounter(prometheus.CounterOpts{
			Name: "codeclash_eliminations_total",
			Help: "Players eliminated by stack overflow.",
		}),
		AttacksEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codeclash_attacks_emitted_total",
			Help: "Attacks emitted by passing submits, by type.",
		}, []string{"type"}),
	}
}

// NopMetrics returns an unregistered instrument set for tests.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
