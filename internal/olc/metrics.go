package olc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Abort reasons recorded in metrics and logs.
const (
	AbortDisconnect    = "disconnect"
	AbortProtocol      = "protocol"
	AbortLostSession   = "lost_session"
	AbortCompleteChain = "complete_chain"
)

// Metrics counts editor activity. A nil *Metrics records nothing.
type Metrics struct {
	SessionsOpened *prometheus.CounterVec
	Commits        *prometheus.CounterVec
	CommitDuration *prometheus.HistogramVec
	Aborts         *prometheus.CounterVec
}

// NewMetrics creates the editor metrics and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsOpened: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumenforge_olc_sessions_opened_total",
				Help: "Root edit sessions opened, by kind.",
			},
			[]string{"kind"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumenforge_olc_commits_total",
				Help: "Committed edit sessions, by kind and mode.",
			},
			[]string{"kind", "mode"},
		),
		CommitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lumenforge_olc_commit_duration_seconds",
				Help:    "Time spent applying a commit to the world.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"kind"},
		),
		Aborts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumenforge_olc_aborts_total",
				Help: "Edit chains discarded without a Confirm-Save answer, by reason.",
			},
			[]string{"reason"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.SessionsOpened, m.Commits, m.CommitDuration, m.Aborts)
	}
	return m
}

func (m *Metrics) opened(kind Kind) {
	if m == nil {
		return
	}
	m.SessionsOpened.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) commit(kind Kind, mode CommitMode, took time.Duration) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(string(kind), string(mode)).Inc()
	m.CommitDuration.WithLabelValues(string(kind)).Observe(took.Seconds())
}

func (m *Metrics) abort(reason string) {
	if m == nil {
		return
	}
	m.Aborts.WithLabelValues(reason).Inc()
}
