package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Message pipeline metrics
	MessagesPrepared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moltspeak_messages_prepared_total",
			Help: "Outbound messages validated and signed",
		},
		[]string{"op", "cls"},
	)

	MessagesSealed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moltspeak_messages_sealed_total",
			Help: "Outbound messages sealed in an encrypted envelope",
		},
		[]string{"op"},
	)

	MessagesAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moltspeak_messages_accepted_total",
			Help: "Inbound messages that passed every check",
		},
		[]string{"op", "cls"},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moltspeak_messages_rejected_total",
			Help: "Messages refused by a pipeline, by direction and error code",
		},
		[]string{"direction", "code"},
	)

	// Session metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moltspeak_sessions_created_total",
			Help: "Sessions created by a successful handshake",
		},
	)

	// Directory metrics
	DirectoryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moltspeak_directory_requests_total",
			Help: "Directory HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	DirectoryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moltspeak_directory_request_duration_seconds",
			Help:    "Directory HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	AgentsRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moltspeak_directory_agents",
			Help: "Agents currently held by the directory",
		},
	)
)
