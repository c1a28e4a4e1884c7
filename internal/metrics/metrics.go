package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codecollab_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codecollab_connections_active",
			Help: "Currently open websocket connections",
		},
	)

	// Room metrics
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codecollab_rooms_active",
			Help: "Rooms currently held in the registry",
		},
	)

	ParticipantsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codecollab_participants_active",
			Help: "Participants currently joined across all rooms",
		},
	)

	// Protocol metrics
	EnvelopesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_envelopes_received_total",
			Help: "Inbound envelopes by kind",
		},
		[]string{"kind"},
	)

	ProtocolErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_protocol_errors_total",
			Help: "Dropped inbound envelopes",
		},
		[]string{"reason"}, // "malformed", "unknown_kind", "invalid_field"
	)

	BroadcastsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_broadcasts_sent_total",
			Help: "Outbound envelopes fanned out to room participants",
		},
		[]string{"kind"},
	)

	DeliveryDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codecollab_delivery_drops_total",
			Help: "Broadcast deliveries skipped because the recipient could not accept",
		},
	)

	// Snapshot metrics
	SnapshotLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codecollab_snapshot_latency_seconds",
			Help:    "Document snapshot store latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	SnapshotDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codecollab_snapshot_drops_total",
			Help: "Snapshot writes skipped because the archive queue was full",
		},
	)
)
