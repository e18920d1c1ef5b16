package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_messages_sent_total",
		Help: "Messages composed by viewers, by sender role.",
	}, []string{"role"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinic_message_status_transitions_total",
		Help: "Delivery status transitions applied, by target status.",
	}, []string{"status"})

	staleTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_message_stale_transitions_total",
		Help: "Scheduled transitions dropped because the message was gone or already advanced.",
	})

	sendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_message_send_failures_total",
		Help: "Messages that could not be stored.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clinic_messaging_sessions",
		Help: "Viewer sessions currently held in memory.",
	})
)
