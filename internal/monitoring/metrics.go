package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per event",
		},
		[]string{"event_id"},
	)

	ticketScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "Scan attempts by outcome",
		},
		[]string{"outcome"},
	)

	giveawayDraws = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giveaway_draws_total",
			Help: "Giveaway draws per event",
		},
		[]string{"event_id"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RecordTicketIssued(eventID int64) {
	ticketsIssued.WithLabelValues(strconv.FormatInt(eventID, 10)).Inc()
}

// RecordScan takes one of "valid", "already_used", "not_found", "error".
func RecordScan(outcome string) {
	ticketScans.WithLabelValues(outcome).Inc()
}

func RecordDraw(eventID int64) {
	giveawayDraws.WithLabelValues(strconv.FormatInt(eventID, 10)).Inc()
}

func ObserveHTTP(method, path string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}
