package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flightbooking",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "search",
		Name:      "searches_total",
		Help:      "Total searches dispatched to the ledger",
	}, []string{"mode"})

	QueryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "search",
		Name:      "query_failures_total",
		Help:      "Total ledger search queries that were rejected",
	}, []string{"mode"})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "search",
		Name:      "resolutions_total",
		Help:      "Itinerary resolutions by outcome",
	}, []string{"outcome"})

	ItinerariesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "search",
		Name:      "itineraries_total",
		Help:      "Resolved itineraries appended to or discarded from the active session",
	}, []string{"result"})

	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "booking",
		Name:      "bookings_total",
		Help:      "Booking transactions by outcome",
	}, []string{"outcome"})

	LedgerCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flightbooking",
		Subsystem: "ledger",
		Name:      "call_duration_seconds",
		Help:      "Duration of calls to the ledger",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"call", "status"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "cache",
		Name:      "ticket_hits_total",
		Help:      "Ticket lookups served from the cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flightbooking",
		Subsystem: "cache",
		Name:      "ticket_misses_total",
		Help:      "Ticket lookups that went to the ledger",
	})
)

func Mode(directOnly bool) string {
	if directOnly {
		return "direct"
	}
	return "one_stop"
}

func ObserveLedgerCall(call string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LedgerCallDuration.WithLabelValues(call, status).Observe(time.Since(start).Seconds())
}

// Middleware records request metrics.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
