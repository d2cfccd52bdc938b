package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/status"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "path", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	farmerOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmer_operations_total",
		Help: "Farmer service operations by outcome status code.",
	}, []string{"op", "result"})
)

// Register adds the collectors to reg. Registering twice on the same registry is a no-op.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{httpRequests, httpDuration, farmerOperations} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveOperation counts one service call; result is the status code name ("OK" on success).
func ObserveOperation(op string, err error) {
	farmerOperations.WithLabelValues(op, status.Code(err).String()).Inc()
}

// Middleware records request count and latency keyed by the route template, not the raw URL.
// Handler errors are rendered here so the status is known, then passed on to outer middleware.
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
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
