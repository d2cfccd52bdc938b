package probe

import (
	"context"
	"time"

	"github.com/Kotlang/fasalneetiGo/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name clients may probe besides the empty (server) name.
const ServiceName = "fasalneeti.Farmers"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher mirrors store reachability into a grpc health server.
type Watcher struct {
	store    Pinger
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
}

func NewWatcher(store Pinger, interval, timeout time.Duration) *Watcher {
	server := health.NewServer()
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Watcher{
		store:    store,
		server:   server,
		interval: interval,
		timeout:  timeout,
	}
}

func (w *Watcher) Server() *health.Server {
	return w.server
}

// Check pings once and publishes the result. It reports whether the store answered.
func (w *Watcher) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	servingStatus := healthpb.HealthCheckResponse_SERVING
	err := w.store.Ping(pingCtx)
	if err != nil {
		servingStatus = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn("Farmer store health check failed", zap.Error(err))
	}

	w.server.SetServingStatus("", servingStatus)
	w.server.SetServingStatus(ServiceName, servingStatus)
	return err == nil
}

// Run checks on every tick until ctx is done, then marks everything NOT_SERVING.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			w.server.Shutdown()
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
