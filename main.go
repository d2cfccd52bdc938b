package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kotlang/fasalneetiGo/appconfig"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := appconfig.Load()
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.UsesEphemeralSecret() {
		logger.Warn("ACCESS_SECRET not set, tokens are signed with a random key and will not survive a restart")
	}
	if !cfg.AdminEnabled() {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin routes are disabled")
	}
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed registering metrics", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, NewInject(cfg)); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, inj *Inject) error {
	// the store is reachable lazily; a failed first ping only degrades health.
	pingCtx, cancel := context.WithTimeout(ctx, inj.Config.StoreTimeout)
	if err := inj.FarmerDb.Ping(pingCtx); err != nil {
		logger.Error("Store unavailable at startup", zap.Error(err))
	}
	cancel()

	grpcListener, err := net.Listen("tcp", ":"+inj.Config.GrpcPort)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting http server", zap.String("port", inj.Config.Port))
		err := inj.Echo.Start(":" + inj.Config.Port)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Info("Starting grpc server", zap.String("port", inj.Config.GrpcPort))
		return inj.GrpcServer.Serve(grpcListener)
	})

	g.Go(func() error {
		inj.Watcher.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := inj.Echo.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed stopping http server", zap.Error(err))
		}
		inj.GrpcServer.GracefulStop()
		if err := inj.FarmerDb.Close(shutdownCtx); err != nil {
			logger.Error("Failed closing store", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
