package main

import (
	"time"

	"github.com/Kotlang/fasalneetiGo/appconfig"
	"github.com/Kotlang/fasalneetiGo/auth"
	"github.com/Kotlang/fasalneetiGo/db"
	"github.com/Kotlang/fasalneetiGo/handlers"
	"github.com/Kotlang/fasalneetiGo/interceptors"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/probe"
	"github.com/Kotlang/fasalneetiGo/router"
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthInterval = 10 * time.Second

type Inject struct {
	Config   appconfig.AppConfig
	FarmerDb *db.FarmerDb
	Tokens   *auth.TokenIssuer

	FarmerService *service.FarmerService
	AdminService  *service.AdminService

	Watcher    *probe.Watcher
	GrpcServer *grpc.Server
	Echo       *echo.Echo
}

func NewInject(cfg appconfig.AppConfig) *Inject {
	inj := &Inject{Config: cfg}
	inj.FarmerDb = db.ProvideFarmerDb(cfg)
	inj.Tokens = auth.NewTokenIssuer(cfg.TokenSecret(), cfg.TokenTTL)

	inj.FarmerService = service.ProvideFarmerService(inj.FarmerDb, inj.Tokens)
	inj.AdminService = service.ProvideAdminService(inj.FarmerDb, inj.Tokens, cfg.AdminUsername, cfg.AdminPasswordHash)

	inj.Watcher = probe.NewWatcher(inj.FarmerDb, healthInterval, cfg.StoreTimeout)
	inj.GrpcServer = interceptors.NewServer(logger.Get())
	healthpb.RegisterHealthServer(inj.GrpcServer, inj.Watcher.Server())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(interceptors.GrpcWebMiddleware(interceptors.WrapGrpcWeb(inj.GrpcServer)))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	inj.Echo = router.New(e,
		handlers.NewFarmerHandler(inj.FarmerService),
		handlers.NewAdminHandler(inj.AdminService),
		handlers.NewHealthHandler(inj.FarmerDb, cfg.StoreTimeout),
		inj.Tokens,
	)

	return inj
}
