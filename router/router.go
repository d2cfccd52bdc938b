package router

import (
	"github.com/Kotlang/fasalneetiGo/auth"
	"github.com/Kotlang/fasalneetiGo/handlers"
	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/metrics"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func New(
	e *echo.Echo,
	farmerHandler *handlers.FarmerHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	tokens *auth.TokenIssuer,
) *echo.Echo {
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	e.Use(metrics.Middleware())
	e.Use(echoMiddleware.CORS())

	e.GET("/health", healthHandler.Health)

	api := e.Group("/api")
	api.GET("/health", healthHandler.Health)

	farmers := api.Group("/farmers")
	farmers.POST("/register", farmerHandler.Register)
	farmers.POST("/login", farmerHandler.Login)
	farmers.GET("/:farmerId", farmerHandler.GetProfile)
	farmers.PUT("/:farmerId", farmerHandler.UpdateProfile, tokens.RequireOwner("farmerId"))
	farmers.GET("/:farmerId/dashboard", farmerHandler.GetDashboard)
	farmers.POST("/:farmerId/crops", farmerHandler.AppendCrop, tokens.RequireOwner("farmerId"))

	api.POST("/admin/login", adminHandler.Login)
	admin := api.Group("/admin", adminHandler.RequireEnabled, tokens.RequireUserType(auth.UserTypeAdmin))
	admin.GET("/farmers", adminHandler.ListFarmers)
	admin.DELETE("/farmers/:farmerId", adminHandler.DeleteFarmer)

	return e
}

func requestLogger() echo.MiddlewareFunc {
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.String("route", v.RoutePath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("requestId", v.RequestID),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}
