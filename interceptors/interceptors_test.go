package interceptors

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func TestRecoverPanicIsInternal(t *testing.T) {
	err := recoverPanic("boom")
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "boom")
}

func newEcho() *echo.Echo {
	server := NewServer(zap.NewNop())
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	e := echo.New()
	e.Pre(GrpcWebMiddleware(WrapGrpcWeb(server)))
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "rest")
	})
	return e
}

func TestGrpcWebMiddlewarePassesRestRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	newEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rest", rec.Body.String())
}

func TestGrpcWebHealthCheck(t *testing.T) {
	// one uncompressed frame carrying an empty HealthCheckRequest.
	frame := []byte{0, 0, 0, 0, 0}
	req := httptest.NewRequest(http.MethodPost, "/grpc.health.v1.Health/Check", bytes.NewReader(frame))
	req.Header.Set("Content-Type", "application/grpc-web+proto")
	req.Header.Set("X-Grpc-Web", "1")

	rec := httptest.NewRecorder()
	newEcho().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// SERVING is field 1 = 1.
	assert.True(t, bytes.Contains(rec.Body.Bytes(), []byte{0x08, 0x01}), "body %x", rec.Body.Bytes())
}
