package handlers

import (
	"errors"
	"net/http"

	"github.com/Kotlang/fasalneetiGo/logger"
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Fields  service.FieldErrors `json:"fields,omitempty"`
}

var httpStatusByCode = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.NotFound:           http.StatusNotFound,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.FailedPrecondition: http.StatusForbidden,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.Canceled:           http.StatusRequestTimeout,
}

// respondError maps a service error onto an HTTP status. Codes without a mapping become 500 with
// the operation's generic message; the underlying error only reaches the log.
func respondError(c echo.Context, err error, failureMessage string) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Fields:  validationErr.Fields,
		})
	}

	st := status.Convert(err)
	httpStatus, ok := httpStatusByCode[st.Code()]
	if !ok {
		logger.Error(failureMessage,
			zap.String("path", c.Path()),
			zap.String("requestId", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: failureMessage})
	}
	return c.JSON(httpStatus, ErrorResponse{Message: st.Message()})
}

func badRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
}
