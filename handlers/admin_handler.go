package handlers

import (
	"net/http"
	"strconv"

	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// RequireEnabled answers 403 on every admin route while no admin credential is configured, so
// tokens cannot stand in for a missing login.
func (h *AdminHandler) RequireEnabled(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.adminService.Enabled() {
			return c.JSON(http.StatusForbidden, ErrorResponse{Message: "Admin login is not configured"})
		}
		return next(c)
	}
}

func (h *AdminHandler) Login(c echo.Context) error {
	req := &service.AdminLoginRequest{}
	if err := binder.BindBody(c, req); err != nil {
		return badRequest(c)
	}

	res, err := h.adminService.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Login failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"jwt":      res.Jwt,
		"userType": res.UserType,
	})
}

// ListFarmers returns a bare array; ?size=N&page=P paginates and the
// collection size is reported in X-Total-Count.
func (h *AdminHandler) ListFarmers(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "page must be a number"})
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "size must be a number"})
	}

	result, err := h.adminService.ListAll(c.Request().Context(), page, size)
	if err != nil {
		return respondError(c, err, "Failed to fetch farmers")
	}
	if result.Total >= 0 {
		c.Response().Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	}
	return c.JSON(http.StatusOK, result.Farmers)
}

func (h *AdminHandler) DeleteFarmer(c echo.Context) error {
	deleted, err := h.adminService.DeleteById(c.Request().Context(), c.Param("farmerId"))
	if err != nil {
		return respondError(c, err, "Failed to delete farmer")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": deleted,
	})
}

func queryInt(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
