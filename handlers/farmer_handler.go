package handlers

import (
	"net/http"

	"github.com/Kotlang/fasalneetiGo/models"
	"github.com/Kotlang/fasalneetiGo/service"
	"github.com/labstack/echo/v4"
)

// binder decodes request bodies only, so path params never leak into free-form payloads.
var binder = &echo.DefaultBinder{}

type FarmerHandler struct {
	farmerService *service.FarmerService
}

func NewFarmerHandler(farmerService *service.FarmerService) *FarmerHandler {
	return &FarmerHandler{farmerService: farmerService}
}

func (h *FarmerHandler) Register(c echo.Context) error {
	req := &service.FarmerRequest{}
	if err := binder.BindBody(c, req); err != nil {
		return badRequest(c)
	}

	id, err := h.farmerService.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Registration failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"farmerId": id,
	})
}

func (h *FarmerHandler) Login(c echo.Context) error {
	req := &service.LoginRequest{}
	if err := binder.BindBody(c, req); err != nil {
		return badRequest(c)
	}

	res, err := h.farmerService.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Login failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"farmer":   res.Farmer,
		"jwt":      res.Jwt,
		"userType": res.UserType,
	})
}

func (h *FarmerHandler) GetProfile(c echo.Context) error {
	profile, err := h.farmerService.GetProfile(c.Request().Context(), c.Param("farmerId"))
	if err != nil {
		return respondError(c, err, "Profile fetch failed")
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *FarmerHandler) UpdateProfile(c echo.Context) error {
	patch := &service.FarmerPatch{}
	if err := binder.BindBody(c, patch); err != nil {
		return badRequest(c)
	}

	updated, err := h.farmerService.UpdateProfile(c.Request().Context(), c.Param("farmerId"), patch)
	if err != nil {
		return respondError(c, err, "Update failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": updated,
	})
}

func (h *FarmerHandler) GetDashboard(c echo.Context) error {
	dashboard, err := h.farmerService.GetDashboard(c.Request().Context(), c.Param("farmerId"))
	if err != nil {
		return respondError(c, err, "Dashboard fetch failed")
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *FarmerHandler) AppendCrop(c echo.Context) error {
	entry := models.CropEntry{}
	if err := binder.BindBody(c, &entry); err != nil {
		return badRequest(c)
	}

	updated, err := h.farmerService.AppendCrop(c.Request().Context(), c.Param("farmerId"), entry)
	if err != nil {
		return respondError(c, err, "Crop save failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": updated,
	})
}
