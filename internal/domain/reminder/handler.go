package reminder

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, tokens auth.TokenVerifier) {
	patient := auth.RequirePatient(tokens)
	api.GET("/reminders", h.List, patient)
	api.PUT("/update-reminder", h.UpdateStatus, patient)
}

func (h *Handler) List(c echo.Context) error {
	email := c.QueryParam("patientEmail")
	if email == "" {
		if id, ok := auth.IdentityFromContext(c.Request().Context()); ok {
			email = id.Email
		}
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), email)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation("Invalid request body."))
	}
	rem, err := h.svc.UpdateStatus(c.Request().Context(), c.QueryParam("id"), req.Status)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":  "Reminder updated successfully",
		"reminder": rem,
	})
}
