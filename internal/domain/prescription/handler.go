package prescription

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
)

const msgBadBody = "Invalid request body."

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, tokens auth.TokenVerifier) {
	doctor := auth.RequireDoctor(tokens)
	patient := auth.RequirePatient(tokens)

	api.POST("/create-prescription", h.Create, doctor)
	api.GET("/prescriptions", h.ListByDoctor)
	api.GET("/patients", h.ListPatients, doctor)
	api.GET("/qrcode", h.QRCode, doctor)

	api.GET("/latest-qr", h.LatestQRCode, patient)
	api.GET("/patient-prescription", h.ListByPatient, patient)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	p, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":      "Prescription created and reminders set.",
		"prescription": p,
	})
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	items, err := h.svc.ListByDoctor(c.Request().Context(), c.QueryParam("doctorEmail"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatients(c echo.Context) error {
	list, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("doctorEmail"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) QRCode(c echo.Context) error {
	url, err := h.svc.QRCode(c.Request().Context(), c.QueryParam("id"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"qrCodeImage": url})
}

func (h *Handler) LatestQRCode(c echo.Context) error {
	url, err := h.svc.LatestQRCode(c.Request().Context(), patientEmail(c))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"qrCodeUrl": url})
}

func (h *Handler) ListByPatient(c echo.Context) error {
	items, err := h.svc.ListByPatient(c.Request().Context(), patientEmail(c))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// patientEmail falls back to the caller's own email when the query omits it.
func patientEmail(c echo.Context) string {
	if email := c.QueryParam("patientEmail"); email != "" {
		return email
	}
	if id, ok := auth.IdentityFromContext(c.Request().Context()); ok {
		return id.Email
	}
	return ""
}
