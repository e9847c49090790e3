package profile

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
)

const msgBadBody = "Invalid request body."

type Handler struct {
	doctors  *DoctorService
	patients *PatientService
}

func NewHandler(doctors *DoctorService, patients *PatientService) *Handler {
	return &Handler{doctors: doctors, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group, tokens auth.TokenVerifier) {
	doctor := auth.RequireDoctor(tokens)
	patient := auth.RequirePatient(tokens)

	api.GET("/profile", h.GetDoctor)
	api.POST("/profile", h.CreateDoctor, doctor)
	api.PUT("/profile", h.UpdateDoctor, doctor)

	api.GET("/patient-profile", h.GetPatient, patient)
	api.POST("/patient-profile", h.CreatePatient, patient)
	api.PUT("/patient-profile", h.UpdatePatient, patient)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	p, err := h.doctors.Get(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req CreateDoctorRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	p, err := h.doctors.Create(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	var patch DoctorPatch
	if err := c.Bind(&patch); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	p, err := h.doctors.Update(c.Request().Context(), c.QueryParam("email"), patch)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	v, err := h.patients.Get(c.Request().Context(), emailOrCaller(c))
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	v, err := h.patients.Create(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var patch PatientPatch
	if err := c.Bind(&patch); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	v, err := h.patients.Update(c.Request().Context(), emailOrCaller(c), patch)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func emailOrCaller(c echo.Context) string {
	if email := c.QueryParam("email"); email != "" {
		return email
	}
	if id, ok := auth.IdentityFromContext(c.Request().Context()); ok {
		return id.Email
	}
	return ""
}
