package account

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
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.GET("/doctor", h.FindDoctor)
	api.GET("/patient", h.FindPatient)
	api.POST("/verify-email", h.VerifyEmail)
	api.POST("/reset-password", h.ResetPassword)

	api.GET("/doctor-dashboard", h.DoctorDashboard, auth.RequireDoctor(tokens))
}

func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	res, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Signup successful!",
		"user":    res.Account,
		"token":   res.Token,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Login successful!",
		"token":   res.Token,
		"user":    res.Account.View(),
	})
}

func (h *Handler) FindDoctor(c echo.Context) error {
	return h.find(c, auth.RoleDoctor)
}

func (h *Handler) FindPatient(c echo.Context) error {
	return h.find(c, auth.RolePatient)
}

func (h *Handler) find(c echo.Context, role auth.Role) error {
	a, err := h.svc.FindByEmail(c.Request().Context(), c.QueryParam("email"), role)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, a.View())
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	if err := h.svc.VerifyEmail(c.Request().Context(), req.Email); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Email verified."})
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperr.HTTPError(apperr.Validation(msgBadBody))
	}
	if err := h.svc.ResetPassword(c.Request().Context(), req.Email, req.NewPassword); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password reset successfully."})
}

func (h *Handler) DoctorDashboard(c echo.Context) error {
	id, _ := auth.IdentityFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Welcome to the Doctor's Dashboard!",
		"user":    id,
	})
}
