package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/config"
	"github.com/medirx/medirx/internal/domain/account"
	"github.com/medirx/medirx/internal/domain/prescription"
	"github.com/medirx/medirx/internal/domain/profile"
	"github.com/medirx/medirx/internal/domain/reminder"
	"github.com/medirx/medirx/internal/platform/auth"
	"github.com/medirx/medirx/internal/platform/db"
	"github.com/medirx/medirx/internal/platform/hipaa"
	"github.com/medirx/medirx/internal/platform/middleware"
	"github.com/medirx/medirx/internal/platform/qrcode"
	"github.com/medirx/medirx/internal/platform/telemetry"
	"github.com/medirx/medirx/internal/platform/validate"
)

const version = "0.1.0"

// deps is everything newServer needs that has a lifecycle of its own.
type deps struct {
	cfg      *config.Config
	logger   zerolog.Logger
	stores   *stores
	tokens   *auth.TokenService
	hasher   auth.PasswordHasher
	phi      *hipaa.FieldEncryptor
	reporter *telemetry.Reporter
	limiter  middleware.LimiterStore
	qr       qrcode.Encoder
}

func newServer(d deps) *echo.Echo {
	cfg, logger := d.cfg, d.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger, d.reporter)

	val := validate.New()
	e.Validator = val

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.Sanitize(logger))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(d.stores.driver, d.stores.pinger, d.stores.stats))

	api := e.Group("/web/api")
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl = middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	}
	limiter := d.limiter
	if limiter == nil {
		limiter = middleware.NewMemoryStore(rl)
	}
	api.Use(middleware.RateLimit(rl, limiter, logger))

	// Accounts
	accountSvc := account.NewService(d.stores.accounts, d.hasher, d.tokens, val, logger)
	account.NewHandler(accountSvc).RegisterRoutes(api, d.tokens)

	// Prescriptions and the reminders derived from them
	qr := d.qr
	if qr == nil {
		qr = qrcode.NewPNGEncoder()
	}
	rxSvc := prescription.NewService(d.stores.prescriptions, accountSvc, qr, val, logger)
	reminderSvc := reminder.NewService(d.stores.reminders, latestPrescriptions{repo: d.stores.prescriptions}, logger)
	rxSvc.SetReminderDeriver(reminderSvc)
	rxSvc.SetErrorReporter(d.reporter)
	prescription.NewHandler(rxSvc).RegisterRoutes(api, d.tokens)
	reminder.NewHandler(reminderSvc).RegisterRoutes(api, d.tokens)

	// Profiles
	doctorSvc := profile.NewDoctorService(d.stores.doctors, val, logger)
	patientSvc := profile.NewPatientService(d.stores.patients, d.phi, val, logger)
	profile.NewHandler(doctorSvc, patientSvc).RegisterRoutes(api, d.tokens)

	logger.Info().
		Str("store", d.stores.driver).
		Bool("phi_encryption", d.phi.Enabled()).
		Bool("error_reporting", d.reporter.Enabled()).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("routes registered")
	return e
}
