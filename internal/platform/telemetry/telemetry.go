// Package telemetry reports server-side failures to Sentry. Without a DSN
// every call is a no-op.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

const flushTimeout = 2 * time.Second

// Config holds the Sentry client settings.
type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Reporter captures errors on a dedicated Sentry hub.
type Reporter struct {
	hub *sentry.Hub
}

// Init returns a Reporter for cfg. An empty DSN yields a disabled Reporter.
func Init(cfg Config, logger zerolog.Logger) (*Reporter, error) {
	if cfg.DSN == "" {
		logger.Info().Msg("error reporting disabled: SENTRY_DSN is not set")
		return &Reporter{}, nil
	}
	r, err := newReporter(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("environment", cfg.Environment).Msg("error reporting enabled")
	return r, nil
}

func newReporter(opts sentry.ClientOptions) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create sentry client: %w", err)
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// CaptureError sends err with tags attached to a scope of its own.
func (r *Reporter) CaptureError(_ context.Context, err error, tags map[string]string) {
	if !r.Enabled() || err == nil {
		return
	}
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered.
func (r *Reporter) Flush() bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(flushTimeout)
}
