package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
)

const msgInternal = "Internal server error"

// ErrorReporter forwards server-side failures to an external tracker.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

// ErrorHandler renders every error as {"message": "..."}. Server errors are
// logged with their cause, reported, and replaced by a generic message.
// 503 and 504 keep their message and are only logged as warnings.
func ErrorHandler(logger zerolog.Logger, reporter ErrorReporter) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = apperr.HTTPError(err)
		}

		code := he.Code
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(code)
		}

		switch {
		case code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout:
			logger.Warn().
				Int("status", code).
				Str("request_id", requestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg(msg)
		case code >= http.StatusInternalServerError:
			cause := he.Internal
			if cause == nil {
				cause = err
			}
			logger.Error().
				Err(cause).
				Str("request_id", requestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			if reporter != nil {
				reporter.CaptureError(c.Request().Context(), cause, map[string]string{
					"request_id": requestID(c),
					"route":      c.Path(),
				})
			}
			msg = msgInternal
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, map[string]string{"message": msg})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
