package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxHeaderValueSize = 8192

const msgRejectedInput = "Request contains invalid characters."

var (
	// Logged only; parameterized queries make these harmless.
	sqlPatterns = regexp.MustCompile(`(?i)('+\s*;\s*DROP\b|UNION\s+SELECT\b|'\s+OR\s+1\s*=\s*1|\$where\b|\$ne\b)`)

	scriptPatterns = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)
)

// Sanitize rejects requests with path traversal, null bytes, header
// injection or script fragments in query parameters with 400. Suspected SQL
// and Mongo operator injection in query values is logged and let through.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			rawPath := req.URL.RawPath
			if rawPath == "" {
				rawPath = path
			}

			if containsPathTraversal(path) || containsPathTraversal(rawPath) ||
				containsNullByte(path) || containsNullByte(rawPath) {
				return reject(logger, c, "path")
			}

			for name, values := range req.Header {
				for _, v := range values {
					if len(v) > maxHeaderValueSize || strings.ContainsAny(v, "\r\n") {
						return reject(logger, c, "header "+name)
					}
				}
			}

			for key, values := range req.URL.Query() {
				for _, v := range values {
					if containsNullByte(key) || containsNullByte(v) ||
						scriptPatterns.MatchString(key) || scriptPatterns.MatchString(v) {
						return reject(logger, c, "query "+key)
					}
					if sqlPatterns.MatchString(v) {
						logger.Warn().
							Str("param", key).
							Str("path", path).
							Str("remote_ip", c.RealIP()).
							Msg("injection pattern in query parameter")
					}
				}
			}

			return next(c)
		}
	}
}

func reject(logger zerolog.Logger, c echo.Context, where string) error {
	logger.Warn().
		Str("request_id", requestID(c)).
		Str("where", where).
		Str("remote_ip", c.RealIP()).
		Msg("request rejected by sanitizer")
	return echo.NewHTTPError(http.StatusBadRequest, msgRejectedInput)
}

func containsPathTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func containsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}
