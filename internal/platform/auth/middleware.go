package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medirx/medirx/internal/platform/apperr"
)

type contextKey string

const identityKey contextKey = "identity"

// Expired, forged and malformed tokens all map to msgInvalidToken.
const (
	msgNoToken      = "Access Denied. No token provided."
	msgInvalidToken = "Invalid Token"
)

// RequireRole returns middleware that admits only requests carrying a valid
// bearer token whose role equals role. The verified identity is stored on the
// request context for handlers to read with IdentityFromContext.
func RequireRole(tokens TokenVerifier, role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.HTTPError(apperr.Unauthorized(msgNoToken))
			}

			id, err := tokens.Verify(tokenStr)
			if err != nil {
				return apperr.HTTPError(apperr.InvalidToken(msgInvalidToken))
			}

			if id.Role != role {
				return apperr.HTTPError(apperr.Forbidden("Access Denied. You are not " + role.Title() + "."))
			}

			ctx := WithIdentity(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireDoctor admits doctor tokens only.
func RequireDoctor(tokens TokenVerifier) echo.MiddlewareFunc {
	return RequireRole(tokens, RoleDoctor)
}

// RequirePatient admits patient tokens only.
func RequirePatient(tokens TokenVerifier) echo.MiddlewareFunc {
	return RequireRole(tokens, RolePatient)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
