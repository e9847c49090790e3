// Package apperr defines the error taxonomy shared by services and handlers.
// Services return *Error values carrying a Kind and a caller-safe message;
// handlers convert them to HTTP responses with HTTPError. Repositories wrap
// the ErrNotFound and ErrDuplicate sentinels so services can match them with
// errors.Is regardless of the backing store.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Repository-level sentinels.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindDerivation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidToken:
		return "invalid_token"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindDerivation:
		return "derivation"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind. Conflicts and invalid
// tokens answer 400 to match the API's established contract.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict, KindInvalidToken:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error. Message is safe to show to API callers;
// Err holds the underlying cause and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so errors.Is(err,
// &apperr.Error{Kind: apperr.KindNotFound}) works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error   { return New(KindValidation, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func InvalidToken(msg string) *Error { return New(KindInvalidToken, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }

func Internal(msg string, err error) *Error {
	return Wrap(KindInternal, msg, err)
}

func Derivation(msg string, err error) *Error {
	return Wrap(KindDerivation, msg, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPError converts err into an *echo.HTTPError. Internal errors keep their
// cause as Internal so the error handler can log it; the caller-visible
// message is always the *Error's Message.
func HTTPError(err error) *echo.HTTPError {
	var ae *Error
	if !errors.As(err, &ae) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
	he := echo.NewHTTPError(ae.Kind.Status(), ae.Message)
	if ae.Err != nil {
		he.SetInternal(ae.Err)
	}
	return he
}
