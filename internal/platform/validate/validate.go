// Package validate wraps go-playground/validator with the custom rules and
// message mapping the request DTOs rely on.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/medirx/medirx/internal/platform/apperr"
)

var mmyyPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

// Validator is safe for concurrent use once built.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("mmyy", func(fl validator.FieldLevel) bool {
		return mmyyPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Messages maps validation failures to client-facing text. Required is used
// for any missing field. Fields is keyed by "<json name>.<tag>" or
// "<json name>" alone.
type Messages struct {
	Required string
	Fields   map[string]string
}

// Check validates s and converts the first failure into an apperr validation
// error. Missing fields take precedence over malformed ones.
func (val *Validator) Check(s any, msgs Messages) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validate request", err)
	}

	if msgs.Required != "" {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return apperr.Validation(msgs.Required)
			}
		}
	}

	fe := verrs[0]
	if m, ok := msgs.Fields[fe.Field()+"."+fe.Tag()]; ok {
		return apperr.Validation(m)
	}
	if m, ok := msgs.Fields[fe.Field()]; ok {
		return apperr.Validation(m)
	}
	return apperr.Validation(defaultMessage(fe))
}

// Var validates a single value against tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// Validate implements echo.Validator.
func (val *Validator) Validate(i interface{}) error {
	return val.Check(i, Messages{})
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Invalid email format."
	case "min", "max", "len":
		return fmt.Sprintf("%s has an invalid length.", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}
