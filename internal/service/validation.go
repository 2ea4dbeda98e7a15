package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and reports failing fields as a
// ValidationError keyed by field name.
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[toSnake(fe.Field())] = rule
	}
	return apperrors.NewValidationError("invalid input", details)
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
