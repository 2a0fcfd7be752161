package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"

	"careerlaunch_api/internal/apperrors"
)

// New returns a configured validator instance.
func New() *validatorv10.Validate {
	return validatorv10.New()
}

// EchoValidator adapts go-playground/validator to echo's Validator
// interface. Failures come back as a Validation app error carrying a
// field→message map in Details.
type EchoValidator struct {
	validator *validatorv10.Validate
}

func NewEchoValidator() *EchoValidator {
	return &EchoValidator{validator: New()}
}

func (v *EchoValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request").
			WithDetails(ErrorsToMap(err))
	}
	return nil
}

// ErrorsToMap flattens validator errors into a field→message map for
// the error response body.
func ErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
