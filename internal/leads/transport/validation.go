package transport

import (
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// RegisterValidations adds the leads-specific tags to v. Enum tags match
// case-insensitively; handlers store the canonical spelling.
func RegisterValidations(v *validator.Validator) error {
	rules := map[string]playground.Func{
		"actiontype": func(fl playground.FieldLevel) bool {
			_, ok := domain.ParseActionType(fl.Field().String())
			return ok
		},
		"leadstatus": func(fl playground.FieldLevel) bool {
			_, ok := domain.ParseStatus(fl.Field().String())
			return ok
		},
		"temperature": func(fl playground.FieldLevel) bool {
			_, ok := domain.ParseTemperature(fl.Field().String())
			return ok
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
