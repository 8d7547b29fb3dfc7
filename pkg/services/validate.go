package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		_, err := NormalizePaymentMethod(fl.Field().String())
		return err == nil
	})
	return v
}

// validateStruct runs the struct tags on s and turns the first failure into a
// Validation error. messages is keyed by "Field.tag" or by "Field".
func validateStruct(s any, messages map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	fe := fieldErrs[0]
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return apperrors.Validation(msg, fe.Field())
	}
	if msg, ok := messages[fe.Field()]; ok {
		return apperrors.Validation(msg, fe.Field())
	}
	return apperrors.Validation(fe.Error(), fe.Field())
}

func requireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation("Authentication token is required")
	}
	return nil
}

func requireID(id, message string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation(message)
	}
	return nil
}

// NormalizePaymentMethod upper-cases s and checks it against the supported
// payment providers.
func NormalizePaymentMethod(s string) (models.PaymentMethod, error) {
	m := models.PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range models.PaymentMethods {
		if m == known {
			return m, nil
		}
	}
	return "", apperrors.Validation("Payment method must be either VIETQR, VNPAY or MOMO")
}
