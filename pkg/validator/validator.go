package validator

import (
	"fmt"
	"regexp"

	"veshop-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("strong_password", validateStrongPassword)
}

// Validate runs struct validation and returns a user-readable error.
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// validateStrongPassword requires at least 6 characters with a letter and a digit.
func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 6 {
		return false
	}

	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)

	return hasDigit && hasLetter
}

func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		appErr := apperror.NewValidationError("Dữ liệu không hợp lệ")
		for _, e := range validationErrors {
			appErr.WithField(e.Field(), formatFieldError(e))
		}
		return appErr
	}
	return apperror.NewValidationError("Dữ liệu không hợp lệ")
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s không được để trống", field)
	case "email":
		return fmt.Sprintf("%s phải là địa chỉ email hợp lệ", field)
	case "min":
		return fmt.Sprintf("%s phải có ít nhất %s ký tự", field, e.Param())
	case "max":
		return fmt.Sprintf("%s không được vượt quá %s ký tự", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s phải lớn hơn %s", field, e.Param())
	case "strong_password":
		return fmt.Sprintf("%s phải có ít nhất 6 ký tự gồm chữ và số", field)
	default:
		return fmt.Sprintf("%s không hợp lệ: %s", field, e.Tag())
	}
}
