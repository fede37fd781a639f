package handler

import (
	"regexp"

	"bramblemart/internal/app/store/entity"

	"github.com/go-playground/validator/v10"
)

// Телефон в формате E.164: опциональный +, первая цифра без нуля, до 16 цифр
var phoneRegex = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)

// newValidator создает валидатор с кастомным тегом phone
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	return v
}

// collectValidationErrors собирает все ошибки валидации запроса сразу,
// чтобы клиент мог подсветить каждое невалидное поле формы
func collectValidationErrors(err error) []entity.FieldError {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []entity.FieldError{{Field: "request", Reason: "invalid"}}
	}

	fields := make([]entity.FieldError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, entity.FieldError{
			Field:  fieldError.Field(),
			Reason: fieldError.Tag(),
		})
	}
	return fields
}
