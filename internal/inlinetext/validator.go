// Валидация запросов API с использованием go-playground/validator.
//
// Основные возможности:
//   - Проверка тел запросов по тегам validate.
//   - Валидаторы имени формата, режима хранения и ключа значения.
package inlinetext

import (
	"regexp"

	"github.com/aisa-it/inline-text/internal/inlinetext/editor/edtypes"
	"github.com/aisa-it/inline-text/internal/inlinetext/types"
	"github.com/go-playground/validator"
)

var valueKeyRe = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	err := v.RegisterValidation("format", formatValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("outputMode", outputModeValidator)
	if err != nil {
		return nil
	}

	err = v.RegisterValidation("valueKey", valueKeyValidator)
	if err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

// ValidateVar проверяет отдельное значение, например параметр пути.
func (rv *RequestValidator) ValidateVar(value interface{}, tag string) error {
	return rv.validator.Var(value, tag)
}

func formatValidator(fl validator.FieldLevel) bool {
	_, ok := edtypes.ParseFormat(fl.Field().String())
	return ok
}

func outputModeValidator(fl validator.FieldLevel) bool {
	_, err := types.ParseOutputMode(fl.Field().String())
	return err == nil
}

func valueKeyValidator(fl validator.FieldLevel) bool {
	return valueKeyRe.MatchString(fl.Field().String())
}
