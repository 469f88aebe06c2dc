package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"invoicepro/internal/core/types"
)

// RegisterValidators adds the custom binding tags used by the request DTOs:
//
//	currency: an ISO 4217 code with a known minor-unit exponent
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		_, err := types.ParseCurrency(fl.Field().String())
		return err == nil
	})
}
