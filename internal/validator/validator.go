// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"erario/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	// Amounts are validated through their string form.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("positive_money", validatePositiveMoney)
	_ = v.RegisterValidation("fiscal_year", validateFiscalYear)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("transaction_status", validateTransactionStatus)
	_ = v.RegisterValidation("budget_status", validateBudgetStatus)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func parseAmount(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, models.HasAmountScale(d)
}

// validateMoney accepts non-negative amounts with at most two decimals.
func validateMoney(fl validator.FieldLevel) bool {
	d, ok := parseAmount(fl)
	return ok && !d.IsNegative()
}

// validatePositiveMoney accepts amounts greater than zero with at most two decimals.
func validatePositiveMoney(fl validator.FieldLevel) bool {
	d, ok := parseAmount(fl)
	return ok && d.IsPositive()
}

func validateFiscalYear(fl validator.FieldLevel) bool {
	y := fl.Field().Int()
	return y >= 1900 && y <= 9999
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).IsValid()
}

func validateTransactionStatus(fl validator.FieldLevel) bool {
	return models.TransactionStatus(fl.Field().String()).IsValid()
}

func validateBudgetStatus(fl validator.FieldLevel) bool {
	return models.BudgetStatus(fl.Field().String()).IsValid()
}
