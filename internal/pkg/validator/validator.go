package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/pkg/money"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated through their canonical string form
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	registerCustomValidations()
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		got := fl.Field().String()
		for _, v := range values {
			if got == v {
				return true
			}
		}
		return false
	}
}

func registerCustomValidations() {
	validate.RegisterValidation("money_positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && money.ValidatePositive(d) == nil
	})

	validate.RegisterValidation("money_nonneg", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && money.ValidateNonNegative(d) == nil
	})

	validate.RegisterValidation("interval", oneOf("minute", "hour", "day", "week"))
	validate.RegisterValidation("challenge_period", oneOf("daily", "weekly", "monthly", "special"))
	validate.RegisterValidation("challenge_category", oneOf("receipt", "spending", "merchant", "social"))
	validate.RegisterValidation("achievement_category", oneOf("receipt", "spending", "streak", "referral", "special"))
	validate.RegisterValidation("requirement_type", oneOf("receipts", "luvy", "streak"))
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "len":
			errors[field] = "Value must have length " + err.Param()
		case "money_positive":
			errors[field] = "Must be a positive amount with at most 2 decimals"
		case "money_nonneg":
			errors[field] = "Must be a non-negative amount with at most 2 decimals"
		case "interval":
			errors[field] = "Invalid interval. Must be: minute, hour, day, or week"
		case "challenge_period":
			errors[field] = "Invalid period. Must be: daily, weekly, monthly, or special"
		case "challenge_category":
			errors[field] = "Invalid category. Must be: receipt, spending, merchant, or social"
		case "achievement_category":
			errors[field] = "Invalid category. Must be: receipt, spending, streak, referral, or special"
		case "requirement_type":
			errors[field] = "Invalid requirement type. Must be: receipts, luvy, or streak"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}
