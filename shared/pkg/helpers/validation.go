package helpers

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps go-playground validator with the date rules used by
// the analytics API
type CustomValidator struct {
	validate *validator.Validate
}

// NewCustomValidator creates a new custom validator
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("isodate", validateISODate)
	v.RegisterValidation("timezone", validateTimezone)

	return &CustomValidator{validate: v}
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validate.Struct(i)
}

// validateISODate accepts YYYY-MM-DD calendar dates
func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(ISODate, fl.Field().String())
	return err == nil
}

// validateTimezone accepts IANA zone names
func validateTimezone(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// IsISODate reports whether s is a valid YYYY-MM-DD date
func IsISODate(s string) bool {
	_, err := time.Parse(ISODate, s)
	return err == nil
}
