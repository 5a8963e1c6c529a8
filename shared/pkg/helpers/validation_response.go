package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrorResponse represents the validation error response format
type ValidationErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// LocaleTranslations holds error message translations for different locales
type LocaleTranslations struct {
	Required string
	Min      string
	Max      string
	OneOf    string
	ISODate  string
	Invalid  string
}

var translations = map[string]LocaleTranslations{
	"it": {
		Required: "Il campo %s è obbligatorio",
		Min:      "Il campo %s deve essere almeno %s",
		Max:      "Il campo %s non può superare %s",
		OneOf:    "Il campo %s deve essere uno tra: %s",
		ISODate:  "Il campo %s deve essere una data AAAA-MM-GG",
		Invalid:  "Il campo %s non è valido",
	},
	"en": {
		Required: "The %s field is required",
		Min:      "The %s field must be at least %s",
		Max:      "The %s field must not exceed %s",
		OneOf:    "The %s field must be one of: %s",
		ISODate:  "The %s field must be a YYYY-MM-DD date",
		Invalid:  "The %s field is invalid",
	},
}

// GetDefaultLocale returns the default locale
func GetDefaultLocale() string {
	return "it"
}

// GetLocaleTranslations returns translations for a given locale, or default locale if not found
func GetLocaleTranslations(locale string) LocaleTranslations {
	if t, ok := translations[locale]; ok {
		return t
	}
	return translations[GetDefaultLocale()]
}

// FormatValidationError formats a validator.FieldError into a localized error message
func FormatValidationError(fe validator.FieldError, locale string) string {
	t := GetLocaleTranslations(locale)
	fieldName := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf(t.Required, fieldName)
	case "min":
		return fmt.Sprintf(t.Min, fieldName, fe.Param())
	case "max":
		return fmt.Sprintf(t.Max, fieldName, fe.Param())
	case "oneof":
		return fmt.Sprintf(t.OneOf, fieldName, fe.Param())
	case "isodate":
		return fmt.Sprintf(t.ISODate, fieldName)
	default:
		return fmt.Sprintf(t.Invalid, fieldName)
	}
}

// WriteValidationErrorResponse writes a 422 response for err. Errors that are
// not validator.ValidationErrors are reported as a single message.
func WriteValidationErrorResponse(w http.ResponseWriter, err error, locale string) {
	response := ValidationErrorResponse{Errors: make(map[string]string)}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for i, fe := range validationErrors {
			msg := FormatValidationError(fe, locale)
			response.Errors[strings.ToLower(fe.Field())] = msg
			if i == 0 {
				response.Message = msg
			}
		}
	} else if err != nil {
		response.Message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(response)
}
