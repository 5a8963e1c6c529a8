package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"colorfest/services/analytics-service/internal/service"
	"colorfest/shared/pkg/helpers"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service sentinels to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEditionNotFound), errors.Is(err, service.ErrEventNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoData):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requestLocale picks the validation message locale from Accept-Language
func requestLocale(r *http.Request) string {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Accept-Language")), "en") {
		return "en"
	}
	return helpers.GetDefaultLocale()
}
