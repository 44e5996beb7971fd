package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dosada05/bracket-engine/services"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	if err := writeJSON(w, status, jsonResponse{"error": message}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// mapServiceError translates engine errors into HTTP statuses.
func mapServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBracketNotFound):
		errorResponse(w, http.StatusNotFound, "bracket not found")
	default:
		errorResponse(w, http.StatusInternalServerError, "the server could not process the request")
	}
}
