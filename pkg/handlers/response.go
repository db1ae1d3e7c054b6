package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse writes the standard error envelope: a JSON object with an
// error code the client can branch on and a human-readable message.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON encodes data as the response body. 200 is left implicit so a
// later write cannot trip a superfluous-WriteHeader complaint.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
