package httpapi

import (
	"encoding/json"
	"net/http"
)

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_FAILED"
	CodeTooMany      = "TOO_MANY_REQUESTS"
	CodeNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// ErrorEnvelope standardizes JSON error responses.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteValidation answers 422 with one message per invalid field.
func WriteValidation(w http.ResponseWriter, fields map[string]string) error {
	return WriteJSON(w, http.StatusUnprocessableEntity, &ErrorEnvelope{
		Code:    CodeValidation,
		Message: "the given data was invalid",
		Fields:  fields,
	})
}

func NotFound(w http.ResponseWriter, message string) {
	_ = WriteError(w, http.StatusNotFound, CodeNotFound, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	_ = WriteError(w, http.StatusForbidden, CodeForbidden, message, nil)
}

func Unauthorized(w http.ResponseWriter) {
	_ = WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required", nil)
}

func BadRequest(w http.ResponseWriter, message string) {
	_ = WriteError(w, http.StatusBadRequest, CodeBadRequest, message, nil)
}

func Internal(w http.ResponseWriter) {
	_ = WriteError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}
