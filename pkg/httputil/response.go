// Package httputil provides the JSON response helpers shared by the identity
// service fake and its tests.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorBody is the error document the identity service returns with every
// 4xx and 5xx response.
type ErrorBody struct {
	Status           int    `json:"status"`
	Code             int    `json:"code"`
	Message          string `json:"message"`
	DeveloperMessage string `json:"developerMessage,omitempty"`
	MoreInfo         string `json:"moreInfo,omitempty"`
}

func (e *ErrorBody) Error() string {
	if e.DeveloperMessage != "" {
		return fmt.Sprintf("%d (code %d): %s", e.Status, e.Code, e.DeveloperMessage)
	}
	return fmt.Sprintf("%d (code %d): %s", e.Status, e.Code, e.Message)
}

// StatusCode returns the HTTP status code for this error.
func (e *ErrorBody) StatusCode() int {
	return e.Status
}

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes e with its own status. A zero status is sent as 500.
func WriteError(w http.ResponseWriter, e *ErrorBody) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	if e.Code == 0 {
		e.Code = e.Status
	}
	WriteJSON(w, e.Status, e)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteCreated writes a 201 Created response with the created resource.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteNotFound writes a 404 response for the given href.
func WriteNotFound(w http.ResponseWriter, href string) {
	WriteError(w, &ErrorBody{
		Status:           http.StatusNotFound,
		Code:             http.StatusNotFound,
		Message:          "The requested resource does not exist.",
		DeveloperMessage: fmt.Sprintf("resource %q not found", href),
	})
}

// WriteUnauthorized writes a 401 response asking for HTTP basic credentials.
func WriteUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="idm"`)
	WriteError(w, &ErrorBody{
		Status:  http.StatusUnauthorized,
		Code:    http.StatusUnauthorized,
		Message: "Authentication required.",
	})
}
