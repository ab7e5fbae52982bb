// Package httpx writes JSON responses.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error reply. Details is left out of the
// JSON when nil.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

const encodeErrorBody = `{"error":"encode_error"}`

// JSON writes payload with the given status. A nil payload is written as null.
// If payload cannot be encoded nothing of it is sent and the reply becomes a
// 500 encode_error.
func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status, body = http.StatusInternalServerError, []byte(encodeErrorBody)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes an ErrorResponse.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}

// Fail writes code with err's message as details. Server errors (5xx) carry
// the code only.
func Fail(w http.ResponseWriter, status int, code string, err error) {
	if err == nil || status >= http.StatusInternalServerError {
		JSONError(w, status, code, nil)
		return
	}
	JSONError(w, status, code, err.Error())
}
