package errx

import (
	"encoding/json"
	"net/http"
)

// HTTPErrorResponse represents a standard HTTP error response
type HTTPErrorResponse struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Type       string                 `json:"type"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// ToHTTPResponse converts an Error to an HTTPErrorResponse. Details are left
// out unless public is set, since they may carry message content.
func (e *Error) ToHTTPResponse(public bool) HTTPErrorResponse {
	resp := HTTPErrorResponse{
		Code:       e.Code,
		Message:    e.Message,
		Type:       string(e.Type),
		StatusCode: e.HTTPStatus,
	}
	if public {
		resp.Details = e.Details
	}
	return resp
}

// WriteHTTP writes the error as an HTTP response
func (e *Error) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus)
	json.NewEncoder(w).Encode(e.ToHTTPResponse(false))
}
