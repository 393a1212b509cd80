package mandrillx

import (
	"encoding/json"
	"strings"
)

// Recipient statuses reported by Mandrill.
const (
	StatusSent      = "sent"
	StatusQueued    = "queued"
	StatusScheduled = "scheduled"
	StatusRejected  = "rejected"
	StatusInvalid   = "invalid"
)

// RecipientStatus is one element of a send response.
type RecipientStatus struct {
	Email        string  `json:"email"`
	Status       string  `json:"status"`
	RejectReason *string `json:"reject_reason,omitempty"`
	ID           string  `json:"_id,omitempty"`
}

// SendResponse is what Mandrill answered to a send call. Recipients is nil
// when the status was not a success or the body could not be parsed.
type SendResponse struct {
	StatusCode int               `json:"status_code"`
	Body       string            `json:"body,omitempty"`
	Recipients []RecipientStatus `json:"recipients,omitempty"`
}

// APIError is the error body Mandrill returns with non-2xx statuses.
type APIError struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ParseResponse decodes a successful send response body. Anything but a JSON
// array of recipient results is a transport error.
func ParseResponse(statusCode int, body []byte) (*SendResponse, error) {
	resp := &SendResponse{StatusCode: statusCode, Body: string(body)}

	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "[") {
		return resp, mandrillErrors.NewWithMessage(ErrTransport, "Mandrill API response has an invalid format").
			WithDetail("status_code", statusCode)
	}
	var recipients []RecipientStatus
	if err := json.Unmarshal([]byte(trimmed), &recipients); err != nil {
		return resp, mandrillErrors.NewWithCause(ErrTransport, err).
			WithDetail("status_code", statusCode)
	}
	resp.Recipients = recipients
	return resp, nil
}

// ValidateResponse fails with ErrRecipientsRefused when every recipient was
// rejected or invalid. Partial failures are a success.
func ValidateResponse(resp *SendResponse, ignoreRecipientStatus bool) error {
	if ignoreRecipientStatus || resp == nil || len(resp.Recipients) == 0 {
		return nil
	}
	for _, r := range resp.Recipients {
		if r.Status != StatusRejected && r.Status != StatusInvalid {
			return nil
		}
	}
	return mandrillErrors.New(ErrRecipientsRefused).
		WithDetail("recipients", resp.Recipients)
}

// Refused returns the recipients Mandrill did not accept.
func (r *SendResponse) Refused() []RecipientStatus {
	var out []RecipientStatus
	for _, rs := range r.Recipients {
		if rs.Status == StatusRejected || rs.Status == StatusInvalid {
			out = append(out, rs)
		}
	}
	return out
}

func decodeAPIError(body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Status != "error" {
		return nil
	}
	return &apiErr
}
