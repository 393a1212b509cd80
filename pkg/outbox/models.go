package outbox

import (
	"encoding/json"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/mandrillx"
)

// Status represents the delivery state of an outbox entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSending  Status = "sending"
	StatusSent     Status = "sent"
	StatusRetrying Status = "retrying"
	StatusFailed   Status = "failed"
)

// Entry is a queued message and its delivery history.
type Entry struct {
	ID      string          `json:"id"`
	Queue   string          `json:"queue"`
	Message json.RawMessage `json:"message"`
	Status  Status          `json:"status"`

	Attempts    int `json:"attempts"`
	MaxAttempts int `json:"max_attempts"`

	Error    string                  `json:"error,omitempty"`
	Response *mandrillx.SendResponse `json:"response,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntry creates a pending entry.
func NewEntry(id, queue string, message json.RawMessage, maxAttempts int, now time.Time) *Entry {
	return &Entry{
		ID:          id,
		Queue:       queue,
		Message:     message,
		Status:      StatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Start records a delivery attempt.
func (e *Entry) Start(now time.Time) {
	e.Status = StatusSending
	e.Attempts++
	e.UpdatedAt = now
}

// Sent records a successful delivery.
func (e *Entry) Sent(resp *mandrillx.SendResponse, now time.Time) {
	e.Status = StatusSent
	e.Error = ""
	e.Response = resp
	e.UpdatedAt = now
}

// Failed records a failed attempt and reports whether the entry should be
// retried: only retryable failures with attempts left are.
func (e *Entry) Failed(errMsg string, resp *mandrillx.SendResponse, retryable bool, now time.Time) bool {
	retry := retryable && e.Attempts < e.MaxAttempts
	if retry {
		e.Status = StatusRetrying
	} else {
		e.Status = StatusFailed
	}
	e.Error = errMsg
	e.Response = resp
	e.UpdatedAt = now
	return retry
}

// DecodeMessage returns the queued message.
func (e *Entry) DecodeMessage() (*mandrillx.Message, error) {
	var msg mandrillx.Message
	if err := json.Unmarshal(e.Message, &msg); err != nil {
		return nil, outboxErrors.NewWithCause(ErrInvalidMessage, err).WithDetail("entry_id", e.ID)
	}
	return &msg, nil
}
