package hookx

import (
	"encoding/json"
	"time"
)

// Event is one decoded element of mandrill_events.
type Event struct {
	// Type is "event" for message and inbound events, "{type}_{action}" for
	// sync events, or empty when neither is present.
	Type string
	Data map[string]any
	Raw  json.RawMessage
}

// DecodeEvents parses the mandrill_events form value.
func DecodeEvents(raw string) ([]Event, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, hookxErrors.NewWithCause(ErrInvalidPayload, err)
	}

	events := make([]Event, 0, len(items))
	for i, item := range items {
		var data map[string]any
		if err := json.Unmarshal(item, &data); err != nil {
			return nil, hookxErrors.NewWithCause(ErrInvalidPayload, err).WithDetail("index", i)
		}
		events = append(events, Event{Type: EventType(data), Data: data, Raw: item})
	}
	return events, nil
}

// EventType derives the dispatch type of a decoded event.
func EventType(data map[string]any) string {
	if ev, ok := data["event"].(string); ok {
		return ev
	}
	typ, okType := data["type"].(string)
	action, okAction := data["action"].(string)
	if okType && okAction {
		return typ + "_" + action
	}
	return ""
}

// MessageID returns msg._id, falling back to the event's own _id.
func (e Event) MessageID() string {
	if id := nestedString(e.Data, "msg", "_id"); id != "" {
		return id
	}
	id, _ := e.Data["_id"].(string)
	return id
}

// Email returns the address the event is about.
func (e Event) Email() string {
	for _, parent := range []string{"msg", "reject", "entry"} {
		if email := nestedString(e.Data, parent, "email"); email != "" {
			return email
		}
	}
	return ""
}

// OccurredAt returns the ts field as a time, or the zero time.
func (e Event) OccurredAt() time.Time {
	if ts, ok := e.Data["ts"].(float64); ok {
		return time.Unix(int64(ts), 0).UTC()
	}
	return time.Time{}
}

func nestedString(data map[string]any, parent, key string) string {
	obj, ok := data[parent].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}
