package mandrillx

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// SendAtLayout is the timestamp format Mandrill expects for send_at.
const SendAtLayout = "2006-01-02 15:04:05"

// SendAt is a scheduled delivery time: a timestamp, a calendar date or a
// caller-formatted string passed through untouched.
type SendAt struct {
	t        time.Time
	dateOnly bool
	raw      string
	isRaw    bool
}

// SendAtTime schedules at t. Zoned times are converted to UTC.
func SendAtTime(t time.Time) *SendAt {
	return &SendAt{t: t}
}

// SendAtDate schedules at midnight UTC of the given date.
func SendAtDate(year int, month time.Month, day int) *SendAt {
	return &SendAt{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), dateOnly: true}
}

// SendAtString passes s to Mandrill as is.
func SendAtString(s string) *SendAt {
	return &SendAt{raw: s, isRaw: true}
}

// String renders the value in the wire format.
func (s SendAt) String() string {
	switch {
	case s.isRaw:
		return s.raw
	case s.dateOnly:
		return s.t.Format("2006-01-02") + " 00:00:00"
	default:
		return FormatSendAt(s.t)
	}
}

// FormatSendAt renders t as "YYYY-MM-DD HH:MM:SS" in UTC with sub-second
// precision dropped.
func FormatSendAt(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(SendAtLayout)
}

// MarshalJSON encodes the wire format string.
func (s SendAt) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON keeps the decoded string verbatim.
func (s *SendAt) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SendAt{raw: raw, isRaw: true}
	return nil
}

// MarshalYAML encodes the wire format string.
func (s SendAt) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML accepts a timestamp, a date or a plain string.
func (s *SendAt) UnmarshalYAML(value *yaml.Node) error {
	switch value.ShortTag() {
	case "!!timestamp":
		var t time.Time
		if err := value.Decode(&t); err != nil {
			return err
		}
		if len(value.Value) == len("2006-01-02") {
			*s = *SendAtDate(t.Year(), t.Month(), t.Day())
			return nil
		}
		*s = *SendAtTime(t)
		return nil
	default:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*s = *SendAtString(raw)
		return nil
	}
}
