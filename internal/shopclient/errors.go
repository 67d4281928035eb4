package shopclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthorized is returned when the server rejects the session token.
// The session has already been cleared when a caller sees it.
var ErrUnauthorized = errors.New("session expired, run `storefront login`")

// ErrMalformedResponse is returned when a response is missing fields the
// client relies on.
var ErrMalformedResponse = errors.New("malformed response from server")

// FieldErrors maps a form field to its server-side validation messages.
// The API sends either a single string or a list per field.
type FieldErrors map[string][]string

// UnmarshalJSON accepts both {"field": "msg"} and {"field": ["msg", ...]}.
func (f *FieldErrors) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FieldErrors, len(raw))
	for field, v := range raw {
		var one string
		if err := json.Unmarshal(v, &one); err == nil {
			out[field] = []string{one}
			continue
		}
		var many []string
		if err := json.Unmarshal(v, &many); err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
		out[field] = many
	}
	*f = out
	return nil
}

// First returns the first message for field, or "".
func (f FieldErrors) First(field string) string {
	if msgs := f[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// APIError is a non-2xx response from the shop API.
type APIError struct {
	StatusCode int         `json:"-"`
	Message    string      `json:"message"`
	Errors     FieldErrors `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	if len(e.Errors) == 0 {
		return msg
	}

	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Errors[field], ", "))
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}
