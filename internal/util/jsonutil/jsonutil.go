package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoPayload is returned when text holds no JSON object.
var ErrNoPayload = errors.New("jsonutil: no JSON object in text")

// Payload extracts the JSON object a model returned as text. It accepts:
// 1) a bare object
// 2) an object inside a ```json fence
// 3) an object encoded as a JSON string, one level deep
// Anything else returns ErrNoPayload and the caller treats the output as
// malformed.
func Payload(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(stripFence(text))
	if isObject([]byte(s)) {
		return json.RawMessage(s), nil
	}
	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err == nil {
		inner = strings.TrimSpace(stripFence(inner))
		if isObject([]byte(inner)) {
			return json.RawMessage(inner), nil
		}
	}
	return nil, ErrNoPayload
}

func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		t = t[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(t), "```")
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 1 && b[0] == '{' && json.Valid(b)
}

// MarshalNoEscape encodes v into JSON without HTML-escaping <, > and &.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
