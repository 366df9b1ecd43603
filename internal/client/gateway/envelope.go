package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// envelope is the normalized response format
// {success, data, error, details, message}.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

// failure is the error half of a response body.
type failure struct {
	message string
	details json.RawMessage
}

// normalize splits a response body into its payload or its failure. There
// are exactly two input shapes: an envelope carrying a boolean "success",
// and anything else, which is the payload itself.
func normalize(body []byte) ([]byte, *failure) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Success == nil {
		return trimmed, nil
	}
	if *env.Success {
		return successPayload(trimmed, env.Data), nil
	}
	f := errorFromEnvelope(env)
	return nil, &f
}

// successPayload returns the data of a success envelope. A list travels
// with its pagination siblings, so an array keeps them: the result is the
// envelope minus its status fields.
func successPayload(body []byte, data json.RawMessage) []byte {
	inner := bytes.TrimSpace(data)
	if len(inner) == 0 || inner[0] != '[' {
		return data
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return data
	}
	for _, k := range []string{"success", "message", "error"} {
		delete(obj, k)
	}
	if len(obj) == 1 {
		return data
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return data
	}
	return out
}

// extractError reads the failure out of a non-2xx body. The body may be an
// envelope, a plain JSON object with error/message, a JSON string, plain
// text or empty.
func extractError(body []byte) failure {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return failure{}
	}
	switch trimmed[0] {
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil {
			return errorFromEnvelope(env)
		}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return failure{message: strings.TrimSpace(s)}
		}
	case '<':
		// HTML error pages from proxies carry nothing useful.
		return failure{}
	}
	return failure{message: truncate(strings.TrimSpace(string(trimmed)), maxErrorText)}
}

const maxErrorText = 300

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func errorFromEnvelope(env envelope) failure {
	f := failure{message: env.Message, details: nonNull(env.Details)}
	if len(env.Error) == 0 {
		return f
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		if s != "" {
			f.message = s
		}
		return f
	}
	var obj struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil {
		if obj.Message != "" {
			f.message = obj.Message
		}
		if d := nonNull(obj.Details); d != nil && f.details == nil {
			f.details = d
		}
	}
	return f
}

func nonNull(raw json.RawMessage) json.RawMessage {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte(`""`)) {
		return nil
	}
	return raw
}

// unwrapData returns the inner object of a bare {"data": {...}} wrapper
// (optionally with "message"). Lists keep their pagination siblings and
// are never unwrapped here.
func unwrapData(payload []byte) []byte {
	t := bytes.TrimSpace(payload)
	if len(t) == 0 || t[0] != '{' {
		return payload
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(t, &obj); err != nil {
		return payload
	}
	data, ok := obj["data"]
	if !ok {
		return payload
	}
	for k := range obj {
		if k != "data" && k != "message" {
			return payload
		}
	}
	inner := bytes.TrimSpace(data)
	if len(inner) == 0 || inner[0] != '{' {
		return payload
	}
	return inner
}
