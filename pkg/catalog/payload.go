package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// listKeys are the object keys searched, in order, for a list payload.
var listKeys = []string{"data", "series", "subjects", "titles", "questions", "items"}

// extractRecords decodes body and returns the objects of the list it holds.
// A top-level array is used as-is; otherwise the first array found under
// listKeys is used, looking one level into a "data" object. Non-object
// elements are skipped.
//
// Gateway envelopes become *EnvelopeError and the provider invalid-token
// signature becomes ErrAuthRequired.
func extractRecords(body []byte) ([]record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	list, err := findList(payload, true)
	if err != nil {
		return nil, err
	}

	out := make([]record, 0, len(list))
	for _, item := range list {
		if r, ok := item.(map[string]any); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func findList(payload any, descend bool) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if err := envelopeError(v); err != nil {
			return nil, err
		}
		if authRequired(v) {
			return nil, ErrAuthRequired
		}
		for _, k := range listKeys {
			if list, ok := v[k].([]any); ok {
				return list, nil
			}
		}
		if inner, ok := v["data"].(map[string]any); ok && descend {
			return findList(inner, false)
		}
	}
	return nil, ErrNotArray
}

func envelopeError(obj map[string]any) error {
	msg, ok := obj["error"].(string)
	if !ok || strings.TrimSpace(msg) == "" {
		return nil
	}
	detail, _ := obj["message"].(string)
	return &EnvelopeError{Message: msg, Detail: detail}
}

// authRequired matches {msg: "Invalid Token"} and status 401 given as a
// number or a string.
func authRequired(obj map[string]any) bool {
	if msg, ok := obj["msg"].(string); ok && strings.EqualFold(strings.TrimSpace(msg), "Invalid Token") {
		return true
	}
	if status, ok := obj["status"]; ok {
		if s, ok := asString(status); ok && s == "401" {
			return true
		}
	}
	return false
}
