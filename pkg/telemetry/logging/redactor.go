package logging

import (
	"net/url"
	"strings"
)

const redacted = "***"

// sensitiveParams are query parameter names whose values never reach logs.
var sensitiveParams = map[string]bool{
	"token":         true,
	"access_token":  true,
	"apikey":        true,
	"api_key":       true,
	"key":           true,
	"authorization": true,
	"auth":          true,
	"password":      true,
	"secret":        true,
}

// RedactURL masks sensitive query values in raw, recursing into query values
// that are themselves URLs (the gateway receives its target as ?url=).
// Unparseable input is returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	q := u.Query()
	changed := false
	for name, values := range q {
		if sensitiveParams[strings.ToLower(name)] {
			for i := range values {
				values[i] = redacted
			}
			changed = true
			continue
		}
		for i, v := range values {
			if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
				if r := RedactURL(v); r != v {
					values[i] = r
					changed = true
				}
			}
		}
	}
	if !changed {
		return raw
	}

	u.RawQuery = q.Encode()
	return u.String()
}
