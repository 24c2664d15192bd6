package gateway

import (
	"encoding/json"
	"net/http"
)

// Error messages carried in the envelope. Clients match on these strings.
const (
	MsgMissingURL  = "Missing url parameter"
	MsgInvalidURL  = "Invalid URL format"
	MsgForbidden   = "Domain not allowed"
	MsgHTMLPage    = "External API returned error page"
	MsgInvalidJSON = "Invalid JSON response"
	MsgFetchFailed = "Failed to fetch data"
	MsgRateLimited = "Too many requests"
)

// Envelope is the body of every response the gateway produces itself.
// Successful proxied responses are forwarded as-is instead.
type Envelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Data    []any  `json:"data"`
}

// NewEnvelope returns an envelope with an empty data array.
func NewEnvelope(errMsg, message string) Envelope {
	return Envelope{Error: errMsg, Message: message, Data: []any{}}
}

// Bytes encodes the envelope. Encoding a string and an empty slice cannot fail.
func (e Envelope) Bytes() []byte {
	b, _ := json.Marshal(e)
	return b
}

// WriteEnvelope writes env with the given status and a JSON content type.
func WriteEnvelope(w http.ResponseWriter, status int, env Envelope) {
	writeJSON(w, status, env.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
