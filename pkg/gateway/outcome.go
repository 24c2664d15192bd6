package gateway

// Outcome classifies how a proxy request ended. It labels metrics and logs.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeMissingURL  Outcome = "missing_url"
	OutcomeInvalidURL  Outcome = "invalid_url"
	OutcomeForbidden   Outcome = "forbidden"
	OutcomeHTML        Outcome = "html"
	OutcomeInvalidJSON Outcome = "invalid_json"
	OutcomeFetchError  Outcome = "fetch_error"
)

// Response is the result of one proxy call before it is written out.
type Response struct {
	Status  int
	Body    []byte
	Outcome Outcome

	// Err is the cause behind OutcomeFetchError, or the blocked redirect
	// behind OutcomeForbidden; nil otherwise.
	Err error
}

func envelopeResponse(status int, outcome Outcome, env Envelope, err error) Response {
	return Response{Status: status, Body: env.Bytes(), Outcome: outcome, Err: err}
}
