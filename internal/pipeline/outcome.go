package pipeline

import "net/http"

// OutcomeKind tags the terminal decision of a pipeline step. Making the
// fail-open/fail-closed composition explicit here keeps the override rules
// out of nested error handling.
type OutcomeKind int

const (
	OutcomeContinue OutcomeKind = iota
	OutcomeRedirect
	OutcomeReject
)

// RejectBody is the JSON payload of a 429 on an API route.
type RejectBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

type Outcome struct {
	Kind       OutcomeKind
	RedirectTo string
	Status     int
	Body       RejectBody
	// Headers are merged into the response for Continue and Reject
	// outcomes. Redirects intentionally carry none.
	Headers http.Header
}

func Continue() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

func ContinueWith(headers http.Header) Outcome {
	return Outcome{Kind: OutcomeContinue, Headers: headers}
}

func Redirect(to string) Outcome {
	return Outcome{Kind: OutcomeRedirect, RedirectTo: to}
}

func Reject(status int, body RejectBody, headers http.Header) Outcome {
	return Outcome{Kind: OutcomeReject, Status: status, Body: body, Headers: headers}
}
