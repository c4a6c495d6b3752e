package telegram

import "fmt"

// TransportError is returned when the Bot API answers with a non-2xx
// HTTP status. Body holds the raw response body.
type TransportError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telegram: %s: HTTP %d %s", e.Method, e.StatusCode, e.Body)
}

// APIError is returned when the HTTP call succeeds but the response
// envelope has ok=false. Payload holds the full response.
type APIError struct {
	Method      string
	Code        int
	Description string
	Payload     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s responded not ok: %s", e.Method, e.Payload)
}
