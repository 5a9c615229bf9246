package lyra

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned when no session is held or the backend
	// rejects the one we have.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// APIError is a generic backend failure carrying the HTTP status and the
// message extracted from the response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ValidationError reports a registration field rejected client-side before
// any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// TransportError represents HTTP transport-level failures (DNS, timeouts,
// connection reset, TLS handshake, etc.) while talking to the backend.
//
// Use errors.As(err, &TransportError{}) to distinguish transport failures
// from backend responses (*APIError).
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Op != "" && e.URL != "":
		return fmt.Sprintf("transport error during %s %s: %v", e.Op, redactURLUserInfo(e.URL), e.Err)
	case e.Op != "":
		return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("transport error: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func redactURLUserInfo(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}

const genericErrorMessage = "request failed"

// parseAPIError builds an *APIError from an error response body. The backend
// reports failures as {"detail": "..."} or {"detail": [{"msg": "..."}]};
// anything else degrades to a generic message rather than failing the call.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: genericErrorMessage}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil && text != "" {
		apiErr.Message = text
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 && items[0].Msg != "" {
		apiErr.Message = items[0].Msg
	}
	return apiErr
}
