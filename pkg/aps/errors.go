package aps

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// maxExcerpt bounds how much of a response body ends up in an error.
const maxExcerpt = 400

// RequestError is returned for every non-2xx response.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsStatus reports whether err carries a RequestError with the given status.
func IsStatus(err error, code int) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == code
	}
	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	return IsStatus(err, http.StatusConflict)
}

// ContractError is returned when a 2xx response does not have the shape the
// operation depends on (wrong JSON:API type, missing id, ...).
type ContractError struct {
	Op      string
	Reason  string
	Payload string
}

func (e *ContractError) Error() string {
	if e.Payload == "" {
		return fmt.Sprintf("unexpected payload for %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("unexpected payload for %s: %s: %s", e.Op, e.Reason, e.Payload)
}

func newContractError(op, reason string, payload interface{}) *ContractError {
	var excerptText string
	switch v := payload.(type) {
	case nil:
	case []byte:
		excerptText = excerpt(v)
	case string:
		excerptText = excerpt([]byte(v))
	default:
		b, err := json.Marshal(v)
		if err == nil {
			excerptText = excerpt(b)
		}
	}
	return &ContractError{Op: op, Reason: reason, Payload: excerptText}
}

func excerpt(b []byte) string {
	if len(b) > maxExcerpt {
		return string(b[:maxExcerpt])
	}
	return string(b)
}
