package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of an error response is read
const maxErrorBody = 64 << 10

// Error is a failure reported by the API itself
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// StatusError is a non-2xx response without a usable error body
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if text == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, text)
}

func responseError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	var body struct {
		Error   *string `json:"error"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	switch {
	case body.Error != nil:
		return &Error{StatusCode: resp.StatusCode, Message: *body.Error}
	case body.Message != nil:
		return &Error{StatusCode: resp.StatusCode, Message: *body.Message}
	default:
		return &StatusError{StatusCode: resp.StatusCode}
	}
}
