package client

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrRequestFailed matches every non-2xx response.
	ErrRequestFailed  = errors.New("request failed")
	ErrDeleteRejected = errors.New("service refused to delete workflow")
	ErrEmptyResponse  = errors.New("empty response")
)

// APIError is a non-2xx response. Status is the response status text.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRequestFailed
}

func newAPIError(resp *http.Response) *APIError {
	return &APIError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.Path,
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
	}
}

// statusText strips the code from "404 Not Found".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}

	return text
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
