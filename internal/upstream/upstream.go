// Package upstream holds the HTTP plumbing shared by every external-call
// wrapper: client construction and the ServiceError returned when an
// upstream call fails.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// maxMessage caps how much of an upstream body is kept on an error.
const maxMessage = 2048

// ServiceError reports a failed call to an external service.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Service, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	default:
		return e.Service + ": " + e.Message
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Transient reports whether a retry could plausibly succeed.
func (e *ServiceError) Transient() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.StatusCode >= 500
}

// IsTransient reports whether err wraps a transient ServiceError.
func IsTransient(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Transient()
}

// Options configures NewClient.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Token   string
	Debug   bool
}

// NewClient builds a resty client for one upstream. Retries are left to
// callers.
func NewClient(opts Options) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetDebug(opts.Debug)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		c.SetBaseURL(base)
	}
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}
	return c
}

// Check converts a resty outcome into a ServiceError when the call failed.
func Check(service string, resp *resty.Response, err error) error {
	if err != nil {
		return &ServiceError{Service: service, Err: err}
	}
	if resp == nil {
		return &ServiceError{Service: service, Message: "empty response"}
	}
	if resp.IsSuccess() {
		return nil
	}
	return &ServiceError{
		Service:    service,
		StatusCode: resp.StatusCode(),
		Message:    Truncate(strings.TrimSpace(resp.String())),
	}
}

// Truncate shortens s to at most maxMessage bytes without splitting a rune.
func Truncate(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	cut := maxMessage
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
