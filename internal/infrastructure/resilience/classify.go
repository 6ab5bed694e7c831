package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

var (
	// Transient failures are retried and count against the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Permanent failures count against the breaker but are not retried.
	Permanent = ErrorClassification{RecordFailure: true}
	// Ignored failures neither retry nor trip the breaker.
	Ignored = ErrorClassification{}
)

// StatusError is a non-2xx reply from an HTTP collaborator.
type StatusError struct {
	System     string
	Operation  string
	StatusCode int
	Status     string
	Body       string
	Wait       time.Duration
}

func (e *StatusError) Error() string {
	if e == nil {
		return "upstream status error"
	}
	system := e.System
	if system == "" {
		system = "upstream"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s %s status: %s", system, e.Operation, e.Status)
	}
	return fmt.Sprintf("%s %s status: %s: %s", system, e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// RetryAfter exposes the server's Retry-After hint to the executor.
func (e *StatusError) RetryAfter() time.Duration {
	if e == nil {
		return 0
	}
	return e.Wait
}

// NewStatusError drains a bounded prefix of the body so the message stays
// useful in logs without holding a large payload.
func NewStatusError(system, operation string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		System:     system,
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
		Wait:       parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

func RetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ClassifyHTTP covers the failure modes shared by every HTTP collaborator.
// Errors it does not recognise are permanent.
func ClassifyHTTP(err error) ErrorClassification {
	if class, ok := classifyCommon(err); ok {
		return class
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if RetryableStatus(statusErr.StatusCode) {
			return Transient
		}
		return Ignored
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	return Permanent
}

// ClassifyMatching treats any of the listed sentinel errors as transient.
func ClassifyMatching(transient ...error) ErrorClassifier {
	return func(err error) ErrorClassification {
		if class, ok := classifyCommon(err); ok {
			return class
		}
		for _, target := range transient {
			if errors.Is(err, target) {
				return Transient
			}
		}
		return Permanent
	}
}

func classifyCommon(err error) (ErrorClassification, bool) {
	switch {
	case err == nil:
		return Ignored, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Ignored, true
	case IsCircuitOpen(err):
		return Transient, true
	}
	return ErrorClassification{}, false
}

// MarkTemporary tags retryable failures and open circuits with
// domain.ErrTemporary so callers can map them to a retry-later response.
// Context errors pass through untouched.
func MarkTemporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if classify == nil {
		classify = defaultClassifier
	}
	if classify(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
