package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCategory is the normalized failure taxonomy for catalog sources.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorInternal       ErrorCategory = "internal"
)

// SourceError wraps a source failure with its category.
type SourceError struct {
	Category   ErrorCategory
	SourceID   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.SourceID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.SourceID, e.Category, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Underlying
}

// NewSourceError categorizes a failure. Timeouts, outages and throttling are
// retryable; everything else is not.
func NewSourceError(category ErrorCategory, sourceID, message string, underlying error) *SourceError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &SourceError{
		Category:   category,
		SourceID:   sourceID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

func IsRetryable(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

func GetCategory(err error) ErrorCategory {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrorInternal
}

// categorizeTransport maps a transport-level error.
func categorizeTransport(sourceID string, err error) *SourceError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewSourceError(ErrorTimeout, sourceID, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewSourceError(ErrorInternal, sourceID, "request cancelled", err)
	}
	return NewSourceError(ErrorProviderOutage, sourceID, "request failed", err)
}

// categorizeStatus maps a non-2xx HTTP status.
func categorizeStatus(sourceID string, status int) *SourceError {
	msg := fmt.Sprintf("unexpected status %d", status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewSourceError(ErrorAuthentication, sourceID, msg, nil)
	case status == http.StatusNotFound:
		return NewSourceError(ErrorNotFound, sourceID, msg, nil)
	case status == http.StatusTooManyRequests:
		return NewSourceError(ErrorRateLimited, sourceID, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewSourceError(ErrorTimeout, sourceID, msg, nil)
	case status >= 500:
		return NewSourceError(ErrorProviderOutage, sourceID, msg, nil)
	default:
		return NewSourceError(ErrorBadData, sourceID, msg, nil)
	}
}

// categorizeResultCode maps the catalog's in-body result codes.
func categorizeResultCode(sourceID, code, message string) *SourceError {
	msg := fmt.Sprintf("result code %s: %s", code, message)
	switch code {
	case "0", "00", "":
		return nil
	case "03":
		// no data
		return nil
	case "20", "30", "31", "32":
		return NewSourceError(ErrorAuthentication, sourceID, msg, nil)
	case "22":
		return NewSourceError(ErrorRateLimited, sourceID, msg, nil)
	case "01", "02", "04", "05":
		return NewSourceError(ErrorProviderOutage, sourceID, msg, nil)
	default:
		return NewSourceError(ErrorBadData, sourceID, msg, nil)
	}
}
