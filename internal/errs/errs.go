// Package errs defines the error taxonomy shared by the order service and
// the conversion pipeline. Handlers map these to status codes with errors.As;
// anything unrecognized is treated as an internal error.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports malformed or missing caller input. Problems are
// full messages, each starting with the offending field name.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// CatalogUnavailableError means there is no sellable product to price
// against. Caller-visible but not caller-fixable by changing the request.
type CatalogUnavailableError struct {
	Reason string
}

func (e *CatalogUnavailableError) Error() string {
	if e.Reason != "" {
		return "catalog unavailable: " + e.Reason
	}
	return "catalog unavailable"
}

// ConfigurationError means required deployment configuration is absent.
// Raised at construction time, never per request.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

// PersistenceError wraps a failed data-store write. OrderID is set when an
// order row exists but a later write in the sequence failed, leaving a
// recognized partial state behind.
type PersistenceError struct {
	Op      string
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("failed to %s (partial order %s): %v", e.Op, e.OrderID, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ProviderError reports a rejection or failure from the external conversions
// API. Message carries the provider's own error text where available.
type ProviderError struct {
	Code    int64
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return "provider error: " + e.Message
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps a taxonomy error to the response status code. Validation
// and catalog problems are the caller's to fix; everything else is a server
// fault.
func HTTPStatus(err error) int {
	var ve *ValidationError
	var cu *CatalogUnavailableError
	if errors.As(err, &ve) || errors.As(err, &cu) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
