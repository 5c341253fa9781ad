package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrNotConfigured   = errors.New("credentials not configured")
	ErrDisabled        = errors.New("collection is disabled")
	ErrNoPayload       = errors.New("no JSON payload on page")
	ErrUnexpectedShape = errors.New("unexpected document shape")
)

// AcquisitionError reports that neither the remote nor the local browser
// could be started. It is terminal for the calling run.
type AcquisitionError struct {
	Remote error // nil when no remote endpoint is configured
	Local  error
}

func (e *AcquisitionError) Error() string {
	var parts []string
	if e.Remote != nil {
		parts = append(parts, fmt.Sprintf("remote: %v", e.Remote))
	}
	if e.Local != nil {
		parts = append(parts, fmt.Sprintf("local: %v", e.Local))
	}
	return "browser acquisition failed (" + strings.Join(parts, "; ") + ")"
}

func (e *AcquisitionError) Unwrap() []error {
	var errs []error
	if e.Remote != nil {
		errs = append(errs, e.Remote)
	}
	if e.Local != nil {
		errs = append(errs, e.Local)
	}
	return errs
}

// AuthError reports a login that resolved to failure or timed out.
type AuthError struct {
	Outcome string // "failure" or "timeout"
	URL     string // page URL when the handshake resolved
	Err     error
}

func (e *AuthError) Error() string {
	msg := "login " + e.Outcome
	if e.URL != "" {
		msg += " at " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// ExtractionError wraps a missing or malformed statistics document.
// Extractors resolve it to an empty row sequence.
type ExtractionError struct {
	URL    string
	Metric Metric
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s rankings from %s: %v", e.Metric, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RowError describes a single row that could not be built. It never leaves
// the normalization pipeline.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// HarvestError wraps failures of the nickname listing call.
type HarvestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *HarvestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("harvest %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("harvest %s: %v", e.URL, e.Err)
}

func (e *HarvestError) Unwrap() error { return e.Err }
