package roi

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error matches exactly one of these with errors.Is.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidRegion        = errors.New("invalid region")
	ErrShapeMismatch        = errors.New("shape mismatch")
)

// Error provides detailed information about a rejected call.
type Error struct {
	Kind    error  // One of ErrInvalidConfiguration, ErrInvalidRegion, ErrShapeMismatch
	Op      string // Operation that failed (e.g., "roipool", "roipool_backward")
	Region  int    // Offending region index, or -1
	Details string // Additional details
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Region >= 0 {
		return fmt.Sprintf("%s: %v: region %d: %s", e.Op, e.Kind, e.Region, e.Details)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Details)
}

// Unwrap returns the error kind so errors.Is(err, ErrShapeMismatch) works.
func (e *Error) Unwrap() error {
	return e.Kind
}

// ConfigError builds an ErrInvalidConfiguration error.
func ConfigError(op, format string, args ...any) error {
	return &Error{Kind: ErrInvalidConfiguration, Op: op, Region: -1, Details: fmt.Sprintf(format, args...)}
}

// RegionError builds an ErrInvalidRegion error for region r.
func RegionError(op string, r int, format string, args ...any) error {
	return &Error{Kind: ErrInvalidRegion, Op: op, Region: r, Details: fmt.Sprintf(format, args...)}
}

// ShapeError builds an ErrShapeMismatch error.
func ShapeError(op, format string, args ...any) error {
	return &Error{Kind: ErrShapeMismatch, Op: op, Region: -1, Details: fmt.Sprintf(format, args...)}
}
