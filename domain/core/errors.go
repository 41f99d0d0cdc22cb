package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural errors abort the pipeline before any stage runs.
	ErrNoTimeColumn     = errors.New("no usable date/time column")
	ErrNoNumericColumns = errors.New("no numeric measurement columns")
	ErrEmptyInput       = errors.New("input table has no rows")
)

// NewStructuralError annotates a structural error with the stage that
// detected it, so the caller can diagnose without stack traces.
func NewStructuralError(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
