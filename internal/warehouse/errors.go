//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"errors"
	"fmt"
)

// ErrFactNotFound is returned when an update names a sales id that was
// never inserted.
var ErrFactNotFound = errors.New("fact not found")

// ValidationError reports a dimension attribute outside its allowed range.
type ValidationError struct {
	Dimension string
	Field     string
	Value     int
	Min       int
	Max       int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s must be between %d and %d, got %d",
		e.Dimension, e.Field, e.Min, e.Max, e.Value)
}

// ConstraintViolation reports a fact measure that is not strictly positive.
type ConstraintViolation struct {
	SalesID string
	Field   string
	Value   float64
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("fact %s: %s must be positive, got %v",
		e.SalesID, e.Field, e.Value)
}

// ReferentialIntegrityError reports a fact write referencing a dimension
// row that does not exist.
type ReferentialIntegrityError struct {
	SalesID   string
	Dimension string
	Key       int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("fact %s: no %s row with key %d",
		e.SalesID, e.Dimension, e.Key)
}

// UniquenessConflict reports an insert for a sales id that already exists.
type UniquenessConflict struct {
	SalesID string
}

func (e *UniquenessConflict) Error() string {
	return fmt.Sprintf("fact %s already exists", e.SalesID)
}

// IntegrityError reports a dangling dimension reference discovered while
// computing a view. Writes reject orphan facts up front, so this only fires
// when state was corrupted behind the store's back; the computation fails
// rather than dropping or null-filling the row.
type IntegrityError struct {
	SalesID   string
	Dimension string
	Key       int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("fact %s references missing %s row %d",
		e.SalesID, e.Dimension, e.Key)
}
