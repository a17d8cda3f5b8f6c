package project

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidColumn is wrapped by *InvalidColumnError.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrInvalidValue is returned when a value cannot be stored in a column.
	ErrInvalidValue = errors.New("invalid value")
	// ErrRowNotFound is returned when a row id is unknown.
	ErrRowNotFound = errors.New("row not found")
	// ErrTableNotFound is returned when a table id is unknown.
	ErrTableNotFound = errors.New("table not found")
	// ErrSectionNotFound is returned when a devis section id is unknown.
	ErrSectionNotFound = errors.New("devis section not found")
)

// InvalidColumnError is returned when an edit targets a column that does not
// exist or that cannot be edited directly.
type InvalidColumnError struct {
	Table  string
	Column string
	Reason string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("invalid column %q in %q: %s", e.Column, e.Table, e.Reason)
}

func (e *InvalidColumnError) Unwrap() error { return ErrInvalidColumn }
