package db

import "errors"

// Common database errors
var (
	ErrNoRecord            = errors.New("no matching record found")
	ErrDup                 = errors.New("record already exists")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	ErrVersionConflict     = errors.New("record was modified concurrently")
)
