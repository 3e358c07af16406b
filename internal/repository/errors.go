package repository

import (
	"github.com/Olprog59/go-freightdesk/internal/repository/db"
	"github.com/Olprog59/go-freightdesk/internal/repository/sqlite"
)

// Re-export common errors so services depend on a single package
var (
	// Common database errors from db package
	ErrNoRecord            = db.ErrNoRecord
	ErrDup                 = db.ErrDup
	ErrForeignKeyViolation = db.ErrForeignKeyViolation
	ErrVersionConflict     = db.ErrVersionConflict

	// SQLite-specific errors from sqlite package
	ErrBusy   = sqlite.ErrBusy
	ErrLocked = sqlite.ErrLocked
)
