package repository

import (
	"database/sql"

	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/repository/sqlite"
)

// NewSQLiteClients creates SQLite client repository for tests / Crée un repository client SQLite pour les tests
func NewSQLiteClients(database *sql.DB) ports.ClientRepository {
	return (&sqlite.Factory{}).NewClientRepository(database)
}

// NewSQLiteFolders creates SQLite folder repository for tests / Crée un repository de dossiers SQLite pour les tests
func NewSQLiteFolders(database *sql.DB) ports.FolderRepository {
	return (&sqlite.Factory{}).NewFolderRepository(database)
}
