package repository

import (
	"database/sql"

	"github.com/Olprog59/go-freightdesk/internal/ports"
)

// DatabaseFactory must be implemented by each database package / Doit être implémenté par chaque package de BD
// Adding a repository here forces every database package (sqlite, mysql, postgres) to provide it
// Ajouter un repository ici oblige chaque package de BD (sqlite, mysql, postgres) à le fournir
type DatabaseFactory interface {
	// NewClientRepository creates client repository / Crée le repository client
	NewClientRepository(db *sql.DB) ports.ClientRepository

	// NewFolderRepository creates folder repository / Crée le repository de dossiers
	NewFolderRepository(db *sql.DB) ports.FolderRepository
}
