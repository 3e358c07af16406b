package mysql

import (
	"database/sql"

	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/repository/sqlstore"
)

// Factory implements DatabaseFactory for MySQL / Implémente DatabaseFactory pour MySQL
type Factory struct{}

// NewClientRepository creates client repository / Crée le repository client
func (f *Factory) NewClientRepository(db *sql.DB) ports.ClientRepository {
	return sqlstore.NewClientStore(db, Dialect{})
}

// NewFolderRepository creates folder repository / Crée le repository de dossiers
func (f *Factory) NewFolderRepository(db *sql.DB) ports.FolderRepository {
	return sqlstore.NewFolderStore(db, Dialect{})
}
