package repository

import (
	"database/sql"
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/repository/mysql"
	"github.com/Olprog59/go-freightdesk/internal/repository/postgres"
	"github.com/Olprog59/go-freightdesk/internal/repository/sqlite"
)

// Compile-time checks to ensure all Factory implementations satisfy DatabaseFactory interface
// Vérifications à la compilation pour s'assurer que toutes les implémentations de Factory satisfont l'interface DatabaseFactory
var (
	_ DatabaseFactory = (*sqlite.Factory)(nil)
	_ DatabaseFactory = (*mysql.Factory)(nil)
	_ DatabaseFactory = (*postgres.Factory)(nil)
)

// factoryRegistry holds all database factories / Registre de toutes les factories de BD
var factoryRegistry = map[string]DatabaseFactory{
	"sqlite":     &sqlite.Factory{},
	"sqlite3":    &sqlite.Factory{},
	"mysql":      &mysql.Factory{},
	"postgres":   &postgres.Factory{},
	"postgresql": &postgres.Factory{},
}

// Adapter adapts database connection to repositories / Adapte la connexion BD vers les repositories
type Adapter struct {
	db      *sql.DB
	factory DatabaseFactory
}

// NewAdapter creates repository adapter / Crée l'adapteur de repositories
func NewAdapter(db *sql.DB, driver string) *Adapter {
	factory := factoryRegistry[strings.ToLower(driver)]
	if factory == nil {
		factory = &sqlite.Factory{} // default fallback
	}

	return &Adapter{
		db:      db,
		factory: factory,
	}
}

// ClientRepository returns appropriate client repository / Retourne le repository client approprié
func (a *Adapter) ClientRepository() ports.ClientRepository {
	return a.factory.NewClientRepository(a.db)
}

// FolderRepository returns appropriate folder repository / Retourne le repository de dossiers approprié
func (a *Adapter) FolderRepository() ports.FolderRepository {
	return a.factory.NewFolderRepository(a.db)
}
