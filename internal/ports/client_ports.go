package ports

import (
	"context"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/query"
)

// ClientReader reads client records / Lit les fiches client
type ClientReader interface {
	// FindByID returns the record, soft-deleted included, or ErrNoRecord / Retourne la fiche, supprimée incluse, ou ErrNoRecord
	FindByID(ctx context.Context, id string) (*domain.Client, error)

	// FindByIDs returns the records that exist among ids in one query / Retourne en une requête les fiches existantes
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Client, error)

	// Find runs a filtered, ordered, ranged query / Exécute une requête filtrée, triée et paginée
	Find(ctx context.Context, q query.Query) ([]*domain.Client, error)

	// Count counts records matching the conditions / Compte les fiches correspondant aux conditions
	Count(ctx context.Context, where []query.Condition) (int, error)
}

// ClientWriter persists client records / Persiste les fiches client
type ClientWriter interface {
	// Insert stores a new record / Stocke une nouvelle fiche
	Insert(ctx context.Context, c *domain.Client) error

	// Update replaces the record if its stored version equals expectedVersion,
	// otherwise returns ErrVersionConflict. On success c.Version is advanced.
	Update(ctx context.Context, c *domain.Client, expectedVersion int64) error

	// Delete physically removes the record / Supprime physiquement la fiche
	Delete(ctx context.Context, id string) error

	// UpdateStatus sets the status of every non-deleted id in one atomic
	// statement and returns the ids actually updated / Met à jour le statut en une instruction atomique
	UpdateStatus(ctx context.Context, ids []string, status domain.ClientStatus, at time.Time) ([]string, error)
}

// ClientRepository is the composite store used by services / Store composite utilisé par les services
type ClientRepository interface {
	ClientReader
	ClientWriter
}
