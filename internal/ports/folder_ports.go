package ports

import (
	"context"

	"github.com/Olprog59/go-freightdesk/internal/domain"
)

// FolderRepository manages shipment folders / Gère les dossiers d'expédition
type FolderRepository interface {
	// Create stores a folder / Stocke un dossier
	Create(ctx context.Context, f *domain.Folder) error

	// ListByClient returns the folders of a client / Retourne les dossiers d'un client
	ListByClient(ctx context.Context, clientID string) ([]*domain.Folder, error)

	// CountActiveByClients counts active folders per client id / Compte les dossiers actifs par client
	CountActiveByClients(ctx context.Context, clientIDs []string) (map[string]int, error)

	// UpdateStatus changes a folder status / Change le statut d'un dossier
	UpdateStatus(ctx context.Context, folderID string, status domain.FolderStatus) error

	// Transfer re-points a folder to another client / Rattache un dossier à un autre client
	Transfer(ctx context.Context, folderID, toClientID string) error
}
