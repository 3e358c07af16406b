package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/repository/db"
)

var _ ports.FolderRepository = (*FolderStore)(nil)

// FolderStore implements FolderRepository / Implémente FolderRepository
type FolderStore struct {
	db *sql.DB
	d  Dialect
}

// NewFolderStore creates folder store / Crée le store de dossiers
func NewFolderStore(database *sql.DB, d Dialect) *FolderStore {
	return &FolderStore{db: database, d: d}
}

// Create inserts a folder / Insère un dossier
func (s *FolderStore) Create(ctx context.Context, f *domain.Folder) error {
	const q = `
	INSERT INTO folders (id, client_id, reference, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.d.Rebind(q),
		f.ID, f.ClientID, f.Reference, string(f.Status), f.CreatedAt.UTC(), f.UpdatedAt.UTC())
	return s.d.TranslateError(err)
}

// ListByClient lists folders of a client / Liste les dossiers d'un client
func (s *FolderStore) ListByClient(ctx context.Context, clientID string) ([]*domain.Folder, error) {
	const q = `
	SELECT id, client_id, reference, status, created_at, updated_at
	FROM folders
	WHERE client_id = ?
	ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, s.d.Rebind(q), clientID)
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	defer rows.Close()

	folders := []*domain.Folder{}
	for rows.Next() {
		f := &domain.Folder{}
		var status string
		if err := rows.Scan(&f.ID, &f.ClientID, &f.Reference, &status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, s.d.TranslateError(err)
		}
		f.Status = domain.FolderStatus(status)
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, s.d.TranslateError(err)
	}
	return folders, nil
}

// CountActiveByClients counts active folders grouped by client / Compte les dossiers actifs par client
func (s *FolderStore) CountActiveByClients(ctx context.Context, clientIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(clientIDs))
	if len(clientIDs) == 0 {
		return counts, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(clientIDs)), ", ")
	args := make([]any, 0, len(clientIDs)+1)
	args = append(args, string(domain.FolderStatusActive))
	for _, id := range clientIDs {
		args = append(args, id)
	}

	q := `SELECT client_id, COUNT(*) FROM folders WHERE status = ? AND client_id IN (` + marks + `) GROUP BY client_id`
	rows, err := s.db.QueryContext(ctx, s.d.Rebind(q), args...)
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, s.d.TranslateError(err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, s.d.TranslateError(err)
	}
	return counts, nil
}

// UpdateStatus changes a folder status / Change le statut d'un dossier
func (s *FolderStore) UpdateStatus(ctx context.Context, folderID string, status domain.FolderStatus) error {
	return s.exec(ctx, `UPDATE folders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), folderID)
}

// Transfer re-points a folder / Rattache un dossier à un autre client
func (s *FolderStore) Transfer(ctx context.Context, folderID, toClientID string) error {
	return s.exec(ctx, `UPDATE folders SET client_id = ?, updated_at = ? WHERE id = ?`,
		toClientID, time.Now().UTC(), folderID)
}

func (s *FolderStore) exec(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.d.Rebind(q), args...)
	if err != nil {
		return s.d.TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNoRecord
	}
	return nil
}
