package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/query"
	"github.com/Olprog59/go-freightdesk/internal/repository/db"
)

var _ ports.ClientRepository = (*ClientStore)(nil)

// ClientStore keeps clients as a JSON payload plus indexed columns. The
// columns are authoritative for status, version and timestamps.
//
// ClientStore stocke les clients en JSON avec des colonnes indexées.
type ClientStore struct {
	db *sql.DB
	d  Dialect
}

// NewClientStore creates client store / Crée le store client
func NewClientStore(database *sql.DB, d Dialect) *ClientStore {
	return &ClientStore{db: database, d: d}
}

const clientSelect = `SELECT payload, status, version, updated_at, deleted_at FROM clients`

func (s *ClientStore) scan(row interface{ Scan(...any) error }) (*domain.Client, error) {
	var (
		payload   []byte
		status    string
		version   int64
		updatedAt time.Time
		deletedAt sql.NullTime
	)
	if err := row.Scan(&payload, &status, &version, &updatedAt, &deletedAt); err != nil {
		return nil, s.d.TranslateError(err)
	}
	c := &domain.Client{}
	if err := json.Unmarshal(payload, c); err != nil {
		return nil, fmt.Errorf("decode client payload: %w", err)
	}
	c.Status = domain.ClientStatus(status)
	c.Version = version
	c.UpdatedAt = updatedAt.UTC()
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		c.DeletedAt = &t
	} else {
		c.DeletedAt = nil
	}
	return c, nil
}

func (s *ClientStore) queryClients(ctx context.Context, q string, args ...any) ([]*domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, s.d.Rebind(q), args...)
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		c, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.d.TranslateError(err)
	}
	return clients, nil
}

// FindByID retrieves client by ID / Récupère le client par ID
func (s *ClientStore) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx, s.d.Rebind(clientSelect+` WHERE id = ?`), id)
	return s.scan(row)
}

// FindByIDs retrieves clients in one query / Récupère les clients en une requête
func (s *ClientStore) FindByIDs(ctx context.Context, ids []string) ([]*domain.Client, error) {
	if len(ids) == 0 {
		return []*domain.Client{}, nil
	}
	return s.Find(ctx, query.Query{Where: []query.Condition{query.InValues("id", ids)}})
}

// Find runs a query / Exécute une requête
func (s *ClientStore) Find(ctx context.Context, q query.Query) ([]*domain.Client, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	b := &builder{d: s.d}
	where, err := b.where(q.Where)
	if err != nil {
		return nil, err
	}
	order, err := b.orderBy(q.OrderBy)
	if err != nil {
		return nil, err
	}
	sqlText := clientSelect + where + order
	if q.Limit > 0 {
		sqlText += " LIMIT " + b.bind(q.Limit) + " OFFSET " + b.bind(q.Offset)
	}
	return s.queryClients(ctx, sqlText, b.args...)
}

// Count counts matching clients / Compte les clients correspondants
func (s *ClientStore) Count(ctx context.Context, where []query.Condition) (int, error) {
	if err := (query.Query{Where: where}).Validate(); err != nil {
		return 0, err
	}
	b := &builder{d: s.d}
	clause, err := b.where(where)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, s.d.Rebind(`SELECT COUNT(*) FROM clients`+clause), b.args...).Scan(&n)
	if err != nil {
		return 0, s.d.TranslateError(err)
	}
	return n, nil
}

func columnsOf(c *domain.Client) (siret sql.NullString, deleted sql.NullTime) {
	if c.BusinessInfo != nil && c.BusinessInfo.LegalInfo.Siret != "" {
		siret = sql.NullString{String: c.BusinessInfo.LegalInfo.Siret, Valid: true}
	}
	if c.DeletedAt != nil {
		deleted = sql.NullTime{Time: c.DeletedAt.UTC(), Valid: true}
	}
	return siret, deleted
}

// Insert stores a new client / Stocke un nouveau client
func (s *ClientStore) Insert(ctx context.Context, c *domain.Client) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode client payload: %w", err)
	}
	siret, deleted := columnsOf(c)

	const q = `
	INSERT INTO clients (id, client_type, status, email, siret, version, created_by, created_at, updated_at, deleted_at, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, s.d.Rebind(q),
		c.ID,
		string(c.ClientType),
		string(c.Status),
		c.ContactInfo.Email,
		siret,
		c.Version,
		c.CreatedBy,
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
		deleted,
		string(payload),
	)
	return s.d.TranslateError(err)
}

// Update writes the client under a version check / Écrit le client avec contrôle de version
func (s *ClientStore) Update(ctx context.Context, c *domain.Client, expectedVersion int64) error {
	next := *c
	next.Version = expectedVersion + 1
	payload, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode client payload: %w", err)
	}
	siret, deleted := columnsOf(c)

	const q = `
	UPDATE clients
	SET client_type = ?, status = ?, email = ?, siret = ?, version = ?, updated_at = ?, deleted_at = ?, payload = ?
	WHERE id = ? AND version = ?`
	res, err := s.db.ExecContext(ctx, s.d.Rebind(q),
		string(c.ClientType),
		string(c.Status),
		c.ContactInfo.Email,
		siret,
		next.Version,
		c.UpdatedAt.UTC(),
		deleted,
		string(payload),
		c.ID,
		expectedVersion,
	)
	if err != nil {
		return s.d.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.d.TranslateError(err)
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, s.d.Rebind(`SELECT COUNT(*) FROM clients WHERE id = ?`), c.ID).Scan(&exists); err != nil {
			return s.d.TranslateError(err)
		}
		if exists == 0 {
			return db.ErrNoRecord
		}
		return db.ErrVersionConflict
	}
	c.Version = next.Version
	return nil
}

// Delete removes the row / Supprime la ligne
func (s *ClientStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.d.Rebind(`DELETE FROM clients WHERE id = ?`), id)
	if err != nil {
		return s.d.TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNoRecord
	}
	return nil
}

// UpdateStatus changes status of many clients in one transaction; either every
// eligible id is updated or none is.
//
// UpdateStatus change le statut en une transaction : tout ou rien.
func (s *ClientStore) UpdateStatus(ctx context.Context, ids []string, status domain.ClientStatus, at time.Time) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	defer tx.Rollback() //nolint:errcheck

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+2)
	for _, id := range ids {
		args = append(args, id)
	}

	eligible, err := s.liveIDs(ctx, tx, marks, args)
	if err != nil {
		return nil, err
	}

	updateArgs := append([]any{string(status), at.UTC()}, args...)
	res, err := tx.ExecContext(ctx,
		s.d.Rebind(`UPDATE clients SET status = ?, updated_at = ?, version = version + 1 WHERE deleted_at IS NULL AND id IN (`+marks+`)`),
		updateArgs...)
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	if int(n) != len(eligible) {
		return nil, fmt.Errorf("status update touched %d rows, expected %d: %w", n, len(eligible), db.ErrVersionConflict)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.d.TranslateError(err)
	}
	return eligible, nil
}

// liveIDs lists the non-deleted ids among args, inside or outside a transaction
func (s *ClientStore) liveIDs(ctx context.Context, conn ports.DBTX, marks string, args []any) ([]string, error) {
	rows, err := conn.QueryContext(ctx, s.d.Rebind(`SELECT id FROM clients WHERE deleted_at IS NULL AND id IN (`+marks+`) ORDER BY id`), args...)
	if err != nil {
		return nil, s.d.TranslateError(err)
	}
	defer rows.Close()

	ids := make([]string, 0, len(args))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, s.d.TranslateError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, s.d.TranslateError(err)
	}
	return ids, nil
}
