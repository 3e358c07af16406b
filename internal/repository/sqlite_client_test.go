package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// Every pooled connection would get its own in-memory database
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE clients (
		id TEXT PRIMARY KEY,
		client_type TEXT NOT NULL,
		status TEXT NOT NULL,
		email TEXT NOT NULL,
		siret TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP,
		payload TEXT NOT NULL
	);
	CREATE TABLE folders (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newIndividual(id, email, country string, credit float64, tags ...string) *domain.Client {
	now := time.Now().UTC().Truncate(time.Second)
	c := &domain.Client{
		ID:         id,
		ClientType: domain.ClientTypeIndividual,
		Status:     domain.ClientStatusActive,
		ContactInfo: domain.ContactInfo{
			Email:   email,
			Address: domain.Address{Country: country},
		},
		CommercialInfo: domain.CommercialInfo{CreditLimit: credit, Currency: "EUR", PaymentTermsDays: 30},
		IndividualInfo: &domain.IndividualInfo{FirstName: "Jean", LastName: id},
		Tags:           tags,
		Version:        1,
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c
}

func newBusiness(id, email, siret string) *domain.Client {
	c := newIndividual(id, email, "FR", 0)
	c.ClientType = domain.ClientTypeBusiness
	c.IndividualInfo = nil
	c.BusinessInfo = &domain.BusinessInfo{
		CompanyName: "Company " + id,
		Industry:    "logistics",
		LegalInfo:   domain.LegalInfo{Siret: siret},
		Contacts:    []domain.ContactPerson{{FirstName: "A", LastName: "B", IsActive: true, IsPrimary: true}},
	}
	return c
}

func TestSQLiteClientRepo_InsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClients(db)
	ctx := context.Background()

	c := newBusiness("b1", "ops@acme.fr", "12345678901234")
	c.CreatedBy = "user-1"
	require.NoError(t, repo.Insert(ctx, c))

	got, err := repo.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "ops@acme.fr", got.ContactInfo.Email)
	assert.Equal(t, "Company b1", got.BusinessInfo.CompanyName)
	assert.Equal(t, "12345678901234", got.BusinessInfo.LegalInfo.Siret)
	assert.Len(t, got.BusinessInfo.Contacts, 1)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "user-1", got.CreatedBy)
	assert.Nil(t, got.DeletedAt)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoRecord)

	err = repo.Insert(ctx, c)
	assert.ErrorIs(t, err, ErrDup)
}

func TestSQLiteClientRepo_UpdateVersionCheck(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClients(db)
	ctx := context.Background()

	c := newIndividual("i1", "jean@x.com", "FR", 100)
	require.NoError(t, repo.Insert(ctx, c))

	c.Notes = "first write"
	require.NoError(t, repo.Update(ctx, c, 1))
	assert.Equal(t, int64(2), c.Version)

	stale := newIndividual("i1", "jean@x.com", "FR", 100)
	stale.Notes = "stale write"
	err := repo.Update(ctx, stale, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := repo.FindByID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "first write", got.Notes)
	assert.Equal(t, int64(2), got.Version)

	ghost := newIndividual("ghost", "g@x.com", "FR", 0)
	assert.ErrorIs(t, repo.Update(ctx, ghost, 1), ErrNoRecord)
}

func TestSQLiteClientRepo_FindWithConditions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClients(db)
	ctx := context.Background()

	fixtures := []*domain.Client{
		newIndividual("a", "alice@x.com", "FR", 5000, "vip", "sea"),
		newIndividual("b", "bob@x.com", "DE", 200, "air"),
		newIndividual("c", "carol@x.com", "FR", 900, "vip"),
	}
	fixtures[0].Notes = "Prefers SEA freight"
	deleted := newIndividual("d", "dave@x.com", "FR", 10000, "vip")
	at := time.Now().UTC()
	deleted.DeletedAt = &at
	fixtures = append(fixtures, deleted)
	for _, c := range fixtures {
		require.NoError(t, repo.Insert(ctx, c))
	}

	notDeleted := query.Null("deleted_at")

	tests := []struct {
		name  string
		where []query.Condition
		order []query.Order
		want  []string
	}{
		{"country via json path", []query.Condition{notDeleted, query.Eq("contact_info.address.country", "FR")}, nil, []string{"a", "c"}},
		{"tag membership", []query.Condition{notDeleted, query.Eq("tags", "vip")}, nil, []string{"a", "c"}},
		{"tag exclusion", []query.Condition{notDeleted, query.Ne("tags", "vip")}, nil, []string{"b"}},
		{"tag substring matches elements", []query.Condition{notDeleted, query.Like("tags", "IP")}, nil, []string{"a", "c"}},
		{"tag substring ignores json punctuation", []query.Condition{notDeleted, query.Or(query.Like("tags", "["), query.Like("tags", `p","s`))}, nil, []string{}},
		{"tag starts with", []query.Condition{notDeleted, {Field: "tags", Op: query.StartsWith, Value: "Se"}}, nil, []string{"a"}},
		{"case-insensitive contains", []query.Condition{query.Like("notes", "sea FREIGHT")}, nil, []string{"a"}},
		{"numeric greater than", []query.Condition{notDeleted, {Field: "commercial_info.credit_limit", Op: query.GreaterThan, Value: 800}}, nil, []string{"a", "c"}},
		{"in on column", []query.Condition{query.InValues("contact_info.email", []string{"bob@x.com", "dave@x.com"})}, nil, []string{"b", "d"}},
		{"or group", []query.Condition{notDeleted, query.Or(query.Eq("contact_info.address.country", "DE"), query.Eq("tags", "sea"))}, nil, []string{"a", "b"}},
		{"soft-deleted only", []query.Condition{query.NotNull("deleted_at")}, nil, []string{"d"}},
		{"numeric ordering", []query.Condition{notDeleted}, []query.Order{{Field: "commercial_info.credit_limit", Desc: true}}, []string{"a", "c", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Find(ctx, query.Query{Where: tt.where, OrderBy: tt.order})
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, c := range got {
				ids[i] = c.ID
			}
			assert.Equal(t, tt.want, ids)

			n, err := repo.Count(ctx, tt.where)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}

	page, err := repo.Find(ctx, query.Query{
		Where:   []query.Condition{notDeleted},
		OrderBy: []query.Order{{Field: "contact_info.email"}},
		Offset:  1,
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)

	_, err = repo.Find(ctx, query.Query{Where: []query.Condition{query.Eq("x'; DROP TABLE clients; --", 1)}})
	assert.ErrorIs(t, err, query.ErrInvalidField)
}

func TestSQLiteClientRepo_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClients(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newIndividual("a", "a@x.com", "FR", 0)))
	require.NoError(t, repo.Insert(ctx, newIndividual("b", "b@x.com", "FR", 0)))
	gone := newIndividual("c", "c@x.com", "FR", 0)
	at := time.Now().UTC()
	gone.DeletedAt = &at
	require.NoError(t, repo.Insert(ctx, gone))

	updated, err := repo.UpdateStatus(ctx, []string{"a", "b", "c", "missing"}, domain.ClientStatusSuspended, time.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, updated)

	a, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.ClientStatusSuspended, a.Status)
	assert.Equal(t, int64(2), a.Version)

	c, err := repo.FindByID(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, domain.ClientStatusActive, c.Status)

	n, err := repo.Count(ctx, []query.Condition{query.Eq("status", "suspended")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteClientRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteClients(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newIndividual("a", "a@x.com", "FR", 0)))
	require.NoError(t, repo.Delete(ctx, "a"))
	_, err := repo.FindByID(ctx, "a")
	assert.ErrorIs(t, err, ErrNoRecord)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), ErrNoRecord)
}

func TestSQLiteFolderRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFolders(db)
	ctx := context.Background()
	now := time.Now().UTC()

	folders := []*domain.Folder{
		{ID: "f1", ClientID: "a", Reference: "IMP-001", Status: domain.FolderStatusActive, CreatedAt: now, UpdatedAt: now},
		{ID: "f2", ClientID: "a", Reference: "IMP-002", Status: domain.FolderStatusCompleted, CreatedAt: now.Add(time.Second), UpdatedAt: now},
		{ID: "f3", ClientID: "b", Reference: "EXP-001", Status: domain.FolderStatusActive, CreatedAt: now, UpdatedAt: now},
	}
	for _, f := range folders {
		require.NoError(t, repo.Create(ctx, f))
	}

	counts, err := repo.CountActiveByClients(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, counts)

	require.NoError(t, repo.UpdateStatus(ctx, "f1", domain.FolderStatusArchived))
	require.NoError(t, repo.Transfer(ctx, "f3", "a"))
	assert.ErrorIs(t, repo.Transfer(ctx, "missing", "a"), ErrNoRecord)

	list, err := repo.ListByClient(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.FolderStatusArchived, list[0].Status)

	counts, err = repo.CountActiveByClients(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, counts)
}
