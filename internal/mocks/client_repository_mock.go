package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/query"
	"github.com/Olprog59/go-freightdesk/internal/repository"
)

var _ ports.ClientRepository = (*MockClientRepository)(nil)

// MockClientRepository is an in-memory ports.ClientRepository for testing.
// Records are cloned on the way in and out so tests cannot alias stored state.
type MockClientRepository struct {
	mu sync.Mutex

	// Mock data storage
	Clients map[string]*domain.Client

	// Mock behavior flags
	FindByIDError     error
	FindByIDsError    error
	FindError         error
	CountError        error
	InsertError       error
	UpdateError       error
	UpdateErrorFor    map[string]error // per-id Update failure
	DeleteError       error
	UpdateStatusError error
	UpdateStatusSkip  map[string]bool // ids the bulk statement silently leaves out

	// BeforeUpdate runs under the lock before the version check, letting a
	// test simulate a concurrent writer on the stored record.
	BeforeUpdate func(stored *domain.Client)

	// Call tracking
	FindByIDCalls     int
	FindByIDsCalls    int
	FindCalls         int
	CountCalls        int
	InsertCalls       int
	UpdateCalls       int
	DeleteCalls       int
	UpdateStatusCalls int
}

// NewMockClientRepository creates a new mock client repository
func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{
		Clients:          make(map[string]*domain.Client),
		UpdateErrorFor:   make(map[string]error),
		UpdateStatusSkip: make(map[string]bool),
	}
}

// Seed stores clients directly, bypassing call tracking
func (m *MockClientRepository) Seed(clients ...*domain.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range clients {
		m.Clients[c.ID] = c.Clone()
	}
}

// Get returns a copy of a stored client, or nil
func (m *MockClientRepository) Get(id string) *domain.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Clients[id].Clone()
}

// WriteCalls sums every mutating call
func (m *MockClientRepository) WriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InsertCalls + m.UpdateCalls + m.DeleteCalls + m.UpdateStatusCalls
}

// ReadCalls sums every reading call
func (m *MockClientRepository) ReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FindByIDCalls + m.FindByIDsCalls + m.FindCalls + m.CountCalls
}

func (m *MockClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByIDCalls++
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	c, ok := m.Clients[id]
	if !ok {
		return nil, repository.ErrNoRecord
	}
	return c.Clone(), nil
}

func (m *MockClientRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByIDsCalls++
	if m.FindByIDsError != nil {
		return nil, m.FindByIDsError
	}
	out := []*domain.Client{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if c, ok := m.Clients[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// matching returns stored clients satisfying where, ordered by id
func (m *MockClientRepository) matching(where []query.Condition) ([]query.Document, error) {
	ids := make([]string, 0, len(m.Clients))
	for id := range m.Clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	docs := []query.Document{}
	for _, id := range ids {
		doc, err := query.ToDocument(m.Clients[id])
		if err != nil {
			return nil, err
		}
		if doc.Matches(where) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockClientRepository) Find(ctx context.Context, q query.Query) ([]*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindError != nil {
		return nil, m.FindError
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	docs, err := m.matching(q.Where)
	if err != nil {
		return nil, err
	}
	// Same id tiebreak as the SQL store
	query.SortDocuments(docs, append(slices.Clone(q.OrderBy), query.Order{Field: "id"}))

	if q.Offset >= len(docs) {
		return []*domain.Client{}, nil
	}
	docs = docs[q.Offset:]
	if q.Limit > 0 && q.Limit < len(docs) {
		docs = docs[:q.Limit]
	}

	out := make([]*domain.Client, 0, len(docs))
	for _, d := range docs {
		id, _ := d.Lookup("id")
		out = append(out, m.Clients[id.(string)].Clone())
	}
	return out, nil
}

func (m *MockClientRepository) Count(ctx context.Context, where []query.Condition) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CountCalls++
	if m.CountError != nil {
		return 0, m.CountError
	}
	if err := (query.Query{Where: where}).Validate(); err != nil {
		return 0, err
	}
	docs, err := m.matching(where)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (m *MockClientRepository) Insert(ctx context.Context, c *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, exists := m.Clients[c.ID]; exists {
		return repository.ErrDup
	}
	m.Clients[c.ID] = c.Clone()
	return nil
}

func (m *MockClientRepository) Update(ctx context.Context, c *domain.Client, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if err := m.UpdateErrorFor[c.ID]; err != nil {
		return err
	}
	stored, ok := m.Clients[c.ID]
	if !ok {
		return repository.ErrNoRecord
	}
	if m.BeforeUpdate != nil {
		m.BeforeUpdate(stored)
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	next := c.Clone()
	next.Version = expectedVersion + 1
	m.Clients[c.ID] = next
	c.Version = next.Version
	return nil
}

func (m *MockClientRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.Clients[id]; !ok {
		return repository.ErrNoRecord
	}
	delete(m.Clients, id)
	return nil
}

func (m *MockClientRepository) UpdateStatus(ctx context.Context, ids []string, status domain.ClientStatus, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls++
	if m.UpdateStatusError != nil {
		return nil, m.UpdateStatusError
	}
	updated := []string{}
	for _, id := range ids {
		c, ok := m.Clients[id]
		if !ok || c.IsDeleted() || m.UpdateStatusSkip[id] {
			continue
		}
		c.Status = status
		c.UpdatedAt = at
		c.Version++
		updated = append(updated, id)
	}
	return updated, nil
}
