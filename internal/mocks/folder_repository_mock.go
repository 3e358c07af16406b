package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/repository"
)

var _ ports.FolderRepository = (*MockFolderRepository)(nil)

// MockFolderRepository is an in-memory ports.FolderRepository for testing
type MockFolderRepository struct {
	mu sync.Mutex

	// Mock data storage, in creation order
	Folders []*domain.Folder

	// Mock behavior flags
	CreateError       error
	ListError         error
	CountActiveError  error
	UpdateStatusError error
	TransferError     error

	// Call tracking
	CreateCalls       int
	ListCalls         int
	CountActiveCalls  int
	UpdateStatusCalls int
	TransferCalls     int
}

// NewMockFolderRepository creates a new mock folder repository
func NewMockFolderRepository() *MockFolderRepository {
	return &MockFolderRepository{}
}

// Seed adds folders for a client with the given statuses
func (m *MockFolderRepository) Seed(clientID string, statuses ...domain.FolderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, st := range statuses {
		n := len(m.Folders) + 1
		m.Folders = append(m.Folders, &domain.Folder{
			ID:        fmt.Sprintf("%s-f%d", clientID, n),
			ClientID:  clientID,
			Status:    st,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
}

// WriteCalls sums every mutating call
func (m *MockFolderRepository) WriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateCalls + m.UpdateStatusCalls + m.TransferCalls
}

// Snapshot returns copies of the stored folders
func (m *MockFolderRepository) Snapshot() []domain.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Folder, len(m.Folders))
	for i, f := range m.Folders {
		out[i] = *f
	}
	return out
}

func (m *MockFolderRepository) find(id string) *domain.Folder {
	for _, f := range m.Folders {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (m *MockFolderRepository) Create(ctx context.Context, f *domain.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	if m.find(f.ID) != nil {
		return repository.ErrDup
	}
	cp := *f
	m.Folders = append(m.Folders, &cp)
	return nil
}

func (m *MockFolderRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := []*domain.Folder{}
	for _, f := range m.Folders {
		if f.ClientID == clientID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockFolderRepository) CountActiveByClients(ctx context.Context, clientIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CountActiveCalls++
	if m.CountActiveError != nil {
		return nil, m.CountActiveError
	}
	wanted := make(map[string]bool, len(clientIDs))
	for _, id := range clientIDs {
		wanted[id] = true
	}
	counts := make(map[string]int)
	for _, f := range m.Folders {
		if wanted[f.ClientID] && f.Status == domain.FolderStatusActive {
			counts[f.ClientID]++
		}
	}
	return counts, nil
}

func (m *MockFolderRepository) UpdateStatus(ctx context.Context, folderID string, status domain.FolderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls++
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	f := m.find(folderID)
	if f == nil {
		return repository.ErrNoRecord
	}
	f.Status = status
	f.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockFolderRepository) Transfer(ctx context.Context, folderID, toClientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransferCalls++
	if m.TransferError != nil {
		return m.TransferError
	}
	f := m.find(folderID)
	if f == nil {
		return repository.ErrNoRecord
	}
	f.ClientID = toClientID
	f.UpdatedAt = time.Now().UTC()
	return nil
}
