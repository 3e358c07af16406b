package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/mocks"
)

var testNow = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

// testEnv wires every service on top of the in-memory mocks
type testEnv struct {
	clients   *mocks.MockClientRepository
	folders   *mocks.MockFolderRepository
	metrics   *mocks.MockMetrics
	records   config.RecordsConfig
	validator *ValidationService
	svc       *ClientService
	contacts  *ContactService
	batch     *BatchService
	search    *SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, config.DefaultRecordsConfig())
}

func newTestEnvWith(t *testing.T, records config.RecordsConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		clients: mocks.NewMockClientRepository(),
		folders: mocks.NewMockFolderRepository(),
		metrics: mocks.NewMockMetrics(),
		records: records,
	}
	clock := func() time.Time { return testNow }

	env.validator = NewValidationService(env.clients, env.metrics)
	env.validator.now = clock

	env.svc = NewClientService(env.clients, env.folders, env.validator, records, env.metrics)
	env.svc.now = clock
	seq := 0
	env.svc.newID = func() string {
		seq++
		return fmt.Sprintf("client-%03d", seq)
	}

	env.contacts = NewContactService(env.clients, records, env.metrics)
	env.contacts.now = clock

	env.batch = NewBatchService(env.clients, env.folders, env.svc, records, env.metrics)
	env.batch.now = clock

	env.search = NewSearchService(env.clients, records, env.metrics)
	return env
}

// individual builds a valid private client
func individual(id, email, first, last string) *domain.Client {
	return &domain.Client{
		BaseModel:  domain.BaseModel{CreatedAt: testNow, UpdatedAt: testNow},
		ID:         id,
		ClientType: domain.ClientTypeIndividual,
		Status:     domain.ClientStatusActive,
		ContactInfo: domain.ContactInfo{
			Email: email,
		},
		IndividualInfo: &domain.IndividualInfo{FirstName: first, LastName: last},
		Tags:           []string{},
		Version:        1,
	}
}

// business builds a valid company client with the given contacts
func business(id, email, company string, contacts ...domain.ContactPerson) *domain.Client {
	return &domain.Client{
		BaseModel:  domain.BaseModel{CreatedAt: testNow, UpdatedAt: testNow},
		ID:         id,
		ClientType: domain.ClientTypeBusiness,
		Status:     domain.ClientStatusActive,
		ContactInfo: domain.ContactInfo{
			Email: email,
		},
		BusinessInfo: &domain.BusinessInfo{
			CompanyName: company,
			Industry:    "logistics",
			Contacts:    contacts,
		},
		Tags:    []string{},
		Version: 1,
	}
}

func contact(first, last string, primary bool) domain.ContactPerson {
	return domain.ContactPerson{
		FirstName: first,
		LastName:  last,
		IsPrimary: primary,
		IsActive:  true,
	}
}

func deleted(c *domain.Client) *domain.Client {
	c.MarkDeleted(testNow.Add(-time.Hour), "someone", "test")
	return c
}

func issueCodes(issues []domain.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Field+"/"+i.Code)
	}
	return out
}
