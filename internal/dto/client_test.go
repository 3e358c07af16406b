package dto

import (
	"encoding/json"
	"testing"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClientRequest_ToDomain(t *testing.T) {
	body := `{
		"client_type": "business",
		"contact_info": {"email": "ops@acme.fr", "address": {"country": "FR"}},
		"commercial_info": {"credit_limit": 5000},
		"commercial_history": {"total_orders": 4},
		"business_info": {
			"company_name": "Acme",
			"industry": "logistics",
			"contacts": [{"first_name": "Anne", "last_name": "Durand", "is_primary": true}]
		},
		"tags": ["vip"],
		"id": "ignored",
		"version": 9
	}`

	var req CreateClientRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	c := req.ToDomain()

	assert.Empty(t, c.ID, "ids are assigned by the service")
	assert.Zero(t, c.Version)
	assert.Equal(t, domain.ClientTypeBusiness, c.ClientType)
	assert.Equal(t, "ops@acme.fr", c.ContactInfo.Email)
	assert.Equal(t, 5000.0, c.CommercialInfo.CreditLimit)
	assert.Equal(t, 4, c.CommercialHistory.TotalOrders)
	require.NotNil(t, c.BusinessInfo)
	require.Len(t, c.BusinessInfo.Contacts, 1)
	assert.True(t, c.BusinessInfo.Contacts[0].IsActive, "is_active defaults to true")
	assert.Equal(t, []string{"vip"}, c.Tags)
}

func TestUpdateClientRequest_Decode(t *testing.T) {
	var req UpdateClientRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status": "suspended", "notes": "", "expected_version": 3}`), &req))

	require.NotNil(t, req.Status)
	assert.Equal(t, domain.ClientStatus("suspended"), *req.Status)
	require.NotNil(t, req.Notes, "an explicit empty string clears the notes")
	assert.Equal(t, int64(3), req.ExpectedVersion)
	assert.Nil(t, req.ContactInfo)
	assert.False(t, req.ClientPatch.IsEmpty())
}

func TestValidateClientRequest_Check(t *testing.T) {
	patch := &domain.ClientPatch{}
	tests := []struct {
		name       string
		req        ValidateClientRequest
		wantErr    bool
		wantUpdate bool
	}{
		{name: "create", req: ValidateClientRequest{Client: &CreateClientRequest{}}},
		{name: "update", req: ValidateClientRequest{ClientID: "c-1", Patch: patch}, wantUpdate: true},
		{name: "empty", req: ValidateClientRequest{}, wantErr: true, wantUpdate: true},
		{name: "id without patch", req: ValidateClientRequest{ClientID: "c-1"}, wantErr: true, wantUpdate: true},
		{name: "patch without id", req: ValidateClientRequest{Patch: patch}, wantErr: true, wantUpdate: true},
		{name: "both", req: ValidateClientRequest{Client: &CreateClientRequest{}, ClientID: "c-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantUpdate, tt.req.IsUpdate())
		})
	}
}

func TestNewClientListResponse(t *testing.T) {
	page := &domain.ClientPage{
		Clients: []*domain.Client{
			{ID: "i1", ClientType: domain.ClientTypeIndividual, IndividualInfo: &domain.IndividualInfo{FirstName: "Jean", LastName: "Dupont"}},
			{ID: "b1", ClientType: domain.ClientTypeBusiness, BusinessInfo: &domain.BusinessInfo{CompanyName: "Acme"}},
		},
		TotalCount: 12,
		Page:       2,
		PageSize:   2,
		TotalPages: 6,
	}

	resp := NewClientListResponse(page)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Clients []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"clients"`
		TotalCount int `json:"total_count"`
		TotalPages int `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Clients, 2)
	assert.Equal(t, "Jean Dupont", decoded.Clients[0].DisplayName)
	assert.Equal(t, "Acme", decoded.Clients[1].DisplayName)
	assert.Equal(t, 12, decoded.TotalCount)
	assert.Equal(t, 6, decoded.TotalPages)
}
