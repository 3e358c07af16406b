package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationService_DateOfBirth(t *testing.T) {
	const field = "individual_info.date_of_birth"
	tests := []struct {
		name        string
		dateOfBirth string
		wantValid   bool
		wantError   string
		wantWarning string
	}{
		{name: "age 200 is an error", dateOfBirth: "1826-01-01", wantValid: false, wantError: domain.CodeInvalidValue},
		{name: "age 10 is a warning", dateOfBirth: "2016-01-01", wantValid: true, wantWarning: domain.CodeInvalidValue},
		{name: "age 30 is clean", dateOfBirth: "1996-01-01", wantValid: true},
		{name: "birthday tomorrow keeps age 15", dateOfBirth: "2010-06-16", wantValid: true, wantWarning: domain.CodeInvalidValue},
		{name: "exactly 16 today", dateOfBirth: "2010-06-15", wantValid: true},
		{name: "unparsable date", dateOfBirth: "15/06/1990", wantValid: false, wantError: domain.CodeInvalidFormat},
		{name: "future date", dateOfBirth: "2030-01-01", wantValid: false, wantError: domain.CodeInvalidValue},
		{name: "absent date", dateOfBirth: "", wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := individual("", "jean@x.com", "Jean", "Dupont")
			c.IndividualInfo.DateOfBirth = tt.dateOfBirth

			res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, res.IsValid, "errors: %v", issueCodes(res.Errors))
			if tt.wantError != "" {
				assert.True(t, res.HasError(field, tt.wantError), "errors: %v", issueCodes(res.Errors))
			}
			if tt.wantWarning != "" {
				assert.Contains(t, issueCodes(res.Warnings), field+"/"+tt.wantWarning)
			} else {
				assert.Empty(t, res.Warnings)
			}
		})
	}
}

func TestValidationService_BusinessContacts(t *testing.T) {
	const field = "business_info.contacts"
	inactivePrimary := contact("Paul", "Martin", true)
	inactivePrimary.IsActive = false

	tests := []struct {
		name         string
		contacts     []domain.ContactPerson
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:       "zero contacts yields only the required error",
			contacts:   nil,
			wantErrors: []string{field + "/" + domain.CodeRequiredField},
		},
		{
			name:     "single primary is clean",
			contacts: []domain.ContactPerson{contact("Anne", "Durand", true)},
		},
		{
			name:       "no primary",
			contacts:   []domain.ContactPerson{contact("Anne", "Durand", false)},
			wantErrors: []string{field + "/" + domain.CodePrimaryContactRequired},
		},
		{
			name:       "only an inactive primary",
			contacts:   []domain.ContactPerson{inactivePrimary, contact("Anne", "Durand", false)},
			wantErrors: []string{field + "/" + domain.CodePrimaryContactRequired},
		},
		{
			name:         "two primaries is a warning",
			contacts:     []domain.ContactPerson{contact("Anne", "Durand", true), contact("Paul", "Martin", true)},
			wantWarnings: []string{field + "/" + domain.CodeMultiplePrimaryContacts},
		},
		{
			name:     "contact without names",
			contacts: []domain.ContactPerson{contact("", "", true)},
			wantErrors: []string{
				field + "[0].first_name/" + domain.CodeRequiredField,
				field + "[0].last_name/" + domain.CodeRequiredField,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := business("", "ops@acme.fr", "Acme", tt.contacts...)

			res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
			require.NoError(t, err)

			if len(tt.wantErrors) == 0 {
				assert.Empty(t, res.Errors)
				assert.True(t, res.IsValid)
			} else {
				assert.Equal(t, tt.wantErrors, issueCodes(res.Errors))
				assert.False(t, res.IsValid)
			}
			if len(tt.wantWarnings) == 0 {
				assert.Empty(t, res.Warnings)
			} else {
				assert.Equal(t, tt.wantWarnings, issueCodes(res.Warnings))
			}
		})
	}
}

func TestValidationService_Email(t *testing.T) {
	const field = "contact_info.email"
	tests := []struct {
		name      string
		email     string
		seed      []*domain.Client
		opts      ValidationOptions
		wantCode  string
		wantCount int
	}{
		{name: "missing", email: "  ", opts: DefaultValidationOptions(), wantCode: domain.CodeRequiredField},
		{name: "malformed", email: "not-an-email", opts: DefaultValidationOptions(), wantCode: domain.CodeInvalidFormat},
		{
			name:      "taken by a live client",
			email:     "Jean@X.com",
			seed:      []*domain.Client{individual("c1", "jean@x.com", "Jean", "Dupont")},
			opts:      DefaultValidationOptions(),
			wantCode:  domain.CodeDuplicateEmail,
			wantCount: 1,
		},
		{
			name:      "taken by a soft-deleted client",
			email:     "jean@x.com",
			seed:      []*domain.Client{deleted(individual("c1", "jean@x.com", "Jean", "Dupont"))},
			opts:      DefaultValidationOptions(),
			wantCount: 1,
		},
		{
			name:  "uniqueness check disabled",
			email: "jean@x.com",
			seed:  []*domain.Client{individual("c1", "jean@x.com", "Jean", "Dupont")},
			opts:  ValidationOptions{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.clients.Seed(tt.seed...)

			res, err := env.validator.ValidateCreate(context.Background(), individual("", tt.email, "Marie", "Curie"), tt.opts)
			require.NoError(t, err)

			if tt.wantCode == "" {
				assert.True(t, res.IsValid, "errors: %v", issueCodes(res.Errors))
			} else {
				assert.True(t, res.HasError(field, tt.wantCode), "errors: %v", issueCodes(res.Errors))
				assert.Equal(t, 1, env.metrics.ValidationFailures[tt.wantCode])
			}
			assert.Equal(t, tt.wantCount, env.clients.CountCalls)
		})
	}
}

func TestValidationService_ReportsEveryIssue(t *testing.T) {
	env := newTestEnv(t)
	c := individual("", "bad-email", "", strings.Repeat("x", 51))
	c.ContactInfo.Phone = "abc"
	c.ContactInfo.Address = domain.Address{City: "Lyon"}
	c.CommercialInfo = domain.CommercialInfo{CreditLimit: -1, PaymentTermsDays: 400, Priority: "urgent", Currency: "eur"}

	res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.ElementsMatch(t, []string{
		"contact_info.email/" + domain.CodeInvalidFormat,
		"contact_info.address.country/" + domain.CodeRequiredField,
		"individual_info.first_name/" + domain.CodeRequiredField,
		"individual_info.last_name/" + domain.CodeMaxLength,
		"commercial_info.credit_limit/" + domain.CodeInvalidValue,
		"commercial_info.priority/" + domain.CodeInvalidValue,
	}, issueCodes(res.Errors))
	assert.ElementsMatch(t, []string{
		"contact_info.phone/" + domain.CodeInvalidFormat,
		"commercial_info.payment_terms_days/" + domain.CodeInvalidValue,
		"commercial_info.currency/" + domain.CodeInvalidFormat,
	}, issueCodes(res.Warnings))
}

func TestValidationService_BusinessIdentifiers(t *testing.T) {
	tests := []struct {
		name         string
		siret        string
		vat          string
		seed         []*domain.Client
		wantErrors   []string
		wantWarnings []string
	}{
		{name: "valid identifiers", siret: "73282932000074", vat: "FR44732829320"},
		{
			name:       "siret with letters",
			siret:      "7328293200007A",
			wantErrors: []string{"business_info.legal_info.siret/" + domain.CodeInvalidFormat},
		},
		{
			name:  "siret already used",
			siret: "73282932000074",
			seed: []*domain.Client{func() *domain.Client {
				c := business("other", "other@acme.fr", "Other", contact("A", "B", true))
				c.BusinessInfo.LegalInfo.Siret = "73282932000074"
				return c
			}()},
			wantErrors: []string{"business_info.legal_info.siret/" + domain.CodeDuplicateSiret},
		},
		{
			name:         "VAT mismatch is only a warning",
			vat:          "FR123",
			wantWarnings: []string{"business_info.legal_info.vat_number/" + domain.CodeInvalidFormat},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.clients.Seed(tt.seed...)
			c := business("", "ops@acme.fr", "Acme", contact("Anne", "Durand", true))
			c.BusinessInfo.LegalInfo = domain.LegalInfo{Siret: tt.siret, VATNumber: tt.vat}

			res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.wantErrors, issueCodes(res.Errors))
			assert.ElementsMatch(t, tt.wantWarnings, issueCodes(res.Warnings))
		})
	}
}

func TestValidationService_Address(t *testing.T) {
	tests := []struct {
		name         string
		address      domain.Address
		wantErrors   []string
		wantWarnings []string
	}{
		{name: "no address at all"},
		{name: "french postal code", address: domain.Address{City: "Paris", PostalCode: "75001", Country: "FR"}},
		{
			name:         "short french postal code",
			address:      domain.Address{PostalCode: "750", Country: "France"},
			wantWarnings: []string{"contact_info.address.postal_code/" + domain.CodeInvalidFormat},
		},
		{name: "foreign postal code is free-form", address: domain.Address{PostalCode: "SW1A 1AA", Country: "GB"}},
		{
			name:       "street without country",
			address:    domain.Address{Street: "1 rue de la Paix"},
			wantErrors: []string{"contact_info.address.country/" + domain.CodeRequiredField},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := individual("", "jean@x.com", "Jean", "Dupont")
			c.ContactInfo.Address = tt.address

			res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.wantErrors, issueCodes(res.Errors))
			assert.ElementsMatch(t, tt.wantWarnings, issueCodes(res.Warnings))
		})
	}
}

func TestValidationService_Commercial(t *testing.T) {
	tests := []struct {
		name         string
		info         domain.CommercialInfo
		wantErrors   []string
		wantWarnings []string
	}{
		{name: "defaults", info: domain.CommercialInfo{}},
		{name: "typical terms", info: domain.CommercialInfo{CreditLimit: 50000, PaymentTermsDays: 45, Currency: "EUR", RiskLevel: domain.RiskMedium}},
		{
			name:       "negative terms",
			info:       domain.CommercialInfo{PaymentTermsDays: -1},
			wantErrors: []string{"commercial_info.payment_terms_days/" + domain.CodeInvalidValue},
		},
		{
			name:         "very large credit",
			info:         domain.CommercialInfo{CreditLimit: 2_000_000},
			wantWarnings: []string{"commercial_info.credit_limit/" + domain.CodeInvalidValue},
		},
		{
			name:       "unknown risk level",
			info:       domain.CommercialInfo{RiskLevel: "extreme"},
			wantErrors: []string{"commercial_info.risk_level/" + domain.CodeInvalidValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			c := individual("", "jean@x.com", "Jean", "Dupont")
			c.CommercialInfo = tt.info

			res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
			require.NoError(t, err)

			assert.ElementsMatch(t, tt.wantErrors, issueCodes(res.Errors))
			assert.ElementsMatch(t, tt.wantWarnings, issueCodes(res.Warnings))
		})
	}
}

func TestValidationService_UnknownEnums(t *testing.T) {
	env := newTestEnv(t)
	c := individual("", "jean@x.com", "Jean", "Dupont")
	c.ClientType = "robot"
	c.Status = "zombie"

	res, err := env.validator.ValidateCreate(context.Background(), c, DefaultValidationOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"client_type/" + domain.CodeInvalidValue,
		"status/" + domain.CodeInvalidValue,
	}, issueCodes(res.Errors))
}

func TestValidationService_ValidateUpdate(t *testing.T) {
	email := func(s string) *domain.ClientPatch {
		return &domain.ClientPatch{ContactInfo: &domain.ContactInfo{Email: s}}
	}

	tests := []struct {
		name      string
		id        string
		patch     *domain.ClientPatch
		wantErr   error
		wantValid bool
		wantCodes []string
	}{
		{name: "own email is not a duplicate", id: "c1", patch: email("JEAN@x.com"), wantValid: true},
		{
			name:      "email of another client",
			id:        "c1",
			patch:     email("marie@x.com"),
			wantCodes: []string{"contact_info.email/" + domain.CodeDuplicateEmail},
		},
		{
			name: "patch merged onto stored record",
			id:   "c1",
			patch: &domain.ClientPatch{
				IndividualInfo: &domain.IndividualInfo{FirstName: "Jean"},
			},
			wantCodes: []string{"individual_info.last_name/" + domain.CodeRequiredField},
		},
		{name: "missing record", id: "nope", patch: email("a@b.co"), wantErr: ErrClientNotFound},
		{name: "soft-deleted record", id: "gone", patch: email("a@b.co"), wantErr: ErrClientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.clients.Seed(
				individual("c1", "jean@x.com", "Jean", "Dupont"),
				individual("c2", "marie@x.com", "Marie", "Curie"),
				deleted(individual("gone", "gone@x.com", "Old", "Timer")),
			)

			res, err := env.validator.ValidateUpdate(context.Background(), tt.id, tt.patch, DefaultValidationOptions())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.IsValid)
			if len(tt.wantCodes) > 0 {
				assert.Equal(t, tt.wantCodes, issueCodes(res.Errors))
			}
		})
	}
}

func TestValidationService_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("connection refused")
	env.clients.CountError = boom

	res, err := env.validator.ValidateCreate(context.Background(), individual("", "jean@x.com", "Jean", "Dupont"), DefaultValidationOptions())

	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
}
