package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/query"
)

// Field limits / Limites de champs
const (
	maxPersonNameLength  = 50
	maxCompanyNameLength = 100
	maxContactTextLength = 100
	creditLimitWarning   = 1_000_000
	paymentTermsWarning  = 365
	minimumAdultAge      = 16
	maximumPlausibleAge  = 120
	dateOfBirthLayout    = "2006-01-02"
)

// ValidationOptions toggles the checks that hit the store / Active les contrôles qui interrogent le store
type ValidationOptions struct {
	CheckEmailUniqueness bool `json:"check_email_uniqueness"`
	CheckSiretUniqueness bool `json:"check_siret_uniqueness"`
}

// DefaultValidationOptions enables every uniqueness check / Active tous les contrôles d'unicité
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{CheckEmailUniqueness: true, CheckSiretUniqueness: true}
}

// ValidationService checks client records against business rules. Rule
// violations are returned as data; only store failures surface as errors.
//
// ValidationService vérifie les fiches client selon les règles métier.
type ValidationService struct {
	clients ports.ClientReader
	metrics MetricsRecorder
	now     func() time.Time
}

// NewValidationService creates validation service instance / Crée une instance du service de validation
func NewValidationService(clients ports.ClientReader, metrics MetricsRecorder) *ValidationService {
	return &ValidationService{
		clients: clients,
		metrics: metricsOrNoop(metrics),
		now:     time.Now,
	}
}

// ValidateCreate validates a new client / Valide un nouveau client
func (s *ValidationService) ValidateCreate(ctx context.Context, c *domain.Client, opts ValidationOptions) (*domain.ValidationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: client is required", ErrInvalidArgument)
	}
	return s.validate(ctx, c, "", opts)
}

// ValidateUpdate validates patch merged onto the stored record / Valide le patch fusionné avec la fiche stockée
func (s *ValidationService) ValidateUpdate(ctx context.Context, id string, patch *domain.ClientPatch, opts ValidationOptions) (*domain.ValidationResult, error) {
	current, err := loadLive(ctx, s.clients, id)
	if err != nil {
		return nil, err
	}
	merged := patch.Apply(current)
	merged.ContactInfo.Email = domain.NormalizeEmail(merged.ContactInfo.Email)
	return s.validate(ctx, merged, id, opts)
}

// validate runs every rule in order and reports all issues; excludeID is the
// record's own id on update, left out of uniqueness lookups.
func (s *ValidationService) validate(ctx context.Context, c *domain.Client, excludeID string, opts ValidationOptions) (*domain.ValidationResult, error) {
	res := domain.NewValidationResult()

	if !c.ClientType.IsValid() {
		res.AddError("client_type", domain.CodeInvalidValue, fmt.Sprintf("unknown client type %q", c.ClientType))
	}
	if c.Status != "" && !c.Status.IsValid() {
		res.AddError("status", domain.CodeInvalidValue, fmt.Sprintf("unknown status %q", c.Status))
	}

	if err := s.validateEmail(ctx, res, c.ContactInfo.Email, excludeID, opts); err != nil {
		return nil, err
	}
	if c.ContactInfo.Phone != "" && !isValidPhone(c.ContactInfo.Phone) {
		res.AddWarning("contact_info.phone", domain.CodeInvalidFormat, "phone number format looks invalid")
	}
	validateAddress(res, c.ContactInfo.Address)

	switch c.ClientType {
	case domain.ClientTypeIndividual:
		info := c.IndividualInfo
		if info == nil {
			info = &domain.IndividualInfo{}
		}
		s.validateIndividual(res, info)
	case domain.ClientTypeBusiness:
		info := c.BusinessInfo
		if info == nil {
			info = &domain.BusinessInfo{}
		}
		if err := s.validateBusiness(ctx, res, info, excludeID, opts); err != nil {
			return nil, err
		}
	}

	validateCommercial(res, c.CommercialInfo)

	for _, e := range res.Errors {
		s.metrics.RecordValidationFailure(e.Code)
	}
	return res, nil
}

func (s *ValidationService) validateEmail(ctx context.Context, res *domain.ValidationResult, email, excludeID string, opts ValidationOptions) error {
	const field = "contact_info.email"
	email = domain.NormalizeEmail(email)
	if email == "" {
		res.AddError(field, domain.CodeRequiredField, "email is required")
		return nil
	}
	if !isValidEmail(email) {
		res.AddError(field, domain.CodeInvalidFormat, "email format is invalid")
		return nil
	}
	if !opts.CheckEmailUniqueness {
		return nil
	}
	taken, err := s.taken(ctx, "contact_info.email", email, excludeID)
	if err != nil {
		return fmt.Errorf("check email uniqueness: %w", err)
	}
	if taken {
		res.AddError(field, domain.CodeDuplicateEmail, "a client with this email already exists")
	}
	return nil
}

// taken reports whether another live client holds value at field
func (s *ValidationService) taken(ctx context.Context, field, value, excludeID string) (bool, error) {
	where := []query.Condition{query.Eq(field, value), query.Null("deleted_at")}
	if excludeID != "" {
		where = append(where, query.Ne("id", excludeID))
	}
	n, err := s.clients.Count(ctx, where)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// validateAddress requires a country once any address field is given
func validateAddress(res *domain.ValidationResult, a domain.Address) {
	if a == (domain.Address{}) {
		return
	}
	if strings.TrimSpace(a.Country) == "" {
		res.AddError("contact_info.address.country", domain.CodeRequiredField, "country is required")
		return
	}
	if isFrench(a.Country) && a.PostalCode != "" && !isValidFrenchPostalCode(a.PostalCode) {
		res.AddWarning("contact_info.address.postal_code", domain.CodeInvalidFormat, "French postal codes have exactly 5 digits")
	}
}

func (s *ValidationService) validateIndividual(res *domain.ValidationResult, info *domain.IndividualInfo) {
	requireName(res, "individual_info.first_name", info.FirstName, maxPersonNameLength)
	requireName(res, "individual_info.last_name", info.LastName, maxPersonNameLength)

	if info.DateOfBirth == "" {
		return
	}
	const field = "individual_info.date_of_birth"
	birth, err := time.Parse(dateOfBirthLayout, info.DateOfBirth)
	if err != nil {
		res.AddError(field, domain.CodeInvalidFormat, "date of birth must be YYYY-MM-DD")
		return
	}
	age := ageOn(birth, s.now())
	switch {
	case age < 0:
		res.AddError(field, domain.CodeInvalidValue, "date of birth is in the future")
	case age > maximumPlausibleAge:
		res.AddError(field, domain.CodeInvalidValue, fmt.Sprintf("age of %d years is not plausible", age))
	case age < minimumAdultAge:
		res.AddWarning(field, domain.CodeInvalidValue, fmt.Sprintf("client is under %d", minimumAdultAge))
	}
}

func (s *ValidationService) validateBusiness(ctx context.Context, res *domain.ValidationResult, info *domain.BusinessInfo, excludeID string, opts ValidationOptions) error {
	requireName(res, "business_info.company_name", info.CompanyName, maxCompanyNameLength)
	if strings.TrimSpace(info.Industry) == "" {
		res.AddError("business_info.industry", domain.CodeRequiredField, "industry is required")
	}

	if siret := info.LegalInfo.Siret; siret != "" {
		const field = "business_info.legal_info.siret"
		if !isValidSiret(siret) {
			res.AddError(field, domain.CodeInvalidFormat, "SIRET must be exactly 14 digits")
		} else if opts.CheckSiretUniqueness {
			taken, err := s.taken(ctx, "business_info.legal_info.siret", siret, excludeID)
			if err != nil {
				return fmt.Errorf("check siret uniqueness: %w", err)
			}
			if taken {
				res.AddError(field, domain.CodeDuplicateSiret, "a client with this SIRET already exists")
			}
		}
	}
	if vat := info.LegalInfo.VATNumber; vat != "" && !isValidVAT(vat) {
		res.AddWarning("business_info.legal_info.vat_number", domain.CodeInvalidFormat, "VAT number format looks invalid")
	}

	// An empty list is one root cause: no primary check on top of it
	if len(info.Contacts) == 0 {
		res.AddError("business_info.contacts", domain.CodeRequiredField, "at least one contact is required")
		return nil
	}
	for i, c := range info.Contacts {
		res.Merge(validateContact(fmt.Sprintf("business_info.contacts[%d]", i), c))
	}
	primaries := domain.CountActivePrimary(info.Contacts)
	switch {
	case primaries == 0:
		res.AddError("business_info.contacts", domain.CodePrimaryContactRequired, "an active primary contact is required")
	case primaries > 1:
		res.AddWarning("business_info.contacts", domain.CodeMultiplePrimaryContacts, fmt.Sprintf("%d primary contacts flagged", primaries))
	}
	return nil
}

// validateContact checks one contact person under the given field prefix /
// Vérifie un interlocuteur sous le préfixe de champ donné
func validateContact(prefix string, c domain.ContactPerson) *domain.ValidationResult {
	res := domain.NewValidationResult()
	requireName(res, prefix+".first_name", c.FirstName, maxPersonNameLength)
	requireName(res, prefix+".last_name", c.LastName, maxPersonNameLength)
	if tooLong(c.Title, maxContactTextLength) {
		res.AddError(prefix+".title", domain.CodeMaxLength, fmt.Sprintf("title exceeds %d characters", maxContactTextLength))
	}
	if tooLong(c.Department, maxContactTextLength) {
		res.AddError(prefix+".department", domain.CodeMaxLength, fmt.Sprintf("department exceeds %d characters", maxContactTextLength))
	}
	if c.ContactType != "" && !c.ContactType.IsValid() {
		res.AddError(prefix+".contact_type", domain.CodeInvalidValue, fmt.Sprintf("unknown contact type %q", c.ContactType))
	}
	if c.ContactInfo.Email != "" && !isValidEmail(c.ContactInfo.Email) {
		res.AddError(prefix+".contact_info.email", domain.CodeInvalidFormat, "email format is invalid")
	}
	if c.ContactInfo.Phone != "" && !isValidPhone(c.ContactInfo.Phone) {
		res.AddWarning(prefix+".contact_info.phone", domain.CodeInvalidFormat, "phone number format looks invalid")
	}
	return res
}

func validateCommercial(res *domain.ValidationResult, ci domain.CommercialInfo) {
	switch {
	case ci.CreditLimit < 0:
		res.AddError("commercial_info.credit_limit", domain.CodeInvalidValue, "credit limit cannot be negative")
	case ci.CreditLimit > creditLimitWarning:
		res.AddWarning("commercial_info.credit_limit", domain.CodeInvalidValue, "credit limit above 1,000,000")
	}
	switch {
	case ci.PaymentTermsDays < 0:
		res.AddError("commercial_info.payment_terms_days", domain.CodeInvalidValue, "payment terms cannot be negative")
	case ci.PaymentTermsDays > paymentTermsWarning:
		res.AddWarning("commercial_info.payment_terms_days", domain.CodeInvalidValue, "payment terms above 365 days")
	}
	if ci.Priority != "" && !ci.Priority.IsValid() {
		res.AddError("commercial_info.priority", domain.CodeInvalidValue, fmt.Sprintf("unknown priority %q", ci.Priority))
	}
	if ci.RiskLevel != "" && !ci.RiskLevel.IsValid() {
		res.AddError("commercial_info.risk_level", domain.CodeInvalidValue, fmt.Sprintf("unknown risk level %q", ci.RiskLevel))
	}
	if ci.Currency != "" && !isValidCurrency(ci.Currency) {
		res.AddWarning("commercial_info.currency", domain.CodeInvalidFormat, "currency should be an ISO 4217 code")
	}
}

func requireName(res *domain.ValidationResult, field, value string, limit int) {
	switch {
	case strings.TrimSpace(value) == "":
		res.AddError(field, domain.CodeRequiredField, "this field is required")
	case tooLong(value, limit):
		res.AddError(field, domain.CodeMaxLength, fmt.Sprintf("must be at most %d characters", limit))
	}
}
