package domain

import (
	"slices"
	"strings"
)

// ClientType discriminates the client variants / Discrimine les variantes de client
type ClientType string

const (
	ClientTypeIndividual ClientType = "individual" // Private person / Particulier
	ClientTypeBusiness   ClientType = "business"   // Company / Entreprise
)

// IsValid checks if client type is known / Vérifie si le type de client est connu
func (t ClientType) IsValid() bool {
	return t == ClientTypeIndividual || t == ClientTypeBusiness
}

// ClientStatus is the lifecycle status of a client / Statut du cycle de vie d'un client
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusInactive  ClientStatus = "inactive"
	ClientStatusSuspended ClientStatus = "suspended"
	ClientStatusProspect  ClientStatus = "prospect"
)

// AllClientStatuses returns every known status / Retourne tous les statuts connus
func AllClientStatuses() []ClientStatus {
	return []ClientStatus{
		ClientStatusActive,
		ClientStatusInactive,
		ClientStatusSuspended,
		ClientStatusProspect,
	}
}

// IsValid checks if status is known / Vérifie si le statut est connu
func (s ClientStatus) IsValid() bool {
	return slices.Contains(AllClientStatuses(), s)
}

// Priority ranks commercial attention / Niveau de priorité commerciale
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid checks if priority is known / Vérifie si la priorité est connue
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// RiskLevel is the credit risk assessment / Évaluation du risque crédit
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid checks if risk level is known / Vérifie si le niveau de risque est connu
func (r RiskLevel) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Address is a postal address / Adresse postale
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"` // ISO 3166-1 alpha-2, e.g. "FR"
}

// ContactInfo holds the reachable coordinates of a client / Coordonnées du client
type ContactInfo struct {
	Email             string  `json:"email"`
	Phone             string  `json:"phone,omitempty"`
	PreferredLanguage string  `json:"preferred_language,omitempty"`
	Address           Address `json:"address"`
}

// CommercialInfo holds negotiated terms / Conditions commerciales négociées
type CommercialInfo struct {
	CreditLimit      float64   `json:"credit_limit"`
	Currency         string    `json:"currency,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	Priority         Priority  `json:"priority,omitempty"`
	RiskLevel        RiskLevel `json:"risk_level,omitempty"`
}

// CommercialHistory aggregates past activity / Agrégats de l'activité passée
type CommercialHistory struct {
	TotalOrders             int     `json:"total_orders"`
	TotalAmount             float64 `json:"total_amount"`
	CurrentBalance          float64 `json:"current_balance"`
	AveragePaymentDelayDays float64 `json:"average_payment_delay_days"`
}

// IndividualInfo is the private-person variant / Variante particulier
type IndividualInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Profession  string `json:"profession,omitempty"`
}

// LegalInfo holds French company identifiers / Identifiants légaux de l'entreprise
type LegalInfo struct {
	Siret     string `json:"siret,omitempty"`
	VATNumber string `json:"vat_number,omitempty"`
}

// BusinessInfo is the company variant / Variante entreprise
type BusinessInfo struct {
	CompanyName string          `json:"company_name"`
	Industry    string          `json:"industry"`
	LegalInfo   LegalInfo       `json:"legal_info"`
	Contacts    []ContactPerson `json:"contacts"`
}

// Client is the freight-forwarding customer record / Fiche client du transitaire
type Client struct {
	BaseModel
	ID                string            `json:"id"`
	ClientType        ClientType        `json:"client_type"`
	Status            ClientStatus      `json:"status"`
	ContactInfo       ContactInfo       `json:"contact_info"`
	CommercialInfo    CommercialInfo    `json:"commercial_info"`
	CommercialHistory CommercialHistory `json:"commercial_history"`
	IndividualInfo    *IndividualInfo   `json:"individual_info,omitempty"`
	BusinessInfo      *BusinessInfo     `json:"business_info,omitempty"`
	Tags              []string          `json:"tags"`
	Notes             string            `json:"notes,omitempty"`
	Version           int64             `json:"version"` // Optimistic concurrency token / Jeton de concurrence optimiste
}

// IsBusiness reports the business variant / Indique la variante entreprise
func (c *Client) IsBusiness() bool {
	return c.ClientType == ClientTypeBusiness
}

// DisplayName is computed from the variant, never stored / Nom d'affichage calculé selon la variante
func (c *Client) DisplayName() string {
	switch c.ClientType {
	case ClientTypeBusiness:
		if c.BusinessInfo != nil {
			return c.BusinessInfo.CompanyName
		}
	case ClientTypeIndividual:
		if c.IndividualInfo != nil {
			return strings.TrimSpace(c.IndividualInfo.FirstName + " " + c.IndividualInfo.LastName)
		}
	}
	return c.ContactInfo.Email
}

// HasTag checks tag membership / Vérifie la présence d'un tag
func (c *Client) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Clone returns a deep copy safe to mutate / Retourne une copie profonde
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	cp := *c
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		cp.DeletedAt = &t
	}
	cp.Tags = slices.Clone(c.Tags)
	if c.IndividualInfo != nil {
		ii := *c.IndividualInfo
		cp.IndividualInfo = &ii
	}
	if c.BusinessInfo != nil {
		bi := *c.BusinessInfo
		bi.Contacts = slices.Clone(c.BusinessInfo.Contacts)
		cp.BusinessInfo = &bi
	}
	return &cp
}

// NormalizeEmail lower-cases and trims an address / Normalise une adresse email
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeTags trims, drops empties and deduplicates preserving order / Nettoie et déduplique les tags
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ClientPatch is a section-level partial update; nil sections are left untouched /
// Mise à jour partielle par section ; les sections nil ne sont pas modifiées
type ClientPatch struct {
	Status            *ClientStatus      `json:"status,omitempty"`
	ContactInfo       *ContactInfo       `json:"contact_info,omitempty"`
	CommercialInfo    *CommercialInfo    `json:"commercial_info,omitempty"`
	CommercialHistory *CommercialHistory `json:"commercial_history,omitempty"`
	IndividualInfo    *IndividualInfo    `json:"individual_info,omitempty"`
	BusinessInfo      *BusinessInfo      `json:"business_info,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
}

// IsEmpty reports a patch that changes nothing / Indique un patch sans effet
func (p *ClientPatch) IsEmpty() bool {
	return p == nil || (p.Status == nil && p.ContactInfo == nil && p.CommercialInfo == nil &&
		p.CommercialHistory == nil && p.IndividualInfo == nil && p.BusinessInfo == nil &&
		p.Tags == nil && p.Notes == nil)
}

// Apply returns a copy of c with the patch merged in / Retourne une copie de c avec le patch appliqué
func (p *ClientPatch) Apply(c *Client) *Client {
	out := c.Clone()
	if p == nil {
		return out
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.ContactInfo != nil {
		out.ContactInfo = *p.ContactInfo
	}
	if p.CommercialInfo != nil {
		out.CommercialInfo = *p.CommercialInfo
	}
	if p.CommercialHistory != nil {
		out.CommercialHistory = *p.CommercialHistory
	}
	if p.IndividualInfo != nil {
		ii := *p.IndividualInfo
		out.IndividualInfo = &ii
	}
	if p.BusinessInfo != nil {
		bi := *p.BusinessInfo
		bi.Contacts = slices.Clone(p.BusinessInfo.Contacts)
		out.BusinessInfo = &bi
	}
	if p.Tags != nil {
		out.Tags = NormalizeTags(p.Tags)
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	return out
}
