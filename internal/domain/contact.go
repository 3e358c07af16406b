package domain

import "encoding/json"

// ContactType classifies a business contact / Classe un contact d'entreprise
type ContactType string

const (
	ContactTypeCommercial  ContactType = "commercial"
	ContactTypeOperational ContactType = "operational"
	ContactTypeBilling     ContactType = "billing"
	ContactTypeManagement  ContactType = "management"
	ContactTypeOther       ContactType = "other"
)

// IsValid checks if contact type is known / Vérifie si le type de contact est connu
func (t ContactType) IsValid() bool {
	switch t {
	case ContactTypeCommercial, ContactTypeOperational, ContactTypeBilling, ContactTypeManagement, ContactTypeOther:
		return true
	default:
		return false
	}
}

// PersonContactInfo holds a contact person's coordinates / Coordonnées d'un interlocuteur
type PersonContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ContactPerson is an interlocutor at a business client / Interlocuteur chez un client entreprise
type ContactPerson struct {
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Title       string            `json:"title,omitempty"`
	Department  string            `json:"department,omitempty"`
	ContactType ContactType       `json:"contact_type,omitempty"`
	IsPrimary   bool              `json:"is_primary"`
	IsActive    bool              `json:"is_active"`
	ContactInfo PersonContactInfo `json:"contact_info"`
}

// UnmarshalJSON defaults is_active to true when the key is absent /
// Active le contact par défaut quand is_active est absent
func (c *ContactPerson) UnmarshalJSON(data []byte) error {
	type plain ContactPerson
	p := plain{IsActive: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = ContactPerson(p)
	return nil
}

// ContactPatch is a partial contact update / Mise à jour partielle d'un contact
type ContactPatch struct {
	FirstName   *string            `json:"first_name,omitempty"`
	LastName    *string            `json:"last_name,omitempty"`
	Title       *string            `json:"title,omitempty"`
	Department  *string            `json:"department,omitempty"`
	ContactType *ContactType       `json:"contact_type,omitempty"`
	IsPrimary   *bool              `json:"is_primary,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
	ContactInfo *PersonContactInfo `json:"contact_info,omitempty"`
}

// Apply merges the patch into a copy of the contact / Applique le patch sur une copie du contact
func (p ContactPatch) Apply(c ContactPerson) ContactPerson {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Department != nil {
		c.Department = *p.Department
	}
	if p.ContactType != nil {
		c.ContactType = *p.ContactType
	}
	if p.IsPrimary != nil {
		c.IsPrimary = *p.IsPrimary
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.ContactInfo != nil {
		c.ContactInfo = *p.ContactInfo
	}
	return c
}

// CountActive returns the number of active contacts / Retourne le nombre de contacts actifs
func CountActive(contacts []ContactPerson) int {
	n := 0
	for _, c := range contacts {
		if c.IsActive {
			n++
		}
	}
	return n
}

// CountActivePrimary returns the number of active contacts flagged primary /
// Retourne le nombre de contacts actifs principaux
func CountActivePrimary(contacts []ContactPerson) int {
	n := 0
	for _, c := range contacts {
		if c.IsActive && c.IsPrimary {
			n++
		}
	}
	return n
}

// SetPrimary makes contacts[idx] the only primary / Fait de contacts[idx] l'unique contact principal
func SetPrimary(contacts []ContactPerson, idx int) {
	for i := range contacts {
		contacts[i].IsPrimary = i == idx
	}
}

// RepairPrimary enforces exactly one active primary contact.
// Inactive contacts lose the flag; when no active primary remains the first
// active contact is promoted. Returns false when no active contact exists.
func RepairPrimary(contacts []ContactPerson) bool {
	primary := -1
	for i := range contacts {
		if !contacts[i].IsActive {
			contacts[i].IsPrimary = false
			continue
		}
		if contacts[i].IsPrimary {
			if primary >= 0 {
				contacts[i].IsPrimary = false
				continue
			}
			primary = i
		}
	}
	if primary >= 0 {
		return true
	}
	for i := range contacts {
		if contacts[i].IsActive {
			contacts[i].IsPrimary = true
			return true
		}
	}
	return false
}
