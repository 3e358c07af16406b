package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
)

const contactsField = "business_info.contacts"

// RemoveContactOptions controls contact removal / Contrôle la suppression d'un contact
type RemoveContactOptions struct {
	DeactivateOnly bool `json:"deactivate_only"`
}

// ContactService manages the contacts of business clients. Every mutation
// re-reads the record and writes with its version token.
//
// ContactService gère les interlocuteurs des clients entreprise.
type ContactService struct {
	reader  ports.ClientReader
	writer  ports.ClientWriter
	records config.RecordsConfig
	metrics MetricsRecorder
	now     func() time.Time
}

// NewContactService creates contact service instance / Crée une instance du service de contacts
func NewContactService(repo ports.ClientRepository, records config.RecordsConfig, metrics MetricsRecorder) *ContactService {
	return &ContactService{
		reader:  repo,
		writer:  repo,
		records: records,
		metrics: metricsOrNoop(metrics),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddContact appends a contact / Ajoute un contact
func (s *ContactService) AddContact(ctx context.Context, clientID string, contact domain.ContactPerson, actor string) (*domain.Client, error) {
	if res := validateContact(contactsField, contact); !res.IsValid {
		return nil, &domain.ValidationFailedError{Result: res}
	}
	return s.mutate(ctx, "add_contact", clientID, actor, func(contacts []domain.ContactPerson) ([]domain.ContactPerson, error) {
		if contact.IsPrimary && !contact.IsActive {
			return nil, domain.NewRuleError(domain.CodeInvalidValue, contactsField, "an inactive contact cannot be primary")
		}
		contacts = append(contacts, contact)
		if contact.IsPrimary {
			domain.SetPrimary(contacts, len(contacts)-1)
		}
		return contacts, nil
	})
}

// UpdateContact patches the contact at index / Modifie le contact à l'index donné
func (s *ContactService) UpdateContact(ctx context.Context, clientID string, index int, patch domain.ContactPatch, actor string) (*domain.Client, error) {
	return s.mutate(ctx, "update_contact", clientID, actor, func(contacts []domain.ContactPerson) ([]domain.ContactPerson, error) {
		if err := checkIndex(contacts, index); err != nil {
			return nil, err
		}
		updated := patch.Apply(contacts[index])
		field := fmt.Sprintf("%s[%d]", contactsField, index)
		if res := validateContact(field, updated); !res.IsValid {
			return nil, &domain.ValidationFailedError{Result: res}
		}
		if patch.IsPrimary != nil && *patch.IsPrimary && !updated.IsActive {
			return nil, domain.NewRuleError(domain.CodeInvalidValue, field, "an inactive contact cannot be primary")
		}
		if contacts[index].IsActive && !updated.IsActive && domain.CountActive(contacts) == 1 {
			return nil, lastActiveContactError()
		}
		if !updated.IsActive {
			updated.IsPrimary = false
		}
		contacts[index] = updated
		if updated.IsPrimary {
			domain.SetPrimary(contacts, index)
		}
		return contacts, nil
	})
}

// RemoveContact deletes or deactivates the contact at index /
// Supprime ou désactive le contact à l'index donné
func (s *ContactService) RemoveContact(ctx context.Context, clientID string, index int, opts RemoveContactOptions, actor string) (*domain.Client, error) {
	return s.mutate(ctx, "remove_contact", clientID, actor, func(contacts []domain.ContactPerson) ([]domain.ContactPerson, error) {
		if err := checkIndex(contacts, index); err != nil {
			return nil, err
		}
		if contacts[index].IsActive && domain.CountActive(contacts) == 1 {
			return nil, lastActiveContactError()
		}
		if opts.DeactivateOnly {
			contacts[index].IsActive = false
			contacts[index].IsPrimary = false
			return contacts, nil
		}
		return slices.Delete(contacts, index, index+1), nil
	})
}

func lastActiveContactError() error {
	return domain.NewRuleError(domain.CodePrimaryContactRequired, contactsField, "cannot remove last active contact")
}

func checkIndex(contacts []domain.ContactPerson, index int) error {
	if index < 0 || index >= len(contacts) {
		return domain.NewRuleError(domain.CodeInvalidValue, contactsField,
			fmt.Sprintf("contact index %d out of range [0, %d)", index, len(contacts)))
	}
	return nil
}

// mutate runs a read-modify-write of the contact list, repairs the primary
// contact and retries on version conflict.
func (s *ContactService) mutate(
	ctx context.Context,
	op, clientID, actor string,
	change func([]domain.ContactPerson) ([]domain.ContactPerson, error),
) (*domain.Client, error) {
	var out *domain.Client
	err := retryOnConflict(ctx, s.records.MaxWriteRetries, s.metrics, func() error {
		c, err := loadLive(ctx, s.reader, clientID)
		if err != nil {
			return err
		}
		if !c.IsBusiness() || c.BusinessInfo == nil {
			return domain.NewRuleError(domain.CodeInvalidValue, "client_type", "only business clients have contacts")
		}
		next := c.Clone()
		contacts, err := change(slices.Clone(next.BusinessInfo.Contacts))
		if err != nil {
			return err
		}
		if !domain.RepairPrimary(contacts) {
			return lastActiveContactError()
		}
		next.BusinessInfo.Contacts = contacts
		next.UpdatedAt = s.now()
		if err := s.writer.Update(ctx, next, c.Version); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		s.metrics.RecordClientWrite(op, writeOutcome(err))
		return nil, err
	}
	s.metrics.RecordClientWrite(op, outcomeSuccess)
	slog.Info("client contacts changed", "op", op, "client_id", clientID, "contacts", len(out.BusinessInfo.Contacts), "actor", actor)
	return out, nil
}
