package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"github.com/Olprog59/go-freightdesk/internal/query"
	"github.com/Olprog59/go-freightdesk/internal/repository"
	"github.com/google/uuid"
)

// Commercial defaults applied on create / Valeurs commerciales par défaut à la création
const (
	DefaultCurrency         = "EUR"
	DefaultPaymentTermsDays = 30
)

// Write outcomes reported to metrics
const (
	outcomeSuccess  = "success"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// sortFields maps logical sort keys to field paths. display_name has no
// stored column and is sorted in memory.
var sortFields = map[string]string{
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"email":        "contact_info.email",
	"status":       "status",
	"client_type":  "client_type",
	"credit_limit": "commercial_info.credit_limit",
	"company_name": "business_info.company_name",
	"last_name":    "individual_info.last_name",
}

const sortDisplayName = "display_name"

// ListParams selects a page of live clients / Sélectionne une page de clients actifs
type ListParams struct {
	ClientTypes []domain.ClientType
	Statuses    []domain.ClientStatus
	SortBy      string
	SortOrder   domain.SortOrder
	Page        int
	PageSize    int
}

// UpdateParams describes a client update / Décrit une mise à jour de client
type UpdateParams struct {
	ID        string
	Patch     *domain.ClientPatch
	UpdatedBy string
	// ExpectedVersion guards the write; zero re-reads and retries on conflict
	ExpectedVersion int64
	// Options overrides the validation options; nil means every check
	Options *ValidationOptions
}

// DeleteParams describes a client deletion / Décrit une suppression de client
type DeleteParams struct {
	ID                 string
	DeletedBy          string
	Reason             string
	Force              bool
	HardDelete         bool
	HandleFolders      domain.FolderPolicy
	TransferToClientID string
}

// ClientService manages client records / Gère les fiches client
type ClientService struct {
	reader    ports.ClientReader
	writer    ports.ClientWriter
	folders   ports.FolderRepository
	validator *ValidationService
	records   config.RecordsConfig
	metrics   MetricsRecorder
	now       func() time.Time
	newID     func() string
}

// NewClientService creates client service instance / Crée une instance du service client
func NewClientService(
	repo ports.ClientRepository,
	folders ports.FolderRepository,
	validator *ValidationService,
	records config.RecordsConfig,
	metrics MetricsRecorder,
) *ClientService {
	return &ClientService{
		reader:    repo,
		writer:    repo,
		folders:   folders,
		validator: validator,
		records:   records,
		metrics:   metricsOrNoop(metrics),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Create validates and stores a new client / Valide et enregistre un nouveau client
func (s *ClientService) Create(ctx context.Context, data *domain.Client, createdBy string) (*domain.Client, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: client is required", ErrInvalidArgument)
	}
	c := data.Clone()
	c.ContactInfo.Email = domain.NormalizeEmail(c.ContactInfo.Email)
	c.Tags = domain.NormalizeTags(c.Tags)
	applyCommercialDefaults(&c.CommercialInfo)
	c.Status = domain.ClientStatusActive

	res, err := s.validator.ValidateCreate(ctx, c, DefaultValidationOptions())
	if err != nil {
		s.metrics.RecordClientWrite("create", outcomeError)
		return nil, err
	}
	if !res.IsValid {
		s.metrics.RecordClientWrite("create", outcomeInvalid)
		return nil, &domain.ValidationFailedError{Result: res}
	}

	now := s.now()
	c.ID = s.newID()
	c.Version = 1
	c.CreatedBy = createdBy
	c.CreatedAt = now
	c.UpdatedAt = now
	c.DeletedAt = nil
	c.DeletedBy = ""
	c.DeletionReason = ""

	if err := s.writer.Insert(ctx, c); err != nil {
		s.metrics.RecordClientWrite("create", outcomeError)
		slog.Error("failed to insert client", "err", err, "email", c.ContactInfo.Email)
		return nil, fmt.Errorf("insert client: %w", err)
	}
	s.metrics.RecordClientWrite("create", outcomeSuccess)
	slog.Info("client created", "client_id", c.ID, "client_type", c.ClientType, "created_by", createdBy)
	return c, nil
}

func applyCommercialDefaults(ci *domain.CommercialInfo) {
	if ci.PaymentTermsDays == 0 {
		ci.PaymentTermsDays = DefaultPaymentTermsDays
	}
	if ci.Currency == "" {
		ci.Currency = DefaultCurrency
	}
	if ci.Priority == "" {
		ci.Priority = domain.PriorityNormal
	}
	if ci.RiskLevel == "" {
		ci.RiskLevel = domain.RiskLow
	}
}

// GetByID returns a live client, or nil when missing or soft-deleted /
// Retourne un client actif, ou nil s'il est absent ou supprimé
func (s *ClientService) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.reader.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoRecord) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	if c.IsDeleted() {
		return nil, nil
	}
	return c, nil
}

// GetDetail returns a live client with its folders / Retourne un client avec ses dossiers
func (s *ClientService) GetDetail(ctx context.Context, id string) (*domain.ClientDetail, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	folders, err := s.folders.ListByClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list folders of %s: %w", id, err)
	}
	return &domain.ClientDetail{
		Client:      c,
		DisplayName: c.DisplayName(),
		Folders:     folders,
		FolderStats: domain.NewFolderStats(folders),
	}, nil
}

// List returns a page of live clients / Retourne une page de clients actifs
func (s *ClientService) List(ctx context.Context, p ListParams) (*domain.ClientPage, error) {
	page, size := clampPage(p.Page, p.PageSize, s.records)
	where := []query.Condition{query.Null("deleted_at")}
	if len(p.ClientTypes) > 0 {
		where = append(where, query.InValues("client_type", p.ClientTypes))
	}
	if len(p.Statuses) > 0 {
		where = append(where, query.InValues("status", p.Statuses))
	}
	orders, inMemory, err := sortOrders(p.SortBy, p.SortOrder)
	if err != nil {
		return nil, err
	}

	total, err := s.reader.Count(ctx, where)
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	clients, err := s.reader.Find(ctx, query.Query{
		Where:   where,
		OrderBy: orders,
		Offset:  (page - 1) * size,
		Limit:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	if inMemory {
		sortByDisplayName(clients, p.SortOrder == domain.SortDesc)
	}
	return &domain.ClientPage{
		Clients:    clients,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: domain.TotalPagesFor(total, size),
	}, nil
}

// clampPage bounds page and page size to the configured limits
func clampPage(page, size int, rc config.RecordsConfig) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = rc.DefaultPageSize
	}
	if size > rc.MaxPageSize {
		size = rc.MaxPageSize
	}
	return page, size
}

// sortOrders resolves a logical sort key; the bool reports an in-memory sort
func sortOrders(sortBy string, order domain.SortOrder) ([]query.Order, bool, error) {
	if order != "" && order != domain.SortAsc && order != domain.SortDesc {
		return nil, false, fmt.Errorf("%w: unknown sort order %q", ErrInvalidArgument, order)
	}
	switch sortBy {
	case "":
		return []query.Order{{Field: "created_at", Desc: true}}, false, nil
	case sortDisplayName:
		return []query.Order{{Field: "created_at", Desc: true}}, true, nil
	}
	field, ok := sortFields[sortBy]
	if !ok {
		return nil, false, fmt.Errorf("%w: unknown sort key %q", ErrInvalidArgument, sortBy)
	}
	return []query.Order{{Field: field, Desc: order == domain.SortDesc}}, false, nil
}

// Update validates and writes a patch / Valide et écrit un patch
func (s *ClientService) Update(ctx context.Context, p UpdateParams) (*domain.Client, error) {
	if p.Patch.IsEmpty() {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidArgument)
	}
	opts := DefaultValidationOptions()
	if p.Options != nil {
		opts = *p.Options
	}

	var out *domain.Client
	write := func() error {
		current, err := loadLive(ctx, s.reader, p.ID)
		if err != nil {
			return err
		}
		if p.ExpectedVersion != 0 && current.Version != p.ExpectedVersion {
			return repository.ErrVersionConflict
		}
		res, err := s.validator.ValidateUpdate(ctx, p.ID, p.Patch, opts)
		if err != nil {
			return err
		}
		if !res.IsValid {
			return &domain.ValidationFailedError{Result: res}
		}
		next := p.Patch.Apply(current)
		next.ContactInfo.Email = domain.NormalizeEmail(next.ContactInfo.Email)
		next.UpdatedAt = s.now()
		if err := s.writer.Update(ctx, next, current.Version); err != nil {
			return err
		}
		out = next
		return nil
	}

	var err error
	if p.ExpectedVersion != 0 {
		err = write()
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordVersionConflict()
		}
	} else {
		err = retryOnConflict(ctx, s.records.MaxWriteRetries, s.metrics, write)
	}
	if err != nil {
		s.metrics.RecordClientWrite("update", writeOutcome(err))
		return nil, err
	}
	s.metrics.RecordClientWrite("update", outcomeSuccess)
	slog.Info("client updated", "client_id", p.ID, "version", out.Version, "updated_by", p.UpdatedBy)
	return out, nil
}

// loadLive loads a client that exists and is not soft-deleted
func loadLive(ctx context.Context, reader ports.ClientReader, id string) (*domain.Client, error) {
	c, err := reader.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoRecord) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("load client %s: %w", id, err)
	}
	if c.IsDeleted() {
		return nil, ErrClientNotFound
	}
	return c, nil
}

func writeOutcome(err error) string {
	var vf *domain.ValidationFailedError
	var re *domain.RuleError
	switch {
	case errors.As(err, &vf):
		return outcomeInvalid
	case errors.As(err, &re), errors.Is(err, ErrClientNotFound), errors.Is(err, repository.ErrVersionConflict):
		return outcomeRejected
	default:
		return outcomeError
	}
}

// Delete removes a client and handles its folders. Active folders block the
// deletion unless forced. When folder handling fails after the client row
// was written, the partial result is returned with the error.
//
// Delete supprime un client et traite ses dossiers.
func (s *ClientService) Delete(ctx context.Context, p DeleteParams) (*domain.DeleteResult, error) {
	policy := p.HandleFolders
	if policy == "" {
		policy = domain.FolderPolicyKeep
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("%w: unknown folder policy %q", ErrInvalidArgument, policy)
	}

	current, err := loadLive(ctx, s.reader, p.ID)
	if err != nil {
		s.metrics.RecordClientWrite("delete", writeOutcome(err))
		return nil, err
	}

	folders, err := s.folders.ListByClient(ctx, p.ID)
	if err != nil {
		s.metrics.RecordClientWrite("delete", outcomeError)
		return nil, fmt.Errorf("list folders of %s: %w", p.ID, err)
	}
	active := domain.NewFolderStats(folders).Active
	if active > 0 && !p.Force {
		s.metrics.RecordClientWrite("delete", outcomeRejected)
		return nil, domain.NewRuleError(domain.CodeActiveFolders, "",
			fmt.Sprintf("client has %d active folder(s); use force to delete", active))
	}
	if err := s.checkTransferTarget(ctx, p, policy, len(folders)); err != nil {
		s.metrics.RecordClientWrite("delete", writeOutcome(err))
		return nil, err
	}

	if p.HardDelete {
		err = s.writer.Delete(ctx, p.ID)
	} else {
		next := current.Clone()
		next.MarkDeleted(s.now(), p.DeletedBy, p.Reason)
		err = s.writer.Update(ctx, next, current.Version)
	}
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordVersionConflict()
		}
		s.metrics.RecordClientWrite("delete", writeOutcome(err))
		return nil, fmt.Errorf("delete client %s: %w", p.ID, err)
	}

	result := &domain.DeleteResult{
		ClientID:      p.ID,
		HardDelete:    p.HardDelete,
		Forced:        p.Force,
		ActiveFolders: active,
		FolderActions: []domain.FolderAction{},
	}
	for _, f := range folders {
		action, err := s.handleFolder(ctx, f, policy, p.TransferToClientID)
		if err != nil {
			s.metrics.RecordClientWrite("delete", outcomeError)
			slog.Error("folder handling failed after client deletion",
				"client_id", p.ID, "folder_id", f.ID, "policy", policy, "err", err)
			return result, fmt.Errorf("handle folder %s: %w", f.ID, err)
		}
		result.FolderActions = append(result.FolderActions, action)
	}

	s.metrics.RecordClientWrite("delete", outcomeSuccess)
	slog.Info("client deleted",
		"client_id", p.ID,
		"hard", p.HardDelete,
		"forced", p.Force,
		"folders", len(folders),
		"policy", policy,
		"deleted_by", p.DeletedBy,
	)
	return result, nil
}

// checkTransferTarget runs before any write so a bad target leaves no trace
func (s *ClientService) checkTransferTarget(ctx context.Context, p DeleteParams, policy domain.FolderPolicy, folders int) error {
	if policy != domain.FolderPolicyTransfer {
		return nil
	}
	const field = "transfer_to_client_id"
	if p.TransferToClientID == "" {
		return domain.NewRuleError(domain.CodeRequiredField, field, "transfer target is required")
	}
	if p.TransferToClientID == p.ID {
		return domain.NewRuleError(domain.CodeInvalidValue, field, "cannot transfer folders to the deleted client")
	}
	if folders == 0 {
		return nil
	}
	target, err := s.GetByID(ctx, p.TransferToClientID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.NewRuleError(domain.CodeInvalidValue, field, "transfer target does not exist or is deleted")
	}
	return nil
}

func (s *ClientService) handleFolder(ctx context.Context, f *domain.Folder, policy domain.FolderPolicy, target string) (domain.FolderAction, error) {
	action := domain.FolderAction{
		FolderID:       f.ID,
		PreviousStatus: f.Status,
		Action:         policy,
		NewStatus:      f.Status,
	}
	switch policy {
	case domain.FolderPolicyArchive:
		if err := s.folders.UpdateStatus(ctx, f.ID, domain.FolderStatusArchived); err != nil {
			return action, err
		}
		action.NewStatus = domain.FolderStatusArchived
	case domain.FolderPolicyTransfer:
		if err := s.folders.Transfer(ctx, f.ID, target); err != nil {
			return action, err
		}
		action.NewClientID = target
	}
	return action, nil
}
