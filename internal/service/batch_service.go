package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/ports"
	"golang.org/x/sync/errgroup"
)

// BatchService runs bulk operations over many clients. Every target is
// classified in a pre-flight pass before anything is written, and one
// item's failure never aborts the others.
//
// BatchService exécute les opérations de masse sur plusieurs clients.
type BatchService struct {
	reader  ports.ClientReader
	writer  ports.ClientWriter
	folders ports.FolderRepository
	clients *ClientService
	records config.RecordsConfig
	metrics MetricsRecorder
	now     func() time.Time
}

// NewBatchService creates batch service instance / Crée une instance du service de masse
func NewBatchService(
	repo ports.ClientRepository,
	folders ports.FolderRepository,
	clients *ClientService,
	records config.RecordsConfig,
	metrics MetricsRecorder,
) *BatchService {
	return &BatchService{
		reader:  repo,
		writer:  repo,
		folders: folders,
		clients: clients,
		records: records,
		metrics: metricsOrNoop(metrics),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteBatch runs op on behalf of userID. Malformed requests and store
// failures during pre-flight are returned as errors; per-item outcomes are
// data in the result.
//
// ExecuteBatch exécute op pour le compte de userID.
func (s *BatchService) ExecuteBatch(ctx context.Context, op domain.BatchOperation, userID string) (*domain.BatchOperationResult, error) {
	start := time.Now()
	if err := s.checkArguments(op); err != nil {
		return nil, err
	}

	ids := uniqueIDs(op.ClientIDs)
	result := domain.NewBatchOperationResult()

	eligible, err := s.preflight(ctx, op.Operation, ids, result)
	if err != nil {
		return nil, err
	}

	switch {
	case !op.Force && result.ErrorCount > 0:
		slog.Info("batch stopped after pre-flight", "operation", op.Operation, "errors", result.ErrorCount)
	case !op.Force && op.Operation == domain.BatchDelete && result.WarningCount > 0:
		slog.Info("batch delete needs force", "operation", op.Operation, "warnings", result.WarningCount)
	case len(eligible) > 0:
		s.execute(ctx, op, eligible, userID, result)
	}

	elapsed := time.Since(start)
	result.ExecutionTimeMS = elapsed.Milliseconds()
	s.metrics.RecordBatch(string(op.Operation), result.SuccessCount, result.ErrorCount, result.WarningCount, elapsed)
	slog.Info("batch executed",
		"operation", op.Operation,
		"requested", len(op.ClientIDs),
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
		"warnings", result.WarningCount,
		"force", op.Force,
		"user_id", userID,
		"duration_ms", result.ExecutionTimeMS,
	)

	snap := result.Snapshot()
	return &snap, nil
}

// checkArguments rejects malformed requests before any store access
func (s *BatchService) checkArguments(op domain.BatchOperation) error {
	if len(op.ClientIDs) == 0 {
		return fmt.Errorf("%w: client_ids is empty", ErrInvalidArgument)
	}
	if len(op.ClientIDs) > s.records.MaxBatchSize {
		return fmt.Errorf("%w: %d client ids exceed the limit of %d", ErrInvalidArgument, len(op.ClientIDs), s.records.MaxBatchSize)
	}
	switch op.Operation {
	case domain.BatchUpdate:
		if op.Data.Update.IsEmpty() {
			return fmt.Errorf("%w: update payload is required", ErrInvalidArgument)
		}
	case domain.BatchDelete:
	case domain.BatchChangeStatus:
		if op.Data.Status == nil || !op.Data.Status.IsValid() {
			return fmt.Errorf("%w: a valid target status is required", ErrInvalidArgument)
		}
	case domain.BatchAddTags, domain.BatchRemoveTags:
		if len(domain.NormalizeTags(op.Data.Tags)) == 0 {
			return fmt.Errorf("%w: tags are required", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidArgument, op.Operation)
	}
	return nil
}

// uniqueIDs drops repeated ids keeping the first occurrence
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// preflight classifies every id with one lookup and returns the eligible
// ones in input order.
func (s *BatchService) preflight(ctx context.Context, op domain.BatchOperationType, ids []string, result *domain.BatchOperationResult) ([]string, error) {
	found, err := s.reader.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("batch pre-flight lookup: %w", err)
	}
	byID := make(map[string]*domain.Client, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	eligible := make([]string, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		switch {
		case !ok:
			result.AddError(id, domain.CodeNotFound, "client not found")
		case c.IsDeleted():
			result.AddError(id, domain.CodeDeletedClient, "client is deleted")
		default:
			eligible = append(eligible, id)
		}
	}

	if op == domain.BatchDelete && len(eligible) > 0 {
		counts, err := s.folders.CountActiveByClients(ctx, eligible)
		if err != nil {
			return nil, fmt.Errorf("batch pre-flight folder count: %w", err)
		}
		for _, id := range eligible {
			if n := counts[id]; n > 0 {
				result.AddWarning(id, domain.CodeActiveFolders, fmt.Sprintf("client has %d active folder(s)", n))
			}
		}
	}
	return eligible, nil
}

func (s *BatchService) execute(ctx context.Context, op domain.BatchOperation, ids []string, userID string, result *domain.BatchOperationResult) {
	switch op.Operation {
	case domain.BatchChangeStatus:
		s.changeStatus(ctx, ids, *op.Data.Status, result)
	case domain.BatchUpdate:
		noUniqueness := ValidationOptions{}
		s.forEach(ctx, ids, domain.CodeUpdateError, result, func(ctx context.Context, id string) error {
			_, err := s.clients.Update(ctx, UpdateParams{
				ID:        id,
				Patch:     op.Data.Update,
				UpdatedBy: userID,
				Options:   &noUniqueness,
			})
			return err
		})
	case domain.BatchDelete:
		s.forEach(ctx, ids, domain.CodeDeleteError, result, func(ctx context.Context, id string) error {
			_, err := s.clients.Delete(ctx, DeleteParams{
				ID:            id,
				DeletedBy:     userID,
				Reason:        op.Data.Reason,
				Force:         true,
				HandleFolders: domain.FolderPolicyKeep,
			})
			return err
		})
	case domain.BatchAddTags:
		tags := domain.NormalizeTags(op.Data.Tags)
		s.forEach(ctx, ids, domain.CodeAddTagsError, result, func(ctx context.Context, id string) error {
			return s.changeTags(ctx, id, tags, true)
		})
	case domain.BatchRemoveTags:
		tags := domain.NormalizeTags(op.Data.Tags)
		s.forEach(ctx, ids, domain.CodeRemoveTagsError, result, func(ctx context.Context, id string) error {
			return s.changeTags(ctx, id, tags, false)
		})
	}
}

// changeStatus issues one bulk statement. A failed statement marks every
// id; an id missing from the reported set is marked individually.
func (s *BatchService) changeStatus(ctx context.Context, ids []string, status domain.ClientStatus, result *domain.BatchOperationResult) {
	updated, err := s.writer.UpdateStatus(ctx, ids, status, s.now())
	if err != nil {
		slog.Error("bulk status update failed", "status", status, "ids", len(ids), "err", err)
		for _, id := range ids {
			result.AddError(id, domain.CodeBatchUpdateError, err.Error())
		}
		return
	}
	done := make(map[string]bool, len(updated))
	for _, id := range updated {
		done[id] = true
	}
	for _, id := range ids {
		if done[id] {
			result.AddSuccess(id)
		} else {
			result.AddError(id, domain.CodeStatusUpdateFailed, "status was not updated")
		}
	}
}

// changeTags unions or subtracts tags under the version token
func (s *BatchService) changeTags(ctx context.Context, id string, tags []string, add bool) error {
	return retryOnConflict(ctx, s.records.MaxWriteRetries, s.metrics, func() error {
		c, err := loadLive(ctx, s.reader, id)
		if err != nil {
			return err
		}
		var next []string
		if add {
			missing := slices.DeleteFunc(slices.Clone(tags), c.HasTag)
			if len(missing) == 0 {
				return nil
			}
			next = append(slices.Clone(c.Tags), missing...)
		} else {
			if !slices.ContainsFunc(tags, c.HasTag) {
				return nil
			}
			next = slices.DeleteFunc(slices.Clone(c.Tags), func(t string) bool {
				return slices.Contains(tags, t)
			})
		}
		updated := c.Clone()
		updated.Tags = next
		updated.UpdatedAt = s.now()
		return s.writer.Update(ctx, updated, c.Version)
	})
}

// forEach runs fn for every id with bounded concurrency and appends the
// outcomes to result in input order.
func (s *BatchService) forEach(
	ctx context.Context,
	ids []string,
	fallbackCode string,
	result *domain.BatchOperationResult,
	fn func(ctx context.Context, id string) error,
) {
	outcomes := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(max(1, s.records.BatchConcurrency))
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = runItem(ctx, id, fn)
			return nil
		})
	}
	_ = g.Wait()

	for i, id := range ids {
		if err := outcomes[i]; err != nil {
			code, msg := itemError(err, fallbackCode)
			result.AddError(id, code, msg)
			continue
		}
		result.AddSuccess(id)
	}
}

// runItem turns a panic inside one item into that item's error
func runItem(ctx context.Context, id string, fn func(ctx context.Context, id string) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("batch item panicked", "client_id", id, "panic", r)
			err = fmt.Errorf("item panicked: %v", r)
		}
	}()
	return fn(ctx, id)
}

// itemError picks the code reported for a failed item
func itemError(err error, fallback string) (string, string) {
	var vf *domain.ValidationFailedError
	if errors.As(err, &vf) {
		return vf.FirstCode(), vf.Error()
	}
	var re *domain.RuleError
	if errors.As(err, &re) {
		return re.Code, re.Message
	}
	if errors.Is(err, ErrClientNotFound) {
		return domain.CodeNotFound, err.Error()
	}
	return fallback, err.Error()
}
