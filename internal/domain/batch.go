package domain

import "slices"

// BatchOperationType names a bulk operation / Nomme une opération de masse
type BatchOperationType string

const (
	BatchUpdate       BatchOperationType = "update"
	BatchDelete       BatchOperationType = "delete"
	BatchChangeStatus BatchOperationType = "change_status"
	BatchAddTags      BatchOperationType = "add_tags"
	BatchRemoveTags   BatchOperationType = "remove_tags"
)

// IsValid checks if operation is known / Vérifie si l'opération est connue
func (t BatchOperationType) IsValid() bool {
	switch t {
	case BatchUpdate, BatchDelete, BatchChangeStatus, BatchAddTags, BatchRemoveTags:
		return true
	default:
		return false
	}
}

// BatchData is the operation-specific payload / Charge utile propre à l'opération
type BatchData struct {
	Update *ClientPatch  `json:"update,omitempty"`
	Status *ClientStatus `json:"status,omitempty"`
	Tags   []string      `json:"tags,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// BatchOperation is a bulk request over many clients / Requête de masse sur plusieurs clients
type BatchOperation struct {
	Operation BatchOperationType `json:"operation"`
	ClientIDs []string           `json:"client_ids"`
	Data      BatchData          `json:"data"`
	Force     bool               `json:"force"`
}

// BatchItemError is one failed item / Un élément en échec
type BatchItemError struct {
	ClientID  string `json:"client_id"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// BatchItemWarning is one flagged item / Un élément signalé
type BatchItemWarning struct {
	ClientID    string `json:"client_id"`
	Warning     string `json:"warning"`
	WarningCode string `json:"warning_code"`
}

// BatchOperationResult is the audit record of a batch. Entries are only ever
// appended while the batch runs; the engine hands out copies once done.
type BatchOperationResult struct {
	SuccessCount    int                `json:"success_count"`
	ErrorCount      int                `json:"error_count"`
	WarningCount    int                `json:"warning_count"`
	SuccessIDs      []string           `json:"success_ids"`
	Errors          []BatchItemError   `json:"errors"`
	Warnings        []BatchItemWarning `json:"warnings"`
	ExecutionTimeMS int64              `json:"execution_time_ms"`
}

// NewBatchOperationResult returns an empty result / Retourne un résultat vide
func NewBatchOperationResult() *BatchOperationResult {
	return &BatchOperationResult{
		SuccessIDs: []string{},
		Errors:     []BatchItemError{},
		Warnings:   []BatchItemWarning{},
	}
}

// AddSuccess records a succeeded id / Enregistre un succès
func (r *BatchOperationResult) AddSuccess(id string) {
	r.SuccessIDs = append(r.SuccessIDs, id)
	r.SuccessCount++
}

// AddError records a failed id / Enregistre un échec
func (r *BatchOperationResult) AddError(id, code, message string) {
	r.Errors = append(r.Errors, BatchItemError{ClientID: id, Error: message, ErrorCode: code})
	r.ErrorCount++
}

// AddWarning records a flagged id / Enregistre un avertissement
func (r *BatchOperationResult) AddWarning(id, code, message string) {
	r.Warnings = append(r.Warnings, BatchItemWarning{ClientID: id, Warning: message, WarningCode: code})
	r.WarningCount++
}

// Snapshot returns an independent copy / Retourne une copie indépendante
func (r *BatchOperationResult) Snapshot() BatchOperationResult {
	out := *r
	out.SuccessIDs = slices.Clone(r.SuccessIDs)
	out.Errors = slices.Clone(r.Errors)
	out.Warnings = slices.Clone(r.Warnings)
	return out
}
