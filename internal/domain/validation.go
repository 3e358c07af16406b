package domain

import (
	"fmt"
	"strings"
)

// Business error codes carried inside results / Codes d'erreur métier portés par les résultats
const (
	CodeRequiredField           = "REQUIRED_FIELD"
	CodeInvalidFormat           = "INVALID_FORMAT"
	CodeMaxLength               = "MAX_LENGTH"
	CodeDuplicateEmail          = "DUPLICATE_EMAIL"
	CodeDuplicateSiret          = "DUPLICATE_SIRET"
	CodeInvalidValue            = "INVALID_VALUE"
	CodeNotFound                = "NOT_FOUND"
	CodeDeletedClient           = "DELETED_CLIENT"
	CodeActiveFolders           = "ACTIVE_FOLDERS"
	CodePrimaryContactRequired  = "PRIMARY_CONTACT_REQUIRED"
	CodeMultiplePrimaryContacts = "MULTIPLE_PRIMARY_CONTACTS"
	CodeStatusUpdateFailed      = "STATUS_UPDATE_FAILED"
	CodeBatchUpdateError        = "BATCH_UPDATE_ERROR"
	CodeUpdateError             = "UPDATE_ERROR"
	CodeDeleteError             = "DELETE_ERROR"
	CodeAddTagsError            = "ADD_TAGS_ERROR"
	CodeRemoveTagsError         = "REMOVE_TAGS_ERROR"
)

// Issue is one validation finding / Un constat de validation
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult collects blocking errors and informational warnings /
// Regroupe les erreurs bloquantes et les avertissements informatifs
type ValidationResult struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// NewValidationResult returns an empty, valid result / Retourne un résultat vide et valide
func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true, Errors: []Issue{}, Warnings: []Issue{}}
}

// AddError records a blocking issue / Enregistre une erreur bloquante
func (r *ValidationResult) AddError(field, code, message string) {
	r.Errors = append(r.Errors, Issue{Field: field, Message: message, Code: code})
	r.IsValid = false
}

// AddWarning records a non-blocking issue / Enregistre un avertissement
func (r *ValidationResult) AddWarning(field, code, message string) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Message: message, Code: code})
}

// Merge appends other's issues / Fusionne les constats d'un autre résultat
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for _, e := range other.Errors {
		r.AddError(e.Field, e.Code, e.Message)
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// HasError reports whether an error with code exists on field / Indique une erreur de ce code sur ce champ
func (r *ValidationResult) HasError(field, code string) bool {
	for _, e := range r.Errors {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

// Summary joins error messages for logs / Concatène les messages pour les logs
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidationFailedError rejects a single-record write whose validation failed /
// Rejette une écriture dont la validation a échoué
type ValidationFailedError struct {
	Result *ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return "validation failed: " + e.Result.Summary()
}

// FirstCode returns the code of the first error / Retourne le code de la première erreur
func (e *ValidationFailedError) FirstCode() string {
	if e.Result == nil || len(e.Result.Errors) == 0 {
		return CodeInvalidValue
	}
	return e.Result.Errors[0].Code
}

// RuleError rejects an operation that breaks a business rule / Rejette une opération contraire à une règle métier
type RuleError struct {
	Code    string
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// NewRuleError builds a RuleError / Construit une RuleError
func NewRuleError(code, field, message string) *RuleError {
	return &RuleError{Code: code, Field: field, Message: message}
}
