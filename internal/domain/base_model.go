package domain

import "time"

// BaseModel provides common audit fields for domain models / Fournit les champs d'audit communs aux modèles
type BaseModel struct {
	CreatedBy      string     `json:"created_by,omitempty"`      // Acting user at creation / Utilisateur à l'origine de la création
	CreatedAt      time.Time  `json:"created_at"`                // Record creation time / Heure de création de l'enregistrement
	UpdatedAt      time.Time  `json:"updated_at"`                // Record last update time / Heure de dernière mise à jour
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`      // Soft delete timestamp / Horodatage de suppression logique
	DeletedBy      string     `json:"deleted_by,omitempty"`      // Acting user at deletion / Utilisateur à l'origine de la suppression
	DeletionReason string     `json:"deletion_reason,omitempty"` // Free-text reason / Motif libre
}

// IsDeleted checks if soft-deleted / Vérifie si supprimé (soft delete)
func (bm *BaseModel) IsDeleted() bool {
	return bm.DeletedAt != nil
}

// MarkDeleted stamps soft-delete fields / Renseigne les champs de suppression logique
func (bm *BaseModel) MarkDeleted(at time.Time, by, reason string) {
	bm.DeletedAt = &at
	bm.DeletedBy = by
	bm.DeletionReason = reason
	bm.UpdatedAt = at
}
