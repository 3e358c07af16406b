package domain

import "time"

// FolderStatus is the lifecycle status of a shipment folder / Statut d'un dossier d'expédition
type FolderStatus string

const (
	FolderStatusDraft     FolderStatus = "draft"
	FolderStatusActive    FolderStatus = "active"
	FolderStatusOnHold    FolderStatus = "on_hold"
	FolderStatusCompleted FolderStatus = "completed"
	FolderStatusArchived  FolderStatus = "archived"
	FolderStatusCancelled FolderStatus = "cancelled"
)

// IsValid checks if folder status is known / Vérifie si le statut de dossier est connu
func (s FolderStatus) IsValid() bool {
	switch s {
	case FolderStatusDraft, FolderStatusActive, FolderStatusOnHold,
		FolderStatusCompleted, FolderStatusArchived, FolderStatusCancelled:
		return true
	default:
		return false
	}
}

// Folder is a shipment record referencing a client / Dossier d'expédition rattaché à un client
type Folder struct {
	ID        string       `json:"id"`
	ClientID  string       `json:"client_id"`
	Reference string       `json:"reference,omitempty"`
	Status    FolderStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// FolderStats summarises the folders of one client / Synthèse des dossiers d'un client
type FolderStats struct {
	Total    int                  `json:"total"`
	Active   int                  `json:"active"`
	ByStatus map[FolderStatus]int `json:"by_status"`
}

// NewFolderStats tallies folders by status / Compte les dossiers par statut
func NewFolderStats(folders []*Folder) FolderStats {
	stats := FolderStats{ByStatus: make(map[FolderStatus]int)}
	for _, f := range folders {
		stats.Total++
		stats.ByStatus[f.Status]++
		if f.Status == FolderStatusActive {
			stats.Active++
		}
	}
	return stats
}

// ClientDetail is a client together with its folders / Client accompagné de ses dossiers
type ClientDetail struct {
	Client      *Client     `json:"client"`
	DisplayName string      `json:"display_name"`
	Folders     []*Folder   `json:"folders"`
	FolderStats FolderStats `json:"folder_stats"`
}
