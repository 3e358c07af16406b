package domain

// FolderPolicy decides what happens to a deleted client's folders /
// Décide du sort des dossiers d'un client supprimé
type FolderPolicy string

const (
	FolderPolicyKeep     FolderPolicy = "keep"
	FolderPolicyArchive  FolderPolicy = "archive"
	FolderPolicyTransfer FolderPolicy = "transfer"
)

// IsValid checks if policy is known / Vérifie si la politique est connue
func (p FolderPolicy) IsValid() bool {
	return p == FolderPolicyKeep || p == FolderPolicyArchive || p == FolderPolicyTransfer
}

// FolderAction is the audit line for one affected folder / Trace d'audit d'un dossier touché
type FolderAction struct {
	FolderID       string       `json:"folder_id"`
	PreviousStatus FolderStatus `json:"previous_status"`
	Action         FolderPolicy `json:"action"`
	NewStatus      FolderStatus `json:"new_status"`
	NewClientID    string       `json:"new_client_id,omitempty"`
}

// DeleteResult describes a completed deletion / Décrit une suppression effectuée
type DeleteResult struct {
	ClientID      string         `json:"client_id"`
	HardDelete    bool           `json:"hard_delete"`
	Forced        bool           `json:"forced"`
	ActiveFolders int            `json:"active_folders"`
	FolderActions []FolderAction `json:"folder_actions"`
}

// ClientPage is one page of a listing / Une page de liste
type ClientPage struct {
	Clients    []*Client `json:"clients"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// TotalPagesFor computes the number of pages / Calcule le nombre de pages
func TotalPagesFor(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
