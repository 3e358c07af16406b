package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/domain"
)

// CreateClientRequest is DTO for client creation / Est le DTO pour la création d'un client
type CreateClientRequest struct {
	ClientType        domain.ClientType         `json:"client_type"`
	ContactInfo       domain.ContactInfo        `json:"contact_info"`
	CommercialInfo    domain.CommercialInfo     `json:"commercial_info"`
	CommercialHistory *domain.CommercialHistory `json:"commercial_history,omitempty"`
	IndividualInfo    *domain.IndividualInfo    `json:"individual_info,omitempty"`
	BusinessInfo      *domain.BusinessInfo      `json:"business_info,omitempty"`
	Tags              []string                  `json:"tags,omitempty"`
	Notes             string                    `json:"notes,omitempty"`
}

// ToDomain converts the request to a client draft / Convertit la requête en brouillon de client
func (r *CreateClientRequest) ToDomain() *domain.Client {
	c := &domain.Client{
		ClientType:     r.ClientType,
		ContactInfo:    r.ContactInfo,
		CommercialInfo: r.CommercialInfo,
		IndividualInfo: r.IndividualInfo,
		BusinessInfo:   r.BusinessInfo,
		Tags:           r.Tags,
		Notes:          r.Notes,
	}
	if r.CommercialHistory != nil {
		c.CommercialHistory = *r.CommercialHistory
	}
	return c
}

// UpdateClientRequest is DTO for a partial update. ExpectedVersion, when set,
// rejects the write if the stored record moved on.
//
// UpdateClientRequest est le DTO pour une mise à jour partielle.
type UpdateClientRequest struct {
	domain.ClientPatch
	ExpectedVersion int64 `json:"expected_version,omitempty"`
}

// DeleteClientRequest is DTO for client deletion / Est le DTO pour la suppression d'un client
type DeleteClientRequest struct {
	Reason             string              `json:"reason,omitempty"`
	Force              bool                `json:"force,omitempty"`
	HardDelete         bool                `json:"hard_delete,omitempty"`
	HandleFolders      domain.FolderPolicy `json:"handle_folders,omitempty"`
	TransferToClientID string              `json:"transfer_to_client_id,omitempty"`
}

// ValidateClientRequest is DTO for a dry-run validation. It carries either a
// full client (create) or a client id with a patch (update).
type ValidateClientRequest struct {
	Client         *CreateClientRequest `json:"client,omitempty"`
	ClientID       string               `json:"client_id,omitempty"`
	Patch          *domain.ClientPatch  `json:"patch,omitempty"`
	SkipUniqueness bool                 `json:"skip_uniqueness,omitempty"`
}

// IsUpdate reports an update validation / Indique une validation de mise à jour
func (r *ValidateClientRequest) IsUpdate() bool {
	return r.Client == nil
}

// Check verifies the request shape / Vérifie la forme de la requête
func (r *ValidateClientRequest) Check() error {
	switch {
	case r.Client != nil && (r.ClientID != "" || r.Patch != nil):
		return errors.New("send either client or client_id with patch, not both")
	case r.Client == nil && strings.TrimSpace(r.ClientID) == "":
		return errors.New("client or client_id is required")
	case r.Client == nil && r.Patch == nil:
		return errors.New("patch is required with client_id")
	}
	return nil
}

// RemoveContactRequest is DTO for contact removal / Est le DTO pour le retrait d'un contact
type RemoveContactRequest struct {
	DeactivateOnly bool `json:"deactivate_only,omitempty"`
}

// ClientResponse is a client with its computed display name / Client avec son nom d'affichage
type ClientResponse struct {
	*domain.Client
	DisplayName string `json:"display_name"`
}

// NewClientResponse wraps a client / Encapsule un client
func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{Client: c, DisplayName: c.DisplayName()}
}

// ClientListResponse is one page of clients / Une page de clients
type ClientListResponse struct {
	Clients    []ClientResponse `json:"clients"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// NewClientListResponse converts a page / Convertit une page
func NewClientListResponse(p *domain.ClientPage) ClientListResponse {
	out := ClientListResponse{
		Clients:    make([]ClientResponse, 0, len(p.Clients)),
		TotalCount: p.TotalCount,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
	for _, c := range p.Clients {
		out.Clients = append(out.Clients, NewClientResponse(c))
	}
	return out
}

// APIError is the JSON error body / Corps JSON d'une erreur
type APIError struct {
	Error      string                   `json:"error"`
	Code       string                   `json:"code,omitempty"`
	Field      string                   `json:"field,omitempty"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
	RequestID  string                   `json:"request_id,omitempty"`
}

// TokenResponse is a minted bearer token / Token porteur émis
type TokenResponse struct {
	AccessToken string    `json:"access_token" yaml:"access_token"`
	TokenType   string    `json:"token_type" yaml:"token_type"`
	Subject     string    `json:"subject" yaml:"subject"`
	ExpiresAt   time.Time `json:"expires_at" yaml:"expires_at"`
}
