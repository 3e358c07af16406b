package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/dto"
	"github.com/Olprog59/go-freightdesk/internal/service"
)

// actor returns the acting user set by Auth. Every /api route runs behind
// Auth, so a missing actor is a wiring bug.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := ActingUser(r.Context())
	if !ok {
		ErrorResponse(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

// CreateClient handles POST /api/clients / Crée un client
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.CreateClientRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	c, err := h.container.ClientSvc.Create(r.Context(), req.ToDomain(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/clients/"+c.ID)
	setETag(w, c.Version)
	writeJSON(w, http.StatusCreated, dto.NewClientResponse(c))
}

// ValidateClient handles POST /api/clients/validate. It never writes and
// answers 200 with the validation result, valid or not.
func (h *Handler) ValidateClient(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateClientRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if err := req.Check(); err != nil {
		ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := service.DefaultValidationOptions()
	if req.SkipUniqueness {
		opts = service.ValidationOptions{}
	}

	var (
		res *domain.ValidationResult
		err error
	)
	if req.IsUpdate() {
		res, err = h.container.Validator.ValidateUpdate(r.Context(), req.ClientID, req.Patch, opts)
	} else {
		res, err = h.container.Validator.ValidateCreate(r.Context(), req.Client.ToDomain(), opts)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, res)
}

// ListClients handles GET /api/clients / Liste les clients
//
// Query: client_type and status (repeatable or comma separated), sort_by,
// sort_order, page, page_size.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := service.ListParams{
		SortBy:    q.Get("sort_by"),
		SortOrder: domain.SortOrder(strings.ToLower(q.Get("sort_order"))),
	}
	for _, v := range multiValue(q["client_type"]) {
		params.ClientTypes = append(params.ClientTypes, domain.ClientType(v))
	}
	for _, v := range multiValue(q["status"]) {
		params.Statuses = append(params.Statuses, domain.ClientStatus(v))
	}

	var err error
	if params.Page, err = intParam(q.Get("page")); err != nil {
		ErrorResponse(w, "invalid page", http.StatusBadRequest)
		return
	}
	if params.PageSize, err = intParam(q.Get("page_size")); err != nil {
		ErrorResponse(w, "invalid page_size", http.StatusBadRequest)
		return
	}

	page, err := h.container.ClientSvc.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, dto.NewClientListResponse(page))
}

// GetClient handles GET /api/clients/{id}: the client with its folders /
// Retourne le client avec ses dossiers
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	detail, err := h.container.ClientSvc.GetDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if detail == nil {
		writeError(w, r, service.ErrClientNotFound)
		return
	}
	setETag(w, detail.Client.Version)
	jsonResponse(w, detail)
}

// UpdateClient handles PATCH /api/clients/{id}. The expected version comes
// from the body or, failing that, from If-Match.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	expected := req.ExpectedVersion
	if expected == 0 {
		v, err := ifMatchVersion(r.Header.Get("If-Match"))
		if err != nil {
			ErrorResponse(w, "invalid If-Match header", http.StatusBadRequest)
			return
		}
		expected = v
	}

	c, err := h.container.ClientSvc.Update(r.Context(), service.UpdateParams{
		ID:              r.PathValue("id"),
		Patch:           &req.ClientPatch,
		UpdatedBy:       userID,
		ExpectedVersion: expected,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, c.Version)
	jsonResponse(w, dto.NewClientResponse(c))
}

// DeleteClient handles DELETE /api/clients/{id} / Supprime un client
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var req dto.DeleteClientRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	res, err := h.container.ClientSvc.Delete(r.Context(), service.DeleteParams{
		ID:                 r.PathValue("id"),
		DeletedBy:          userID,
		Reason:             req.Reason,
		Force:              req.Force,
		HardDelete:         req.HardDelete,
		HandleFolders:      req.HandleFolders,
		TransferToClientID: req.TransferToClientID,
	})
	if err != nil {
		// The client is gone but its folders were not all handled
		if res != nil {
			Logger(r.Context()).Error("client deleted with folder errors", "client_id", res.ClientID, "error", err)
			writeJSON(w, http.StatusMultiStatus, res)
			return
		}
		writeError(w, r, err)
		return
	}
	jsonResponse(w, res)
}

func setETag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

// ifMatchVersion parses `"3"`, `W/"3"` or `3`; an empty header is zero.
func ifMatchVersion(header string) (int64, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, nil
	}
	header = strings.TrimPrefix(header, "W/")
	return strconv.ParseInt(strings.Trim(header, `"`), 10, 64)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// multiValue flattens ?k=a&k=b,c into [a b c].
func multiValue(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
