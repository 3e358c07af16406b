package web

import (
	"net/http"
	"strconv"

	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/dto"
	"github.com/Olprog59/go-freightdesk/internal/service"
)

// AddContact handles POST /api/clients/{id}/contacts / Ajoute un contact
func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var contact domain.ContactPerson
	if !decodeJSON(w, r, &contact, false) {
		return
	}

	c, err := h.container.ContactSvc.AddContact(r.Context(), r.PathValue("id"), contact, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, c.Version)
	writeJSON(w, http.StatusCreated, dto.NewClientResponse(c))
}

// UpdateContact handles PATCH /api/clients/{id}/contacts/{index}
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	index, ok := contactIndex(w, r)
	if !ok {
		return
	}
	var patch domain.ContactPatch
	if !decodeJSON(w, r, &patch, false) {
		return
	}

	c, err := h.container.ContactSvc.UpdateContact(r.Context(), r.PathValue("id"), index, patch, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, c.Version)
	jsonResponse(w, dto.NewClientResponse(c))
}

// RemoveContact handles DELETE /api/clients/{id}/contacts/{index}. The
// deactivate_only flag is read from the body or the query string.
func (h *Handler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	index, ok := contactIndex(w, r)
	if !ok {
		return
	}
	var req dto.RemoveContactRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if raw := r.URL.Query().Get("deactivate_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			ErrorResponse(w, "invalid deactivate_only", http.StatusBadRequest)
			return
		}
		req.DeactivateOnly = v
	}

	c, err := h.container.ContactSvc.RemoveContact(r.Context(), r.PathValue("id"), index,
		service.RemoveContactOptions{DeactivateOnly: req.DeactivateOnly}, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, c.Version)
	jsonResponse(w, dto.NewClientResponse(c))
}

func contactIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		ErrorResponse(w, "contact index must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}
