package web

import (
	"net/http"

	"github.com/Olprog59/go-freightdesk/internal/domain"
)

// SearchClients handles POST /api/clients/search / Recherche des clients
func (h *Handler) SearchClients(w http.ResponseWriter, r *http.Request) {
	var params domain.SearchParams
	if !decodeJSON(w, r, &params, true) {
		return
	}

	res, err := h.container.SearchSvc.Search(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, res)
}
