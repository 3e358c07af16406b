package web

import (
	"net/http"

	"github.com/Olprog59/go-freightdesk/internal/domain"
)

// ExecuteBatch handles POST /api/clients/batch. Per-item failures are part
// of the 200 body; only malformed requests and store failures are errors.
//
// ExecuteBatch exécute une opération de masse.
func (h *Handler) ExecuteBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var op domain.BatchOperation
	if !decodeJSON(w, r, &op, false) {
		return
	}

	res, err := h.container.BatchSvc.ExecuteBatch(r.Context(), op, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Logger(r.Context()).Info("batch executed",
		"operation", op.Operation,
		"requested", len(op.ClientIDs),
		"successful", res.SuccessCount,
		"errors", res.ErrorCount,
	)
	jsonResponse(w, res)
}
