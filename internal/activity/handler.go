package activity

import (
	"encoding/json"
	"net/http"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/pagination"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListActivity serves GET /activity-logs?action_type=&page=&limit=.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	entries, meta, err := h.service.List(r.Context(), r.URL.Query().Get("action_type"), pagination.ParseParams(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ListResponse{Success: true, Logs: entries, Pagination: meta})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, apperror.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   apperror.KindOf(err).String(),
		"message": apperror.UserMessage(err),
	})
}
