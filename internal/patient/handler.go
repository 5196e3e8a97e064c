package patient

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/gorilla/mux"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "User not authenticated"})
		return
	}

	patients, err := h.service.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, err)
		return
	}
	if patients == nil {
		patients = []Patient{}
	}

	respondJSON(w, http.StatusOK, PatientListResponse{
		Success:  true,
		Patients: patients,
		Total:    len(patients),
	})
}

func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "User not authenticated"})
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, apperror.Validation("Invalid patient id"))
		return
	}
	if principal.Role == auth.RolePatient && principal.UserID != id {
		respondJSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "message": "forbidden"})
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, PatientSuccessResponse{Success: true, Patient: p})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, apperror.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   apperror.KindOf(err).String(),
		"message": apperror.UserMessage(err),
	})
}
