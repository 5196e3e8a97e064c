package appointment

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/pagination"
	"github.com/gorilla/mux"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	filter, err := scopedFilter(r, principal)
	if err != nil {
		respondError(w, err)
		return
	}
	status, err := ParseFilterStatus(r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), ListQuery{
		Filter:   filter,
		Criteria: Criteria{View: ParseView(r.URL.Query().Get("view")), Status: status},
		Sort:     parseSort(r.URL.Query().Get("sort")),
		Page:     pagination.ParseParams(r),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	filter, err := scopedFilter(r, principal)
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	id, err := PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if principal.Role == auth.RolePatient && a.PatientID != principal.UserID {
		respondJSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "message": "forbidden"})
		return
	}

	respondJSON(w, http.StatusOK, AppointmentResponse{Success: true, Appointment: a})
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.Validation("Invalid request body"))
		return
	}
	if principal.Role == auth.RoleDoctor && req.DoctorID == 0 {
		req.DoctorID = principal.UserID
	}

	a, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondRestrictedOrError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, AppointmentResponse{
		Success:     true,
		Message:     "Appointment created successfully",
		Appointment: a,
	})
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondUnauthenticated(w)
		return
	}

	id, err := PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.Validation("Invalid request body"))
		return
	}

	a, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AppointmentResponse{
		Success:     true,
		Message:     "Appointment updated successfully",
		Appointment: a,
	})
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondUnauthenticated(w)
		return
	}

	id, err := PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Appointment deleted successfully",
	})
}

// scopedFilter builds the backend filter for the caller. Patients only ever
// see their own appointments and doctors default to their own.
func scopedFilter(r *http.Request, principal *auth.Principal) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter
	var err error
	if f.DoctorID, err = queryID(q.Get("doctor_id"), "doctor_id"); err != nil {
		return f, err
	}
	if f.PatientID, err = queryID(q.Get("patient_id"), "patient_id"); err != nil {
		return f, err
	}

	switch principal.Role {
	case auth.RolePatient:
		f.PatientID = principal.UserID
	case auth.RoleDoctor:
		if f.DoctorID == 0 && f.PatientID == 0 {
			f.DoctorID = principal.UserID
		}
	}
	return f, nil
}

func queryID(raw, name string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("Invalid " + name)
	}
	return id, nil
}

func parseSort(raw string) SortOrder {
	switch SortOrder(strings.ToLower(raw)) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

// PathID reads a positive integer route variable.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation("Invalid " + name)
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondUnauthenticated(w http.ResponseWriter) {
	respondJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "User not authenticated"})
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, apperror.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   apperror.KindOf(err).String(),
		"message": apperror.UserMessage(err),
	})
}

func respondRestrictedOrError(w http.ResponseWriter, err error) {
	if !apperror.Is(err, apperror.KindRestricted) {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusForbidden, map[string]interface{}{
		"success":    false,
		"restricted": true,
		"message":    apperror.UserMessage(err),
	})
}
