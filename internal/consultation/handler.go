package consultation

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"go.uber.org/zap"
)

const maxUploadMemory = 32 << 20

type Handler struct {
	service ServiceInterface
	log     *zap.Logger
}

func NewHandler(service ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, log: logger}
}

type statusResponse struct {
	Success           bool                    `json:"success"`
	Message           string                  `json:"message"`
	Appointment       appointment.Appointment `json:"appointment"`
	PreviousStatus    appointment.Status      `json:"previous_status"`
	OfferConsultation bool                    `json:"offer_consultation"`
	Restricted        bool                    `json:"restricted,omitempty"`
}

type consultationResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	Consultation *Consultation `json:"consultation,omitempty"`
	SkippedFiles []SkippedFile `json:"skipped_files,omitempty"`
}

// ChangeStatus handles POST /appointments/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondUnauthenticated(w)
		return
	}
	id, err := appointment.PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req appointment.StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.Validation("Invalid request body"))
		return
	}

	out, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		respondError(w, err)
		return
	}

	message := fmt.Sprintf("Appointment marked as %s", out.Appointment.Status)
	if out.Restricted {
		message += ". " + patient.RestrictedMessage
	}
	respondJSON(w, http.StatusOK, statusResponse{
		Success:           true,
		Message:           message,
		Appointment:       out.Appointment,
		PreviousStatus:    out.PreviousStatus,
		OfferConsultation: out.OfferConsultation,
		Restricted:        out.Restricted,
	})
}

// ConsultationForm handles GET /appointments/{id}/consultation-form.
func (h *Handler) ConsultationForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondUnauthenticated(w)
		return
	}
	id, err := appointment.PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	form, err := h.service.ConsultationForm(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "form": form})
}

// CreateConsultation handles POST /consultations. The body is either the
// draft as JSON or a multipart form with the draft in the "payload" field
// and lab result files in "lab_results[<index>]" fields.
func (h *Handler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}

	var draft Draft
	cleanup, err := h.decodeBody(r, &draft, func(form *multipart.Form, dir string) error {
		for i := range draft.LabResults {
			files, err := saveParts(form.File[fmt.Sprintf("lab_results[%d]", i)], dir)
			if err != nil {
				return err
			}
			draft.LabResults[i].Files = files
		}
		return nil
	})
	defer cleanup()
	if err != nil {
		respondError(w, err)
		return
	}
	if principal.Role == auth.RoleDoctor && draft.DoctorID == 0 {
		draft.DoctorID = principal.UserID
	}

	res, err := h.service.Create(r.Context(), draft)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, consultationResponse{
		Success:      true,
		Message:      savedMessage("Consultation created successfully", res.SkippedFiles),
		Consultation: res.Consultation,
		SkippedFiles: res.SkippedFiles,
	})
}

func (h *Handler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondUnauthenticated(w)
		return
	}
	id, err := appointment.PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consultationResponse{Success: true, Consultation: c})
}

func (h *Handler) UpdateConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idAndBody(w, r, "id", nil)
	if !ok {
		return
	}
	var d Details
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, apperror.Validation("Invalid request body"))
		return
	}

	c, err := h.service.UpdateDetails(r.Context(), id, d)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consultationResponse{Success: true, Message: "Consultation updated successfully", Consultation: c})
}

func (h *Handler) DeleteConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idAndBody(w, r, "id", nil)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Consultation deleted successfully"})
}

func (h *Handler) AddPrescription(w http.ResponseWriter, r *http.Request) {
	var in PrescriptionInput
	id, ok := h.idAndBody(w, r, "id", &in)
	if !ok {
		return
	}
	c, err := h.service.AddPrescription(r.Context(), id, in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, consultationResponse{Success: true, Message: "Prescription added successfully", Consultation: c})
}

func (h *Handler) UpdatePrescription(w http.ResponseWriter, r *http.Request) {
	var in PrescriptionInput
	id, ok := h.idAndBody(w, r, "id", &in)
	if !ok {
		return
	}
	if err := h.service.UpdatePrescription(r.Context(), id, in); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Prescription updated successfully"})
}

func (h *Handler) DeletePrescription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idAndBody(w, r, "id", nil)
	if !ok {
		return
	}
	if err := h.service.DeletePrescription(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Prescription deleted successfully"})
}

// AddLabResult handles POST /consultations/{id}/lab-results as JSON or as a
// multipart form with the lab result in "payload" and files in "files".
func (h *Handler) AddLabResult(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idAndBody(w, r, "id", nil)
	if !ok {
		return
	}

	var d LabResultDraft
	cleanup, err := h.decodeBody(r, &d, func(form *multipart.Form, dir string) error {
		files, err := saveParts(form.File["files"], dir)
		d.Files = files
		return err
	})
	defer cleanup()
	if err != nil {
		respondError(w, err)
		return
	}

	c, skipped, err := h.service.AddLabResult(r.Context(), id, d)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, consultationResponse{
		Success:      true,
		Message:      savedMessage("Lab result added successfully", skipped),
		Consultation: c,
		SkippedFiles: skipped,
	})
}

func (h *Handler) UpdateLabResult(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idAndBody(w, r, "id", nil)
	if !ok {
		return
	}

	var d LabResultDraft
	cleanup, err := h.decodeBody(r, &d, func(form *multipart.Form, dir string) error {
		files, err := saveParts(form.File["files"], dir)
		d.Files = files
		return err
	})
	defer cleanup()
	if err != nil {
		respondError(w, err)
		return
	}

	skipped, err := h.service.UpdateLabResult(r.Context(), id, d)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, consultationResponse{
		Success:      true,
		Message:      savedMessage("Lab result updated successfully", skipped),
		SkippedFiles: skipped,
	})
}

func (h *Handler) DeleteLabResult(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idAndBody(w, r, "id", nil)
	if !ok {
		return
	}
	if err := h.service.DeleteLabResult(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Lab result deleted successfully"})
}

// PatientRecords handles GET /patients/{id}/records. Patients can only read
// their own records.
func (h *Handler) PatientRecords(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		respondUnauthenticated(w)
		return
	}
	id, err := appointment.PathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if principal.Role == auth.RolePatient && principal.UserID != id {
		respondJSON(w, http.StatusForbidden, map[string]interface{}{"success": false, "message": "forbidden"})
		return
	}

	b, err := h.service.PatientRecords(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*RecordBundle
	}{Success: true, RecordBundle: b})
}

// idAndBody checks authentication, reads the route id and, when into is not
// nil, decodes the JSON body into it. It writes the error response itself.
func (h *Handler) idAndBody(w http.ResponseWriter, r *http.Request, name string, into interface{}) (int64, bool) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		respondUnauthenticated(w)
		return 0, false
	}
	id, err := appointment.PathID(r, name)
	if err != nil {
		respondError(w, err)
		return 0, false
	}
	if into != nil {
		if err := json.NewDecoder(r.Body).Decode(into); err != nil {
			respondError(w, apperror.Validation("Invalid request body"))
			return 0, false
		}
	}
	return id, true
}

// decodeBody decodes a JSON body, or the "payload" field of a multipart
// body followed by attach for its files. The returned cleanup removes any
// temporary files and is always safe to call.
func (h *Handler) decodeBody(r *http.Request, into interface{}, attach func(*multipart.Form, string) error) (func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(into); err != nil {
			return noop, apperror.Validation("Invalid request body")
		}
		return noop, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return noop, apperror.Validation("Invalid multipart body")
	}
	if err := json.Unmarshal([]byte(r.FormValue("payload")), into); err != nil {
		return noop, apperror.Validation("Invalid payload field")
	}

	dir, err := os.MkdirTemp("", "clinic-upload-*")
	if err != nil {
		h.log.Error("failed to create upload directory", zap.Error(err))
		return noop, err
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
		os.RemoveAll(dir)
	}
	if err := attach(r.MultipartForm, dir); err != nil {
		h.log.Error("failed to stage uploaded files", zap.Error(err))
		return cleanup, err
	}
	return cleanup, nil
}

// saveParts copies multipart files into dir so they can be re-sent to the
// backend one at a time.
func saveParts(parts []*multipart.FileHeader, dir string) ([]PendingFile, error) {
	files := make([]PendingFile, 0, len(parts))
	for _, fh := range parts {
		name := filepath.Base(fh.Filename)
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		dst, err := os.CreateTemp(dir, "*-"+name)
		if err != nil {
			src.Close()
			return nil, err
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		files = append(files, PendingFile{Name: name, Path: dst.Name()})
	}
	return files, nil
}

func savedMessage(base string, skipped []SkippedFile) string {
	if len(skipped) == 0 {
		return base
	}
	return fmt.Sprintf("%s, but %d attachment(s) could not be uploaded", base, len(skipped))
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
	body := map[string]interface{}{
		"success": false,
		"error":   apperror.KindOf(err).String(),
		"message": apperror.UserMessage(err),
	}
	if apperror.Is(err, apperror.KindRestricted) {
		body["restricted"] = true
	}
	respondJSON(w, apperror.HTTPStatus(err), body)
}
