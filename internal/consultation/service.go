package consultation

import (
	"context"
	"fmt"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"go.uber.org/zap"
)

// ClinicBackend is the full set of backend calls the gateway service needs.
// *clinicapi.Client satisfies it.
type ClinicBackend interface {
	Backend
	EditorBackend
	RecordsBackend
	Lookup
}

// Service adapts the workflow and editor to request/response calls. Each
// call reads what it needs from the backend; nothing is cached between calls.
type Service struct {
	backend   ClinicBackend
	workflow  *Workflow
	publisher messaging.PublisherInterface
	metrics   Metrics
	log       *zap.Logger
}

func NewService(backend ClinicBackend, publisher messaging.PublisherInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:   backend,
		workflow:  NewWorkflow(backend, publisher, logger),
		publisher: publisher,
		log:       logger,
	}
}

// WithMetrics attaches workflow counters.
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	s.workflow.WithMetrics(m)
	return s
}

// Workflow exposes the underlying completion workflow.
func (s *Service) Workflow() *Workflow {
	return s.workflow
}

func (s *Service) editor(id int64) *Editor {
	return NewEditor(s.backend, id, s.publisher, s.log).WithMetrics(s.metrics)
}

func (s *Service) ChangeStatus(ctx context.Context, appointmentID int64, target string) (Outcome, error) {
	if appointmentID <= 0 {
		return Outcome{}, ErrNoAppointment
	}
	appt, err := s.backend.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get appointment: %w", err)
	}
	out, err := s.workflow.Transition(ctx, *appt, target)
	if err != nil || !out.OfferConsultation {
		return out, err
	}

	// The offer stands only for a patient known not to be restricted.
	p, err := s.backend.GetPatient(ctx, appt.PatientID)
	if err != nil {
		s.log.Warn("patient lookup after completion failed, not offering consultation",
			zap.Int64("appointment_id", appt.ID),
			zap.Int64("patient_id", appt.PatientID),
			zap.Error(err))
		out.OfferConsultation = false
		return out, nil
	}
	if p.IsRestricted() {
		out.OfferConsultation = false
		out.Restricted = true
	}
	return out, nil
}

// ConsultationForm returns the prefilled form for a completed appointment,
// or a Restricted error when the patient's account is restricted.
func (s *Service) ConsultationForm(ctx context.Context, appointmentID int64) (Form, error) {
	if appointmentID <= 0 {
		return Form{}, ErrNoAppointment
	}
	appt, err := s.backend.GetAppointment(ctx, appointmentID)
	if err != nil {
		return Form{}, fmt.Errorf("get appointment: %w", err)
	}
	p, err := s.backend.GetPatient(ctx, appt.PatientID)
	if err != nil {
		return Form{}, fmt.Errorf("get patient: %w", err)
	}
	return s.workflow.OpenForm(appt, *p)
}

// Create saves a consultation draft, linked or walk-in.
func (s *Service) Create(ctx context.Context, d Draft) (SaveResult, error) {
	if err := apperror.ValidateStruct(d); err != nil {
		return SaveResult{}, err
	}
	p, err := s.backend.GetPatient(ctx, d.PatientID)
	if err != nil {
		return SaveResult{}, fmt.Errorf("get patient: %w", err)
	}
	return s.workflow.Save(ctx, *p, d)
}

func (s *Service) Get(ctx context.Context, id int64) (*Consultation, error) {
	c, err := s.editor(id).Load(ctx)
	if err != nil {
		return nil, err
	}
	if principal, ok := auth.FromContext(ctx); ok && principal.Role == auth.RolePatient && c.PatientID != principal.UserID {
		return nil, apperror.Business("Consultation not found")
	}
	return c, nil
}

func (s *Service) UpdateDetails(ctx context.Context, id int64, d Details) (*Consultation, error) {
	return s.editor(id).UpdateDetails(ctx, d)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.editor(id).Delete(ctx)
}

func (s *Service) AddPrescription(ctx context.Context, consultationID int64, in PrescriptionInput) (*Consultation, error) {
	return s.editor(consultationID).AddPrescription(ctx, in)
}

// UpdatePrescription edits a prescription addressed only by its own id.
func (s *Service) UpdatePrescription(ctx context.Context, id int64, in PrescriptionInput) error {
	if id <= 0 {
		return apperror.Validation("Invalid prescription id")
	}
	if err := apperror.ValidateStruct(in); err != nil {
		return err
	}
	if err := s.backend.UpdatePrescription(ctx, id, in); err != nil {
		return fmt.Errorf("update prescription: %w", err)
	}
	return nil
}

func (s *Service) DeletePrescription(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.Validation("Invalid prescription id")
	}
	if err := s.backend.DeletePrescription(ctx, id); err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return nil
}

func (s *Service) AddLabResult(ctx context.Context, consultationID int64, d LabResultDraft) (*Consultation, []SkippedFile, error) {
	return s.editor(consultationID).AddLabResult(ctx, d)
}

func (s *Service) UpdateLabResult(ctx context.Context, id int64, d LabResultDraft) ([]SkippedFile, error) {
	if id <= 0 {
		return nil, apperror.Validation("Invalid lab result id")
	}
	if err := apperror.ValidateStruct(d); err != nil {
		return nil, err
	}
	up := uploader{backend: s.backend, publisher: s.publisher, metrics: s.metrics, log: s.log}
	in, skipped := up.resolve(ctx, 0, d)
	if err := s.backend.UpdateLabResult(ctx, id, in); err != nil {
		return skipped, fmt.Errorf("update lab result: %w", err)
	}
	return skipped, nil
}

func (s *Service) DeleteLabResult(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.Validation("Invalid lab result id")
	}
	if err := s.backend.DeleteLabResult(ctx, id); err != nil {
		return fmt.Errorf("delete lab result: %w", err)
	}
	return nil
}

func (s *Service) PatientRecords(ctx context.Context, patientID int64) (*RecordBundle, error) {
	if patientID <= 0 {
		return nil, apperror.Validation("Invalid patient id")
	}
	b, err := s.backend.PatientRecords(ctx, patientID)
	if err != nil {
		s.log.Error("failed to load patient records", zap.Int64("patient_id", patientID), zap.Error(err))
		return nil, fmt.Errorf("patient records: %w", err)
	}
	return b, nil
}
