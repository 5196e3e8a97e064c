package consultation

import (
	"context"
	"fmt"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"go.uber.org/zap"
)

// Editor edits one existing consultation. Every mutation is a single backend
// call followed by a reload, and Current always reflects the last successful
// load. A reload that fails after a successful mutation does not turn the
// mutation into an error; it is kept in ReloadErr until the next load.
type Editor struct {
	backend   EditorBackend
	publisher messaging.PublisherInterface
	metrics   Metrics
	log       *zap.Logger
	id        int64
	current   *Consultation
	reloadErr error
}

func NewEditor(backend EditorBackend, id int64, publisher messaging.PublisherInterface, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{backend: backend, publisher: publisher, log: logger, id: id}
}

// WithMetrics attaches counters for skipped attachments.
func (e *Editor) WithMetrics(m Metrics) *Editor {
	e.metrics = m
	return e
}

// Current returns the last loaded state, or nil before the first Load.
func (e *Editor) Current() *Consultation {
	return e.current
}

// ReloadErr is the error of the last reload after a mutation, or nil when
// Current is up to date.
func (e *Editor) ReloadErr() error {
	return e.reloadErr
}

// Load fetches the consultation. A failed load keeps the previous state.
func (e *Editor) Load(ctx context.Context) (*Consultation, error) {
	if e.id <= 0 {
		return nil, ErrInvalidID
	}
	c, err := e.backend.GetConsultation(ctx, e.id)
	if err != nil {
		e.log.Error("failed to load consultation", zap.Int64("consultation_id", e.id), zap.Error(err))
		return nil, fmt.Errorf("load consultation: %w", err)
	}
	e.current = c
	e.reloadErr = nil
	return c, nil
}

func (e *Editor) UpdateDetails(ctx context.Context, d Details) (*Consultation, error) {
	if err := apperror.ValidateStruct(d); err != nil {
		return nil, err
	}
	if err := e.backend.UpdateConsultation(ctx, e.id, d); err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}
	return e.reloadAfter(ctx, "details", 0)
}

func (e *Editor) AddPrescription(ctx context.Context, in PrescriptionInput) (*Consultation, error) {
	if err := apperror.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := e.backend.CreatePrescription(ctx, e.id, in); err != nil {
		return nil, fmt.Errorf("add prescription: %w", err)
	}
	return e.reloadAfter(ctx, "prescription", 0)
}

func (e *Editor) UpdatePrescription(ctx context.Context, id int64, in PrescriptionInput) (*Consultation, error) {
	if err := e.checkChild(id, prescriptionIDs); err != nil {
		return nil, err
	}
	if err := apperror.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := e.backend.UpdatePrescription(ctx, id, in); err != nil {
		return nil, fmt.Errorf("update prescription: %w", err)
	}
	return e.reloadAfter(ctx, "prescription", id)
}

// DeletePrescription removes one prescription. The consultation's other
// records and its details are untouched.
func (e *Editor) DeletePrescription(ctx context.Context, id int64) (*Consultation, error) {
	if err := e.checkChild(id, prescriptionIDs); err != nil {
		return nil, err
	}
	if err := e.backend.DeletePrescription(ctx, id); err != nil {
		return nil, fmt.Errorf("delete prescription: %w", err)
	}
	return e.reloadAfter(ctx, "prescription", id)
}

// AddLabResult uploads d's pending files, skipping failures, then creates
// the lab result with the paths that uploaded.
func (e *Editor) AddLabResult(ctx context.Context, d LabResultDraft) (*Consultation, []SkippedFile, error) {
	if err := apperror.ValidateStruct(d); err != nil {
		return nil, nil, err
	}
	in, skipped := e.uploader().resolve(ctx, e.patientID(), d)
	if err := e.backend.CreateLabResult(ctx, e.id, in); err != nil {
		return nil, skipped, fmt.Errorf("add lab result: %w", err)
	}
	c, err := e.reloadAfter(ctx, "lab_result", 0)
	return c, skipped, err
}

func (e *Editor) UpdateLabResult(ctx context.Context, id int64, d LabResultDraft) (*Consultation, []SkippedFile, error) {
	if err := e.checkChild(id, labResultIDs); err != nil {
		return nil, nil, err
	}
	if err := apperror.ValidateStruct(d); err != nil {
		return nil, nil, err
	}
	in, skipped := e.uploader().resolve(ctx, e.patientID(), d)
	if err := e.backend.UpdateLabResult(ctx, id, in); err != nil {
		return nil, skipped, fmt.Errorf("update lab result: %w", err)
	}
	c, err := e.reloadAfter(ctx, "lab_result", id)
	return c, skipped, err
}

func (e *Editor) DeleteLabResult(ctx context.Context, id int64) (*Consultation, error) {
	if err := e.checkChild(id, labResultIDs); err != nil {
		return nil, err
	}
	if err := e.backend.DeleteLabResult(ctx, id); err != nil {
		return nil, fmt.Errorf("delete lab result: %w", err)
	}
	return e.reloadAfter(ctx, "lab_result", id)
}

// Delete removes the whole consultation. There is nothing to reload after it.
func (e *Editor) Delete(ctx context.Context) error {
	if e.id <= 0 {
		return ErrInvalidID
	}
	if err := e.backend.DeleteConsultation(ctx, e.id); err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	e.publish(ctx, messaging.EventConsultationDeleted, "", 0)
	e.current = nil
	return nil
}

// reloadAfter runs once the backend has accepted a mutation, so it never
// fails: a reload error is logged and recorded and the last known state is
// returned.
func (e *Editor) reloadAfter(ctx context.Context, child string, childID int64) (*Consultation, error) {
	e.publish(ctx, messaging.EventConsultationUpdated, child, childID)
	c, err := e.Load(ctx)
	if err != nil {
		e.log.Warn("reload after consultation change failed",
			zap.Int64("consultation_id", e.id),
			zap.String("child", child),
			zap.Int64("child_id", childID),
			zap.Error(err))
		e.reloadErr = err
		return e.current, nil
	}
	return c, nil
}

func (e *Editor) publish(ctx context.Context, key, child string, childID int64) {
	data := messaging.ConsultationData{ConsultationID: e.id, ChildType: child, ChildID: childID}
	if c := e.current; c != nil {
		data.AppointmentID = c.AppointmentID
		data.PatientID = c.PatientID
		data.DoctorID = c.DoctorID
		data.PrescriptionCount = len(c.Prescriptions)
		data.LabResultCount = len(c.LabResults)
	}
	actorID, role := auth.Actor(ctx)
	messaging.Emit(ctx, e.publisher, e.log, key, messaging.ConsultationEvent{
		BaseEvent: messaging.NewBaseEvent(key).WithActor(actorID, role),
		Data:      data,
	})
}

func (e *Editor) uploader() uploader {
	return uploader{backend: e.backend, publisher: e.publisher, metrics: e.metrics, log: e.log}
}

func (e *Editor) patientID() int64 {
	if e.current != nil {
		return e.current.PatientID
	}
	return 0
}

// checkChild rejects ids that are not part of the loaded consultation. It
// passes when nothing has been loaded yet.
func (e *Editor) checkChild(id int64, list func(*Consultation) []int64) error {
	if id <= 0 {
		return apperror.Validation("Invalid record id")
	}
	if e.current == nil {
		return nil
	}
	for _, child := range list(e.current) {
		if child == id {
			return nil
		}
	}
	return ErrNotChild
}

func prescriptionIDs(c *Consultation) []int64 {
	ids := make([]int64, len(c.Prescriptions))
	for i, p := range c.Prescriptions {
		ids[i] = p.ID
	}
	return ids
}

func labResultIDs(c *Consultation) []int64 {
	ids := make([]int64, len(c.LabResults))
	for i, l := range c.LabResults {
		ids[i] = l.ID
	}
	return ids
}
