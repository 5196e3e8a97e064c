package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"go.uber.org/zap"
)

// Workflow runs the appointment completion sequence: status update, the
// consultation offer, the form and the save. Steps run strictly in order and
// each waits for the previous one.
type Workflow struct {
	backend   Backend
	publisher messaging.PublisherInterface
	metrics   Metrics
	log       *zap.Logger
}

func NewWorkflow(backend Backend, publisher messaging.PublisherInterface, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{backend: backend, publisher: publisher, log: logger}
}

// WithMetrics attaches workflow counters.
func (w *Workflow) WithMetrics(m Metrics) *Workflow {
	w.metrics = m
	return w
}

// Transition asks the backend to move appt to target. The local state machine
// only validates the target name; whether the move is allowed is the
// backend's call and its message is returned unchanged on refusal.
func (w *Workflow) Transition(ctx context.Context, appt appointment.Appointment, target string) (Outcome, error) {
	status, err := appointment.ParseStatus(target)
	if err != nil {
		return Outcome{Appointment: appt}, err
	}

	if err := w.backend.UpdateAppointmentStatus(ctx, appt.ID, status); err != nil {
		w.log.Error("failed to update appointment status",
			zap.Int64("appointment_id", appt.ID),
			zap.String("status", string(status)),
			zap.Error(err))
		return Outcome{Appointment: appt}, fmt.Errorf("update appointment status: %w", err)
	}

	previous := appt.Status
	appt.Status = status
	w.log.Info("appointment status changed",
		zap.Int64("appointment_id", appt.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	if w.metrics != nil {
		w.metrics.RecordStatusTransition(ctx, string(previous), string(status))
	}
	actorID, role := auth.Actor(ctx)
	messaging.Emit(ctx, w.publisher, w.log, messaging.EventAppointmentStatusChanged, messaging.AppointmentStatusChangedEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventAppointmentStatusChanged).WithActor(actorID, role),
		Data: messaging.AppointmentStatusChangedData{
			AppointmentID: appt.ID,
			PatientID:     appt.PatientID,
			DoctorID:      appt.DoctorID,
			OldStatus:     string(previous),
			NewStatus:     string(status),
			ChangedAt:     time.Now().UTC(),
		},
	})

	return Outcome{
		Appointment:       appt,
		PreviousStatus:    previous,
		OfferConsultation: status == appointment.StatusCompleted,
	}, nil
}

// OpenForm prepares the consultation form for p, linked to appt when it is
// not nil. A restricted patient is rejected here without any network call.
func (w *Workflow) OpenForm(appt *appointment.Appointment, p patient.Patient) (Form, error) {
	if err := patient.Guard(p); err != nil {
		return Form{}, err
	}

	form := Form{Patient: p, Draft: Draft{PatientID: p.ID}}
	if appt != nil {
		a := *appt
		id := a.ID
		form.Appointment = &a
		form.Draft.AppointmentID = &id
		form.Draft.DoctorID = a.DoctorID
	}
	return form, nil
}

// Save uploads the draft's pending attachments one by one, then makes a
// single create call with the paths that did upload. Files that failed are
// listed in the result and left out.
func (w *Workflow) Save(ctx context.Context, p patient.Patient, d Draft) (SaveResult, error) {
	if err := patient.Guard(p); err != nil {
		return SaveResult{}, err
	}
	if d.PatientID == 0 {
		d.PatientID = p.ID
	}
	if d.PatientID != p.ID {
		return SaveResult{}, apperror.Validation("Consultation patient does not match")
	}
	d.Diagnosis = strings.TrimSpace(d.Diagnosis)
	if err := apperror.ValidateStruct(d); err != nil {
		return SaveResult{}, err
	}

	up := uploader{backend: w.backend, publisher: w.publisher, metrics: w.metrics, log: w.log}
	req := CreateRequest{
		AppointmentID: d.AppointmentID,
		PatientID:     d.PatientID,
		DoctorID:      d.DoctorID,
		Diagnosis:     d.Diagnosis,
		Symptoms:      d.Symptoms,
		Notes:         d.Notes,
		Prescriptions: append([]PrescriptionInput{}, d.Prescriptions...),
		LabResults:    make([]LabResultInput, 0, len(d.LabResults)),
	}

	var result SaveResult
	for _, lr := range d.LabResults {
		in, skipped := up.resolve(ctx, p.ID, lr)
		req.LabResults = append(req.LabResults, in)
		result.SkippedFiles = append(result.SkippedFiles, skipped...)
	}

	c, err := w.backend.CreateConsultation(ctx, req)
	if err != nil {
		w.log.Error("failed to create consultation", zap.Int64("patient_id", p.ID), zap.Error(err))
		return result, fmt.Errorf("create consultation: %w", err)
	}
	result.Consultation = c

	w.log.Info("consultation created",
		zap.Int64("consultation_id", c.ID),
		zap.Int64("patient_id", p.ID),
		zap.Int("prescriptions", len(req.Prescriptions)),
		zap.Int("lab_results", len(req.LabResults)),
		zap.Int("skipped_files", len(result.SkippedFiles)))

	if w.metrics != nil {
		w.metrics.RecordConsultationCreated(ctx, d.AppointmentID != nil)
	}
	actorID, role := auth.Actor(ctx)
	messaging.Emit(ctx, w.publisher, w.log, messaging.EventConsultationCreated, messaging.ConsultationEvent{
		BaseEvent: messaging.NewBaseEvent(messaging.EventConsultationCreated).WithActor(actorID, role),
		Data: messaging.ConsultationData{
			ConsultationID:    c.ID,
			AppointmentID:     d.AppointmentID,
			PatientID:         d.PatientID,
			DoctorID:          d.DoctorID,
			PrescriptionCount: len(req.Prescriptions),
			LabResultCount:    len(req.LabResults),
		},
	})

	return result, nil
}

// Complete runs the whole sequence for appt: mark it completed, offer a
// consultation, and on yes open the form and save what the user submits.
// A restricted patient's appointment is still completed but the offer is
// never made; the Restricted error carries the message to show instead.
// refresher is called once at the end whatever happened.
func (w *Workflow) Complete(ctx context.Context, appt appointment.Appointment, p patient.Patient, prompter Prompter, refresher Refresher) (out Outcome, err error) {
	defer func() {
		if refresher == nil {
			return
		}
		if rerr := refresher.Refresh(ctx); rerr != nil {
			w.log.Warn("refresh after completion failed", zap.Error(rerr))
		}
	}()

	out, err = w.Transition(ctx, appt, string(appointment.StatusCompleted))
	if err != nil {
		return out, err
	}
	if err := patient.Guard(p); err != nil {
		out.OfferConsultation = false
		out.Restricted = true
		return out, err
	}

	yes, err := prompter.ConfirmConsultation(ctx, out.Appointment)
	if err != nil {
		return out, err
	}
	if !yes {
		out.Declined = true
		return out, nil
	}

	completed := out.Appointment
	form, err := w.OpenForm(&completed, p)
	if err != nil {
		return out, err
	}

	res, err := prompter.AuthorConsultation(ctx, form)
	if err != nil {
		return out, err
	}
	if !res.Submitted {
		out.Declined = true
		return out, nil
	}

	saved, err := w.Save(ctx, p, res.Draft)
	out.Consultation = saved.Consultation
	out.SkippedFiles = saved.SkippedFiles
	return out, err
}
