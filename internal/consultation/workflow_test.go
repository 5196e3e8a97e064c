package consultation

import (
	"context"
	"errors"
	"testing"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedPrompter answers the completion prompts from fixed values.
type scriptedPrompter struct {
	confirm    bool
	confirmErr error
	result     FormResult
	author     func(form Form) FormResult
	asked      int
	opened     []Form
}

func (p *scriptedPrompter) ConfirmConsultation(ctx context.Context, appt appointment.Appointment) (bool, error) {
	p.asked++
	return p.confirm, p.confirmErr
}

func (p *scriptedPrompter) AuthorConsultation(ctx context.Context, form Form) (FormResult, error) {
	p.opened = append(p.opened, form)
	if p.author != nil {
		return p.author(form), nil
	}
	return p.result, nil
}

type countingRefresher struct{ n int }

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.n++
	return nil
}

type recordingMetrics struct {
	transitions []string
	created     int
	skipped     int
}

func (m *recordingMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.transitions = append(m.transitions, from+"->"+to)
}

func (m *recordingMetrics) RecordConsultationCreated(ctx context.Context, withAppointment bool) {
	m.created++
}

func (m *recordingMetrics) RecordAttachmentSkipped(ctx context.Context) {
	m.skipped++
}

func scheduledVisit() appointment.Appointment {
	return appointment.Appointment{ID: 7, PatientID: 3, DoctorID: 4, Status: appointment.StatusScheduled, ScheduledAt: "2026-03-10 09:00:00"}
}

func activePatient() patient.Patient {
	return patient.Patient{ID: 3, Name: "Ada", AccountStatus: patient.AccountActive}
}

func setupWorkflow(t *testing.T) (*fakeClinic, *Workflow, *testutil.RecordingPublisher, *recordingMetrics) {
	t.Helper()
	backend := newFakeClinic()
	appt := scheduledVisit()
	backend.appointments[appt.ID] = &appt
	pub := testutil.NewRecordingPublisher()
	metrics := &recordingMetrics{}
	return backend, NewWorkflow(backend, pub, zap.NewNop()).WithMetrics(metrics), pub, metrics
}

func TestTransition_CompletedOffersConsultation(t *testing.T) {
	backend, wf, pub, metrics := setupWorkflow(t)

	out, err := wf.Transition(context.Background(), scheduledVisit(), "completed")
	require.NoError(t, err)

	assert.True(t, out.OfferConsultation)
	assert.Equal(t, appointment.StatusCompleted, out.Appointment.Status)
	assert.Equal(t, appointment.StatusScheduled, out.PreviousStatus)
	assert.Equal(t, 1, backend.count("status"))
	assert.Equal(t, []string{"scheduled->completed"}, metrics.transitions)

	var event messaging.AppointmentStatusChangedEvent
	pub.DecodeLast(t, messaging.EventAppointmentStatusChanged, &event)
	assert.Equal(t, "completed", event.Data.NewStatus)
	assert.Equal(t, "scheduled", event.Data.OldStatus)
}

func TestTransition_MissedDoesNotOffer(t *testing.T) {
	_, wf, _, _ := setupWorkflow(t)

	out, err := wf.Transition(context.Background(), scheduledVisit(), "missed")
	require.NoError(t, err)
	assert.False(t, out.OfferConsultation)
}

func TestTransition_UnknownTargetMakesNoCall(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)

	_, err := wf.Transition(context.Background(), scheduledVisit(), "archived")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 0, backend.callCount())
}

func TestTransition_BackendRefusalMessageVerbatim(t *testing.T) {
	backend, wf, pub, _ := setupWorkflow(t)
	backend.statusErr = apperror.Business("Appointment is already completed")

	out, err := wf.Transition(context.Background(), scheduledVisit(), "cancelled")
	require.Error(t, err)
	assert.Equal(t, "Appointment is already completed", apperror.UserMessage(err))
	assert.Equal(t, appointment.StatusScheduled, out.Appointment.Status)
	assert.Equal(t, 0, pub.Count(messaging.EventAppointmentStatusChanged))
}

func TestComplete_DeclineCreatesNothing(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)
	prompter := &scriptedPrompter{confirm: false}
	refresher := &countingRefresher{}

	out, err := wf.Complete(context.Background(), scheduledVisit(), activePatient(), prompter, refresher)
	require.NoError(t, err)

	assert.True(t, out.Declined)
	assert.Nil(t, out.Consultation)
	assert.Equal(t, 1, prompter.asked)
	assert.Equal(t, 1, backend.count("status"))
	assert.Equal(t, 0, backend.count("create consultation"))
	assert.Empty(t, backend.consultations)
	assert.Equal(t, appointment.StatusCompleted, backend.appointments[7].Status)
	assert.Equal(t, 1, refresher.n)
}

func TestComplete_SaveSkipsFailedUpload(t *testing.T) {
	backend, wf, pub, metrics := setupWorkflow(t)
	backend.failUploads["broken.png"] = true

	prompter := &scriptedPrompter{
		confirm: true,
		author: func(form Form) FormResult {
			d := form.Draft
			d.Diagnosis = "Seasonal influenza"
			d.Symptoms = "Fever"
			d.Prescriptions = []PrescriptionInput{
				{MedicationName: "Paracetamol", Dosage: "500mg", Frequency: "3x daily", Duration: "5 days"},
				{MedicationName: "Oseltamivir", Dosage: "75mg", Frequency: "2x daily", Duration: "5 days"},
			}
			d.LabResults = []LabResultDraft{{
				TestName:      "CBC",
				ResultSummary: "Normal",
				TestDate:      "2026-03-10",
				Files: []PendingFile{
					{Name: "report.pdf", Path: "/tmp/report.pdf"},
					{Name: "broken.png", Path: "/tmp/broken.png"},
				},
			}}
			return FormResult{Submitted: true, Draft: d}
		},
	}
	refresher := &countingRefresher{}

	out, err := wf.Complete(context.Background(), scheduledVisit(), activePatient(), prompter, refresher)
	require.NoError(t, err)
	require.NotNil(t, out.Consultation)

	c := out.Consultation
	assert.Len(t, c.Prescriptions, 2)
	require.Len(t, c.LabResults, 1)
	assert.Equal(t, FilePaths{"uploads/report.pdf"}, c.LabResults[0].Files)
	require.NotNil(t, c.AppointmentID)
	assert.Equal(t, int64(7), *c.AppointmentID)
	assert.Equal(t, int64(4), c.DoctorID)

	assert.Equal(t, 2, backend.count("upload"))
	assert.Equal(t, 1, backend.count("create consultation"))
	require.Len(t, out.SkippedFiles, 1)
	assert.Equal(t, "broken.png", out.SkippedFiles[0].Name)
	assert.Equal(t, 1, metrics.skipped)
	assert.Equal(t, 1, metrics.created)
	assert.Equal(t, 1, pub.Count(messaging.EventAttachmentSkipped))
	assert.Equal(t, 1, pub.Count(messaging.EventConsultationCreated))
	assert.Equal(t, 1, refresher.n)
}

func TestComplete_AllUploadsFailStillCreates(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)
	backend.failUploads["a.pdf"] = true

	prompter := &scriptedPrompter{
		confirm: true,
		author: func(form Form) FormResult {
			d := form.Draft
			d.Diagnosis = "Checkup"
			d.LabResults = []LabResultDraft{{TestName: "X-ray", Files: []PendingFile{{Name: "a.pdf"}}}}
			return FormResult{Submitted: true, Draft: d}
		},
	}

	out, err := wf.Complete(context.Background(), scheduledVisit(), activePatient(), prompter, nil)
	require.NoError(t, err)
	require.Len(t, out.Consultation.LabResults, 1)
	assert.Empty(t, out.Consultation.LabResults[0].Files)
	assert.Equal(t, "[]", EncodeFilePaths(backend.lastCreate.LabResults[0].Files))
}

func TestComplete_RestrictedPatientRejectedLocally(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)
	restricted := activePatient()
	restricted.AccountStatus = patient.AccountRestricted
	prompter := &scriptedPrompter{confirm: true}
	refresher := &countingRefresher{}

	out, err := wf.Complete(context.Background(), scheduledVisit(), restricted, prompter, refresher)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindRestricted))
	assert.Equal(t, patient.RestrictedMessage, apperror.UserMessage(err))
	assert.Equal(t, 0, prompter.asked, "no consultation offer for a restricted patient")
	assert.Empty(t, prompter.opened)
	assert.Equal(t, appointment.StatusCompleted, out.Appointment.Status)
	assert.False(t, out.OfferConsultation)
	assert.True(t, out.Restricted)
	assert.Nil(t, out.Consultation)
	assert.Equal(t, 1, backend.callCount(), "only the status update reaches the backend")
	assert.Equal(t, 1, refresher.n)
}

func TestOpenForm_RestrictedMakesNoCalls(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)
	restricted := patient.Patient{ID: 3, AccountStatus: patient.AccountRestricted}
	appt := scheduledVisit()

	_, err := wf.OpenForm(&appt, restricted)
	assert.True(t, apperror.Is(err, apperror.KindRestricted))

	_, err = wf.Save(context.Background(), restricted, Draft{PatientID: 3, DoctorID: 4, Diagnosis: "x"})
	assert.True(t, apperror.Is(err, apperror.KindRestricted))
	assert.Equal(t, 0, backend.callCount())
}

func TestOpenForm_WalkIn(t *testing.T) {
	_, wf, _, _ := setupWorkflow(t)

	form, err := wf.OpenForm(nil, activePatient())
	require.NoError(t, err)
	assert.Nil(t, form.Appointment)
	assert.Nil(t, form.Draft.AppointmentID)
	assert.Equal(t, int64(3), form.Draft.PatientID)
}

func TestComplete_TransitionFailureStillRefreshes(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)
	backend.statusErr = apperror.Transport(errors.New("timeout"))
	prompter := &scriptedPrompter{confirm: true}
	refresher := &countingRefresher{}

	_, err := wf.Complete(context.Background(), scheduledVisit(), activePatient(), prompter, refresher)
	require.Error(t, err)
	assert.Equal(t, apperror.GenericFailureMessage, apperror.UserMessage(err))
	assert.Equal(t, 0, prompter.asked)
	assert.Equal(t, 1, refresher.n)
}

func TestComplete_FormCancelled(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)
	prompter := &scriptedPrompter{confirm: true, result: FormResult{Submitted: false}}

	out, err := wf.Complete(context.Background(), scheduledVisit(), activePatient(), prompter, nil)
	require.NoError(t, err)
	assert.True(t, out.Declined)
	assert.Len(t, prompter.opened, 1)
	assert.Equal(t, 0, backend.count("create consultation"))
}

func TestSave_ValidationBeforeUploads(t *testing.T) {
	backend, wf, _, _ := setupWorkflow(t)

	_, err := wf.Save(context.Background(), activePatient(), Draft{
		PatientID:  3,
		DoctorID:   4,
		LabResults: []LabResultDraft{{TestName: "CBC", Files: []PendingFile{{Name: "a.pdf"}}}},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 0, backend.callCount())
}

func TestSave_CreateFailureKeepsSkipped(t *testing.T) {
	backend, wf, _, metrics := setupWorkflow(t)
	backend.createErr = apperror.Business("Doctor not found")
	backend.failUploads["b.pdf"] = true

	res, err := wf.Save(context.Background(), activePatient(), Draft{
		PatientID:  3,
		DoctorID:   4,
		Diagnosis:  "Migraine",
		LabResults: []LabResultDraft{{TestName: "MRI", Files: []PendingFile{{Name: "b.pdf"}}}},
	})
	require.Error(t, err)
	assert.Equal(t, "Doctor not found", apperror.UserMessage(err))
	assert.Len(t, res.SkippedFiles, 1)
	assert.Nil(t, res.Consultation)
	assert.Equal(t, 0, metrics.created)
}
