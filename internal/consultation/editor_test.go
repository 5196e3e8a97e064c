package consultation

import (
	"context"
	"errors"
	"testing"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedConsultation(backend *fakeClinic) *Consultation {
	c := &Consultation{
		ID:        50,
		PatientID: 3,
		DoctorID:  4,
		Diagnosis: "Hypertension",
		Symptoms:  "Headache",
		Notes:     "Follow up in 2 weeks",
		Prescriptions: []Prescription{
			{ID: 1, ConsultationID: 50, MedicationName: "Amlodipine", Dosage: "5mg"},
			{ID: 2, ConsultationID: 50, MedicationName: "Lisinopril", Dosage: "10mg"},
			{ID: 3, ConsultationID: 50, MedicationName: "Aspirin", Dosage: "81mg"},
		},
		LabResults: []LabResult{
			{ID: 9, ConsultationID: 50, TestName: "Lipid panel", Files: FilePaths{"uploads/lipids.pdf"}},
		},
	}
	backend.consultations[c.ID] = c
	return cloneConsultation(c)
}

func TestEditor_DeleteOneOfThreePrescriptions(t *testing.T) {
	backend := newFakeClinic()
	before := seedConsultation(backend)
	pub := testutil.NewRecordingPublisher()
	ed := NewEditor(backend, 50, pub, zap.NewNop())

	_, err := ed.Load(context.Background())
	require.NoError(t, err)

	after, err := ed.DeletePrescription(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, after.Prescriptions, 2)
	assert.Equal(t, int64(1), after.Prescriptions[0].ID)
	assert.Equal(t, int64(3), after.Prescriptions[1].ID)
	assert.Equal(t, before.Diagnosis, after.Diagnosis)
	assert.Equal(t, before.Symptoms, after.Symptoms)
	assert.Equal(t, before.Notes, after.Notes)
	assert.Len(t, after.LabResults, 1)
	assert.Same(t, after, ed.Current())
	assert.Equal(t, 1, backend.count("delete prescription"))
	assert.Equal(t, 2, backend.count("get consultation"), "reload follows the delete")

	var event messaging.ConsultationEvent
	pub.DecodeLast(t, messaging.EventConsultationUpdated, &event)
	assert.Equal(t, "prescription", event.Data.ChildType)
	assert.Equal(t, int64(2), event.Data.ChildID)
}

func TestEditor_ChildOfOtherConsultationRejected(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())
	_, err := ed.Load(context.Background())
	require.NoError(t, err)

	_, err = ed.DeletePrescription(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotChild)
	_, err = ed.DeleteLabResult(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotChild)
	assert.Equal(t, 0, backend.count("delete"))
}

func TestEditor_UpdateDetailsKeepsChildren(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())

	c, err := ed.UpdateDetails(context.Background(), Details{Diagnosis: "Controlled hypertension", Notes: "Stable"})
	require.NoError(t, err)
	assert.Equal(t, "Controlled hypertension", c.Diagnosis)
	assert.Len(t, c.Prescriptions, 3)
	assert.Len(t, c.LabResults, 1)
}

func TestEditor_UpdateDetailsRequiresDiagnosis(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())

	_, err := ed.UpdateDetails(context.Background(), Details{Notes: "x"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 0, backend.callCount())
}

func TestEditor_AddPrescription(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())

	c, err := ed.AddPrescription(context.Background(), PrescriptionInput{MedicationName: "Metformin", Dosage: "500mg"})
	require.NoError(t, err)
	require.Len(t, c.Prescriptions, 4)
	assert.Equal(t, "Metformin", c.Prescriptions[3].MedicationName)
	assert.Equal(t, 1, backend.count("create prescription"))
}

func TestEditor_AddLabResultSkipsFailedUpload(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	backend.failUploads["bad.jpg"] = true
	metrics := &recordingMetrics{}
	ed := NewEditor(backend, 50, nil, zap.NewNop()).WithMetrics(metrics)
	_, err := ed.Load(context.Background())
	require.NoError(t, err)

	c, skipped, err := ed.AddLabResult(context.Background(), LabResultDraft{
		TestName: "ECG",
		Files:    []PendingFile{{Name: "good.pdf"}, {Name: "bad.jpg"}},
	})
	require.NoError(t, err)
	require.Len(t, c.LabResults, 2)
	assert.Equal(t, FilePaths{"uploads/good.pdf"}, c.LabResults[1].Files)
	require.Len(t, skipped, 1)
	assert.Equal(t, "ECG", skipped[0].TestName)
	assert.Equal(t, 1, metrics.skipped)
	assert.Equal(t, 1, backend.count("create lab result"))
}

func TestEditor_UpdateLabResultKeepsExistingFiles(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())
	_, err := ed.Load(context.Background())
	require.NoError(t, err)

	c, _, err := ed.UpdateLabResult(context.Background(), 9, LabResultDraft{
		TestName:  "Lipid panel",
		KeepFiles: []string{"uploads/lipids.pdf"},
		Files:     []PendingFile{{Name: "followup.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, FilePaths{"uploads/lipids.pdf", "uploads/followup.pdf"}, c.LabResults[0].Files)
}

func TestEditor_FailedLoadKeepsPreviousState(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())
	first, err := ed.Load(context.Background())
	require.NoError(t, err)

	delete(backend.consultations, 50)
	_, err = ed.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Consultation not found", apperror.UserMessage(err))
	assert.Same(t, first, ed.Current())
}

func TestEditor_ReloadFailureAfterDeleteKeepsSuccess(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	ed := NewEditor(backend, 50, nil, zap.NewNop())
	first, err := ed.Load(context.Background())
	require.NoError(t, err)

	backend.getErr = apperror.Transport(errors.New("connection reset"))
	c, err := ed.DeletePrescription(context.Background(), 2)
	require.NoError(t, err, "the delete itself succeeded")
	assert.Same(t, first, c)
	assert.Len(t, backend.consultations[50].Prescriptions, 2)
	require.Error(t, ed.ReloadErr())
	assert.True(t, apperror.Is(ed.ReloadErr(), apperror.KindTransport))

	backend.getErr = nil
	_, err = ed.Load(context.Background())
	require.NoError(t, err)
	assert.NoError(t, ed.ReloadErr())
	assert.Len(t, ed.Current().Prescriptions, 2)
}

func TestEditor_Delete(t *testing.T) {
	backend := newFakeClinic()
	seedConsultation(backend)
	pub := testutil.NewRecordingPublisher()
	ed := NewEditor(backend, 50, pub, zap.NewNop())

	require.NoError(t, ed.Delete(context.Background()))
	assert.Nil(t, ed.Current())
	assert.Empty(t, backend.consultations)
	assert.Equal(t, 1, pub.Count(messaging.EventConsultationDeleted))
}
