package consultation

import (
	"context"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
)

// Uploader sends one local file to the backend and returns its stored path.
type Uploader interface {
	UploadFile(ctx context.Context, file PendingFile) (string, error)
}

// Backend is what the completion workflow calls.
type Backend interface {
	Uploader
	UpdateAppointmentStatus(ctx context.Context, id int64, status appointment.Status) error
	CreateConsultation(ctx context.Context, req CreateRequest) (*Consultation, error)
}

// EditorBackend is what the consultation editor calls.
type EditorBackend interface {
	Uploader
	GetConsultation(ctx context.Context, id int64) (*Consultation, error)
	UpdateConsultation(ctx context.Context, id int64, d Details) error
	DeleteConsultation(ctx context.Context, id int64) error
	CreatePrescription(ctx context.Context, consultationID int64, in PrescriptionInput) error
	UpdatePrescription(ctx context.Context, id int64, in PrescriptionInput) error
	DeletePrescription(ctx context.Context, id int64) error
	CreateLabResult(ctx context.Context, consultationID int64, in LabResultInput) error
	UpdateLabResult(ctx context.Context, id int64, in LabResultInput) error
	DeleteLabResult(ctx context.Context, id int64) error
}

// RecordsBackend serves a patient's full record.
type RecordsBackend interface {
	PatientRecords(ctx context.Context, patientID int64) (*RecordBundle, error)
}

// Lookup reads the appointment and patient a workflow step acts on.
type Lookup interface {
	GetAppointment(ctx context.Context, id int64) (*appointment.Appointment, error)
	GetPatient(ctx context.Context, id int64) (*patient.Patient, error)
}

// Prompter drives the interactive part of the completion workflow.
type Prompter interface {
	ConfirmConsultation(ctx context.Context, appt appointment.Appointment) (bool, error)
	AuthorConsultation(ctx context.Context, form Form) (FormResult, error)
}

// Refresher reloads the screen that started a workflow.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Metrics records workflow counters. *telemetry.Metrics satisfies it.
type Metrics interface {
	RecordStatusTransition(ctx context.Context, from, to string)
	RecordConsultationCreated(ctx context.Context, withAppointment bool)
	RecordAttachmentSkipped(ctx context.Context)
}

// ServiceInterface is the gateway-facing contract for consultations.
type ServiceInterface interface {
	ChangeStatus(ctx context.Context, appointmentID int64, target string) (Outcome, error)
	ConsultationForm(ctx context.Context, appointmentID int64) (Form, error)
	Create(ctx context.Context, d Draft) (SaveResult, error)
	Get(ctx context.Context, id int64) (*Consultation, error)
	UpdateDetails(ctx context.Context, id int64, d Details) (*Consultation, error)
	Delete(ctx context.Context, id int64) error
	AddPrescription(ctx context.Context, consultationID int64, in PrescriptionInput) (*Consultation, error)
	UpdatePrescription(ctx context.Context, id int64, in PrescriptionInput) error
	DeletePrescription(ctx context.Context, id int64) error
	AddLabResult(ctx context.Context, consultationID int64, d LabResultDraft) (*Consultation, []SkippedFile, error)
	UpdateLabResult(ctx context.Context, id int64, d LabResultDraft) ([]SkippedFile, error)
	DeleteLabResult(ctx context.Context, id int64) error
	PatientRecords(ctx context.Context, patientID int64) (*RecordBundle, error)
}

var _ ServiceInterface = (*Service)(nil)
