package consultation

import (
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
)

// Consultation is the clinical record of one visit. AppointmentID is nil for
// walk-in consultations.
type Consultation struct {
	ID            int64          `json:"id"`
	PatientID     int64          `json:"patient_id"`
	DoctorID      int64          `json:"doctor_id"`
	AppointmentID *int64         `json:"appointment_id,omitempty"`
	PatientName   string         `json:"patient_name,omitempty"`
	DoctorName    string         `json:"doctor_name,omitempty"`
	Diagnosis     string         `json:"diagnosis"`
	Symptoms      string         `json:"symptoms"`
	Notes         string         `json:"notes"`
	CreatedAt     string         `json:"created_at,omitempty"`
	Prescriptions []Prescription `json:"prescriptions"`
	LabResults    []LabResult    `json:"lab_results"`
}

type Prescription struct {
	ID             int64  `json:"id"`
	ConsultationID int64  `json:"consultation_id"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Duration       string `json:"duration"`
}

type LabResult struct {
	ID             int64     `json:"id"`
	ConsultationID int64     `json:"consultation_id"`
	TestName       string    `json:"test_name"`
	ResultSummary  string    `json:"result_summary"`
	TestDate       string    `json:"test_date"`
	Files          FilePaths `json:"file_path"`
}

// RecordBundle is everything on file for one patient.
type RecordBundle struct {
	Consultations []Consultation `json:"consultations"`
	Prescriptions []Prescription `json:"prescriptions"`
	LabResults    []LabResult    `json:"lab_results"`
}

// Details are the free-text fields of a consultation that can be edited in place.
type Details struct {
	Diagnosis string `json:"diagnosis" validate:"required,max=2000"`
	Symptoms  string `json:"symptoms" validate:"max=2000"`
	Notes     string `json:"notes" validate:"max=4000"`
}

type PrescriptionInput struct {
	MedicationName string `json:"medication_name" validate:"required,max=200"`
	Dosage         string `json:"dosage" validate:"required,max=100"`
	Frequency      string `json:"frequency" validate:"max=100"`
	Duration       string `json:"duration" validate:"max=100"`
}

// PendingFile is a local file picked for a lab result that has not been
// uploaded yet.
type PendingFile struct {
	Name string `json:"name"`
	Path string `json:"-"`
}

// LabResultDraft is a lab result as authored in a form. KeepFiles are
// already stored paths; Files are uploaded when the draft is saved.
type LabResultDraft struct {
	TestName      string        `json:"test_name" validate:"required,max=200"`
	ResultSummary string        `json:"result_summary" validate:"max=4000"`
	TestDate      string        `json:"test_date"`
	KeepFiles     []string      `json:"file_paths,omitempty"`
	Files         []PendingFile `json:"-"`
}

// LabResultInput is the wire form of a lab result after uploads.
type LabResultInput struct {
	TestName      string    `json:"test_name"`
	ResultSummary string    `json:"result_summary"`
	TestDate      string    `json:"test_date"`
	Files         FilePaths `json:"file_path"`
}

// Draft is the consultation form's content.
type Draft struct {
	AppointmentID *int64              `json:"appointment_id,omitempty"`
	PatientID     int64               `json:"patient_id" validate:"gt=0"`
	DoctorID      int64               `json:"doctor_id" validate:"gt=0"`
	Diagnosis     string              `json:"diagnosis" validate:"required,max=2000"`
	Symptoms      string              `json:"symptoms" validate:"max=2000"`
	Notes         string              `json:"notes" validate:"max=4000"`
	Prescriptions []PrescriptionInput `json:"prescriptions" validate:"dive"`
	LabResults    []LabResultDraft    `json:"lab_results" validate:"dive"`
}

// CreateRequest is the single create call made when a draft is saved.
type CreateRequest struct {
	AppointmentID *int64              `json:"appointment_id,omitempty"`
	PatientID     int64               `json:"patient_id"`
	DoctorID      int64               `json:"doctor_id"`
	Diagnosis     string              `json:"diagnosis"`
	Symptoms      string              `json:"symptoms"`
	Notes         string              `json:"notes"`
	Prescriptions []PrescriptionInput `json:"prescriptions"`
	LabResults    []LabResultInput    `json:"lab_results"`
}

// Form is what the consultation screen opens with.
type Form struct {
	Appointment *appointment.Appointment `json:"appointment,omitempty"`
	Patient     patient.Patient          `json:"patient"`
	Draft       Draft                    `json:"draft"`
}

// FormResult is returned when the consultation form closes. Submitted is
// false when the user backed out.
type FormResult struct {
	Submitted bool
	Draft     Draft
}

// SkippedFile is an attachment left out of a save because its upload failed.
type SkippedFile struct {
	TestName string `json:"test_name"`
	Name     string `json:"file_name"`
	Reason   string `json:"reason"`
}

// SaveResult reports a consultation create.
type SaveResult struct {
	Consultation *Consultation `json:"consultation,omitempty"`
	SkippedFiles []SkippedFile `json:"skipped_files,omitempty"`
}

// Outcome is the result of a status transition and whatever followed it.
type Outcome struct {
	Appointment       appointment.Appointment `json:"appointment"`
	PreviousStatus    appointment.Status      `json:"previous_status"`
	OfferConsultation bool                    `json:"offer_consultation"`
	Restricted        bool                    `json:"restricted,omitempty"`
	Declined          bool                    `json:"declined,omitempty"`
	Consultation      *Consultation           `json:"consultation,omitempty"`
	SkippedFiles      []SkippedFile           `json:"skipped_files,omitempty"`
}
