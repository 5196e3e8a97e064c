package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event routing keys as constants
const (
	// Appointment events
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentUpdated       = "appointment.updated"
	EventAppointmentDeleted       = "appointment.deleted"
	EventAppointmentStatusChanged = "appointment.status_changed"

	// Consultation events
	EventConsultationCreated = "consultation.created"
	EventConsultationUpdated = "consultation.updated"
	EventConsultationDeleted = "consultation.deleted"

	// Emitted when a lab result attachment failed to upload and was left out.
	EventAttachmentSkipped = "consultation.attachment_skipped"
)

// ServiceName is stamped on every event.
const ServiceName = "clinic-gateway"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
	ActorID     int64     `json:"actor_id,omitempty"`
	ActorRole   string    `json:"actor_role,omitempty"`
}

// AppointmentEvent covers create, update and delete of an appointment.
type AppointmentEvent struct {
	BaseEvent
	Data AppointmentData `json:"data"`
}

type AppointmentData struct {
	AppointmentID int64  `json:"appointment_id,omitempty"`
	PatientID     int64  `json:"patient_id,omitempty"`
	DoctorID      int64  `json:"doctor_id,omitempty"`
	ScheduledAt   string `json:"appointment_date,omitempty"`
}

// AppointmentStatusChangedEvent is published after the backend accepted a
// status transition.
type AppointmentStatusChangedEvent struct {
	BaseEvent
	Data AppointmentStatusChangedData `json:"data"`
}

type AppointmentStatusChangedData struct {
	AppointmentID int64     `json:"appointment_id"`
	PatientID     int64     `json:"patient_id"`
	DoctorID      int64     `json:"doctor_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	ChangedAt     time.Time `json:"changed_at"`
}

// ConsultationEvent covers create, update and delete of a consultation or
// one of its child records.
type ConsultationEvent struct {
	BaseEvent
	Data ConsultationData `json:"data"`
}

type ConsultationData struct {
	ConsultationID    int64  `json:"consultation_id,omitempty"`
	AppointmentID     *int64 `json:"appointment_id,omitempty"`
	PatientID         int64  `json:"patient_id,omitempty"`
	DoctorID          int64  `json:"doctor_id,omitempty"`
	PrescriptionCount int    `json:"prescription_count"`
	LabResultCount    int    `json:"lab_result_count"`
	ChildType         string `json:"child_type,omitempty"` // "prescription" or "lab_result"
	ChildID           int64  `json:"child_id,omitempty"`
}

// AttachmentSkippedEvent records one lab result file that failed to upload.
type AttachmentSkippedEvent struct {
	BaseEvent
	Data AttachmentSkippedData `json:"data"`
}

type AttachmentSkippedData struct {
	PatientID int64  `json:"patient_id"`
	TestName  string `json:"test_name"`
	FileName  string `json:"file_name"`
	Reason    string `json:"reason"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
	}
}

// WithActor returns a copy of b attributed to the acting user.
func (b BaseEvent) WithActor(userID int64, role string) BaseEvent {
	b.ActorID = userID
	b.ActorRole = role
	return b
}
