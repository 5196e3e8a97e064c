package appointment

import "github.com/WailSalutem-Health-Care/clinic-gateway/internal/pagination"

// Appointment is one scheduled visit as returned by the clinic backend.
// ScheduledAt is kept as the raw backend string; use Time to parse it.
type Appointment struct {
	ID             int64  `json:"id"`
	PatientID      int64  `json:"patient_id"`
	DoctorID       int64  `json:"doctor_id"`
	PatientName    string `json:"patient_name,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	ScheduledAt    string `json:"appointment_date"`
	Status         Status `json:"status"`
	Reason         string `json:"reason"`
	ConsultationID *int64 `json:"consultation_id,omitempty"`
}

// ListFilter narrows the backend list call. Zero values mean no filter.
type ListFilter struct {
	DoctorID  int64
	PatientID int64
	Status    Status
}

// CreateRequest is the payload for scheduling a new appointment.
type CreateRequest struct {
	PatientID   int64  `json:"patient_id" validate:"gt=0"`
	DoctorID    int64  `json:"doctor_id" validate:"gt=0"`
	ScheduledAt string `json:"appointment_date" validate:"required"`
	Reason      string `json:"reason" validate:"max=500"`
}

// UpdateRequest changes the schedule details of an appointment. Status is
// changed through the status operation only.
type UpdateRequest struct {
	DoctorID    *int64  `json:"doctor_id,omitempty"`
	ScheduledAt *string `json:"appointment_date,omitempty"`
	Reason      *string `json:"reason,omitempty"`
}

// StatusChangeRequest is the body of the status transition call.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

// View is one of the derived appointment lists shown on the screens.
type View string

const (
	ViewAll      View = "all"
	ViewToday    View = "today"
	ViewUpcoming View = "upcoming"
	ViewPast     View = "past"
)

// Criteria selects a derived view plus an optional status filter.
type Criteria struct {
	View   View
	Status Status
}

// Stats are the counters shown on the dashboard screens.
type Stats struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
	Cancelled int `json:"cancelled"`
}

// SortOrder orders a derived list by scheduled time. SortNone keeps the
// order the backend returned.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListQuery is one request for a derived, paged appointment list.
type ListQuery struct {
	Filter   ListFilter
	Criteria Criteria
	Sort     SortOrder
	Page     pagination.Params
}

// ListResult is the paged list envelope.
type ListResult struct {
	Success      bool            `json:"success"`
	Appointments []Appointment   `json:"appointments"`
	Pagination   pagination.Meta `json:"pagination"`
}

// AppointmentResponse wraps a single appointment.
type AppointmentResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

// StatsResponse wraps dashboard counters.
type StatsResponse struct {
	Success bool  `json:"success"`
	Stats   Stats `json:"stats"`
}
