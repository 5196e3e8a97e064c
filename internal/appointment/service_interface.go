package appointment

import (
	"context"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
)

// Backend is the part of the clinic API that serves appointments.
type Backend interface {
	ListAppointments(ctx context.Context, filter ListFilter) ([]Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, req UpdateRequest) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

// PatientLookup reads the account status checked before booking.
type PatientLookup interface {
	GetPatient(ctx context.Context, id int64) (*patient.Patient, error)
}

// ServiceInterface defines the contract for appointment operations
type ServiceInterface interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Stats(ctx context.Context, filter ListFilter) (Stats, error)
	Get(ctx context.Context, id int64) (*Appointment, error)
	Create(ctx context.Context, req CreateRequest) (*Appointment, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Appointment, error)
	Delete(ctx context.Context, id int64) error
}

var _ ServiceInterface = (*Service)(nil)
