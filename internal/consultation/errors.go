package consultation

import "github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"

var (
	ErrInvalidID     = apperror.Validation("Invalid consultation id")
	ErrNotChild      = apperror.Validation("Record does not belong to this consultation")
	ErrNoAppointment = apperror.Validation("Appointment id is required")
)
