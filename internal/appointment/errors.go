package appointment

import "github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"

var (
	ErrInvalidID   = apperror.Validation("Invalid appointment id")
	ErrInvalidDate = apperror.Validation("appointment_date must be a valid date and time")
	ErrNoChanges   = apperror.Validation("Nothing to update")
)
