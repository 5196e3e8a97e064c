package patient

import (
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
)

// RestrictedMessage is shown when a workflow is blocked by a restricted account.
const RestrictedMessage = "This patient's account is restricted. New appointments and consultations cannot be created until an administrator lifts the restriction."

// Guard returns a Restricted error when p is restricted, nil otherwise.
// It never touches the network.
func Guard(p Patient) error {
	if p.IsRestricted() {
		return apperror.Restricted(RestrictedMessage)
	}
	return nil
}
