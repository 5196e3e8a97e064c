package clinicapi

import (
	"fmt"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
)

// missingField reports a successful response that lacks the expected record.
func missingField(name string) error {
	return apperror.Transport(fmt.Errorf("response has no %q field", name))
}
