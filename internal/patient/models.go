package patient

import "strings"

// AccountStatus is governed by the clinic backend. The gateway only reads it.
type AccountStatus string

const (
	AccountActive     AccountStatus = "active"
	AccountRestricted AccountStatus = "restricted"
)

// IsRestricted reports whether s blocks new appointments and consultations.
func (s AccountStatus) IsRestricted() bool {
	return strings.EqualFold(string(s), string(AccountRestricted))
}

// Patient is a patient record as returned by the clinic backend.
type Patient struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email,omitempty"`
	Phone              string        `json:"phone,omitempty"`
	DateOfBirth        string        `json:"date_of_birth,omitempty"`
	Gender             string        `json:"gender,omitempty"`
	Address            string        `json:"address,omitempty"`
	AccountStatus      AccountStatus `json:"account_status"`
	MissedAppointments int           `json:"missed_appointments,omitempty"`
}

// IsRestricted reports whether the patient's account is restricted.
func (p Patient) IsRestricted() bool {
	return p.AccountStatus.IsRestricted()
}

// PatientListResponse is the gateway's list envelope.
type PatientListResponse struct {
	Success  bool      `json:"success"`
	Patients []Patient `json:"patients"`
	Total    int       `json:"total"`
}

// PatientSuccessResponse wraps a single patient.
type PatientSuccessResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Patient *Patient `json:"patient,omitempty"`
}
