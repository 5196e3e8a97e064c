package patient

import "context"

// Backend is the part of the clinic API the patient screens use.
type Backend interface {
	ListPatients(ctx context.Context, search string) ([]Patient, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
}

// ServiceInterface defines the contract for patient operations
type ServiceInterface interface {
	Search(ctx context.Context, query string) ([]Patient, error)
	Get(ctx context.Context, id int64) (*Patient, error)
}

var _ ServiceInterface = (*Service)(nil)
