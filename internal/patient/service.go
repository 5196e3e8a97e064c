package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"go.uber.org/zap"
)

type Service struct {
	backend Backend
	log     *zap.Logger
}

func NewService(backend Backend, logger *zap.Logger) *Service {
	return &Service{backend: backend, log: logger}
}

// Search lists patients, optionally filtered by a free-text query.
func (s *Service) Search(ctx context.Context, query string) ([]Patient, error) {
	patients, err := s.backend.ListPatients(ctx, strings.TrimSpace(query))
	if err != nil {
		s.log.Error("failed to list patients", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	if id <= 0 {
		return nil, apperror.Validation("patient id is required")
	}
	p, err := s.backend.GetPatient(ctx, id)
	if err != nil {
		s.log.Error("failed to get patient", zap.Int64("patient_id", id), zap.Error(err))
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}
