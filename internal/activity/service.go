package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/pagination"
	"go.uber.org/zap"
)

// Backend reads the activity log from the clinic backend.
type Backend interface {
	ListActivity(ctx context.Context, actionType string) ([]Entry, error)
}

type ServiceInterface interface {
	List(ctx context.Context, actionType string, page pagination.Params) ([]Entry, pagination.Meta, error)
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	backend Backend
	log     *zap.Logger
}

func NewService(backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, log: logger}
}

// List returns one page of log entries, newest first as delivered by the
// backend. actionType narrows the log to one kind of action.
func (s *Service) List(ctx context.Context, actionType string, page pagination.Params) ([]Entry, pagination.Meta, error) {
	actionType = strings.TrimSpace(actionType)
	entries, err := s.backend.ListActivity(ctx, actionType)
	if err != nil {
		s.log.Error("failed to list activity", zap.String("action_type", actionType), zap.Error(err))
		return nil, pagination.Meta{}, fmt.Errorf("list activity: %w", err)
	}
	items, meta := pagination.Slice(entries, page)
	return items, meta, nil
}
