package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/messaging"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/pagination"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"go.uber.org/zap"
)

type Service struct {
	backend   Backend
	patients  PatientLookup
	publisher messaging.PublisherInterface
	log       *zap.Logger
	now       func() time.Time
}

func NewService(backend Backend, patients PatientLookup, publisher messaging.PublisherInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:   backend,
		patients:  patients,
		publisher: publisher,
		log:       logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source used by the derived views.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List fetches appointments from the backend, derives the requested view and
// returns one page of it.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	all, err := s.backend.ListAppointments(ctx, q.Filter)
	if err != nil {
		s.log.Error("failed to list appointments", zap.Error(err))
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	now := s.now()
	derived := Apply(all, now, q.Criteria)
	switch q.Sort {
	case SortAsc:
		derived = SortByDate(derived, true, now.Location())
	case SortDesc:
		derived = SortByDate(derived, false, now.Location())
	}

	page, meta := pagination.Slice(derived, q.Page)
	return &ListResult{
		Success:      true,
		Appointments: page,
		Pagination:   meta,
	}, nil
}

func (s *Service) Stats(ctx context.Context, filter ListFilter) (Stats, error) {
	all, err := s.backend.ListAppointments(ctx, filter)
	if err != nil {
		s.log.Error("failed to list appointments for stats", zap.Error(err))
		return Stats{}, fmt.Errorf("appointment stats: %w", err)
	}
	return ComputeStats(all, s.now()), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	a, err := s.backend.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// Create books a new appointment. A restricted patient is refused before the
// create call is made.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := apperror.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, ok := ParseTime(req.ScheduledAt, s.now().Location()); !ok {
		return nil, ErrInvalidDate
	}

	if s.patients != nil {
		p, err := s.patients.GetPatient(ctx, req.PatientID)
		if err != nil {
			return nil, fmt.Errorf("check patient account: %w", err)
		}
		if err := patient.Guard(*p); err != nil {
			s.log.Info("refused booking for restricted patient", zap.Int64("patient_id", req.PatientID))
			return nil, err
		}
	}

	a, err := s.backend.CreateAppointment(ctx, req)
	if err != nil {
		s.log.Error("failed to create appointment", zap.Int64("patient_id", req.PatientID), zap.Error(err))
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.emit(ctx, messaging.EventAppointmentCreated, *a)
	return a, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Appointment, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if req.DoctorID == nil && req.ScheduledAt == nil && req.Reason == nil {
		return nil, ErrNoChanges
	}
	if req.DoctorID != nil && *req.DoctorID <= 0 {
		return nil, apperror.Validation("doctor_id must be greater than 0")
	}
	if req.ScheduledAt != nil {
		if _, ok := ParseTime(*req.ScheduledAt, s.now().Location()); !ok {
			return nil, ErrInvalidDate
		}
	}

	a, err := s.backend.UpdateAppointment(ctx, id, req)
	if err != nil {
		s.log.Error("failed to update appointment", zap.Int64("appointment_id", id), zap.Error(err))
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.emit(ctx, messaging.EventAppointmentUpdated, *a)
	return a, nil
}

// Delete removes an appointment in any status.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.backend.DeleteAppointment(ctx, id); err != nil {
		s.log.Error("failed to delete appointment", zap.Int64("appointment_id", id), zap.Error(err))
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.emit(ctx, messaging.EventAppointmentDeleted, Appointment{ID: id})
	return nil
}

func (s *Service) emit(ctx context.Context, key string, a Appointment) {
	actorID, role := auth.Actor(ctx)
	messaging.Emit(ctx, s.publisher, s.log, key, messaging.AppointmentEvent{
		BaseEvent: messaging.NewBaseEvent(key).WithActor(actorID, role),
		Data: messaging.AppointmentData{
			AppointmentID: a.ID,
			PatientID:     a.PatientID,
			DoctorID:      a.DoctorID,
			ScheduledAt:   a.ScheduledAt,
		},
	})
}
