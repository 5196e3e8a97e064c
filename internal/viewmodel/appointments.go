package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"go.uber.org/zap"
)

// AppointmentSource is the part of the clinic API an appointment list
// screen reads and mutates.
type AppointmentSource interface {
	ListAppointments(ctx context.Context, filter appointment.ListFilter) ([]appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	GetPatient(ctx context.Context, id int64) (*patient.Patient, error)
}

// AppointmentsScreen is the doctor or nurse appointment list: the raw list
// from the backend plus the derived view selected by Criteria.
type AppointmentsScreen struct {
	Screen[[]appointment.Appointment]

	source   AppointmentSource
	workflow *consultation.Workflow
	filter   appointment.ListFilter
	criteria appointment.Criteria
	log      *zap.Logger
}

func NewAppointmentsScreen(source AppointmentSource, workflow *consultation.Workflow, filter appointment.ListFilter, logger *zap.Logger) *AppointmentsScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentsScreen{
		source:   source,
		workflow: workflow,
		filter:   filter,
		criteria: appointment.Criteria{View: appointment.ViewAll, Status: appointment.StatusAll},
		log:      logger,
	}
}

// SetCriteria changes the derived view. It does not reload.
func (s *AppointmentsScreen) SetCriteria(c appointment.Criteria) {
	s.mu.Lock()
	s.criteria = c
	s.mu.Unlock()
}

func (s *AppointmentsScreen) Criteria() appointment.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Refresh reloads the list from the backend.
func (s *AppointmentsScreen) Refresh(ctx context.Context) error {
	err := s.Load(ctx, func(ctx context.Context) ([]appointment.Appointment, error) {
		return s.source.ListAppointments(ctx, s.filter)
	})
	if err != nil && !errors.Is(err, ErrDisposed) {
		s.log.Warn("appointment list refresh failed", zap.Error(err))
	}
	return err
}

// Visible is the derived list for the current criteria.
func (s *AppointmentsScreen) Visible(now time.Time) []appointment.Appointment {
	return appointment.Apply(s.Snapshot().Data, now, s.Criteria())
}

func (s *AppointmentsScreen) Stats(now time.Time) appointment.Stats {
	return appointment.ComputeStats(s.Snapshot().Data, now)
}

// Find returns the loaded appointment with the given id.
func (s *AppointmentsScreen) Find(id int64) (appointment.Appointment, bool) {
	for _, a := range s.Snapshot().Data {
		if a.ID == id {
			return a, true
		}
	}
	return appointment.Appointment{}, false
}

// Transition changes the status of a loaded appointment and refreshes the
// list afterwards, whatever the outcome.
func (s *AppointmentsScreen) Transition(ctx context.Context, id int64, target string) (out consultation.Outcome, err error) {
	appt, ok := s.Find(id)
	if !ok {
		return out, notLoaded(id)
	}
	err = s.Submit(ctx, func(ctx context.Context) error {
		defer s.Refresh(ctx)
		out, err = s.workflow.Transition(ctx, appt, target)
		return err
	})
	return out, err
}

// Delete removes an appointment regardless of its status. A refresh that
// fails after the delete succeeded is left in the snapshot error and is not
// returned.
func (s *AppointmentsScreen) Delete(ctx context.Context, id int64) error {
	return s.Submit(ctx, func(ctx context.Context) error {
		if err := s.source.DeleteAppointment(ctx, id); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		s.Refresh(ctx)
		return nil
	})
}

// Complete runs the completion workflow for a loaded appointment. The
// screen is refreshed once the workflow ends.
func (s *AppointmentsScreen) Complete(ctx context.Context, id int64, prompter consultation.Prompter) (out consultation.Outcome, err error) {
	appt, ok := s.Find(id)
	if !ok {
		return out, notLoaded(id)
	}
	err = s.Submit(ctx, func(ctx context.Context) error {
		p, err := s.source.GetPatient(ctx, appt.PatientID)
		if err != nil {
			s.Refresh(ctx)
			return fmt.Errorf("get patient: %w", err)
		}
		out, err = s.workflow.Complete(ctx, appt, *p, prompter, s)
		return err
	})
	return out, err
}

func notLoaded(id int64) error {
	return apperror.Validation(fmt.Sprintf("Appointment %d is not in the list", id))
}
