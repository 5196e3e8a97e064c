package clinicapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
)

var _ appointment.Backend = (*Client)(nil)

type appointmentEnvelope struct {
	Appointment   *appointment.Appointment `json:"appointment"`
	AppointmentID int64                    `json:"appointment_id"`
	ID            int64                    `json:"id"`
}

func (c *Client) ListAppointments(ctx context.Context, filter appointment.ListFilter) ([]appointment.Appointment, error) {
	q := url.Values{}
	setID(q, "doctor_id", filter.DoctorID)
	setID(q, "patient_id", filter.PatientID)
	if filter.Status != "" && filter.Status != appointment.StatusAll {
		q.Set("status", string(filter.Status))
	}

	var resp struct {
		Appointments []appointment.Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, "/appointments", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Appointments == nil {
		resp.Appointments = []appointment.Appointment{}
	}
	return resp.Appointments, nil
}

func (c *Client) GetAppointment(ctx context.Context, id int64) (*appointment.Appointment, error) {
	var resp appointmentEnvelope
	if err := c.do(ctx, http.MethodGet, idPath("/appointments/%d", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Appointment == nil {
		return nil, missingField("appointment")
	}
	return resp.Appointment, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error) {
	var resp appointmentEnvelope
	if err := c.do(ctx, http.MethodPost, "/appointments", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Appointment != nil {
		return resp.Appointment, nil
	}
	return &appointment.Appointment{
		ID:          firstNonZero(resp.AppointmentID, resp.ID),
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
		Status:      appointment.StatusScheduled,
	}, nil
}

// UpdateAppointment changes schedule details and returns the stored record.
// When the backend does not echo it, the record is read back.
func (c *Client) UpdateAppointment(ctx context.Context, id int64, req appointment.UpdateRequest) (*appointment.Appointment, error) {
	var resp appointmentEnvelope
	if err := c.do(ctx, http.MethodPut, idPath("/appointments/%d", id), nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Appointment != nil {
		return resp.Appointment, nil
	}
	return c.GetAppointment(ctx, id)
}

func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/appointments/%d", id), nil, nil, nil)
}

// UpdateAppointmentStatus asks the backend for a status transition. The
// backend decides whether the move is allowed.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id int64, status appointment.Status) error {
	body := appointment.StatusChangeRequest{Status: string(status)}
	return c.do(ctx, http.MethodPut, idPath("/appointments/%d/status", id), nil, body, nil)
}

func firstNonZero(ids ...int64) int64 {
	for _, id := range ids {
		if id != 0 {
			return id
		}
	}
	return 0
}
