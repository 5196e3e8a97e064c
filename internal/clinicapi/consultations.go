package clinicapi

import (
	"context"
	"net/http"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
)

var _ consultation.ClinicBackend = (*Client)(nil)

type consultationEnvelope struct {
	Consultation   *consultation.Consultation `json:"consultation"`
	ConsultationID int64                      `json:"consultation_id"`
	ID             int64                      `json:"id"`
}

// CreateConsultation makes the single create call for a consultation with
// its prescriptions and lab results. If the backend only returns the new
// id, the stored record is read back.
func (c *Client) CreateConsultation(ctx context.Context, req consultation.CreateRequest) (*consultation.Consultation, error) {
	var resp consultationEnvelope
	if err := c.do(ctx, http.MethodPost, "/consultations", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Consultation != nil {
		return resp.Consultation, nil
	}
	id := firstNonZero(resp.ConsultationID, resp.ID)
	if id == 0 {
		return nil, missingField("consultation_id")
	}
	return c.GetConsultation(ctx, id)
}

func (c *Client) GetConsultation(ctx context.Context, id int64) (*consultation.Consultation, error) {
	var resp consultationEnvelope
	if err := c.do(ctx, http.MethodGet, idPath("/consultations/%d", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Consultation == nil {
		return nil, missingField("consultation")
	}
	return resp.Consultation, nil
}

func (c *Client) UpdateConsultation(ctx context.Context, id int64, d consultation.Details) error {
	return c.do(ctx, http.MethodPut, idPath("/consultations/%d", id), nil, d, nil)
}

func (c *Client) DeleteConsultation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/consultations/%d", id), nil, nil, nil)
}

func (c *Client) CreatePrescription(ctx context.Context, consultationID int64, in consultation.PrescriptionInput) error {
	return c.do(ctx, http.MethodPost, idPath("/consultations/%d/prescriptions", consultationID), nil, in, nil)
}

func (c *Client) UpdatePrescription(ctx context.Context, id int64, in consultation.PrescriptionInput) error {
	return c.do(ctx, http.MethodPut, idPath("/prescriptions/%d", id), nil, in, nil)
}

func (c *Client) DeletePrescription(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/prescriptions/%d", id), nil, nil, nil)
}

func (c *Client) CreateLabResult(ctx context.Context, consultationID int64, in consultation.LabResultInput) error {
	return c.do(ctx, http.MethodPost, idPath("/consultations/%d/lab-results", consultationID), nil, in, nil)
}

func (c *Client) UpdateLabResult(ctx context.Context, id int64, in consultation.LabResultInput) error {
	return c.do(ctx, http.MethodPut, idPath("/lab-results/%d", id), nil, in, nil)
}

func (c *Client) DeleteLabResult(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/lab-results/%d", id), nil, nil, nil)
}

// PatientRecords returns every consultation, prescription and lab result on
// file for a patient.
func (c *Client) PatientRecords(ctx context.Context, patientID int64) (*consultation.RecordBundle, error) {
	var bundle consultation.RecordBundle
	if err := c.do(ctx, http.MethodGet, idPath("/patients/%d/records", patientID), nil, nil, &bundle); err != nil {
		return nil, err
	}
	if bundle.Consultations == nil {
		bundle.Consultations = []consultation.Consultation{}
	}
	if bundle.Prescriptions == nil {
		bundle.Prescriptions = []consultation.Prescription{}
	}
	if bundle.LabResults == nil {
		bundle.LabResults = []consultation.LabResult{}
	}
	return &bundle, nil
}
