package clinicapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
)

var _ patient.Backend = (*Client)(nil)

func (c *Client) ListPatients(ctx context.Context, search string) ([]patient.Patient, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var resp struct {
		Patients []patient.Patient `json:"patients"`
	}
	if err := c.do(ctx, http.MethodGet, "/patients", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Patients == nil {
		resp.Patients = []patient.Patient{}
	}
	return resp.Patients, nil
}

func (c *Client) GetPatient(ctx context.Context, id int64) (*patient.Patient, error) {
	var resp struct {
		Patient *patient.Patient `json:"patient"`
	}
	if err := c.do(ctx, http.MethodGet, idPath("/patients/%d", id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Patient == nil {
		return nil, missingField("patient")
	}
	return resp.Patient, nil
}
