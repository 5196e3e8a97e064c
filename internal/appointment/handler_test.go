package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"github.com/gorilla/mux"
)

// mockService implements ServiceInterface for testing
type mockService struct {
	listFunc   func(ctx context.Context, q ListQuery) (*ListResult, error)
	statsFunc  func(ctx context.Context, filter ListFilter) (Stats, error)
	getFunc    func(ctx context.Context, id int64) (*Appointment, error)
	createFunc func(ctx context.Context, req CreateRequest) (*Appointment, error)
	updateFunc func(ctx context.Context, id int64, req UpdateRequest) (*Appointment, error)
	deleteFunc func(ctx context.Context, id int64) error
}

func (m *mockService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Stats(ctx context.Context, filter ListFilter) (Stats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, filter)
	}
	return Stats{}, errors.New("not implemented")
}

func (m *mockService) Get(ctx context.Context, id int64) (*Appointment, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Update(ctx context.Context, id int64, req UpdateRequest) (*Appointment, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockService) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func TestHandlerListAppointments_PatientScopedToSelf(t *testing.T) {
	var got ListQuery
	h := NewHandler(&mockService{
		listFunc: func(ctx context.Context, q ListQuery) (*ListResult, error) {
			got = q
			return &ListResult{Success: true, Appointments: []Appointment{}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/appointments?patient_id=99&view=upcoming&status=scheduled&sort=asc&page=2&limit=5", nil)
	req = req.WithContext(auth.ContextAs(req.Context(), 12, auth.RolePatient))
	rr := httptest.NewRecorder()

	h.ListAppointments(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Filter.PatientID != 12 {
		t.Errorf("Expected patient scope 12, got %d", got.Filter.PatientID)
	}
	if got.Criteria.View != ViewUpcoming || got.Criteria.Status != StatusScheduled {
		t.Errorf("Unexpected criteria %+v", got.Criteria)
	}
	if got.Sort != SortAsc || got.Page.Page != 2 || got.Page.Limit != 5 {
		t.Errorf("Unexpected sort/page %q %+v", got.Sort, got.Page)
	}
}

func TestHandlerListAppointments_DoctorDefaultsToSelf(t *testing.T) {
	var got ListFilter
	h := NewHandler(&mockService{
		listFunc: func(ctx context.Context, q ListQuery) (*ListResult, error) {
			got = q.Filter
			return &ListResult{Success: true}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req = req.WithContext(auth.ContextAs(req.Context(), 4, auth.RoleDoctor))
	h.ListAppointments(httptest.NewRecorder(), req)

	if got.DoctorID != 4 {
		t.Errorf("Expected doctor scope 4, got %d", got.DoctorID)
	}
}

func TestHandlerListAppointments_InvalidStatus(t *testing.T) {
	h := NewHandler(&mockService{})

	req := httptest.NewRequest(http.MethodGet, "/appointments?status=done", nil)
	req = req.WithContext(auth.ContextAs(req.Context(), 1, auth.RoleAdmin))
	rr := httptest.NewRecorder()

	h.ListAppointments(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestHandlerGetAppointment_PatientCannotReadOthers(t *testing.T) {
	h := NewHandler(&mockService{
		getFunc: func(ctx context.Context, id int64) (*Appointment, error) {
			return &Appointment{ID: id, PatientID: 50}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/appointments/3", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "3"})
	req = req.WithContext(auth.ContextAs(req.Context(), 12, auth.RolePatient))
	rr := httptest.NewRecorder()

	h.GetAppointment(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}
}

func TestHandlerCreateAppointment_Restricted(t *testing.T) {
	h := NewHandler(&mockService{
		createFunc: func(ctx context.Context, req CreateRequest) (*Appointment, error) {
			return nil, patient.Guard(patient.Patient{AccountStatus: patient.AccountRestricted})
		},
	})

	body, _ := json.Marshal(CreateRequest{PatientID: 2, ScheduledAt: "2026-03-11 10:00"})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req = req.WithContext(auth.ContextAs(req.Context(), 4, auth.RoleDoctor))
	rr := httptest.NewRecorder()

	h.CreateAppointment(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", rr.Code)
	}
	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["restricted"] != true || resp["message"] != patient.RestrictedMessage {
		t.Errorf("Unexpected body %v", resp)
	}
}

func TestHandlerCreateAppointment_DoctorIDDefaulted(t *testing.T) {
	var got CreateRequest
	h := NewHandler(&mockService{
		createFunc: func(ctx context.Context, req CreateRequest) (*Appointment, error) {
			got = req
			return &Appointment{ID: 1}, nil
		},
	})

	body, _ := json.Marshal(CreateRequest{PatientID: 2, ScheduledAt: "2026-03-11 10:00"})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req = req.WithContext(auth.ContextAs(req.Context(), 4, auth.RoleDoctor))
	rr := httptest.NewRecorder()

	h.CreateAppointment(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}
	if got.DoctorID != 4 {
		t.Errorf("Expected doctor id 4, got %d", got.DoctorID)
	}
}

func TestHandlerDeleteAppointment_BusinessFailure(t *testing.T) {
	h := NewHandler(&mockService{
		deleteFunc: func(ctx context.Context, id int64) error {
			return apperror.Business("Appointment not found")
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/appointments/3", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "3"})
	req = req.WithContext(auth.ContextAs(req.Context(), 1, auth.RoleAdmin))
	rr := httptest.NewRecorder()

	h.DeleteAppointment(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["message"] != "Appointment not found" {
		t.Errorf("Expected backend message, got %v", resp["message"])
	}
}
