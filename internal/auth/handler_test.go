package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"go.uber.org/zap"
)

type mockBackend struct {
	loginFunc func(ctx context.Context, req LoginRequest) (*LoginResult, error)
	calls     int
}

func (m *mockBackend) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	m.calls++
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func postLogin(t *testing.T, h *Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestHandlerLogin_Success(t *testing.T) {
	v := newTestVerifier(t)
	backend := &mockBackend{
		loginFunc: func(ctx context.Context, req LoginRequest) (*LoginResult, error) {
			return &LoginResult{UserID: 5, Role: "doctor", Name: "Dr. Grey", Message: "Login successful"}, nil
		},
	}
	h := NewHandler(backend, v, zap.NewNop())

	rec := postLogin(t, h, LoginRequest{Role: "doctor", Username: "grey", Password: "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success || resp.User.ID != 5 {
		t.Errorf("Unexpected response: %+v", resp)
	}
	principal, err := v.ParseAndVerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("Issued token did not verify: %v", err)
	}
	if principal.Role != RoleDoctor {
		t.Errorf("Expected doctor role, got %s", principal.Role)
	}
}

func TestHandlerLogin_ValidationSkipsBackend(t *testing.T) {
	backend := &mockBackend{}
	h := NewHandler(backend, newTestVerifier(t), zap.NewNop())

	rec := postLogin(t, h, LoginRequest{Role: "pilot", Username: "x", Password: "y"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if backend.calls != 0 {
		t.Errorf("Expected no backend call, got %d", backend.calls)
	}
}

func TestHandlerLogin_Restricted(t *testing.T) {
	backend := &mockBackend{
		loginFunc: func(ctx context.Context, req LoginRequest) (*LoginResult, error) {
			return &LoginResult{Restricted: true, PatientID: 77, Message: "Your account is restricted"}, nil
		},
	}
	h := NewHandler(backend, newTestVerifier(t), zap.NewNop())

	rec := postLogin(t, h, LoginRequest{Role: "patient", Username: "p", Password: "pw"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
	var resp RestrictedResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Restricted || resp.PatientID != 77 || resp.Message != "Your account is restricted" {
		t.Errorf("Unexpected restricted response: %+v", resp)
	}
}

func TestHandlerLogin_BackendMessageVerbatim(t *testing.T) {
	backend := &mockBackend{
		loginFunc: func(ctx context.Context, req LoginRequest) (*LoginResult, error) {
			return nil, apperror.Business("Invalid username or password")
		},
	}
	h := NewHandler(backend, newTestVerifier(t), zap.NewNop())

	rec := postLogin(t, h, LoginRequest{Role: "nurse", Username: "n", Password: "bad"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["message"] != "Invalid username or password" {
		t.Errorf("Expected backend message verbatim, got %v", resp["message"])
	}
}
