package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"go.uber.org/zap"
)

// LoginRequest is what the mobile login screen posts.
type LoginRequest struct {
	Role     string `json:"role" validate:"required,oneof=patient doctor nurse admin"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the backend's answer to a login. A restricted patient gets
// Restricted=true with the patient ID and the backend message instead of an
// identity.
type LoginResult struct {
	UserID     int64
	Role       string
	Name       string
	Restricted bool
	PatientID  int64
	Message    string
}

// Backend performs the credential check against the clinic backend.
type Backend interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

// Handler serves the login endpoint.
type Handler struct {
	backend  Backend
	verifier *Verifier
	log      *zap.Logger
}

func NewHandler(backend Backend, verifier *Verifier, logger *zap.Logger) *Handler {
	return &Handler{backend: backend, verifier: verifier, log: logger}
}

type UserInfo struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type RestrictedResponse struct {
	Success    bool   `json:"success"`
	Restricted bool   `json:"restricted"`
	PatientID  int64  `json:"patient_id"`
	Message    string `json:"message"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperror.Validation("Invalid JSON payload"))
		return
	}
	if err := apperror.ValidateStruct(req); err != nil {
		respondError(w, err)
		return
	}

	res, err := h.backend.Login(r.Context(), req)
	if err != nil {
		h.log.Warn("login failed", zap.String("role", req.Role), zap.Error(err))
		respondError(w, err)
		return
	}

	if res.Restricted {
		h.log.Info("restricted account login", zap.Int64("patient_id", res.PatientID))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(RestrictedResponse{
			Success:    false,
			Restricted: true,
			PatientID:  res.PatientID,
			Message:    res.Message,
		})
		return
	}

	role := res.Role
	if role == "" {
		role = req.Role
	}
	token, exp, err := h.verifier.Issue(Principal{UserID: res.UserID, Role: role, Name: res.Name})
	if err != nil {
		h.log.Error("failed to sign session token", zap.Error(err))
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Success:   true,
		Message:   res.Message,
		Token:     token,
		ExpiresAt: exp,
		User:      UserInfo{ID: res.UserID, Role: role, Name: res.Name},
	})
}

func respondError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperror.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   apperror.KindOf(err).String(),
		"message": apperror.UserMessage(err),
	})
}
