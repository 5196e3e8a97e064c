package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ auth.Backend = (*Client)(nil)

type loginResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Role       string `json:"role"`
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Restricted bool   `json:"restricted"`
	PatientID  int64  `json:"patient_id"`
}

// Login checks credentials with the clinic backend. A restricted patient is
// not an error: the result carries Restricted with the backend's message so
// the caller can show the restricted-account screen.
func (c *Client) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "clinicapi POST /auth/login", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode login: %w", err)
	}
	status, raw, err := c.exchange(ctx, span, http.MethodPost, "/auth/login", nil, bytes.NewReader(b), "application/json")
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		span.SetStatus(codes.Error, "decode login")
		return nil, apperror.Transport(fmt.Errorf("decode login: %w", err))
	}

	if resp.Restricted {
		return &auth.LoginResult{Restricted: true, PatientID: resp.PatientID, Role: req.Role, Message: resp.Message}, nil
	}
	if !resp.Success {
		if resp.Message == "" {
			span.SetStatus(codes.Error, "login failed without message")
			return nil, apperror.Transport(fmt.Errorf("login: status %d without message", status))
		}
		span.SetStatus(codes.Error, resp.Message)
		return nil, apperror.Business(resp.Message)
	}
	if resp.UserID == 0 {
		return nil, missingField("user_id")
	}
	return &auth.LoginResult{
		UserID:  resp.UserID,
		Role:    resp.Role,
		Name:    resp.Name,
		Message: resp.Message,
	}, nil
}
