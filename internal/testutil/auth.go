package testutil

import (
	"testing"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
)

const TestSessionSecret = "test-session-secret"

// NewTestVerifier returns a session verifier with a fixed secret.
func NewTestVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	v, err := auth.NewVerifier(auth.Config{Issuer: auth.DefaultIssuer, Secret: TestSessionSecret, TTL: time.Hour})
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}
	return v
}

// SessionToken mints a session token for the given user and role.
func SessionToken(t *testing.T, v *auth.Verifier, userID int64, role string) string {
	t.Helper()
	token, _, err := v.Issue(auth.Principal{UserID: userID, Role: role, Name: role})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}
