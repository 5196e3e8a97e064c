package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey string

const principalKey ctxKey = "auth_principal"

var tracer = otel.Tracer("github.com/WailSalutem-Health-Care/clinic-gateway/auth")

// MetricsRecorder interface for recording auth metrics
type MetricsRecorder interface {
	RecordAuthFailure(ctx context.Context, reason string)
}

// TokenVerifier is satisfied by *Verifier.
type TokenVerifier interface {
	ParseAndVerifyToken(tokenString string) (*Principal, error)
}

// Middleware validates token, injects Principal into request context.
func Middleware(ver TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return MiddlewareWithMetrics(ver, logger, nil)
}

// MiddlewareWithMetrics validates token with metrics recording
func MiddlewareWithMetrics(ver TokenVerifier, logger *zap.Logger, metrics MetricsRecorder) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx, span := tracer.Start(ctx, "auth.Middleware",
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			fail := func(reason, message string) {
				span.SetStatus(codes.Error, message)
				span.SetAttributes(attribute.String("error.type", reason))
				if metrics != nil {
					metrics.RecordAuthFailure(ctx, reason)
				}
				writeAuthError(w, http.StatusUnauthorized, message)
			}

			authz := r.Header.Get("Authorization")
			if authz == "" {
				fail("missing_authorization", "missing authorization")
				return
			}

			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				fail("invalid_header_format", "invalid authorization header")
				return
			}

			pr, err := ver.ParseAndVerifyToken(parts[1])
			if err != nil {
				logger.Warn("session token rejected", zap.Error(err))
				fail("invalid_token", "invalid token")
				return
			}

			span.SetAttributes(
				attribute.Int64("user.id", pr.UserID),
				attribute.String("user.role", pr.Role),
			)
			span.SetStatus(codes.Ok, "authentication successful")

			ctx = context.WithValue(ctx, principalKey, pr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PermissionMetricsRecorder interface for recording permission check metrics
type PermissionMetricsRecorder interface {
	RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool)
}

// RequirePermission returns middleware that ensures the principal has permission.
func RequirePermission(per string, perms Permissions) func(http.Handler) http.Handler {
	return RequirePermissionWithMetrics(per, perms, nil)
}

// RequirePermissionWithMetrics returns middleware with metrics recording
func RequirePermissionWithMetrics(per string, perms Permissions, metrics PermissionMetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			ctx, span := tracer.Start(ctx, "auth.RequirePermission",
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attribute.String("permission.required", per)),
			)
			defer span.End()

			pr, ok := FromContext(ctx)
			if !ok {
				span.SetStatus(codes.Error, "unauthenticated")
				if metrics != nil {
					metrics.RecordPermissionCheck(ctx, per, float64(time.Since(start).Milliseconds()), false)
				}
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}

			allowed := HasPermission(pr, per, perms)
			span.SetAttributes(
				attribute.Bool("permission.allowed", allowed),
				attribute.Int64("user.id", pr.UserID),
				attribute.String("user.role", pr.Role),
			)
			if metrics != nil {
				metrics.RecordPermissionCheck(ctx, per, float64(time.Since(start).Milliseconds()), allowed)
			}

			if !allowed {
				span.SetStatus(codes.Error, "forbidden")
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}

			span.SetStatus(codes.Ok, "permission granted")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts Principal from context.
func FromContext(ctx context.Context) (*Principal, bool) {
	pr, ok := ctx.Value(principalKey).(*Principal)
	return pr, ok
}

// Actor returns the user id and role of the caller, or zero values for
// unauthenticated contexts.
func Actor(ctx context.Context) (int64, string) {
	if pr, ok := FromContext(ctx); ok && pr != nil {
		return pr.UserID, pr.Role
	}
	return 0, ""
}

// HasPermission checks role -> permissions mapping. Role lookup is
// case-insensitive.
func HasPermission(pr *Principal, permission string, perms Permissions) bool {
	if pr == nil {
		return false
	}
	pList, ok := perms[pr.Role]
	if !ok {
		pList, ok = perms[strings.ToLower(pr.Role)]
	}
	if !ok {
		return false
	}
	for _, p := range pList {
		if p == permission {
			return true
		}
	}
	return false
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
