package submitlock

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
)

const BusyMessage = "Request already in progress"

// Middleware rejects a request with 409 while an identical one from the same
// user (method plus path) is still running. A nil locker lets everything
// through. If Redis cannot be reached the request proceeds unguarded.
func Middleware(l *Locker) func(http.Handler) http.Handler {
	return MiddlewareWithMetrics(l, nil)
}

// RejectionRecorder counts requests turned away by the lock.
type RejectionRecorder interface {
	RecordSubmissionRejected(ctx context.Context, method string)
}

func MiddlewareWithMetrics(l *Locker, metrics RejectionRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := RequestKey(r)
			token, ok, err := l.TryLock(r.Context(), key)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if metrics != nil {
					metrics.RecordSubmissionRejected(r.Context(), r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": BusyMessage,
				})
				return
			}
			defer l.Unlock(context.WithoutCancel(r.Context()), key, token)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestKey identifies the submission: the caller plus method and path.
func RequestKey(r *http.Request) string {
	user := "anonymous"
	if id, role := auth.Actor(r.Context()); id != 0 {
		user = role + ":" + strconv.FormatInt(id, 10)
	}
	return user + ":" + r.Method + ":" + r.URL.Path
}
