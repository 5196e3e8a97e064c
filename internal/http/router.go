package http

import (
	"context"
	"net/http"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/activity"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/submitlock"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// Metrics is what the router records. *telemetry.Metrics satisfies it.
type Metrics interface {
	auth.MetricsRecorder
	auth.PermissionMetricsRecorder
	submitlock.RejectionRecorder
	RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64)
}

// Dependencies are the handlers and middleware inputs the router wires.
type Dependencies struct {
	ServiceName  string
	Verifier     auth.TokenVerifier
	Permissions  auth.Permissions
	Locker       *submitlock.Locker
	Metrics      Metrics
	Logger       *zap.Logger
	Auth         *auth.Handler
	Appointments *appointment.Handler
	Consultation *consultation.Handler
	Patients     *patient.Handler
	Activity     *activity.Handler
}

// SetupRouter initializes all routes for the application
func SetupRouter(d Dependencies) *mux.Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.ServiceName == "" {
		d.ServiceName = "clinic-gateway"
	}

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(d.ServiceName))
	if d.Metrics != nil {
		r.Use(metricsMiddleware(d.Metrics))
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"` + d.ServiceName + `"}`))
	}).Methods("GET")

	if d.Auth != nil {
		r.HandleFunc("/auth/login", d.Auth.Login).Methods("POST")
	}

	var authMetrics auth.MetricsRecorder
	var permMetrics auth.PermissionMetricsRecorder
	var lockMetrics submitlock.RejectionRecorder
	if d.Metrics != nil {
		authMetrics, permMetrics, lockMetrics = d.Metrics, d.Metrics, d.Metrics
	}
	authn := auth.MiddlewareWithMetrics(d.Verifier, d.Logger, authMetrics)
	lock := submitlock.MiddlewareWithMetrics(d.Locker, lockMetrics)

	// read wraps a handler with authentication and a permission check;
	// write additionally takes the submission lock.
	read := func(permission string, h http.HandlerFunc) http.Handler {
		return authn(auth.RequirePermissionWithMetrics(permission, d.Permissions, permMetrics)(h))
	}
	write := func(permission string, h http.HandlerFunc) http.Handler {
		return authn(auth.RequirePermissionWithMetrics(permission, d.Permissions, permMetrics)(lock(h)))
	}

	if a := d.Appointments; a != nil {
		r.Handle("/appointments", read("appointment:view", a.ListAppointments)).Methods("GET")
		r.Handle("/appointments/stats", read("appointment:view", a.GetStats)).Methods("GET")
		r.Handle("/appointments/{id:[0-9]+}", read("appointment:view", a.GetAppointment)).Methods("GET")
		r.Handle("/appointments", write("appointment:create", a.CreateAppointment)).Methods("POST")
		r.Handle("/appointments/{id:[0-9]+}", write("appointment:update", a.UpdateAppointment)).Methods("PUT")
		r.Handle("/appointments/{id:[0-9]+}", write("appointment:delete", a.DeleteAppointment)).Methods("DELETE")
	}

	if c := d.Consultation; c != nil {
		r.Handle("/appointments/{id:[0-9]+}/status", write("appointment:update_status", c.ChangeStatus)).Methods("POST")
		r.Handle("/appointments/{id:[0-9]+}/consultation-form", read("consultation:create", c.ConsultationForm)).Methods("GET")
		r.Handle("/consultations", write("consultation:create", c.CreateConsultation)).Methods("POST")
		r.Handle("/consultations/{id:[0-9]+}", read("consultation:view", c.GetConsultation)).Methods("GET")
		r.Handle("/consultations/{id:[0-9]+}", write("consultation:update", c.UpdateConsultation)).Methods("PUT")
		r.Handle("/consultations/{id:[0-9]+}", write("consultation:delete", c.DeleteConsultation)).Methods("DELETE")
		r.Handle("/consultations/{id:[0-9]+}/prescriptions", write("consultation:update", c.AddPrescription)).Methods("POST")
		r.Handle("/prescriptions/{id:[0-9]+}", write("consultation:update", c.UpdatePrescription)).Methods("PUT")
		r.Handle("/prescriptions/{id:[0-9]+}", write("consultation:update", c.DeletePrescription)).Methods("DELETE")
		r.Handle("/consultations/{id:[0-9]+}/lab-results", write("consultation:update", c.AddLabResult)).Methods("POST")
		r.Handle("/lab-results/{id:[0-9]+}", write("consultation:update", c.UpdateLabResult)).Methods("PUT")
		r.Handle("/lab-results/{id:[0-9]+}", write("consultation:update", c.DeleteLabResult)).Methods("DELETE")
		r.Handle("/patients/{id:[0-9]+}/records", read("record:view", c.PatientRecords)).Methods("GET")
	}

	if p := d.Patients; p != nil {
		r.Handle("/patients", read("patient:view", p.ListPatients)).Methods("GET")
		r.Handle("/patients/{id:[0-9]+}", read("patient:view", p.GetPatient)).Methods("GET")
	}

	if a := d.Activity; a != nil {
		r.Handle("/activity-logs", read("activity:view", a.ListActivity)).Methods("GET")
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request count and latency per route template.
func metricsMiddleware(m Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.RecordHTTPRequest(r.Context(), r.Method, route, rec.status, float64(time.Since(start).Microseconds())/1000)
		})
	}
}
