package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/activity"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/appointment"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/patient"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/submitlock"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPermissions = `
roles:
  admin: [appointment:view, appointment:delete, activity:view, patient:view]
  doctor: [appointment:view, appointment:delete, patient:view]
  patient: [appointment:view]
`

// fakeBackend answers the clinic API calls the routed handlers make.
type fakeBackend struct {
	mu         sync.Mutex
	lastFilter appointment.ListFilter
}

func (f *fakeBackend) filter() appointment.ListFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFilter
}

func (f *fakeBackend) ListAppointments(ctx context.Context, filter appointment.ListFilter) ([]appointment.Appointment, error) {
	f.mu.Lock()
	f.lastFilter = filter
	f.mu.Unlock()
	return []appointment.Appointment{
		{ID: 1, PatientID: 3, DoctorID: 4, ScheduledAt: "2099-01-01 09:00:00", Status: appointment.StatusScheduled},
		{ID: 2, PatientID: 3, DoctorID: 4, ScheduledAt: "2020-01-01 09:00:00", Status: appointment.StatusCompleted},
	}, nil
}

func (f *fakeBackend) GetAppointment(ctx context.Context, id int64) (*appointment.Appointment, error) {
	return &appointment.Appointment{ID: id, PatientID: 3, DoctorID: 4, Status: appointment.StatusScheduled}, nil
}

func (f *fakeBackend) CreateAppointment(ctx context.Context, req appointment.CreateRequest) (*appointment.Appointment, error) {
	return nil, apperror.Business("not used")
}

func (f *fakeBackend) UpdateAppointment(ctx context.Context, id int64, req appointment.UpdateRequest) (*appointment.Appointment, error) {
	return nil, apperror.Business("not used")
}

func (f *fakeBackend) DeleteAppointment(ctx context.Context, id int64) error {
	return nil
}

func (f *fakeBackend) ListPatients(ctx context.Context, search string) ([]patient.Patient, error) {
	return []patient.Patient{{ID: 3, Name: "Ana"}}, nil
}

func (f *fakeBackend) GetPatient(ctx context.Context, id int64) (*patient.Patient, error) {
	return &patient.Patient{ID: id, AccountStatus: patient.AccountActive}, nil
}

func (f *fakeBackend) ListActivity(ctx context.Context, actionType string) ([]activity.Entry, error) {
	return []activity.Entry{{ID: 1, ActionType: "login"}}, nil
}

type recordingMetrics struct {
	mu           sync.Mutex
	routes       []string
	authFailures int
	rejected     int
	denied       int
}

func (m *recordingMetrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, method+" "+route)
}

func (m *recordingMetrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailures++
}

func (m *recordingMetrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !allowed {
		m.denied++
	}
}

func (m *recordingMetrics) RecordSubmissionRejected(ctx context.Context, method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected++
}

type metricCounts struct {
	routes       []string
	authFailures int
	rejected     int
	denied       int
}

func (m *recordingMetrics) snapshot() metricCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return metricCounts{
		routes:       append([]string(nil), m.routes...),
		authFailures: m.authFailures,
		rejected:     m.rejected,
		denied:       m.denied,
	}
}

type testServer struct {
	url      string
	verifier *auth.Verifier
	backend  *fakeBackend
	metrics  *recordingMetrics
	locker   *submitlock.Locker
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	perms, err := auth.ParsePermissions([]byte(testPermissions))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ts := &testServer{
		verifier: testutil.NewTestVerifier(t),
		backend:  &fakeBackend{},
		metrics:  &recordingMetrics{},
		locker:   submitlock.New(client, time.Minute, zap.NewNop()),
	}
	logger := zap.NewNop()
	router := SetupRouter(Dependencies{
		Verifier:     ts.verifier,
		Permissions:  perms,
		Locker:       ts.locker,
		Metrics:      ts.metrics,
		Logger:       logger,
		Appointments: appointment.NewHandler(appointment.NewService(ts.backend, ts.backend, nil, logger)),
		Patients:     patient.NewHandler(patient.NewService(ts.backend, logger)),
		Activity:     activity.NewHandler(activity.NewService(ts.backend, logger)),
	})
	srv := httptest.NewServer(CORSMiddleware(router))
	t.Cleanup(srv.Close)
	ts.url = srv.URL
	return ts
}

func (ts *testServer) client(t *testing.T, userID int64, role string) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(ts.url, testutil.SessionToken(t, ts.verifier, userID, role))
}

func TestRouter_HealthIsPublic(t *testing.T) {
	ts := setupServer(t)
	resp := testutil.NewHTTPTestClient(ts.url, "").GET(t, "/health")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestRouter_RequiresSession(t *testing.T) {
	ts := setupServer(t)
	resp := testutil.NewHTTPTestClient(ts.url, "").GET(t, "/appointments")
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = testutil.NewHTTPTestClient(ts.url, "not-a-token").GET(t, "/appointments")
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
	assert.Equal(t, 2, ts.metrics.snapshot().authFailures)
}

func TestRouter_DoctorListsOwnAppointments(t *testing.T) {
	ts := setupServer(t)

	resp := ts.client(t, 4, auth.RoleDoctor).GET(t, "/appointments?view=upcoming")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body appointment.ListResult
	testutil.DecodeJSON(t, resp, &body)

	require.Len(t, body.Appointments, 1)
	assert.Equal(t, int64(1), body.Appointments[0].ID)
	assert.Equal(t, int64(4), ts.backend.filter().DoctorID)
	assert.Contains(t, ts.metrics.snapshot().routes, "GET /appointments")
}

func TestRouter_StatsIsNotAnID(t *testing.T) {
	ts := setupServer(t)

	resp := ts.client(t, 4, auth.RoleDoctor).GET(t, "/appointments/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body appointment.StatsResponse
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, 2, body.Stats.Total)
	assert.Contains(t, ts.metrics.snapshot().routes, "GET /appointments/stats")
}

func TestRouter_PermissionDenied(t *testing.T) {
	ts := setupServer(t)

	resp := ts.client(t, 3, auth.RolePatient).GET(t, "/activity-logs")
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)
	resp.Body.Close()
	assert.Equal(t, 1, ts.metrics.snapshot().denied)

	resp = ts.client(t, 1, auth.RoleAdmin).GET(t, "/activity-logs?action_type=login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body activity.ListResponse
	testutil.DecodeJSON(t, resp, &body)
	assert.Len(t, body.Logs, 1)
}

func TestRouter_DuplicateSubmissionRejected(t *testing.T) {
	ts := setupServer(t)

	held := httptest.NewRequest(http.MethodDelete, "/appointments/1", nil)
	held = held.WithContext(auth.ContextAs(held.Context(), 4, auth.RoleDoctor))
	token, ok, err := ts.locker.TryLock(context.Background(), submitlock.RequestKey(held))
	require.NoError(t, err)
	require.True(t, ok)

	c := ts.client(t, 4, auth.RoleDoctor)
	resp := c.DELETE(t, "/appointments/1")
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	resp.Body.Close()
	assert.Equal(t, 1, ts.metrics.snapshot().rejected)

	require.NoError(t, ts.locker.Unlock(context.Background(), submitlock.RequestKey(held), token))
	resp = c.DELETE(t, "/appointments/1")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestCORSPreflight(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://clinic.test")
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/appointments", nil)
	req.Header.Set("Origin", "http://clinic.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://clinic.test", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/appointments", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
