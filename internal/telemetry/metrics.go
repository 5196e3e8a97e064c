package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the gateway's custom instruments.
type Metrics struct {
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	StatusTransitionsTotal   metric.Int64Counter
	ConsultationsTotal       metric.Int64Counter
	AttachmentsSkippedTotal  metric.Int64Counter
	SubmissionsRejectedTotal metric.Int64Counter

	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// InitMetrics registers the instruments on the global meter provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/WailSalutem-Health-Care/clinic-gateway")
	var err error
	m := &Metrics{}

	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return c
	}
	histogram := func(name, desc string) metric.Float64Histogram {
		if err != nil {
			return nil
		}
		var h metric.Float64Histogram
		h, err = meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("ms"))
		return h
	}

	m.HTTPRequestsTotal = counter("http_server_requests_total", "Total number of HTTP requests", "{request}")
	m.HTTPDurationMs = histogram("http_server_duration_milliseconds", "HTTP request duration in milliseconds")
	m.StatusTransitionsTotal = counter("appointment_status_transitions_total", "Appointment status changes accepted by the clinic backend", "{transition}")
	m.ConsultationsTotal = counter("consultations_created_total", "Consultations created", "{consultation}")
	m.AttachmentsSkippedTotal = counter("lab_attachments_skipped_total", "Lab result files left out after a failed upload", "{file}")
	m.SubmissionsRejectedTotal = counter("submissions_rejected_total", "Requests turned away while an identical one was in flight", "{request}")
	m.AuthFailuresTotal = counter("auth_failures_total", "Total number of authentication failures", "{failure}")
	m.PermissionCheckDuration = histogram("permission_check_duration_ms", "Permission check duration in milliseconds")
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPDurationMs.Record(ctx, durationMs, attrs)
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.StatusTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) RecordConsultationCreated(ctx context.Context, withAppointment bool) {
	m.ConsultationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("with_appointment", withAppointment),
	))
}

func (m *Metrics) RecordAttachmentSkipped(ctx context.Context) {
	m.AttachmentsSkippedTotal.Add(ctx, 1)
}

func (m *Metrics) RecordSubmissionRejected(ctx context.Context, method string) {
	m.SubmissionsRejectedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("http_method", method)))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
