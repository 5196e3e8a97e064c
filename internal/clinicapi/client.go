package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/auth"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

var tracer = otel.Tracer("github.com/WailSalutem-Health-Care/clinic-gateway/clinicapi")

var ErrNoBaseURL = errors.New("clinic API base URL is not configured")

// Client is the typed client for the clinic backend's REST API. Every call
// decodes the response once into typed records and maps failures onto the
// apperror kinds: transport problems become Transport errors and a
// `success: false` answer becomes a Business error carrying the backend's
// message. A failure with no message is a Transport error, so the only
// fallback text shown is apperror.GenericFailureMessage.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// New creates a client. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.Named("clinicapi"),
	}, nil
}

// envelope is the part every backend response shares.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes the response into out when out is not nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}
	return c.send(ctx, method, path, query, reader, "application/json", out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out interface{}) error {
	ctx, span := tracer.Start(ctx, "clinicapi "+method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	status, raw, err := c.exchange(ctx, span, method, path, query, body, contentType)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		span.SetStatus(codes.Error, "decode envelope")
		c.log.Error("clinic API returned a non-JSON body", zap.String("path", path), zap.Int("status", status))
		return apperror.Transport(fmt.Errorf("decode %s %s: %w", method, path, err))
	}

	failed := env.Success != nil && !*env.Success
	if failed || (env.Success == nil && status >= http.StatusBadRequest) {
		if env.Message == "" {
			// Nothing to relay; the user gets the generic failure text.
			span.SetStatus(codes.Error, "failure without message")
			c.log.Error("clinic API failed without a message",
				zap.String("path", path),
				zap.Int("status", status))
			return apperror.Transport(fmt.Errorf("%s %s: status %d without message", method, path, status))
		}
		span.SetStatus(codes.Error, env.Message)
		c.log.Info("clinic API refused request",
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("message", env.Message))
		return apperror.Business(env.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		span.SetStatus(codes.Error, "decode body")
		return apperror.Transport(fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

// exchange performs the HTTP round trip and returns the status and body.
// Only transport failures are errors here.
func (c *Client) exchange(ctx context.Context, span trace.Span, method, path string, query url.Values, body io.Reader, contentType string) (int, []byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if userID, role := auth.Actor(ctx); userID != 0 {
		req.Header.Set("X-Acting-User", strconv.FormatInt(userID, 10))
		req.Header.Set("X-Acting-Role", role)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.String("request.id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.log.Error("clinic API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return 0, nil, apperror.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.Debug("clinic API call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID))
	if err != nil {
		span.SetStatus(codes.Error, "read body")
		return 0, nil, apperror.Transport(fmt.Errorf("read %s %s: %w", method, path, err))
	}
	return resp.StatusCode, raw, nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

func setID(q url.Values, key string, id int64) {
	if id > 0 {
		q.Set(key, strconv.FormatInt(id, 10))
	}
}
