package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-Id"

// ErrNoServiceURL is returned when the client has no endpoint configured.
var ErrNoServiceURL = errors.New("kernel service URL not configured")

// ServiceError is a non-2xx answer from the service.
type ServiceError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("kernel service: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying may succeed.
func (e *ServiceError) Temporary() bool { return e.StatusCode >= 500 }

// Observer receives one call per completed attempt. Status is the HTTP
// status code, or "error" for transport failures.
type Observer interface {
	KernelRequest(status string)
}

// Config configures a Client.
type Config struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"-"`
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:         2 * time.Minute,
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Client submits conversion requests.
type Client struct {
	config   Config
	client   *http.Client
	logger   *zap.Logger
	observer Observer
}

// NewClient creates a client. A nil logger discards output.
func NewClient(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = DefaultConfig().InitialInterval
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// SetObserver installs a per-attempt observer.
func (c *Client) SetObserver(o Observer) { c.observer = o }

// Convert posts req to <url>/convert/<format> and returns the converted
// bytes. Transport errors and 5xx answers are retried with exponential
// backoff; other failures are returned at once.
func (c *Client) Convert(ctx context.Context, req *Request) ([]byte, error) {
	if c.config.URL == "" {
		return nil, ErrNoServiceURL
	}
	endpoint, err := url.JoinPath(c.config.URL, "convert", url.PathEscape(req.Format))
	if err != nil {
		return nil, fmt.Errorf("building endpoint: %w", err)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	requestID := uuid.NewString()
	log := c.logger.With(zap.String("request_id", requestID), zap.String("format", req.Format))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialInterval

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		data, err := c.post(ctx, endpoint, requestID, payload)
		if err == nil {
			return data, nil
		}
		var se *ServiceError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		log.Warn("kernel request failed", zap.Int("attempt", attempt), zap.Error(err))
		return nil, err
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
	)
	if err != nil {
		return nil, fmt.Errorf("converting to %s: %w", req.Format, err)
	}
	log.Debug("kernel conversion done", zap.Int("attempts", attempt), zap.Int("bytes", len(data)))
	return data, nil
}

func (c *Client) post(ctx context.Context, endpoint, requestID string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.observe("error")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	c.observe(fmt.Sprint(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.Status),
			RequestID:  requestID,
		}
	}
	return body, nil
}

func (c *Client) observe(status string) {
	if c.observer != nil {
		c.observer.KernelRequest(status)
	}
}

// errorMessage extracts {"error": "..."} from body, falling back to the
// trimmed body or the status line.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 512 {
		return s
	}
	return status
}
