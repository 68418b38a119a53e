package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/ratelimit"

	"github.com/zhandoubo/cloudmetrics/log"
)

const defaultUploadRateLimit = 50

func init() {
	RegisterTransport("http", func(cfg map[string]any) (Transport, error) {
		httpCfg := HTTPTransportConfig{}
		if v, ok := cfg["endpoint"].(string); ok {
			httpCfg.Endpoint = v
		}
		if v, ok := cfg["consulAddress"].(string); ok {
			httpCfg.ConsulAddress = v
		}
		if v, ok := cfg["consulService"].(string); ok {
			httpCfg.ConsulService = v
		}
		if v, ok := cfg["rateLimit"].(int); ok {
			httpCfg.RateLimit = v
		}
		return NewHTTPTransport(httpCfg)
	})
}

// HTTPTransportConfig configures the HTTP transport. Either a static
// Endpoint or a Consul service name must be provided; when both are set the
// static endpoint wins.
type HTTPTransportConfig struct {
	// Endpoint is the full URL batches are POSTed to.
	Endpoint string `mapstructure:"endpoint"`

	// ConsulAddress is the address of a Consul agent used to discover the
	// upload endpoint when Endpoint is empty.
	ConsulAddress string `mapstructure:"consulAddress"`

	// ConsulService is the Consul service name resolved to an endpoint.
	ConsulService string `mapstructure:"consulService"`

	// RateLimit caps uploads per second on this transport. Zero selects the
	// default.
	RateLimit int `mapstructure:"rateLimit"`
}

// HTTPTransport delivers batches as JSON POST requests. Uploads are paced by
// a leaky-bucket limiter so a large flush cannot burst past the remote
// store's request rate limits.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	limiter  ratelimit.Limiter
	logger   *log.ScopedLogger
}

// NewHTTPTransport creates an HTTP transport, resolving the endpoint through
// Consul when no static endpoint is configured.
func NewHTTPTransport(cfg HTTPTransportConfig) (*HTTPTransport, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.ConsulService == "" {
			return nil, fmt.Errorf("http transport requires an endpoint or a consul service")
		}
		resolved, err := resolveConsulEndpoint(cfg.ConsulAddress, cfg.ConsulService)
		if err != nil {
			return nil, fmt.Errorf("resolve upload endpoint: %w", err)
		}
		endpoint = resolved
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = defaultUploadRateLimit
	}

	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  ratelimit.New(rps),
		logger:   log.NewScopedLogger(nil, "http-transport"),
	}, nil
}

// resolveConsulEndpoint picks the first healthy instance of the service.
func resolveConsulEndpoint(address, service string) (string, error) {
	consulCfg := consulapi.DefaultConfig()
	if address != "" {
		consulCfg.Address = address
	}

	client, err := consulapi.NewClient(consulCfg)
	if err != nil {
		return "", err
	}

	entries, _, err := client.Health().Service(service, "", true, nil)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no healthy instances for service %q", service)
	}

	svc := entries[0].Service
	addr := svc.Address
	if addr == "" {
		addr = entries[0].Node.Address
	}
	return fmt.Sprintf("http://%s:%d/metrics", addr, svc.Port), nil
}

// Upload starts one asynchronous batch delivery.
func (t *HTTPTransport) Upload(ctx context.Context, batch *Batch) <-chan error {
	done := make(chan error, 1)

	go func() {
		defer close(done)
		done <- t.send(ctx, batch)
	}()

	return done
}

func (t *HTTPTransport) send(ctx context.Context, batch *Batch) error {
	t.limiter.Take()

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("upload rejected with status %d", res.StatusCode)
	}

	t.logger.Debug().
		Str("endpoint", t.endpoint).
		Int("data", len(batch.Data)).
		Msg("batch uploaded")
	return nil
}

// Close releases idle connections held by the underlying client.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
