package client

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
	"sync"
	"time"

	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"github.com/smallbiznis/creditgate/internal/clock"
	"github.com/smallbiznis/creditgate/internal/config"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	obstracing "github.com/smallbiznis/creditgate/internal/observability/tracing"
	"go.uber.org/zap"
)

const (
	pricingModelPath = "/api/v1/pricing-model"
	customersPath    = "/api/v1/customers/"
	eventsPath       = "/api/v1/events"
	statusPath       = "/api/v1/status"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

type Client struct {
	baseURL string
	apiKey  string
	offline bool
	http    *http.Client
	log     *zap.Logger
	clock   clock.Clock

	mu     sync.RWMutex
	limits map[string]atlasdomain.LimitFunc

	queue *eventQueue
}

// New builds a vendor client. An empty API key is rejected unless the
// client runs offline, in which case every vendor call returns ErrOffline.
func New(cfg config.AtlasConfig, log *zap.Logger, clk clock.Clock) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && !cfg.Offline {
		return nil, atlasdomain.ErrMissingAPIKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  apiKey,
		offline: cfg.Offline,
		http:    &http.Client{Timeout: timeout, Transport: obstracing.WrapVendorTransport(nil)},
		log:     log.Named("atlas.client"),
		clock:   clk,
		limits:  make(map[string]atlasdomain.LimitFunc),
	}
	c.queue = newEventQueue(cfg.EventsFlushAt, cfg.EventsFlushInterval, c.sendEvents, c.log)
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }
func (c *Client) APIKey() string  { return c.apiKey }
func (c *Client) Offline() bool   { return c.offline }

// RegisterLimit installs the usage callback for featureID, replacing any
// previous one.
func (c *Client) RegisterLimit(featureID string, fn atlasdomain.LimitFunc) {
	featureID = strings.TrimSpace(featureID)
	if featureID == "" || fn == nil {
		return
	}
	c.mu.Lock()
	c.limits[featureID] = fn
	c.mu.Unlock()
}

func (c *Client) GetPricingModel(ctx context.Context) (*entitlementdomain.PricingModel, error) {
	body, err := c.do(ctx, http.MethodGet, pricingModelPath, nil)
	if err != nil {
		return nil, err
	}
	return entitlementdomain.ParsePricingModel(body)
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*entitlementdomain.CustomerInfo, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, atlasdomain.ErrInvalidRequest
	}
	body, err := c.do(ctx, http.MethodGet, customersPath+url.PathEscape(customerID), nil)
	if err != nil {
		return nil, err
	}
	return entitlementdomain.ParseCustomer(body)
}

// AreFeaturesAllowed asks the vendor whether customerID may use featureIDs.
// Current usage from registered limit callbacks is sent along; a failing
// callback reports zero usage rather than failing the check.
func (c *Client) AreFeaturesAllowed(ctx context.Context, customerID string, featureIDs []string) (atlasdomain.FeaturesAllowed, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || len(featureIDs) == 0 {
		return atlasdomain.FeaturesAllowed{}, atlasdomain.ErrInvalidRequest
	}

	usage := c.collectUsage(ctx, customerID, featureIDs)
	path := customersPath + url.PathEscape(customerID) + "/features/check"
	body, err := c.do(ctx, http.MethodPost, path, atlasdomain.NewFeatureCheckRequest(featureIDs, usage))
	if err != nil {
		return atlasdomain.FeaturesAllowed{}, err
	}

	var result atlasdomain.FeaturesAllowed
	if err := json.Unmarshal(body, &result); err != nil {
		return atlasdomain.FeaturesAllowed{}, fmt.Errorf("%w: decode feature check: %v", atlasdomain.ErrUnavailable, err)
	}
	if result.Features == nil {
		result.Features = map[string]bool{}
	}
	return result, nil
}

func (c *Client) collectUsage(ctx context.Context, customerID string, featureIDs []string) map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var usage map[string]int64
	for _, featureID := range featureIDs {
		fn, ok := c.limits[featureID]
		if !ok {
			continue
		}
		if usage == nil {
			usage = make(map[string]int64)
		}
		count, err := fn(ctx, customerID)
		if err != nil {
			obslogger.WithContext(ctx, c.log).Warn("limit callback failed",
				zap.String("feature", featureID),
				zap.Error(err),
			)
			count = 0
		}
		usage[featureID] = count
	}
	return usage
}

// EnqueueFeatureEvents queues one event per feature. Reaching the flush
// threshold flushes synchronously and returns the flush error.
func (c *Client) EnqueueFeatureEvents(ctx context.Context, events atlasdomain.FeatureEvents) error {
	customerID := strings.TrimSpace(events.CustomerID)
	if customerID == "" || len(events.FeatureIDs) == 0 || events.Quantity < 0 {
		return atlasdomain.ErrInvalidRequest
	}
	quantity := events.Quantity
	if quantity == 0 {
		quantity = 1
	}

	now := c.clock.Now()
	batch := make([]atlasdomain.FeatureEvent, 0, len(events.FeatureIDs))
	for _, featureID := range events.FeatureIDs {
		featureID = strings.TrimSpace(featureID)
		if featureID == "" {
			return atlasdomain.ErrInvalidRequest
		}
		batch = append(batch, atlasdomain.FeatureEvent{
			ID:         newEventID(now),
			FeatureID:  featureID,
			CustomerID: customerID,
			Quantity:   quantity,
			Timestamp:  now,
		})
	}

	if c.queue.enqueue(batch) {
		return c.queue.flush(ctx)
	}
	return nil
}

func (c *Client) FlushEvents(ctx context.Context) error {
	return c.queue.flush(ctx)
}

// Status returns the vendor status endpoint response as-is, including
// non-2xx codes.
func (c *Client) Status(ctx context.Context) (*atlasdomain.Status, error) {
	resp, err := c.send(ctx, http.MethodGet, statusPath, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlasdomain.ErrUnavailable, err)
	}
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		body = quoted
	}
	return &atlasdomain.Status{StatusCode: resp.StatusCode, Body: body}, nil
}

// Start begins interval flushing.
func (c *Client) Start() { c.queue.start() }

// Stop halts interval flushing and flushes what is left.
func (c *Client) Stop(ctx context.Context) error { return c.queue.stop(ctx) }

func (c *Client) sendEvents(ctx context.Context, events []atlasdomain.FeatureEvent) error {
	_, err := c.do(ctx, http.MethodPost, eventsPath, atlasdomain.NewEventsRequest(events))
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", atlasdomain.ErrUnavailable, err)
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	if c.offline {
		return nil, atlasdomain.ErrOffline
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", atlasdomain.ErrUnavailable, err)
	}
	return resp, nil
}

type errorResponse struct {
	Error   any    `json:"error"`
	Message string `json:"message"`
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := ""
	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch v := payload.Error.(type) {
		case string:
			message = v
		case map[string]any:
			if m, ok := v["message"].(string); ok {
				message = m
			}
		}
		if message == "" {
			message = payload.Message
		}
	}

	var kind error
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = atlasdomain.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		kind = atlasdomain.ErrNotFound
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		kind = atlasdomain.ErrUnavailable
	default:
		kind = atlasdomain.ErrInvalidRequest
	}
	return atlasdomain.NewAPIError(resp.StatusCode, strings.TrimSpace(message), kind)
}

var _ atlasdomain.Client = (*Client)(nil)
var _ entitlementdomain.Source = (*Client)(nil)
