package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/ashendes/restaurant-ordering/internal/patterns"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// Partner API paths
const (
	PathItemList     = "/emulator/interview/get_item_list"
	PathItemByFilter = "/emulator/interview/get_item_by_filter"
	PathItemByID     = "/emulator/interview/get_item_by_id"
	PathMakePayment  = "/emulator/interview/make_payment"
)

// Header names the partner gateway requires
const (
	HeaderAPIKey = "X-Partner-API-Key"
	HeaderAction = "X-Forward-Proxy-Action"
)

const serviceName = "ordering-client"

// Options configures a Client
type Options struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	PaymentTimeout time.Duration
	// Concurrency sizes the catalog bulkhead. Payments always get their own slots.
	Concurrency int
	Breaker     *patterns.BreakerSettings
}

// Client talks to the partner catalog and payment endpoints
type Client struct {
	http            *resty.Client
	baseURL         string
	apiKey          string
	paymentTimeout  time.Duration
	catalogCircuit  *patterns.CircuitBreakerWrapper
	detailCircuit   *patterns.CircuitBreakerWrapper
	paymentCircuit  *patterns.CircuitBreakerWrapper
	catalogBulkhead *patterns.Bulkhead
	detailBulkhead  *patterns.Bulkhead
	paymentBulkhead *patterns.Bulkhead
}

// New validates the base URL and builds a client
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidURL, opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = patterns.DefaultTimeout
	}
	paymentTimeout := opts.PaymentTimeout
	if paymentTimeout <= 0 {
		paymentTimeout = patterns.SlowServiceTimeout
	}
	concurrency := opts.Concurrency
	if concurrency < 10 {
		concurrency = 10
	}
	breaker := patterns.DefaultBreakerSettings
	if opts.Breaker != nil {
		breaker = *opts.Breaker
	}

	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0), // order placement is never retried automatically
		baseURL:         base.String(),
		apiKey:          opts.APIKey,
		paymentTimeout:  paymentTimeout,
		catalogCircuit:  patterns.NewCircuitBreakerWithSettings("Catalog", serviceName, breaker),
		detailCircuit:   patterns.NewCircuitBreakerWithSettings("ItemDetails", serviceName, breaker),
		paymentCircuit:  patterns.NewCircuitBreakerWithSettings("Payment", serviceName, breaker),
		catalogBulkhead: patterns.NewBulkhead(concurrency, "catalog", serviceName),
		detailBulkhead:  patterns.NewBulkhead(concurrency, "item_details", serviceName),
		paymentBulkhead: patterns.NewBulkhead(1, "payment", serviceName).WithWait(patterns.DefaultTimeout),
	}, nil
}

// FetchItemList fetches one catalog page
func (c *Client) FetchItemList(ctx context.Context, page, count int) (*models.ItemListResponse, error) {
	var out models.ItemListResponse
	req := models.ItemListRequest{Page: page, Count: count}
	if err := c.callCatalog(ctx, models.ActionGetItemList, PathItemList, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchItemsByFilter queries the filter endpoint
func (c *Client) FetchItemsByFilter(ctx context.Context, filter models.FilterRequest) (*models.FilterResponse, error) {
	var out models.FilterResponse
	if err := c.callCatalog(ctx, models.ActionGetItemByFilter, PathItemByFilter, filter, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchItemDetails fetches the full record of one item. Detail lookups have
// their own circuit so missing items never open the catalog circuit.
func (c *Client) FetchItemDetails(ctx context.Context, itemID string) (*models.ItemDetailsResponse, error) {
	var out models.ItemDetailsResponse
	req := models.ItemDetailsRequest{ItemID: itemID}
	if err := c.call(ctx, c.detailBulkhead, c.detailCircuit, models.ActionGetItemByID, PathItemByID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MakePayment submits a payment request through the payment circuit and bulkhead
func (c *Client) MakePayment(ctx context.Context, req models.PaymentRequest) (*models.PaymentResponse, error) {
	ctx, cancel := patterns.WithTimeout(ctx, c.paymentTimeout)
	defer cancel()

	var out models.PaymentResponse
	err := c.paymentBulkhead.Execute(ctx, func() error {
		_, cbErr := c.paymentCircuit.Execute(func() (interface{}, error) {
			return nil, c.post(ctx, models.ActionMakePayment, PathMakePayment, req, &out)
		})
		return cbErr
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.TxnRefNo) == "" {
		return nil, fmt.Errorf("%w: make_payment returned no txn_ref_no", models.ErrInvalidResponse)
	}
	return &out, nil
}

// CircuitStatus reports breaker states for the facade
func (c *Client) CircuitStatus() map[string]interface{} {
	return map[string]interface{}{
		"catalog_circuit": map[string]interface{}{
			"name":  "Catalog",
			"state": c.catalogCircuit.GetState(),
			"value": c.catalogCircuit.GetStateValue(),
		},
		"item_details_circuit": map[string]interface{}{
			"name":  "ItemDetails",
			"state": c.detailCircuit.GetState(),
			"value": c.detailCircuit.GetStateValue(),
		},
		"payment_circuit": map[string]interface{}{
			"name":  "Payment",
			"state": c.paymentCircuit.GetState(),
			"value": c.paymentCircuit.GetStateValue(),
		},
	}
}

func (c *Client) callCatalog(ctx context.Context, action, path string, body, out interface{}) error {
	return c.call(ctx, c.catalogBulkhead, c.catalogCircuit, action, path, body, out)
}

func (c *Client) call(ctx context.Context, bulkhead *patterns.Bulkhead, circuit *patterns.CircuitBreakerWrapper, action, path string, body, out interface{}) error {
	return bulkhead.Execute(ctx, func() error {
		_, cbErr := circuit.Execute(func() (interface{}, error) {
			return nil, c.post(ctx, action, path, body, out)
		})
		return cbErr
	})
}

func (c *Client) post(ctx context.Context, action, path string, body, out interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.ObservePartnerCall(action, start, err) }()

	resp, httpErr := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderAPIKey, c.apiKey).
		SetHeader(HeaderAction, action).
		SetBody(body).
		Post(c.baseURL + path)
	if httpErr != nil {
		log.WithField("action", action).Error("Partner request failed: ", httpErr)
		return fmt.Errorf("%w: %s: %w", models.ErrRequestFailed, action, httpErr)
	}
	if resp == nil || resp.RawResponse == nil {
		return fmt.Errorf("%w: %s: no HTTP response", models.ErrInvalidResponse, action)
	}

	raw := resp.Body()
	log.WithFields(log.Fields{
		"action": action,
		"status": resp.StatusCode(),
		"bytes":  len(raw),
	}).Debug("Partner response received")

	if !resp.IsSuccess() {
		return serverError(resp.StatusCode(), raw)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s: empty body", models.ErrInvalidResponse, action)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", models.ErrDecodingFailed, action, err)
	}
	return nil
}

func serverError(status int, raw []byte) error {
	var envelope models.Envelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.ResponseMessage != "" {
		return &models.ServerError{StatusCode: status, Message: envelope.ResponseMessage}
	}
	return &models.ServerError{
		StatusCode: status,
		Message:    fmt.Sprintf("Server returned status code %d", status),
	}
}

// IsServerError reports whether err carries a partner server message
func IsServerError(err error) (*models.ServerError, bool) {
	var se *models.ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
