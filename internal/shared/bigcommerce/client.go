package bigcommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/retailops/ticketworker/internal/domain/storefront"
)

var (
	// ErrTransient marks network failures, 429 and 5xx responses.
	ErrTransient = errors.New("bigcommerce: transient error")
	// ErrMalformedResponse marks a body that does not decode.
	ErrMalformedResponse = errors.New("bigcommerce: malformed response")
)

// Options configures a Client.
type Options struct {
	BaseURL       string // e.g. https://api.bigcommerce.com
	StoreHash     string
	AccessToken   string
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	HTTPClient    *http.Client // optional, overrides Timeout
}

// Client reads orders from the BigCommerce v2 REST API.
type Client struct {
	baseURL       string
	token         string
	http          *http.Client
	maxRetries    int
	retryInterval time.Duration
}

// NewClient builds a Client rooted at {BaseURL}/stores/{StoreHash}/v2.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	base := strings.TrimRight(opts.BaseURL, "/") + "/stores/" + url.PathEscape(opts.StoreHash) + "/v2"

	return &Client{
		baseURL:       base,
		token:         opts.AccessToken,
		http:          hc,
		maxRetries:    opts.MaxRetries,
		retryInterval: interval,
	}
}

// FetchOrder retrieves the order and its products, shipping addresses and coupons.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (storefront.OrderDetail, error) {
	var detail storefront.OrderDetail
	id := url.PathEscape(orderID)

	if err := c.getJSON(ctx, "/orders/"+id, &detail.Order); err != nil {
		return storefront.OrderDetail{}, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	if err := c.getJSON(ctx, "/orders/"+id+"/products", &detail.Products); err != nil {
		return storefront.OrderDetail{}, fmt.Errorf("fetch products for order %s: %w", orderID, err)
	}
	if err := c.getJSON(ctx, "/orders/"+id+"/shipping_addresses", &detail.ShippingAddresses); err != nil {
		return storefront.OrderDetail{}, fmt.Errorf("fetch shipping addresses for order %s: %w", orderID, err)
	}
	if err := c.getJSON(ctx, "/orders/"+id+"/coupons", &detail.Coupons); err != nil {
		return storefront.OrderDetail{}, fmt.Errorf("fetch coupons for order %s: %w", orderID, err)
	}

	return detail, nil
}

// getJSON GETs path and decodes the body into out, retrying transient failures.
// A 204 leaves out untouched (the API answers 204 for empty collections).
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-Auth-Token", c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrTransient, err))
			}
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
			}
			return nil
		case resp.StatusCode == http.StatusNoContent:
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(storefront.ErrOrderNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			_, _ = io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("bigcommerce: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInterval
	eb.MaxElapsedTime = 0 // bounded by retries and ctx

	var policy backoff.BackOff = eb
	if c.maxRetries >= 0 {
		policy = backoff.WithMaxRetries(eb, uint64(c.maxRetries))
	}

	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}
