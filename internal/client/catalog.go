package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/catnav/internal/config"
	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/upstream"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var ErrCircuitOpen = errors.New("catalog circuit breaker is open")

type CatalogClient interface {
	GetCategoryTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error)
}

type catalogClient struct {
	rl         ratelimit.Limiter
	config     config.CatalogConfig
	httpClient *resty.Client
	decoder    *treeDecoder
	endpoints  upstream.EndpointSupplier

	// Circuit breaker for throttled catalog responses
	circuitBreakerMutex sync.RWMutex
	throttledUntil      time.Time
	circuitBreakerDelay time.Duration
}

func NewCatalogClient(cfg config.CatalogConfig, endpoints upstream.EndpointSupplier) CatalogClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetRetryDefaultConditions(false).
		AddRetryConditions(retryable).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "catnav/1.0")

	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	delay := time.Duration(cfg.CircuitBreakerDelay) * time.Second
	if delay <= 0 {
		delay = time.Minute
	}

	return &catalogClient{
		rl:                  rl,
		config:              cfg,
		httpClient:          client,
		decoder:             newTreeDecoder(cfg.MaxTreeDepth, cfg.MaxTreeNodes),
		endpoints:           endpoints,
		circuitBreakerDelay: delay,
	}
}

// retryable retries transport failures and 5xx answers. A 429 is left to
// the failover and circuit breaker in fetch.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == 0 || (code >= http.StatusInternalServerError && code != http.StatusNotImplemented)
}

func (c *catalogClient) GetCategoryTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error) {
	body, err := c.fetch(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category tree %d: %w", rootID, err)
	}

	tree, err := c.decoder.Decode(body, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode category tree %d: %w", rootID, err)
	}

	log.Debugf("Successfully fetched category tree %d with %d top-level entries", rootID, len(tree.Children))
	return tree, nil
}

func (c *catalogClient) baseURL() string {
	if c.endpoints != nil {
		if endpoint := c.endpoints.Get(); endpoint != "" {
			return endpoint
		}
	}
	return c.config.BaseURL
}

func (c *catalogClient) treeURL(base string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(c.config.TreePath, "/")
}

func (c *catalogClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.throttledUntil)
	wasTriggered := !c.throttledUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.throttledUntil.IsZero() && now.After(c.throttledUntil) {
			c.throttledUntil = time.Time{}
			log.Infof("✅ Catalog circuit breaker closed - requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *catalogClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.throttledUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Catalog circuit breaker opened until %v", c.throttledUntil.Format("15:04:05"))
}

func (c *catalogClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.throttledUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *catalogClient) get(ctx context.Context, url string, rootID domain.CategoryID) (*resty.Response, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("rootId", strconv.FormatInt(int64(rootID), 10)).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	return resp, nil
}

func (c *catalogClient) fetch(ctx context.Context, rootID domain.CategoryID) ([]byte, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.remainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return nil, fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	url := c.treeURL(c.baseURL())
	resp, err := c.get(ctx, url, rootID)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Catalog throttled request: %s", url)

		// One immediate retry on the next endpoint before giving up.
		if c.endpoints != nil {
			if next := c.treeURL(c.baseURL()); next != url {
				log.Infof("🔄 Retrying on %s", next)
				retryResp, retryErr := c.get(ctx, next, rootID)
				if retryErr == nil && !retryResp.IsError() {
					log.Infof("✅ Retry successful on %s", next)
					return []byte(retryResp.String()), nil
				}
			}
		}

		c.triggerCircuitBreaker()
		return nil, fmt.Errorf("%w: catalog throttled requests", ErrCircuitOpen)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	return []byte(resp.String()), nil
}
