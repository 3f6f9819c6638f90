package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/catnav/internal/config"
	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/upstream"
)

const treeJSON = `{"id": 7, "name": "Root", "children": [
	{"id": 1, "name": "Store", "children": [{"id": 10, "name": "Phones"}]},
	{"id": 2, "name": "RFQ"}
]}`

func testConfig(baseURL string) config.CatalogConfig {
	return config.CatalogConfig{
		BaseURL:             baseURL,
		TreePath:            "/category/tree",
		Timeout:             5,
		MaxRetries:          0,
		CircuitBreakerDelay: 60,
		MaxTreeDepth:        8,
	}
}

func TestGetCategoryTree(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/category/tree", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("rootId"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(treeJSON))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Token = "secret"
	c := NewCatalogClient(cfg, nil)

	tree, err := c.GetCategoryTree(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	require.Equal(t, domain.CategoryID(10), tree.Children[0].Children[0].ID)
}

func TestGetCategoryTreeHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewCatalogClient(testConfig(srv.URL), nil).GetCategoryTree(context.Background(), 7)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestThrottlingOpensCircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCatalogClient(testConfig(srv.URL), nil)

	_, err := c.GetCategoryTree(context.Background(), 7)
	require.ErrorIs(t, err, ErrCircuitOpen)

	_, err = c.GetCategoryTree(context.Background(), 7)
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, int32(1), calls.Load(), "open breaker short-circuits requests")
}

func TestThrottlingIsNotRetriedByTransport(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3

	_, err := NewCatalogClient(cfg, nil).GetCategoryTree(context.Background(), 7)
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, int32(1), calls.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(treeJSON))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2

	tree, err := NewCatalogClient(cfg, nil).GetCategoryTree(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
	require.Equal(t, int32(2), calls.Load())
}

func TestThrottlingFailsOverToNextEndpoint(t *testing.T) {
	t.Parallel()

	throttled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer throttled.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(treeJSON))
	}))
	defer ok.Close()

	c := NewCatalogClient(testConfig(""), upstream.NewStaticSupplier(throttled.URL, ok.URL))

	tree, err := c.GetCategoryTree(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tree.Children, 2)
}

func TestMalformedTreeIsReported(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 7, "children": [{"id": 7}]}`))
	}))
	defer srv.Close()

	_, err := NewCatalogClient(testConfig(srv.URL), nil).GetCategoryTree(context.Background(), 7)
	require.ErrorIs(t, err, ErrMalformedTree)
}
