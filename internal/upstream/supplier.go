package upstream

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// EndpointSupplier hands out catalog base URLs in round-robin order
type EndpointSupplier interface {
	Get() string
}

type endpointSupplier struct {
	endpoints []string
	current   int
	mutex     sync.Mutex
}

// NewEndpointSupplier probes every endpoint's health path in parallel and
// keeps the ones that answer. When none answer, all endpoints are kept so
// requests still go out and fail with a real error.
func NewEndpointSupplier(ctx context.Context, endpoints []string, healthPath string) EndpointSupplier {
	if len(endpoints) == 0 {
		return &endpointSupplier{}
	}

	log.Infof("🔄 Probing %d catalog endpoints...", len(endpoints))

	healthy := make([]bool, len(endpoints))
	semaphore := make(chan struct{}, 8)
	var wg sync.WaitGroup

	for i, endpoint := range endpoints {
		wg.Add(1)

		go func(index int, endpoint string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			healthy[index] = isEndpointHealthy(ctx, endpoint, healthPath)
			if healthy[index] {
				log.Infof("✅ Catalog endpoint %s is healthy", endpoint)
			} else {
				log.Warnf("❌ Catalog endpoint %s failed its health check", endpoint)
			}
		}(i, endpoint)
	}

	wg.Wait()

	// Keep configured order so round-robin is deterministic.
	valid := make([]string, 0, len(endpoints))
	for i, endpoint := range endpoints {
		if healthy[i] {
			valid = append(valid, endpoint)
		}
	}

	if len(valid) == 0 {
		log.Warnf("⚠️ No catalog endpoint passed its health check, using all %d", len(endpoints))
		valid = append(valid, endpoints...)
	}

	log.Infof("✅ EndpointSupplier initialized with %d of %d endpoints", len(valid), len(endpoints))

	return &endpointSupplier{endpoints: valid}
}

// NewStaticSupplier rotates over endpoints without probing them.
func NewStaticSupplier(endpoints ...string) EndpointSupplier {
	return &endpointSupplier{endpoints: append([]string(nil), endpoints...)}
}

// Get returns the next endpoint, or "" when none are configured
func (s *endpointSupplier) Get() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.endpoints) == 0 {
		return ""
	}

	endpoint := s.endpoints[s.current]
	s.current = (s.current + 1) % len(s.endpoints)

	return endpoint
}

func isEndpointHealthy(ctx context.Context, endpoint, healthPath string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0)

	url := strings.TrimRight(endpoint, "/") + "/" + strings.TrimLeft(healthPath, "/")
	resp, err := client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		log.Debugf("Health check failed for %s: %v", endpoint, err)
		return false
	}

	if resp.IsError() {
		log.Debugf("Health check failed for %s with status: %s", endpoint, resp.Status())
		return false
	}

	return true
}
