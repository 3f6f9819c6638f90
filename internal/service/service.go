package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/catnav/internal/client"
	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/menu"
	"storefront/catnav/internal/queue"
	"storefront/catnav/internal/repository"
	"storefront/catnav/internal/state"

	"golang.org/x/sync/singleflight"
)

var (
	ErrUnknownRoot      = errors.New("unknown menu root")
	ErrCategoryNotFound = errors.New("category not found in menu tree")
	ErrSessionNotFound  = errors.New("navigation session not found")
	ErrInvalidEvent     = errors.New("invalid navigation event")
	ErrInvalidPath      = errors.New("invalid category path")
)

// Options configures a Service.
type Options struct {
	Roots              map[domain.MenuRoot]domain.CategoryID
	Icons              *menu.IconSet
	Gated              map[string]string // entry name -> required permission
	TreeTTL            time.Duration
	GroupName          string
	MinIdleTime        time.Duration
	SessionIdleTimeout time.Duration
}

type Service struct {
	repository repository.SelectionRepository
	client     client.CatalogClient
	queue      queue.Queue
	cache      state.TreeCache

	roots              map[domain.MenuRoot]domain.CategoryID
	icons              *menu.IconSet
	gated              map[string]string
	treeTTL            time.Duration
	groupName          string
	minIdleTime        time.Duration
	sessionIdleTimeout time.Duration

	fetches singleflight.Group
	treesMu sync.RWMutex
	trees   map[domain.MenuRoot]*loadedTree

	sessionsMu sync.RWMutex
	sessions   map[string]*session

	now func() time.Time
}

// NewService wires the navigation service. queue and cache may be nil, in
// which case commits are not published and trees are only kept in memory.
func NewService(
	repository repository.SelectionRepository,
	client client.CatalogClient,
	queue queue.Queue,
	cache state.TreeCache,
	opts Options,
) *Service {
	gated := make(map[string]string, len(opts.Gated))
	for name, perm := range opts.Gated {
		gated[strings.ToLower(strings.TrimSpace(name))] = perm
	}
	if opts.TreeTTL <= 0 {
		opts.TreeTTL = 5 * time.Minute
	}
	if opts.SessionIdleTimeout <= 0 {
		opts.SessionIdleTimeout = 30 * time.Minute
	}
	if opts.MinIdleTime <= 0 {
		opts.MinIdleTime = 2 * time.Minute
	}

	return &Service{
		repository:         repository,
		client:             client,
		queue:              queue,
		cache:              cache,
		roots:              opts.Roots,
		icons:              opts.Icons,
		gated:              gated,
		treeTTL:            opts.TreeTTL,
		groupName:          opts.GroupName,
		minIdleTime:        opts.MinIdleTime,
		sessionIdleTimeout: opts.SessionIdleTimeout,
		trees:              make(map[domain.MenuRoot]*loadedTree),
		sessions:           make(map[string]*session),
		now:                time.Now,
	}
}

// Permissions is the set of permission flags granted to the caller.
type Permissions map[string]struct{}

func NewPermissions(names ...string) Permissions {
	p := make(Permissions, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			p[n] = struct{}{}
		}
	}
	return p
}

func (p Permissions) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// allowed reports whether an entry named name may be shown.
func (s *Service) allowed(name string, perms Permissions) bool {
	perm, gated := s.gated[strings.ToLower(strings.TrimSpace(name))]
	return !gated || perms.Has(perm)
}
