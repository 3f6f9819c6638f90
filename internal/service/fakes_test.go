package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/domain/task"

	"github.com/redis/go-redis/v9"
)

type fakeCatalog struct {
	mu    sync.Mutex
	trees map[domain.CategoryID]*domain.Category
	err   error
	calls int
}

func (f *fakeCatalog) GetCategoryTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	tree, ok := f.trees[rootID]
	if !ok {
		return nil, errors.New("no such root")
	}
	return tree, nil
}

type fakeCache struct {
	mu    sync.Mutex
	trees map[domain.CategoryID]*domain.Category
	sets  int
}

func (f *fakeCache) GetTree(ctx context.Context, rootID domain.CategoryID) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trees[rootID], nil
}

func (f *fakeCache) SetTree(ctx context.Context, rootID domain.CategoryID, tree *domain.Category, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trees == nil {
		f.trees = make(map[domain.CategoryID]*domain.Category)
	}
	f.trees[rootID] = tree
	f.sets++
	return nil
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []task.Task
	acked []string
}

func (f *fakeQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return "1-0", nil
}

func (f *fakeQueue) GetTask(ctx context.Context, group, consumer, stream string) (*redis.XMessage, error) {
	return nil, nil
}

func (f *fakeQueue) AckTask(ctx context.Context, stream, group, msgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, stream+"/"+msgID)
	return nil
}

func (f *fakeQueue) CreateGroup(ctx context.Context, stream, group string) error { return nil }

func (f *fakeQueue) AutoClaim(ctx context.Context, group, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error) {
	return nil, nil
}

func (f *fakeQueue) EnsureStreamsExist(ctx context.Context) error { return nil }

type fakeRepository struct {
	mu    sync.Mutex
	saved []domain.Selection
	err   error
}

func (f *fakeRepository) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeRepository) SaveSelection(ctx context.Context, sel *domain.Selection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *sel)
	return nil
}
