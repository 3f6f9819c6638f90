package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/domain/task"
	"storefront/catnav/internal/queue"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const maxRefreshRetries = 5

// ErrUndeliverable marks a stream message that was acked without being
// handled.
var ErrUndeliverable = errors.New("undeliverable task message")

// WorkerCounts sets how many consumers read each task stream.
type WorkerCounts struct {
	Selection int
	Refresh   int
}

type streamConsumer struct {
	stream  string
	name    string
	workers int
}

// RunWorkers consumes the selection and tree refresh streams until ctx is
// done. Each stream also gets one auto-claimer for messages left pending by
// dead consumers.
func (s *Service) RunWorkers(ctx context.Context, counts WorkerCounts) error {
	if s.queue == nil {
		return fmt.Errorf("workers need a queue")
	}

	consumers := []streamConsumer{
		{stream: queue.StreamName(task.TypeSelectionCommitted), name: "selection", workers: max(1, counts.Selection)},
		{stream: queue.StreamName(task.TypeTreeRefresh), name: "refresh", workers: max(1, counts.Refresh)},
	}

	var wg sync.WaitGroup
	for _, c := range consumers {
		wg.Add(1 + c.workers)
		go func() {
			defer wg.Done()
			s.autoClaim(ctx, c)
		}()
		for i := 1; i <= c.workers; i++ {
			go func() {
				defer wg.Done()
				s.consume(ctx, c, fmt.Sprintf("%s-worker-%d", c.name, i))
			}()
		}
	}

	wg.Wait()
	return nil
}

func (s *Service) autoClaim(ctx context.Context, c streamConsumer) {
	ticker := time.NewTicker(s.minIdleTime)
	defer ticker.Stop()

	consumer := "autoclaimer-" + c.name
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		claimed, err := s.queue.AutoClaim(ctx, s.groupName, consumer, c.stream, s.minIdleTime)
		if err != nil {
			log.Errorf("❌ Failed to auto-claim messages for %s: %v", c.stream, err)
			continue
		}
		if len(claimed) > 0 {
			log.Infof("🔄 Auto-claimed %d pending %s messages", len(claimed), c.name)
		}
		for i := range claimed {
			if err := s.processMessage(ctx, c.stream, &claimed[i]); err != nil {
				log.Errorf("❌ Failed to process auto-claimed message %s: %v", claimed[i].ID, err)
			}
		}
	}
}

func (s *Service) consume(ctx context.Context, c streamConsumer, consumer string) {
	log.Infof("🚀 Starting %s consumer %s", c.name, consumer)
	defer log.Infof("🛑 %s consumer %s stopped", c.name, consumer)

	for ctx.Err() == nil {
		msg, err := s.queue.GetTask(ctx, s.groupName, consumer, c.stream)
		if err != nil {
			if ctx.Err() == nil {
				log.Errorf("❌ Failed to get task from %s: %v", c.stream, err)
			}
			continue
		}
		if msg == nil {
			continue
		}
		if err := s.processMessage(ctx, c.stream, msg); err != nil {
			log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
		}
	}
}

// processMessage handles one stream message. Messages that can never be
// handled are acked and dropped; handler failures stay pending so the
// auto-claimer retries them.
func (s *Service) processMessage(ctx context.Context, stream string, msg *redis.XMessage) error {
	taskType, _ := msg.Values["task_type"].(string)
	taskData, ok := msg.Values["task_data"].(string)
	if !ok {
		return s.drop(ctx, stream, msg, "missing task data")
	}

	switch taskType {
	case task.TypeSelectionCommitted:
		committed, err := task.UnmarshalTask[*task.SelectionCommittedTask]([]byte(taskData))
		if err != nil {
			return s.drop(ctx, stream, msg, fmt.Sprintf("bad selection task data: %v", err))
		}
		if err := s.repository.SaveSelection(ctx, &committed.Selection); err != nil {
			return err
		}

	case task.TypeTreeRefresh:
		refresh, err := task.UnmarshalTask[*task.TreeRefreshTask]([]byte(taskData))
		if err != nil {
			return s.drop(ctx, stream, msg, fmt.Sprintf("bad refresh task data: %v", err))
		}
		if err := s.refreshTree(ctx, refresh); err != nil {
			return fmt.Errorf("failed to refresh tree: %w", err)
		}

	default:
		return s.drop(ctx, stream, msg, fmt.Sprintf("unknown task type %q", taskType))
	}

	if err := s.queue.AckTask(ctx, stream, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}
	return nil
}

// drop acks a message that no retry could fix and reports why.
func (s *Service) drop(ctx context.Context, stream string, msg *redis.XMessage, reason string) error {
	log.Warnf("🗑️ Dropping message %s from %s: %s", msg.ID, stream, reason)
	if err := s.queue.AckTask(ctx, stream, s.groupName, msg.ID); err != nil {
		return fmt.Errorf("failed to ack dropped message %s: %w", msg.ID, err)
	}
	return fmt.Errorf("%w: %s", ErrUndeliverable, reason)
}

func (s *Service) refreshTree(ctx context.Context, refresh *task.TreeRefreshTask) error {
	tree, err := s.client.GetCategoryTree(ctx, refresh.RootID)
	if err != nil {
		if refresh.RetryCount >= maxRefreshRetries {
			log.Errorf("❌ Giving up refreshing %s after %d attempts: %v",
				refresh.Root.GetRootName(), refresh.RetryCount, err)
			return nil
		}

		retry := &task.TreeRefreshTask{
			Root:       refresh.Root,
			RootID:     refresh.RootID,
			RetryCount: refresh.RetryCount + 1,
			Error:      err.Error(),
		}
		if _, addErr := s.queue.AddTask(ctx, retry); addErr != nil {
			log.Errorf("❌ Failed to re-add refresh task for %s: %v", refresh.Root, addErr)
			return addErr
		}

		log.Warnf("🔄 Refresh of %s failed, will retry (attempt %d): %v",
			refresh.Root.GetRootName(), retry.RetryCount, err)
		return nil
	}

	s.cacheTree(ctx, refresh.Root, refresh.RootID, tree)
	lt := s.storeTree(refresh.Root, tree)
	log.Infof("✅ Refreshed %s tree: %d categories", refresh.Root.GetRootName(), lt.index.Len())
	return nil
}

// ScheduleRefresh enqueues a refresh of every root twice per tree TTL.
func (s *Service) ScheduleRefresh(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}

	interval := s.treeTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, root := range domain.MenuRoots {
				rootID, ok := s.roots[root]
				if !ok {
					continue
				}
				if _, err := s.queue.AddTask(ctx, &task.TreeRefreshTask{Root: root, RootID: rootID}); err != nil {
					log.Errorf("❌ Failed to schedule refresh of %s: %v", root.GetRootName(), err)
				}
			}
		}
	}
}
