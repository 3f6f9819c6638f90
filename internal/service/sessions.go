package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/domain/task"
	"storefront/catnav/internal/menu"
	"storefront/catnav/internal/selection"
	"storefront/catnav/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventHover        EventType = "hover"
	EventClick        EventType = "click"
	EventOutsideClick EventType = "outside_click"
)

// Event is a pointer interaction forwarded by the storefront UI.
type Event struct {
	Type EventType `json:"type"`
	// Level 0 is the top menu, 1 to 3 are the nested panels.
	Level int `json:"level"`
	Index int `json:"index"`
	// ParentIndex is the level-1 row a level-2 click belongs to. It
	// defaults to the active level-1 row.
	ParentIndex *int `json:"parent_index,omitempty"`
}

type session struct {
	mu        sync.Mutex
	id        string
	root      domain.MenuRoot
	direction domain.Direction
	top       []domain.MenuEntry
	navigator *selection.Navigator
	store     *store.CategoryStore
	pending   []domain.Selection
	lastSeen  time.Time
	// version counts store mutations. Guarded by mu like the store writes.
	version uint64
}

// Panel is one open nested menu panel.
type Panel struct {
	Level       int                `json:"level"`
	Title       string             `json:"title"`
	ActiveIndex int                `json:"active_index"`
	Entries     []domain.MenuEntry `json:"entries"`
}

// SelectionView exposes the category store of a session.
type SelectionView struct {
	CategoryID               domain.CategoryID  `json:"category_id,omitempty"`
	CategoryIDs              string             `json:"category_ids,omitempty"`
	SubCategories            []domain.MenuEntry `json:"sub_categories"`
	SubSubCategories         []domain.MenuEntry `json:"sub_sub_categories"`
	SubCategoryIndex         int                `json:"sub_category_index"`
	SecondLevelCategoryIndex int                `json:"second_level_category_index"`
	SubCategoryParentName    string             `json:"sub_category_parent_name,omitempty"`
	SubSubCategoryParentName string             `json:"sub_sub_category_parent_name,omitempty"`
}

type SessionView struct {
	ID        string             `json:"id"`
	Root      domain.MenuRoot    `json:"root"`
	Direction domain.Direction   `json:"direction"`
	State     string             `json:"state"`
	Top       []domain.MenuEntry `json:"top"`
	TopIndex  int                `json:"top_index"`
	Panels    []Panel            `json:"panels"`
	Selection SelectionView      `json:"selection"`
	// Version changes whenever the selection store does.
	Version uint64 `json:"version"`
}

// CreateSession starts a collapsed navigation session over root.
func (s *Service) CreateSession(ctx context.Context, root domain.MenuRoot, direction domain.Direction, perms Permissions) (*SessionView, error) {
	lt, err := s.tree(ctx, root)
	if err != nil {
		return nil, err
	}

	nodes, entries := s.topLevel(lt, direction, perms)
	sess := &session{
		id:        uuid.NewString(),
		root:      root,
		direction: direction,
		top:       entries,
		store:     store.New(),
		lastSeen:  s.now(),
	}
	sess.navigator = selection.New(nodes, sess.store, selection.WithCommitFunc(func(sel domain.Selection) {
		sess.pending = append(sess.pending, sel)
	}))
	sess.store.Subscribe(func(store.State) {
		sess.version++
	})

	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	s.sessionsMu.Unlock()

	log.Debugf("Created navigation session %s over %s (%s)", sess.id, root.GetRootName(), direction)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

func (s *Service) session(id string) (*session, error) {
	s.sessionsMu.RLock()
	sess, ok := s.sessions[id]
	s.sessionsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Session returns the current view of a session.
func (s *Service) Session(id string) (*SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return s.view(sess), nil
}

// Dispatch applies ev to the session and returns the resulting view.
// Events of one session are applied one at a time in arrival order.
func (s *Service) Dispatch(ctx context.Context, id string, ev Event) (*SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastSeen = s.now()
	applyErr := apply(sess.navigator, ev)

	committed := sess.pending
	sess.pending = nil
	for i := range committed {
		committed[i].SessionID = sess.id
		committed[i].Root = sess.root
		committed[i].CommittedAt = s.now()
		s.publish(ctx, committed[i])
	}

	if applyErr != nil {
		return nil, applyErr
	}
	return s.view(sess), nil
}

func apply(nav *selection.Navigator, ev Event) error {
	switch ev.Type {
	case EventOutsideClick:
		nav.OutsideClick()
		return nil
	case EventHover, EventClick:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}

	click := ev.Type == EventClick
	switch ev.Level {
	case 0:
		if click {
			return nav.ClickTop(ev.Index)
		}
		return nav.HoverTop(ev.Index)
	case 1:
		if click {
			return nav.ClickLevel1(ev.Index)
		}
		return nav.HoverLevel1(ev.Index)
	case 2:
		if click {
			parent := nav.View().Level1Index
			if ev.ParentIndex != nil {
				parent = *ev.ParentIndex
			}
			return nav.ClickLevel2(parent, ev.Index)
		}
		return nav.HoverLevel2(ev.Index)
	case 3:
		if click {
			return nav.ClickLevel3(ev.Index)
		}
		return nav.HoverLevel3(ev.Index)
	default:
		return fmt.Errorf("%w: level %d", ErrInvalidEvent, ev.Level)
	}
}

func (s *Service) publish(ctx context.Context, sel domain.Selection) {
	log.Debugf("Session %s committed %s", sel.SessionID, sel.Composite)
	if s.queue == nil {
		return
	}
	if _, err := s.queue.AddTask(ctx, &task.SelectionCommittedTask{Selection: sel}); err != nil {
		log.Errorf("❌ Failed to publish selection %s: %v", sel.Composite, err)
	}
}

// CloseSession drops a session.
func (s *Service) CloseSession(id string) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// EvictIdle drops sessions idle longer than the session timeout and
// returns how many were dropped.
func (s *Service) EvictIdle() int {
	cutoff := s.now().Add(-s.sessionIdleTimeout)

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunSessionJanitor evicts idle sessions every interval until ctx is done.
func (s *Service) RunSessionJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				log.Infof("🧹 Evicted %d idle navigation sessions", n)
			}
		}
	}
}

// view renders sess. Callers hold sess.mu.
func (s *Service) view(sess *session) *SessionView {
	v := sess.navigator.View()
	snap := sess.store.Snapshot()

	out := &SessionView{
		ID:        sess.id,
		Root:      sess.root,
		Direction: sess.direction,
		State:     v.State.String(),
		Top:       sess.top,
		TopIndex:  v.TopIndex,
		Version:   sess.version,
		Panels:    []Panel{},
		Selection: SelectionView{
			CategoryID:               snap.CategoryID,
			CategoryIDs:              snap.CategoryIDs,
			SubCategories:            menu.Entries(snap.SubCategories, s.icons),
			SubSubCategories:         menu.Entries(snap.SubSubCategories, s.icons),
			SubCategoryIndex:         snap.SubCategoryIndex,
			SecondLevelCategoryIndex: snap.SecondLevelCategoryIndex,
			SubCategoryParentName:    snap.SubCategoryParentName,
			SubSubCategoryParentName: snap.SubSubCategoryParentName,
		},
	}

	if v.Level1 != nil {
		out.Panels = append(out.Panels, Panel{
			Level:       1,
			Title:       snap.SubCategoryParentName,
			ActiveIndex: v.Level1Index,
			Entries:     menu.Entries(v.Level1, s.icons),
		})
	}
	if v.Level2 != nil {
		out.Panels = append(out.Panels, Panel{
			Level:       2,
			Title:       v.Level1[v.Level1Index].Name,
			ActiveIndex: v.Level2Index,
			Entries:     menu.Entries(v.Level2, s.icons),
		})
	}
	if v.Level3 != nil {
		out.Panels = append(out.Panels, Panel{
			Level:       3,
			Title:       v.Level2[v.Level2Index].Name,
			ActiveIndex: v.Level3Index,
			Entries:     menu.Entries(v.Level3, s.icons),
		})
	}

	return out
}
