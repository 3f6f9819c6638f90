// Package store holds the category selection state shared between the
// navigation state machine and the listing pages that read it.
package store

import (
	"sync"

	"storefront/catnav/internal/domain"
)

// State is a point-in-time copy of the store.
type State struct {
	CategoryID               domain.CategoryID
	CategoryIDs              string
	SubCategories            []*domain.Category
	SubSubCategories         []*domain.Category
	SubCategoryIndex         int
	SecondLevelCategoryIndex int
	SubCategoryParentName    string
	SubSubCategoryParentName string
}

// CategoryStore is an observable container for the active selection.
// Setters never validate; callers keep the path consistent.
type CategoryStore struct {
	mu        sync.RWMutex
	state     State
	observers map[int]func(State)
	nextID    int
}

func New() *CategoryStore {
	return &CategoryStore{
		observers: make(map[int]func(State)),
	}
}

func (s *CategoryStore) SetCategoryID(id domain.CategoryID) {
	s.update(func(st *State) { st.CategoryID = id })
}

func (s *CategoryStore) SetCategoryIDs(commaJoinedIDs string) {
	s.update(func(st *State) { st.CategoryIDs = commaJoinedIDs })
}

func (s *CategoryStore) SetSubCategories(list []*domain.Category) {
	list = cloneNodes(list)
	s.update(func(st *State) { st.SubCategories = list })
}

func (s *CategoryStore) SetSubSubCategories(list []*domain.Category) {
	list = cloneNodes(list)
	s.update(func(st *State) { st.SubSubCategories = list })
}

func (s *CategoryStore) SetSubCategoryIndex(i int) {
	s.update(func(st *State) { st.SubCategoryIndex = i })
}

func (s *CategoryStore) SetSecondLevelCategoryIndex(i int) {
	s.update(func(st *State) { st.SecondLevelCategoryIndex = i })
}

func (s *CategoryStore) SetSubCategoryParentName(name string) {
	s.update(func(st *State) { st.SubCategoryParentName = name })
}

func (s *CategoryStore) SetSubSubCategoryParentName(name string) {
	s.update(func(st *State) { st.SubSubCategoryParentName = name })
}

// Snapshot returns a copy of the current state.
func (s *CategoryStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every mutation with the new state.
// The returned func removes the observer.
func (s *CategoryStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *CategoryStore) update(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snap := s.snapshotLocked()
	observers := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	// Observers run outside the lock so they may read the store.
	for _, fn := range observers {
		fn(snap)
	}
}

func (s *CategoryStore) snapshotLocked() State {
	snap := s.state
	snap.SubCategories = cloneNodes(s.state.SubCategories)
	snap.SubSubCategories = cloneNodes(s.state.SubSubCategories)
	return snap
}

func cloneNodes(list []*domain.Category) []*domain.Category {
	if list == nil {
		return nil
	}
	return append(make([]*domain.Category, 0, len(list)), list...)
}
