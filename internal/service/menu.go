package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/menu"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type loadedTree struct {
	root     *domain.Category
	index    *menu.Index
	loadedAt time.Time
}

// MenuResult is the top-level menu of a root in display order.
type MenuResult struct {
	Root      domain.MenuRoot    `json:"root"`
	RootID    domain.CategoryID  `json:"root_id"`
	Direction domain.Direction   `json:"direction"`
	Entries   []domain.MenuEntry `json:"entries"`
}

func (s *Service) rootID(root domain.MenuRoot) (domain.CategoryID, error) {
	id, ok := s.roots[root]
	if !ok || id == domain.NoCategory {
		return domain.NoCategory, fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	return id, nil
}

// tree returns the category tree of root from memory, the redis cache or
// the catalog service, in that order.
func (s *Service) tree(ctx context.Context, root domain.MenuRoot) (*loadedTree, error) {
	rootID, err := s.rootID(root)
	if err != nil {
		return nil, err
	}

	s.treesMu.RLock()
	lt := s.trees[root]
	s.treesMu.RUnlock()
	if lt != nil && s.now().Sub(lt.loadedAt) < s.treeTTL {
		return lt, nil
	}

	v, err, _ := s.fetches.Do(root.String(), func() (interface{}, error) {
		if s.cache != nil {
			cached, err := s.cache.GetTree(ctx, rootID)
			if err != nil {
				log.Warnf("⚠️ Tree cache unavailable for %s: %v", root.GetRootName(), err)
			} else if cached != nil {
				return s.storeTree(root, cached), nil
			}
		}

		fetched, err := s.client.GetCategoryTree(ctx, rootID)
		if err != nil {
			return nil, err
		}
		s.cacheTree(ctx, root, rootID, fetched)
		return s.storeTree(root, fetched), nil
	})
	if err != nil {
		// A stale tree beats no menu at all.
		if lt != nil {
			log.Warnf("⚠️ Serving stale %s tree: %v", root.GetRootName(), err)
			return lt, nil
		}
		return nil, err
	}

	return v.(*loadedTree), nil
}

func (s *Service) storeTree(root domain.MenuRoot, tree *domain.Category) *loadedTree {
	lt := &loadedTree{
		root:     tree,
		index:    menu.NewIndex(tree),
		loadedAt: s.now(),
	}
	s.treesMu.Lock()
	s.trees[root] = lt
	s.treesMu.Unlock()
	return lt
}

func (s *Service) cacheTree(ctx context.Context, root domain.MenuRoot, rootID domain.CategoryID, tree *domain.Category) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetTree(ctx, rootID, tree, s.treeTTL); err != nil {
		log.Warnf("⚠️ Failed to cache %s tree: %v", root.GetRootName(), err)
	}
}

// topLevel returns the visible top-level nodes and entries, in display
// order for direction, with gated entries removed.
func (s *Service) topLevel(lt *loadedTree, direction domain.Direction, perms Permissions) ([]*domain.Category, []domain.MenuEntry) {
	nodes := menu.TopNodes(lt.root, direction)
	entries := menu.Build(lt.root, direction, s.icons)

	visibleNodes := make([]*domain.Category, 0, len(nodes))
	visibleEntries := make([]domain.MenuEntry, 0, len(entries))
	for i, n := range nodes {
		if !s.allowed(n.Name, perms) {
			continue
		}
		visibleNodes = append(visibleNodes, n)
		visibleEntries = append(visibleEntries, entries[i])
	}
	return visibleNodes, visibleEntries
}

// Menu returns the top-level menu of root.
func (s *Service) Menu(ctx context.Context, root domain.MenuRoot, direction domain.Direction, perms Permissions) (*MenuResult, error) {
	lt, err := s.tree(ctx, root)
	if err != nil {
		return nil, err
	}

	_, entries := s.topLevel(lt, direction, perms)
	return &MenuResult{
		Root:      root,
		RootID:    lt.root.ID,
		Direction: direction,
		Entries:   entries,
	}, nil
}

// ChildrenResult is the submenu of one category.
type ChildrenResult struct {
	Root domain.MenuRoot   `json:"root"`
	ID   domain.CategoryID `json:"id"`
	// Path is the composite id list from the top menu down to ID.
	Path    string             `json:"path"`
	Entries []domain.MenuEntry `json:"entries"`
}

// Children returns the submenu of category id from the cached tree. Ids
// under a top-level entry the caller may not see are reported as not found.
func (s *Service) Children(ctx context.Context, root domain.MenuRoot, id domain.CategoryID, perms Permissions) (*ChildrenResult, error) {
	lt, err := s.tree(ctx, root)
	if err != nil {
		return nil, err
	}

	node := lt.index.Find(id)
	path := lt.index.PathTo(id)
	if node == nil || len(path) == 0 || !s.allowed(lt.index.Find(path[0]).Name, perms) {
		return nil, fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
	}
	return &ChildrenResult{
		Root:    root,
		ID:      id,
		Path:    domain.JoinIDs(path),
		Entries: menu.Entries(menu.ChildrenOf(node), s.icons),
	}, nil
}

// Breadcrumb resolves a composite id list, as listing pages receive it, to
// the named categories along the path. Gating applies as in Children.
func (s *Service) Breadcrumb(ctx context.Context, root domain.MenuRoot, composite string, perms Permissions) ([]domain.MenuEntry, error) {
	ids, err := domain.ParseIDs(composite)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	lt, err := s.tree(ctx, root)
	if err != nil {
		return nil, err
	}

	nodes, err := menu.Resolve(lt.root, ids)
	switch {
	case errors.Is(err, menu.ErrPathTooDeep):
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	case errors.Is(err, menu.ErrNotInTree):
		return nil, fmt.Errorf("%w: %v", ErrCategoryNotFound, err)
	case err != nil:
		return nil, err
	}
	if !s.allowed(nodes[0].Name, perms) {
		return nil, fmt.Errorf("%w: %d", ErrCategoryNotFound, ids[0])
	}
	return menu.Entries(nodes, s.icons), nil
}

// WarmUp loads every configured root in parallel.
func (s *Service) WarmUp(ctx context.Context) error {
	errGroup, ctx := errgroup.WithContext(ctx)

	for _, root := range domain.MenuRoots {
		if _, ok := s.roots[root]; !ok {
			continue
		}
		errGroup.Go(func() error {
			lt, err := s.tree(ctx, root)
			if err != nil {
				log.Errorf("❌ Failed to load %s tree: %v", root.GetRootName(), err)
				return err
			}
			log.Infof("✅ Loaded %s tree: %d categories", root.GetRootName(), lt.index.Len())
			return nil
		})
	}

	return errGroup.Wait()
}
