// Package menu derives menu panels from an already fetched category tree.
// Every function here is pure: inputs are never mutated and no I/O happens.
package menu

import (
	"errors"
	"fmt"
	"sort"

	"storefront/catnav/internal/domain"
)

var (
	ErrNotInTree   = errors.New("category is not a child of the previous path element")
	ErrPathTooDeep = errors.New("selection path exceeds the maximum menu depth")
	ErrNilTree     = errors.New("category tree is nil")
)

// rtlOrder is the fixed top-level order applied for right-to-left locales.
var rtlOrder = map[string]int{
	"store":     0,
	"buygroup":  1,
	"factories": 2,
	"rfq":       3,
}

// ChildrenOf returns the node's children exactly as the catalog sent them.
func ChildrenOf(node *domain.Category) []*domain.Category {
	if node == nil {
		return nil
	}
	return node.Children
}

// Entries converts nodes to menu entries in source order.
func Entries(nodes []*domain.Category, icons *IconSet) []domain.MenuEntry {
	entries := make([]domain.MenuEntry, 0, len(nodes))
	for i, n := range nodes {
		if n == nil {
			continue
		}
		entries = append(entries, domain.MenuEntry{
			Name: n.Name,
			ID:   n.ID,
			Icon: icons.Resolve(n.Name, n.Icon, i),
			Leaf: n.IsLeaf(),
		})
	}
	return entries
}

// ReorderRTL sorts the known top-level entries into
// Store, Buy Group, Factories, RFQ. Unknown names go last and keep their
// relative order. The input slice is left untouched.
func ReorderRTL(entries []domain.MenuEntry) []domain.MenuEntry {
	return reorder(entries, func(e domain.MenuEntry) string { return e.Name })
}

// ReorderNodesRTL applies the ReorderRTL rule to tree nodes.
func ReorderNodesRTL(nodes []*domain.Category) []*domain.Category {
	return reorder(nodes, func(n *domain.Category) string {
		if n == nil {
			return ""
		}
		return n.Name
	})
}

func reorder[T any](items []T, name func(T) string) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return rtlRank(name(out[i])) < rtlRank(name(out[j]))
	})
	return out
}

func rtlRank(name string) int {
	if rank, ok := rtlOrder[normalizeName(name)]; ok {
		return rank
	}
	return len(rtlOrder)
}

// TopNodes returns the root's children in display order for direction.
func TopNodes(root *domain.Category, direction domain.Direction) []*domain.Category {
	children := ChildrenOf(root)
	if direction.IsRTL() {
		return ReorderNodesRTL(children)
	}
	return children
}

// Build produces the top-level menu for root.
func Build(root *domain.Category, direction domain.Direction, icons *IconSet) []domain.MenuEntry {
	entries := Entries(ChildrenOf(root), icons)
	if direction.IsRTL() {
		return ReorderRTL(entries)
	}
	return entries
}

// Resolve walks path from root and returns the node at each depth.
func Resolve(root *domain.Category, path []domain.CategoryID) ([]*domain.Category, error) {
	if root == nil {
		return nil, ErrNilTree
	}
	if len(path) > domain.MaxDepth {
		return nil, ErrPathTooDeep
	}
	nodes := make([]*domain.Category, 0, len(path))
	parent := root
	for depth, id := range path {
		next := childByID(parent, id)
		if next == nil {
			return nil, fmt.Errorf("category %d at depth %d: %w", id, depth+1, ErrNotInTree)
		}
		nodes = append(nodes, next)
		parent = next
	}
	return nodes, nil
}

func childByID(parent *domain.Category, id domain.CategoryID) *domain.Category {
	for _, c := range ChildrenOf(parent) {
		if c != nil && c.ID == id {
			return c
		}
	}
	return nil
}
