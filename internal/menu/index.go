package menu

import "storefront/catnav/internal/domain"

// Index maps category ids to nodes and their ancestry so lookups on a
// cached tree do not walk it again.
type Index struct {
	nodes   map[domain.CategoryID]*domain.Category
	parents map[domain.CategoryID]domain.CategoryID
	root    domain.CategoryID
}

func NewIndex(root *domain.Category) *Index {
	idx := &Index{
		nodes:   make(map[domain.CategoryID]*domain.Category),
		parents: make(map[domain.CategoryID]domain.CategoryID),
	}
	if root == nil {
		return idx
	}
	idx.root = root.ID
	var walk func(n *domain.Category)
	walk = func(n *domain.Category) {
		if _, seen := idx.nodes[n.ID]; seen {
			return
		}
		idx.nodes[n.ID] = n
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			idx.parents[c.ID] = n.ID
			walk(c)
		}
	}
	walk(root)
	return idx
}

// Find returns the node with id, or nil.
func (idx *Index) Find(id domain.CategoryID) *domain.Category {
	return idx.nodes[id]
}

// Len reports the number of indexed nodes, root included.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// PathTo returns the ids from the first level below the root down to id.
// It returns nil when id is unknown or is the root itself.
func (idx *Index) PathTo(id domain.CategoryID) []domain.CategoryID {
	if _, ok := idx.nodes[id]; !ok || id == idx.root {
		return nil
	}
	var rev []domain.CategoryID
	for cur := id; cur != idx.root; {
		rev = append(rev, cur)
		parent, ok := idx.parents[cur]
		if !ok {
			break
		}
		cur = parent
	}
	path := make([]domain.CategoryID, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}
