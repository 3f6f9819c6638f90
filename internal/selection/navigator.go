// Package selection implements the cascading menu selection state machine.
//
// A Navigator tracks which row is active in each of the four menu panels
// (top menu plus three nested levels), re-derives the visible panels on
// every hover and writes the committed category path into a
// store.CategoryStore. A Navigator is not safe for concurrent use; callers
// serialize events per navigation session.
package selection

import (
	"errors"

	"storefront/catnav/internal/domain"
	"storefront/catnav/internal/menu"
	"storefront/catnav/internal/store"
)

var (
	ErrPanelClosed     = errors.New("menu panel is not open")
	ErrIndexOutOfRange = errors.New("menu index out of range")
)

type State int

const (
	Collapsed State = iota
	Level1Open
	Level2Open
	Level3Open
)

func (s State) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case Level1Open:
		return "level1_open"
	case Level2Open:
		return "level2_open"
	case Level3Open:
		return "level3_open"
	default:
		return "unknown"
	}
}

// CommitFunc receives every committed selection.
type CommitFunc func(domain.Selection)

type Option func(*Navigator)

// WithCommitFunc registers fn to observe commits.
func WithCommitFunc(fn CommitFunc) Option {
	return func(n *Navigator) { n.onCommit = fn }
}

type Navigator struct {
	top      []*domain.Category
	store    *store.CategoryStore
	onCommit CommitFunc

	state       State
	topIndex    int
	level1Index int
	level2Index int
	level3Index int

	level1 []*domain.Category
	level2 []*domain.Category
	level3 []*domain.Category
}

// New creates a collapsed navigator over top, which must already be in
// display order (see menu.TopNodes).
func New(top []*domain.Category, st *store.CategoryStore, opts ...Option) *Navigator {
	n := &Navigator{
		top:      top,
		store:    st,
		topIndex: -1,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Navigator) State() State {
	return n.state
}

// HoverTop opens the panel below the top entry at i.
func (n *Navigator) HoverTop(i int) error {
	_, err := n.openTop(i)
	return err
}

// ClickTop behaves like HoverTop. A top entry without children is a leaf
// and clicking it commits the one-element path.
func (n *Navigator) ClickTop(i int) error {
	node, err := n.openTop(i)
	if err != nil {
		return err
	}
	if node.IsLeaf() {
		n.commit(node)
	}
	return nil
}

func (n *Navigator) openTop(i int) (*domain.Category, error) {
	if i < 0 || i >= len(n.top) {
		return nil, ErrIndexOutOfRange
	}
	node := n.top[i]

	n.topIndex = i
	n.level1 = menu.ChildrenOf(node)
	n.level1Index, n.level2Index, n.level3Index = 0, 0, 0
	n.level2, n.level3 = nil, nil
	if len(n.level1) > 0 {
		n.state = Level1Open
	} else {
		n.state = Collapsed
	}

	n.store.SetSubCategories(n.level1)
	n.store.SetSubCategoryParentName(node.Name)
	n.store.SetSubCategoryIndex(0)
	n.store.SetSecondLevelCategoryIndex(0)
	n.store.SetSubSubCategories(nil)
	n.store.SetSubSubCategoryParentName("")
	return node, nil
}

// HoverLevel1 previews the level-2 panel of the level-1 row at i.
func (n *Navigator) HoverLevel1(i int) error {
	_, err := n.focusLevel1(i)
	return err
}

// ClickLevel1 commits the level-1 row at i.
func (n *Navigator) ClickLevel1(i int) error {
	row, err := n.focusLevel1(i)
	if err != nil {
		return err
	}
	n.store.SetSecondLevelCategoryIndex(0)
	n.commit(n.top[n.topIndex], row)
	return nil
}

func (n *Navigator) focusLevel1(i int) (*domain.Category, error) {
	if n.state == Collapsed {
		return nil, ErrPanelClosed
	}
	if i < 0 || i >= len(n.level1) {
		return nil, ErrIndexOutOfRange
	}
	row := n.level1[i]

	n.level1Index = i
	n.level2 = menu.ChildrenOf(row)
	n.level2Index, n.level3Index = 0, 0
	n.level3 = nil
	if len(n.level2) > 0 {
		n.state = Level2Open
	} else {
		n.state = Level1Open
	}

	n.store.SetSubCategoryIndex(i)
	n.store.SetSubSubCategories(n.level2)
	n.store.SetSubSubCategoryParentName(row.Name)
	return row, nil
}

// HoverLevel2 previews the level-3 panel of the level-2 row at i.
func (n *Navigator) HoverLevel2(i int) error {
	if n.state < Level2Open {
		return ErrPanelClosed
	}
	if i < 0 || i >= len(n.level2) {
		return ErrIndexOutOfRange
	}
	n.focusLevel2(i)
	return nil
}

// ClickLevel2 commits row i of the level-2 panel that belongs to the
// level-1 row at parentIndex.
//
// When parentIndex differs from the level-1 index the store tracks, the
// row comes from a panel that is no longer current. The cached level-2
// array and its label are cleared so no panel from the old branch stays
// visible, and the path is built from the row's real parent.
func (n *Navigator) ClickLevel2(parentIndex, i int) error {
	if n.state == Collapsed {
		return ErrPanelClosed
	}
	if parentIndex < 0 || parentIndex >= len(n.level1) {
		return ErrIndexOutOfRange
	}
	parent := n.level1[parentIndex]
	rows := menu.ChildrenOf(parent)
	if i < 0 || i >= len(rows) {
		return ErrIndexOutOfRange
	}

	if n.store.Snapshot().SubCategoryIndex != parentIndex {
		n.store.SetSubSubCategories(nil)
		n.store.SetSubSubCategoryParentName("")
		n.store.SetSubCategoryIndex(parentIndex)
		n.level1Index = parentIndex
		n.level2 = rows
	}

	row := n.focusLevel2(i)
	n.commit(n.top[n.topIndex], parent, row)
	return nil
}

func (n *Navigator) focusLevel2(i int) *domain.Category {
	row := n.level2[i]

	n.level2Index = i
	n.level3 = menu.ChildrenOf(row)
	n.level3Index = 0
	if len(n.level3) > 0 {
		n.state = Level3Open
	} else {
		n.state = Level2Open
	}

	n.store.SetSecondLevelCategoryIndex(i)
	return row
}

// HoverLevel3 highlights the level-3 row at i.
func (n *Navigator) HoverLevel3(i int) error {
	if n.state != Level3Open {
		return ErrPanelClosed
	}
	if i < 0 || i >= len(n.level3) {
		return ErrIndexOutOfRange
	}
	n.level3Index = i
	return nil
}

// ClickLevel3 commits the path ending at row i. The composite ids always
// start with the top menu entry, so one id per depth: a level-3 commit
// carries four ids (top, level 1, level 2, level 3).
func (n *Navigator) ClickLevel3(i int) error {
	if err := n.HoverLevel3(i); err != nil {
		return err
	}
	n.commit(n.top[n.topIndex], n.level1[n.level1Index], n.level2[n.level2Index], n.level3[i])
	return nil
}

// OutsideClick collapses the menu and clears the committed leaf. Cached
// panel arrays in the store are kept.
func (n *Navigator) OutsideClick() {
	n.state = Collapsed
	n.store.SetCategoryID(domain.NoCategory)
}

func (n *Navigator) commit(nodes ...*domain.Category) {
	ids := make([]domain.CategoryID, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}
	leaf := ids[len(ids)-1]
	composite := domain.JoinIDs(ids)

	n.store.SetCategoryID(leaf)
	n.store.SetCategoryIDs(composite)

	if n.onCommit != nil {
		n.onCommit(domain.Selection{
			Path:      ids,
			Leaf:      leaf,
			Composite: composite,
		})
	}
}
