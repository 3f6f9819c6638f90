package selection

import "storefront/catnav/internal/domain"

// View is the display state derived from the navigator. Panels that are
// not open are nil.
type View struct {
	State       State
	TopIndex    int
	Level1Index int
	Level2Index int
	Level3Index int
	Level1      []*domain.Category
	Level2      []*domain.Category
	Level3      []*domain.Category
}

func (n *Navigator) View() View {
	v := View{
		State:       n.state,
		TopIndex:    n.topIndex,
		Level1Index: n.level1Index,
		Level2Index: n.level2Index,
		Level3Index: n.level3Index,
	}
	if n.state >= Level1Open {
		v.Level1 = n.level1
	}
	if n.state >= Level2Open {
		v.Level2 = n.level2
	}
	if n.state >= Level3Open {
		v.Level3 = n.level3
	}
	return v
}

// Top returns the top menu nodes in display order.
func (n *Navigator) Top() []*domain.Category {
	return n.top
}
