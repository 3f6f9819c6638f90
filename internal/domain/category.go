package domain

// CategoryID identifies a node of the catalog category tree.
// The zero value means "no category".
type CategoryID int64

const NoCategory CategoryID = 0

// Category is a node of the category tree served by the catalog service.
// Children order is server-defined and drives menu position.
type Category struct {
	ID       CategoryID  `json:"id"`
	ParentID CategoryID  `json:"parentId"`
	Name     string      `json:"name"`
	Icon     string      `json:"icon,omitempty"`
	Children []*Category `json:"children"`
}

// IsLeaf reports whether the node has no children.
func (c *Category) IsLeaf() bool {
	return c == nil || len(c.Children) == 0
}

// MenuEntry is a single row rendered in a menu panel.
type MenuEntry struct {
	Name string     `json:"name"`
	ID   CategoryID `json:"id"`
	Icon string     `json:"icon"`
	Leaf bool       `json:"leaf"`
}
