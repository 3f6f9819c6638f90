package domain

// MenuRoot names a subtree of the catalog that is rendered as a menu.
type MenuRoot string

func (r MenuRoot) String() string {
	return string(r)
}

const (
	MenuRootPrimary  MenuRoot = "primary"  // Header and sidebar menu
	MenuRootTrending MenuRoot = "trending" // Trending categories strip
)

var MenuRoots = []MenuRoot{
	MenuRootPrimary,
	MenuRootTrending,
}

func (r MenuRoot) GetRootName() string {
	switch r {
	case MenuRootPrimary:
		return "Primary menu"
	case MenuRootTrending:
		return "Trending"
	default:
		return "Unknown"
	}
}

// ParseMenuRoot maps a path segment to a known root.
func ParseMenuRoot(s string) (MenuRoot, bool) {
	for _, r := range MenuRoots {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}
