package menu

import "strings"

// DefaultPlaceholderIcon is used when no icon is known for an entry.
const DefaultPlaceholderIcon = "icons/category-placeholder.svg"

// IconSet resolves the icon rendered next to a menu entry.
//
// Lookup order: explicit name mapping, the icon the catalog sent with the
// node, the positional table, then the placeholder. A nil IconSet always
// yields DefaultPlaceholderIcon.
type IconSet struct {
	byName      map[string]string
	table       []string
	placeholder string
}

func NewIconSet(byName map[string]string, table []string, placeholder string) *IconSet {
	names := make(map[string]string, len(byName))
	for name, icon := range byName {
		names[normalizeName(name)] = icon
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholderIcon
	}
	return &IconSet{
		byName:      names,
		table:       append([]string(nil), table...),
		placeholder: placeholder,
	}
}

// Placeholder returns the fallback icon.
func (s *IconSet) Placeholder() string {
	if s == nil {
		return DefaultPlaceholderIcon
	}
	return s.placeholder
}

// ByName returns the mapped icon for name, or "" when unmapped.
func (s *IconSet) ByName(name string) string {
	if s == nil {
		return ""
	}
	return s.byName[normalizeName(name)]
}

// ByPosition looks up the icon table at sourceIndex+1, the layout legacy
// icon tables use (slot 0 is reserved). Out of range yields the placeholder.
func (s *IconSet) ByPosition(sourceIndex int) string {
	if s == nil {
		return DefaultPlaceholderIcon
	}
	slot := sourceIndex + 1
	if slot < 0 || slot >= len(s.table) || s.table[slot] == "" {
		return s.placeholder
	}
	return s.table[slot]
}

// Resolve picks the icon for an entry at sourceIndex.
func (s *IconSet) Resolve(name, serverIcon string, sourceIndex int) string {
	if icon := s.ByName(name); icon != "" {
		return icon
	}
	if serverIcon != "" {
		return serverIcon
	}
	if s != nil && len(s.table) > 0 {
		return s.ByPosition(sourceIndex)
	}
	return s.Placeholder()
}

// normalizeName folds case and drops separators so "Buy Group",
// "buy-group" and "Buygroup" match the same key.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
