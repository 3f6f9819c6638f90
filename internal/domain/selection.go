package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxDepth is the deepest level a selection path can reach: the top menu
// entry plus three nested levels.
const MaxDepth = 4

// Selection is a committed drill-down path, root to leaf.
type Selection struct {
	SessionID   string       `json:"session_id"`
	Root        MenuRoot     `json:"root"`
	Path        []CategoryID `json:"path"`
	Leaf        CategoryID   `json:"leaf"`
	Composite   string       `json:"composite"`
	CommittedAt time.Time    `json:"committed_at"`
}

// JoinIDs renders ids as the comma-joined filter parameter listing pages
// pass to product search, e.g. "12,45,103".
func JoinIDs(ids []CategoryID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs is the inverse of JoinIDs. An empty string yields no ids.
func ParseIDs(s string) ([]CategoryID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]CategoryID, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid category id %q: %w", p, err)
		}
		ids = append(ids, CategoryID(v))
	}
	return ids, nil
}
