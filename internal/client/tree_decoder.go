package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"storefront/catnav/internal/domain"

	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
)

var ErrMalformedTree = errors.New("malformed category tree")

type treeDecoder struct {
	policy   *bluemonday.Policy
	maxDepth int
	maxNodes int
}

func newTreeDecoder(maxDepth, maxNodes int) *treeDecoder {
	return &treeDecoder{
		policy:   bluemonday.StrictPolicy(),
		maxDepth: maxDepth,
		maxNodes: maxNodes,
	}
}

// envelope matches responses that wrap the tree as {"data": {...}}.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Decode parses a category tree and checks it is finite and acyclic.
// Names are stripped of markup, parent ids are made consistent with the
// nesting, and duplicate ids are rejected.
func (d *treeDecoder) Decode(body []byte, rootID domain.CategoryID) (*domain.Category, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedTree)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && env.Data[0] == '{' {
		body = env.Data
	}

	var root domain.Category
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}

	if root.ID != rootID {
		log.Warnf("⚠️ Catalog returned root %d when %d was requested", root.ID, rootID)
	}

	seen := make(map[domain.CategoryID]struct{})
	if err := d.normalize(&root, 0, seen); err != nil {
		return nil, err
	}

	log.Debugf("Decoded category tree %d with %d nodes", root.ID, len(seen))
	return &root, nil
}

func (d *treeDecoder) normalize(n *domain.Category, depth int, seen map[domain.CategoryID]struct{}) error {
	if depth > d.maxDepth {
		return fmt.Errorf("%w: deeper than %d levels at category %d", ErrMalformedTree, d.maxDepth, n.ID)
	}
	if _, dup := seen[n.ID]; dup {
		return fmt.Errorf("%w: category %d appears more than once", ErrMalformedTree, n.ID)
	}
	seen[n.ID] = struct{}{}
	if d.maxNodes > 0 && len(seen) > d.maxNodes {
		return fmt.Errorf("%w: more than %d nodes", ErrMalformedTree, d.maxNodes)
	}

	n.Name = d.cleanName(n.Name)

	children := n.Children[:0]
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if c.ParentID != n.ID {
			if c.ParentID != domain.NoCategory {
				log.Debugf("Category %d claims parent %d but is nested under %d", c.ID, c.ParentID, n.ID)
			}
			c.ParentID = n.ID
		}
		if err := d.normalize(c, depth+1, seen); err != nil {
			return err
		}
		children = append(children, c)
	}
	if n.Children != nil {
		n.Children = children
	}
	return nil
}

func (d *treeDecoder) cleanName(name string) string {
	return strings.TrimSpace(html.UnescapeString(d.policy.Sanitize(name)))
}
