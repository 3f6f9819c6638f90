package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/catnav/internal/domain"
)

func TestDecodeTree(t *testing.T) {
	t.Parallel()

	body := []byte(`{
		"id": 7, "parentId": 0, "name": "Root",
		"children": [
			{"id": 1, "name": "<b>Store</b>", "icon": "s.svg", "children": [
				{"id": 10, "parentId": 99, "name": "Toys &amp; Games", "children": []}
			]},
			{"id": 2, "parentId": 7, "name": " RFQ "}
		]
	}`)

	tree, err := newTreeDecoder(8, 0).Decode(body, 7)
	require.NoError(t, err)
	require.Equal(t, domain.CategoryID(7), tree.ID)
	require.Len(t, tree.Children, 2)

	store := tree.Children[0]
	require.Equal(t, "Store", store.Name)
	require.Equal(t, "s.svg", store.Icon)
	require.Equal(t, domain.CategoryID(7), store.ParentID)

	toys := store.Children[0]
	require.Equal(t, "Toys & Games", toys.Name)
	require.Equal(t, domain.CategoryID(1), toys.ParentID, "parent id follows nesting")
	require.NotNil(t, toys.Children)
	require.Empty(t, toys.Children)

	require.Equal(t, "RFQ", tree.Children[1].Name)
	require.Nil(t, tree.Children[1].Children)
}

func TestDecodeEnvelope(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data": {"id": 7, "name": "Root", "children": [{"id": 1, "name": "Store"}]}}`)

	tree, err := newTreeDecoder(8, 0).Decode(body, 7)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":     ``,
		"not json":  `<html></html>`,
		"duplicate": `{"id": 7, "children": [{"id": 1}, {"id": 2, "children": [{"id": 1}]}]}`,
		"too deep":  `{"id": 7, "children": [{"id": 1, "children": [{"id": 2, "children": [{"id": 3}]}]}]}`,
		"too many":  `{"id": 7, "children": [{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5}]}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTreeDecoder(2, 5).Decode([]byte(body), 7)
			require.ErrorIs(t, err, ErrMalformedTree)
		})
	}
}
