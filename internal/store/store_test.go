package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/catnav/internal/domain"
)

func TestSettersAndSnapshot(t *testing.T) {
	t.Parallel()

	s := New()
	require.Equal(t, State{}, s.Snapshot())

	subs := []*domain.Category{{ID: 10, Name: "Phones"}, {ID: 11, Name: "Laptops"}}
	s.SetCategoryID(55)
	s.SetCategoryIDs("1,10,55")
	s.SetSubCategories(subs)
	s.SetSubSubCategories(subs[:1])
	s.SetSubCategoryIndex(1)
	s.SetSecondLevelCategoryIndex(2)
	s.SetSubCategoryParentName("Store")
	s.SetSubSubCategoryParentName("Phones")

	snap := s.Snapshot()
	require.Equal(t, domain.CategoryID(55), snap.CategoryID)
	require.Equal(t, "1,10,55", snap.CategoryIDs)
	require.Equal(t, subs, snap.SubCategories)
	require.Len(t, snap.SubSubCategories, 1)
	require.Equal(t, 1, snap.SubCategoryIndex)
	require.Equal(t, 2, snap.SecondLevelCategoryIndex)
	require.Equal(t, "Store", snap.SubCategoryParentName)
	require.Equal(t, "Phones", snap.SubSubCategoryParentName)

	// snapshots do not alias the caller's slice
	subs[0] = &domain.Category{ID: 99}
	require.Equal(t, domain.CategoryID(10), s.Snapshot().SubCategories[0].ID)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	s := New()
	var seen []domain.CategoryID
	unsubscribe := s.Subscribe(func(st State) {
		seen = append(seen, st.CategoryID)
	})

	s.SetCategoryID(1)
	s.SetCategoryID(2)
	unsubscribe()
	s.SetCategoryID(3)

	require.Equal(t, []domain.CategoryID{1, 2}, seen)
}

func TestObserverMayReadStore(t *testing.T) {
	t.Parallel()

	s := New()
	var got string
	s.Subscribe(func(State) {
		got = s.Snapshot().CategoryIDs
	})
	s.SetCategoryIDs("4,5")
	require.Equal(t, "4,5", got)
}
