package relations_test

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/require"

	"github.com/oraluben/libosmium/relations"
	"github.com/oraluben/libosmium/stash"
)

func testRelation(id osm.RelationID, wayRefs ...int64) *osm.Relation {
	rel := &osm.Relation{
		ID:   id,
		Tags: osm.Tags{{Key: "type", Value: "multipolygon"}},
	}
	for _, ref := range wayRefs {
		rel.Members = append(rel.Members, osm.Member{Type: osm.TypeWay, Ref: ref, Role: "outer"})
	}
	return rel
}

func TestAddGetRemove(t *testing.T) {
	s := stash.New()
	db := relations.NewRelationsDatabase(s)

	rel := testRelation(7, 10, 11)
	h := db.Add(rel)

	require.Equal(t, 1, db.Count())
	require.Equal(t, osm.RelationID(7), db.ID(h))
	require.Equal(t, rel, db.Get(h))
	require.Positive(t, s.UsedMemory())

	db.Remove(h)
	require.Equal(t, 0, db.Count())
	require.Equal(t, 0, s.UsedMemory())
	require.Panics(t, func() { db.Get(h) })
}

func TestOutstandingCounter(t *testing.T) {
	s := stash.New()
	db := relations.NewRelationsDatabase(s)

	h := db.Add(testRelation(1, 10, 11))
	require.Equal(t, 0, db.Outstanding(h))

	db.IncrementMembers(h)
	db.IncrementMembers(h)
	require.Equal(t, 2, db.Outstanding(h))

	require.Equal(t, 1, db.DecrementMembers(h))
	require.Equal(t, 0, db.DecrementMembers(h))
	require.Panics(t, func() { db.DecrementMembers(h) })
}

func TestHandleReuseAfterRemove(t *testing.T) {
	s := stash.New()
	db := relations.NewRelationsDatabase(s)

	h1 := db.Add(testRelation(1, 10))
	db.Remove(h1)
	h2 := db.Add(testRelation(2, 20))

	// slots are recycled, the new relation must be reachable
	require.Equal(t, osm.RelationID(2), db.ID(h2))
	require.Equal(t, 1, db.Count())
}

func TestForEach(t *testing.T) {
	s := stash.New()
	db := relations.NewRelationsDatabase(s)

	h1 := db.Add(testRelation(1, 10))
	db.Add(testRelation(2, 20))
	db.Remove(h1)

	var seen []osm.RelationID
	db.ForEach(func(_ relations.RelationHandle, rel *osm.Relation) bool {
		seen = append(seen, rel.ID)
		return true
	})
	require.Equal(t, []osm.RelationID{2}, seen)
}
