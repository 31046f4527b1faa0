// Package relations tracks the relations kept during the first pass over an
// OSM stream and the way members they are waiting for in the second pass.
// All object payloads live in a shared item stash, the databases hold only
// handles and counters.
package relations

import (
	"fmt"
	"unsafe"

	"github.com/paulmach/osm"

	"github.com/oraluben/libosmium/internal/osmcodec"
	"github.com/oraluben/libosmium/stash"
)

// RelationHandle is a cursor into a RelationsDatabase identifying one kept
// relation. Handles are entry indexes, so the zero value names the first
// entry; use NilHandle for "no relation".
type RelationHandle int32

// NilHandle is the invalid relation handle.
const NilHandle RelationHandle = -1

type relationEntry struct {
	item        stash.Handle
	id          osm.RelationID
	outstanding int32
	live        bool
}

// RelationsDatabase holds all relations kept for area assembly, with a
// per-relation count of way members that have not arrived yet.
//
// Not safe for concurrent use.
type RelationsDatabase struct {
	stash   *stash.Stash
	entries []relationEntry
	free    []int32
	count   int
}

// NewRelationsDatabase returns an empty database storing payloads in s.
func NewRelationsDatabase(s *stash.Stash) *RelationsDatabase {
	return &RelationsDatabase{stash: s}
}

// Add copies the relation into the stash and returns its handle. The
// outstanding member count starts at zero.
func (db *RelationsDatabase) Add(rel *osm.Relation) RelationHandle {
	var idx int32
	if n := len(db.free); n > 0 {
		idx = db.free[n-1]
		db.free = db.free[:n-1]
	} else {
		db.entries = append(db.entries, relationEntry{})
		idx = int32(len(db.entries) - 1)
	}

	db.entries[idx] = relationEntry{
		item: db.stash.Add(osmcodec.AppendRelation(nil, rel)),
		id:   rel.ID,
		live: true,
	}
	db.count++
	return RelationHandle(idx)
}

// Get decodes the stored relation. The result is a fresh copy owned by the
// caller.
func (db *RelationsDatabase) Get(h RelationHandle) *osm.Relation {
	e := db.entry(h)
	rel, err := osmcodec.DecodeRelation(db.stash.Get(e.item))
	if err != nil {
		panic(fmt.Sprintf("relations: corrupt relation item for handle %d: %v", h, err))
	}
	return rel
}

// ID returns the id of the stored relation without decoding it.
func (db *RelationsDatabase) ID(h RelationHandle) osm.RelationID {
	return db.entry(h).id
}

// IncrementMembers notes one more outstanding way member for the relation.
func (db *RelationsDatabase) IncrementMembers(h RelationHandle) {
	db.entry(h).outstanding++
}

// DecrementMembers notes the arrival of one way member and returns the
// number of members still outstanding.
func (db *RelationsDatabase) DecrementMembers(h RelationHandle) int {
	e := db.entry(h)
	if e.outstanding == 0 {
		panic(fmt.Sprintf("relations: member count underflow for relation %d", e.id))
	}
	e.outstanding--
	return int(e.outstanding)
}

// Outstanding returns the number of way members not yet arrived.
func (db *RelationsDatabase) Outstanding(h RelationHandle) int {
	return int(db.entry(h).outstanding)
}

// Remove releases the relation payload and invalidates the handle.
func (db *RelationsDatabase) Remove(h RelationHandle) {
	e := db.entry(h)
	db.stash.Remove(e.item)
	*e = relationEntry{}
	db.free = append(db.free, int32(h))
	db.count--
}

// Count returns the number of live relations.
func (db *RelationsDatabase) Count() int {
	return db.count
}

// ForEach calls fn for every live relation until fn returns false. Used for
// end-of-input diagnostics; fn must not add or remove relations.
func (db *RelationsDatabase) ForEach(fn func(RelationHandle, *osm.Relation) bool) {
	for i := range db.entries {
		if !db.entries[i].live {
			continue
		}
		if !fn(RelationHandle(i), db.Get(RelationHandle(i))) {
			return
		}
	}
}

// UsedMemory returns the bytes used by the entry table. Payload bytes are
// accounted by the stash.
func (db *RelationsDatabase) UsedMemory() int {
	return cap(db.entries) * int(unsafe.Sizeof(relationEntry{}))
}

// Clear drops all entries. Payloads are released through the stash by the
// owner.
func (db *RelationsDatabase) Clear() {
	db.entries = nil
	db.free = nil
	db.count = 0
}

func (db *RelationsDatabase) entry(h RelationHandle) *relationEntry {
	if h < 0 || int(h) >= len(db.entries) || !db.entries[h].live {
		panic(fmt.Sprintf("relations: invalid relation handle %d", h))
	}
	return &db.entries[h]
}
