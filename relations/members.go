package relations

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"unsafe"

	"github.com/paulmach/osm"

	"github.com/oraluben/libosmium/internal/osmcodec"
	"github.com/oraluben/libosmium/stash"
)

type phase int

const (
	phaseCollecting phase = iota
	phasePrepared
)

// memberInterest records that one member slot of a relation is waiting for a
// way. After the way arrived, way holds the stash handle of its payload. The
// payload is shared between all interests with the same way id.
type memberInterest struct {
	wayID   osm.WayID
	rel     RelationHandle
	slot    int32
	removed bool
	way     stash.Handle
}

// MembersDatabase matches incoming ways of the second pass against the
// interests registered in the first pass. Interests are collected in
// arbitrary order, Prepare sorts them by way id (stable, so interests of one
// way fire in registration order), afterwards lookups are binary searches.
//
// Not safe for concurrent use.
type MembersDatabase struct {
	stash     *stash.Stash
	relations *RelationsDatabase
	phase     phase
	interests []memberInterest
}

// NewMembersDatabase returns an empty database. Way payloads are stored in
// s, member counts are kept in rdb.
func NewMembersDatabase(s *stash.Stash, rdb *RelationsDatabase) *MembersDatabase {
	return &MembersDatabase{stash: s, relations: rdb}
}

// Track registers interest of the relation behind h in the way with the
// given id, filling member slot `slot` of the relation. Only allowed before
// Prepare.
func (db *MembersDatabase) Track(h RelationHandle, wayID osm.WayID, slot int) {
	if db.phase != phaseCollecting {
		panic("relations: Track called after Prepare")
	}
	db.interests = append(db.interests, memberInterest{
		wayID: wayID,
		rel:   h,
		slot:  int32(slot),
	})
	db.relations.IncrementMembers(h)
}

// Prepare sorts the interests and switches the database into the lookup
// phase. Must be called exactly once, between the two passes.
func (db *MembersDatabase) Prepare() {
	if db.phase != phaseCollecting {
		panic("relations: Prepare called twice")
	}
	slices.SortStableFunc(db.interests, func(a, b memberInterest) int {
		return cmp.Compare(a.wayID, b.wayID)
	})
	db.phase = phasePrepared
}

// Add offers a way from the second pass. If no interest matches, the way is
// discarded. Otherwise its payload is stored once and every live matching
// interest is satisfied in registration order; whenever that completes a
// relation, onComplete is called synchronously with its handle. The callback
// owns the rest of the relation's lifecycle (it is expected to end with
// Remove for each member and RelationsDatabase.Remove).
func (db *MembersDatabase) Add(w *osm.Way, onComplete func(RelationHandle)) {
	if db.phase != phasePrepared {
		panic("relations: Add called before Prepare")
	}
	lo, hi := db.searchRange(w.ID)
	live := false
	for i := lo; i < hi; i++ {
		if !db.interests[i].removed {
			live = true
			break
		}
	}
	if !live {
		return
	}

	h := db.stash.Add(osmcodec.AppendWay(nil, w))
	for i := lo; i < hi; i++ {
		e := &db.interests[i]
		if e.removed {
			continue
		}
		e.way = h
		if db.relations.DecrementMembers(e.rel) == 0 {
			onComplete(e.rel)
		}
	}
}

// Remove drops all interests matching both ids. When the last interest in a
// way goes, its payload is released from the stash.
func (db *MembersDatabase) Remove(wayID osm.WayID, relID osm.RelationID) {
	lo, hi := db.searchRange(wayID)

	for i := lo; i < hi; i++ {
		e := &db.interests[i]
		if !e.removed && db.relations.ID(e.rel) == relID {
			e.removed = true
		}
	}

	for i := lo; i < hi; i++ {
		if !db.interests[i].removed {
			return
		}
	}
	var payload stash.Handle
	for i := lo; i < hi; i++ {
		if db.interests[i].way.Valid() {
			payload = db.interests[i].way
		}
		db.interests[i].way = stash.Handle{}
	}
	if payload.Valid() {
		db.stash.Remove(payload)
	}
}

// Get returns the stored way with the given id, decoded into a fresh copy.
// The second result is false if the way never arrived or was released.
func (db *MembersDatabase) Get(wayID osm.WayID) (*osm.Way, bool) {
	lo, hi := db.searchRange(wayID)
	for i := lo; i < hi; i++ {
		if db.interests[i].way.Valid() {
			w, err := osmcodec.DecodeWay(db.stash.Get(db.interests[i].way))
			if err != nil {
				panic(fmt.Sprintf("relations: corrupt way item for id %d: %v", wayID, err))
			}
			return w, true
		}
	}
	return nil, false
}

// Pending returns the number of interests not yet satisfied or removed.
func (db *MembersDatabase) Pending() int {
	n := 0
	for i := range db.interests {
		if !db.interests[i].removed && !db.interests[i].way.Valid() {
			n++
		}
	}
	return n
}

// UsedMemory returns the bytes used by the interest vector. Way payload
// bytes are accounted by the stash.
func (db *MembersDatabase) UsedMemory() int {
	return cap(db.interests) * int(unsafe.Sizeof(memberInterest{}))
}

// Clear drops all interests. Payloads are released through the stash by the
// owner.
func (db *MembersDatabase) Clear() {
	db.interests = nil
}

func (db *MembersDatabase) searchRange(wayID osm.WayID) (int, int) {
	lo := sort.Search(len(db.interests), func(i int) bool {
		return db.interests[i].wayID >= wayID
	})
	hi := lo
	for hi < len(db.interests) && db.interests[hi].wayID == wayID {
		hi++
	}
	return lo, hi
}
