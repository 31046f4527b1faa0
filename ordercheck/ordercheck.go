// Package ordercheck verifies that an OSM object stream obeys the canonical
// file order: all nodes, then all ways, then all relations, with strictly
// ascending ids inside each type.
package ordercheck

import (
	"fmt"

	"github.com/paulmach/osm"
)

// InvalidOrderError reports the first object breaking the canonical order.
type InvalidOrderError struct {
	Type   osm.Type
	PrevID int64
	ID     int64
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("ordercheck: %s id %d after %s id %d breaks canonical order",
		e.Type, e.ID, e.Type, e.PrevID)
}

func typeRank(t osm.Type) int {
	switch t {
	case osm.TypeNode:
		return 0
	case osm.TypeWay:
		return 1
	case osm.TypeRelation:
		return 2
	}
	return -1
}

// Checker tracks the last seen object per stream. The zero value is ready
// for use.
type Checker struct {
	started  bool
	lastType osm.Type
	lastID   int64
}

// Check validates o against the objects seen before it. Objects that are not
// nodes, ways or relations are ignored. The error, if any, is an
// *InvalidOrderError.
func (c *Checker) Check(o osm.Object) error {
	var typ osm.Type
	var id int64

	switch obj := o.(type) {
	case *osm.Node:
		typ, id = osm.TypeNode, int64(obj.ID)
	case *osm.Way:
		typ, id = osm.TypeWay, int64(obj.ID)
	case *osm.Relation:
		typ, id = osm.TypeRelation, int64(obj.ID)
	default:
		return nil
	}

	if !c.started {
		c.started = true
		c.lastType, c.lastID = typ, id
		return nil
	}

	switch {
	case typeRank(typ) > typeRank(c.lastType):
		// new type section starts
	case typeRank(typ) < typeRank(c.lastType):
		return &InvalidOrderError{Type: typ, PrevID: c.lastID, ID: id}
	case id <= c.lastID:
		return &InvalidOrderError{Type: typ, PrevID: c.lastID, ID: id}
	}

	c.lastType, c.lastID = typ, id
	return nil
}
