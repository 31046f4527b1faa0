// Package area builds polygonal areas from closed OSM ways and from
// multipolygon/boundary relations. The Manager coordinates the two passes
// over the input stream, an Assembler turns resolved geometry into Area
// values, and the CallbackBuffer delivers encoded areas downstream.
package area

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// ObjectIDToAreaID converts a way or relation id into the id of the area
// built from it. Way areas get even ids, relation areas odd ids, the sign of
// the source id is preserved.
func ObjectIDToAreaID(id int64, t osm.Type) int64 {
	areaID := id * 2
	if id < 0 {
		areaID = -areaID
	}
	if t == osm.TypeRelation {
		areaID++
	}
	if id < 0 {
		return -areaID
	}
	return areaID
}

// AreaIDToObjectID converts an area id back into the id of the way or
// relation the area was built from.
func AreaIDToObjectID(id int64) int64 {
	return id / 2
}

// FromWayAreaID reports whether the area id denotes an area built from a
// closed way rather than from a relation.
func FromWayAreaID(id int64) bool {
	if id < 0 {
		id = -id
	}
	return id&1 == 0
}

// Ring is a closed sequence of node refs: the first and last entry have the
// same location.
type Ring []osm.WayNode

// Closed reports whether the ring has at least 4 node refs and matching end
// locations.
func (r Ring) Closed() bool {
	if len(r) < 4 {
		return false
	}
	return r[0].Lat == r[len(r)-1].Lat && r[0].Lon == r[len(r)-1].Lon
}

// Geometry returns the ring as an orb.Ring in (lon, lat) order.
func (r Ring) Geometry() orb.Ring {
	ring := make(orb.Ring, 0, len(r))
	for _, n := range r {
		ring = append(ring, orb.Point{n.Lon, n.Lat})
	}
	return ring
}

func (r Ring) reverse() {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// Polygon is one outer ring together with the inner rings it encloses.
type Polygon struct {
	Outer  Ring
	Inners []Ring
}

// Area is the polygonal object derived from a closed way or a multipolygon
// relation. Polygons are ordered, inner rings follow their enclosing outer
// ring.
type Area struct {
	// ID is the area id, see ObjectIDToAreaID.
	ID   int64
	Tags osm.Tags
	// Polygons holds the outer rings in emission order, each with its
	// inner rings.
	Polygons []Polygon
}

// FromWay reports whether the area was built from a closed way.
func (a *Area) FromWay() bool {
	return FromWayAreaID(a.ID)
}

// ObjectID returns the id of the way or relation the area was built from.
func (a *Area) ObjectID() int64 {
	return AreaIDToObjectID(a.ID)
}

// NumRings counts the outer and inner rings.
func (a *Area) NumRings() (outer, inner int) {
	outer = len(a.Polygons)
	for _, p := range a.Polygons {
		inner += len(p.Inners)
	}
	return outer, inner
}

// IsMultipolygon reports whether the area has more than one outer ring.
func (a *Area) IsMultipolygon() bool {
	return len(a.Polygons) > 1
}

// Bound returns the envelope over all outer rings.
func (a *Area) Bound() orb.Bound {
	var bound orb.Bound
	first := true
	for _, p := range a.Polygons {
		b := p.Outer.Geometry().Bound()
		if first {
			bound = b
			first = false
		} else {
			bound = bound.Union(b)
		}
	}
	return bound
}
