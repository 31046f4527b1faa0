package area

import (
	"bytes"
	"errors"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
)

// ErrInvalidLocation is returned by assemblers when a node ref has no usable
// location. The manager swallows it and skips the object.
var ErrInvalidLocation = errors.New("area: invalid location")

// Assembler turns resolved geometry into encoded areas. Implementations
// append whole areas into buf and report what they built through the
// returned stats. Geometry failures that only affect the object at hand are
// counted in the stats and return a nil error, except for the
// ErrInvalidLocation sentinel.
type Assembler interface {
	// AssembleWay builds an area from a closed way. The caller has already
	// checked the closed-way preconditions.
	AssembleWay(w *osm.Way, buf *bytes.Buffer) (AreaStats, error)

	// AssembleRelation builds an area from a relation and its resolved way
	// members. ways is aligned with the relation's members that have a
	// non-zero ref, in slot order; a nil entry marks a member that could
	// not be resolved.
	AssembleRelation(rel *osm.Relation, ways []*osm.Way, buf *bytes.Buffer) (AreaStats, error)
}

// AssemblerConfig configures the default ring assembler.
type AssemblerConfig struct {
	// CheckRoles counts members whose role is neither "outer" nor "inner".
	// An empty role is treated as "outer" and is not counted.
	CheckRoles bool
}

// AssemblerConfigDefault returns the default configuration.
func AssemblerConfigDefault() AssemblerConfig {
	return AssemblerConfig{CheckRoles: true}
}

// RingAssembler is the default Assembler: it joins member way segments into
// closed rings, orients outer rings counter-clockwise and inner rings
// clockwise, and nests each inner ring into the outer ring containing it.
type RingAssembler struct {
	cfg AssemblerConfig
}

// NewRingAssembler returns a ring assembler with the given configuration.
func NewRingAssembler(cfg AssemblerConfig) *RingAssembler {
	return &RingAssembler{cfg: cfg}
}

var _ Assembler = (*RingAssembler)(nil)

// AssembleWay implements Assembler.
func (a *RingAssembler) AssembleWay(w *osm.Way, buf *bytes.Buffer) (AreaStats, error) {
	var st AreaStats

	for _, n := range w.Nodes {
		if !hasLocation(n) {
			return st, ErrInvalidLocation
		}
	}

	ring := Ring(slices.Clone(w.Nodes))
	if !ring.Closed() {
		st.DanglingSegments++
		return st, nil
	}
	if ring.Geometry().Orientation() != orb.CCW {
		ring.reverse()
	}

	writeArea(buf, &Area{
		ID:       ObjectIDToAreaID(int64(w.ID), osm.TypeWay),
		Tags:     w.Tags,
		Polygons: []Polygon{{Outer: ring}},
	})
	st.FromWays++
	st.OuterRings++
	return st, nil
}

// AssembleRelation implements Assembler.
func (a *RingAssembler) AssembleRelation(rel *osm.Relation, ways []*osm.Way, buf *bytes.Buffer) (AreaStats, error) {
	var st AreaStats

	var outer, inner []segment
	idx := 0
	for _, mb := range rel.Members {
		if mb.Type != osm.TypeWay || mb.Ref == 0 {
			continue
		}
		if idx >= len(ways) {
			break
		}
		w := ways[idx]
		idx++
		if w == nil || len(w.Nodes) == 0 {
			continue
		}

		for _, n := range w.Nodes {
			if !hasLocation(n) {
				return st, ErrInvalidLocation
			}
		}

		seg := segment{orientation: mb.Orientation, nodes: w.Nodes}
		switch mb.Role {
		case "inner":
			inner = append(inner, seg)
		case "outer", "":
			outer = append(outer, seg)
		default:
			if a.cfg.CheckRoles {
				st.WrongRoles++
			}
		}
	}

	if len(outer) == 0 {
		st.NoValidOuterRings++
		return st, nil
	}

	out := &Area{
		ID:   ObjectIDToAreaID(int64(rel.ID), osm.TypeRelation),
		Tags: rel.Tags,
	}

	if len(outer) == 1 {
		// Old-style multipolygon: a single outer ring way. Every inner ring
		// belongs to it; the area still takes the relation's tags.
		groups := joinSegments(outer)
		if len(groups) == 0 {
			st.NoValidOuterRings++
			return st, nil
		}
		ring := groups[0].ring(orb.CCW)
		if !ring.Closed() {
			st.DanglingSegments++
			st.NoValidOuterRings++
			return st, nil
		}
		poly := Polygon{Outer: ring}
		for _, group := range joinSegments(inner) {
			r := group.ring(orb.CW)
			if !r.Closed() {
				st.DanglingSegments++
				continue
			}
			poly.Inners = append(poly.Inners, r)
		}
		out.Polygons = []Polygon{poly}
	} else {
		for _, group := range joinSegments(outer) {
			ring := group.ring(orb.CCW)
			if !ring.Closed() {
				st.DanglingSegments++
				continue
			}
			out.Polygons = append(out.Polygons, Polygon{Outer: ring})
		}
		if len(out.Polygons) == 0 {
			st.NoValidOuterRings++
			return st, nil
		}
		for _, group := range joinSegments(inner) {
			ring := group.ring(orb.CW)
			if !ring.Closed() {
				st.DanglingSegments++
				continue
			}
			if !attachInner(out, ring) {
				st.DanglingSegments++
			}
		}
	}

	writeArea(buf, out)
	st.FromRelations++
	no, ni := out.NumRings()
	st.OuterRings += int64(no)
	st.InnerRings += int64(ni)
	if out.IsMultipolygon() {
		st.Multipolygons++
	}
	return st, nil
}

// attachInner adds the ring to the first polygon whose outer ring contains
// one of its points.
func attachInner(a *Area, ring Ring) bool {
	geom := ring.Geometry()
	for i := range a.Polygons {
		outer := a.Polygons[i].Outer.Geometry()
		for _, p := range geom {
			if planar.RingContains(outer, p) {
				a.Polygons[i].Inners = append(a.Polygons[i].Inners, ring)
				return true
			}
		}
	}
	return false
}

func hasLocation(n osm.WayNode) bool {
	return n.Lat != 0 || n.Lon != 0
}

func sameLocation(a, b osm.WayNode) bool {
	return a.Lat == b.Lat && a.Lon == b.Lon
}

// segment is one member way's node list on its path into a ring.
type segment struct {
	orientation orb.Orientation
	reversed    bool
	nodes       []osm.WayNode
}

func (s *segment) reverse() {
	s.reversed = !s.reversed
	Ring(s.nodes).reverse()
}

func (s segment) first() osm.WayNode { return s.nodes[0] }
func (s segment) last() osm.WayNode  { return s.nodes[len(s.nodes)-1] }

// multiSegment is an ordered group of segments forming one continuous
// section of a ring.
type multiSegment []segment

func (ms multiSegment) first() osm.WayNode { return ms[0].nodes[0] }

func (ms multiSegment) last() osm.WayNode {
	nodes := ms[len(ms)-1].nodes
	return nodes[len(nodes)-1]
}

// ring concatenates the group into a ring of the given orientation. Member
// orientation hints are used when present, otherwise the geometric
// orientation decides.
func (ms multiSegment) ring(o orb.Orientation) Ring {
	n := 0
	for _, s := range ms {
		n += len(s.nodes)
	}
	ring := make(Ring, 0, n)

	haveOrient := false
	reversed := false
	for _, s := range ms {
		if s.orientation != 0 {
			haveOrient = true
			if (s.orientation == o) == s.reversed {
				reversed = true
			}
		}
		ring = append(ring, s.nodes...)
	}

	if (haveOrient && reversed) || (!haveOrient && ring.Geometry().Orientation() != o) {
		ring.reverse()
	}
	return ring
}

// joinSegments groups segments into continuous sections by matching end
// locations. Matched segments move from the work list into the current
// group, so the loop ends when the list is empty. Groups that do not close
// are still returned, the caller decides what to do with them.
func joinSegments(segments []segment) []multiSegment {
	var lists []multiSegment
	segments = compactSegments(segments)

	for len(segments) != 0 {
		current := multiSegment{segments[len(segments)-1]}
		segments = segments[:len(segments)-1]

		for len(segments) != 0 && !sameLocation(current.first(), current.last()) {
			first := current.first()
			last := current.last()

			foundAt := -1
			for i, seg := range segments {
				switch {
				case sameLocation(last, seg.first()):
					seg.nodes = seg.nodes[1:]
					current = append(current, seg)
					foundAt = i
				case sameLocation(last, seg.last()):
					seg.reverse()
					seg.nodes = seg.nodes[1:]
					current = append(current, seg)
					foundAt = i
				case sameLocation(first, seg.last()):
					seg.nodes = seg.nodes[:len(seg.nodes)-1]
					current = append(multiSegment{seg}, current...)
					foundAt = i
				case sameLocation(first, seg.first()):
					seg.reverse()
					seg.nodes = seg.nodes[:len(seg.nodes)-1]
					current = append(multiSegment{seg}, current...)
					foundAt = i
				}
				if foundAt >= 0 {
					break
				}
			}
			if foundAt == -1 {
				// dangling way, the group cannot close
				break
			}
			segments = slices.Delete(segments, foundAt, foundAt+1)
		}

		lists = append(lists, current)
	}

	return lists
}

func compactSegments(segments []segment) []segment {
	at := 0
	for _, s := range segments {
		if len(s.nodes) <= 1 {
			continue
		}
		segments[at] = s
		at++
	}
	return segments[:at]
}
