package area

// AreaStats aggregates counters over all assembler invocations of a manager
// run.
type AreaStats struct {
	// Areas successfully built.
	FromWays      int64
	FromRelations int64

	// Rings of successfully built areas.
	OuterRings int64
	InnerRings int64

	// Areas with more than one outer ring.
	Multipolygons int64

	// Objects skipped because a node had no usable location.
	InvalidLocations int64

	// Ring groups that did not close, and closed inner rings that lie inside
	// no outer ring.
	DanglingSegments int64

	// Relations whose members produced no valid outer ring.
	NoValidOuterRings int64

	// Members with a role other than inner or outer; an empty role counts
	// as outer.
	WrongRoles int64

	// Member ways that were expected but not stored.
	MemberWaysMissing int64

	// Relations whose members never all arrived.
	IncompleteRelations int64
}

// Add accumulates o into s.
func (s *AreaStats) Add(o AreaStats) {
	s.FromWays += o.FromWays
	s.FromRelations += o.FromRelations
	s.OuterRings += o.OuterRings
	s.InnerRings += o.InnerRings
	s.Multipolygons += o.Multipolygons
	s.InvalidLocations += o.InvalidLocations
	s.DanglingSegments += o.DanglingSegments
	s.NoValidOuterRings += o.NoValidOuterRings
	s.WrongRoles += o.WrongRoles
	s.MemberWaysMissing += o.MemberWaysMissing
	s.IncompleteRelations += o.IncompleteRelations
}
