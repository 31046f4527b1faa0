package area

import (
	"errors"
	"log/slog"

	"github.com/paulmach/osm"

	"github.com/oraluben/libosmium/relations"
	"github.com/oraluben/libosmium/stash"
	"github.com/oraluben/libosmium/tagmatch"
)

// Config configures a Manager. Zero fields fall back to the defaults of
// ConfigDefault.
type Config struct {
	// Assembler builds the areas. Defaults to a RingAssembler with the
	// default configuration.
	Assembler Assembler

	// Filter decides which tags qualify an object for area building.
	// Defaults to matching every tag.
	Filter *tagmatch.TagsFilter

	// FlushBytes is the output buffer high-water mark.
	FlushBytes int

	// OutputCallback receives full output buffers. Nil means pull mode
	// via Read.
	OutputCallback func([]byte)

	Logger *slog.Logger
}

// ConfigDefault returns the default manager configuration.
func ConfigDefault() Config {
	return Config{
		Assembler:  NewRingAssembler(AssemblerConfigDefault()),
		Filter:     tagmatch.NewTagsFilter(true),
		FlushBytes: DefaultFlushBytes,
		Logger:     slog.Default(),
	}
}

// Manager coordinates the two passes that build areas from an OSM stream.
//
// Pass 1 feeds relations into Relation, which keeps multipolygon/boundary
// relations and registers interest in their way members. Prepare must be
// called between the passes. Pass 2 feeds ways into Way, which resolves
// member interests (completing relations as their last member arrives) and
// independently assembles closed ways. Relation areas completed by a way are
// emitted before that way's own area.
//
// All state is mutated on the calling goroutine; the Manager is not safe
// for concurrent use.
type Manager struct {
	assembler Assembler
	filter    *tagmatch.TagsFilter

	stash       *stash.Stash
	relationsDB *relations.RelationsDatabase
	membersDB   *relations.MembersDatabase

	output *CallbackBuffer
	stats  AreaStats
	log    *slog.Logger
}

// NewManager returns a manager for one run over an OSM stream.
func NewManager(cfg Config) *Manager {
	def := ConfigDefault()
	if cfg.Assembler == nil {
		cfg.Assembler = def.Assembler
	}
	if cfg.Filter == nil {
		cfg.Filter = def.Filter
	}
	if cfg.FlushBytes <= 0 {
		cfg.FlushBytes = def.FlushBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}

	s := stash.New()
	rdb := relations.NewRelationsDatabase(s)
	return &Manager{
		assembler:   cfg.Assembler,
		filter:      cfg.Filter,
		stash:       s,
		relationsDB: rdb,
		membersDB:   relations.NewMembersDatabase(s, rdb),
		output:      NewCallbackBuffer(cfg.FlushBytes, cfg.OutputCallback),
		log:         cfg.Logger,
	}
}

// SetOutputCallback installs the sink for full output buffers. Nil switches
// to pull mode.
func (m *Manager) SetOutputCallback(callback func([]byte)) {
	m.output.SetCallback(callback)
}

// keepRelation reports whether the relation can produce an area: it must be
// tagged type=multipolygon or type=boundary, have at least one tag passing
// the filter, and have at least one way member.
func (m *Manager) keepRelation(rel *osm.Relation) bool {
	typ := rel.Tags.Find("type")
	if typ != "multipolygon" && typ != "boundary" {
		return false
	}
	if !m.filter.MatchAnyOf(rel.Tags) {
		return false
	}
	for _, mb := range rel.Members {
		if mb.Type == osm.TypeWay && mb.Ref != 0 {
			return true
		}
	}
	return false
}

// Relation handles one relation of the first pass. Kept relations are
// stored with the refs of all non-way members zeroed, and an interest is
// registered for every way member.
func (m *Manager) Relation(rel *osm.Relation) {
	if !m.keepRelation(rel) {
		return
	}

	kept := &osm.Relation{
		ID:      rel.ID,
		Tags:    rel.Tags,
		Members: make(osm.Members, len(rel.Members)),
	}
	copy(kept.Members, rel.Members)
	for i := range kept.Members {
		if kept.Members[i].Type != osm.TypeWay {
			kept.Members[i].Ref = 0
		}
	}

	h := m.relationsDB.Add(kept)
	for slot, mb := range kept.Members {
		if mb.Type == osm.TypeWay && mb.Ref != 0 {
			m.membersDB.Track(h, osm.WayID(mb.Ref), slot)
		}
	}
}

// Prepare sorts the members database. Must be called between the passes.
func (m *Manager) Prepare() {
	m.membersDB.Prepare()
}

// Way handles one way of the second pass: it is first offered to the
// members database (possibly completing relations), then to the closed-way
// assembly path.
func (m *Manager) Way(w *osm.Way) error {
	var firstErr error
	m.membersDB.Add(w, func(h relations.RelationHandle) {
		if err := m.completeRelation(h); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	if firstErr != nil {
		return firstErr
	}
	return m.assembleWay(w)
}

// completeRelation is called when the last member of a relation arrived. It
// assembles the area, removes the remaining interests (defensively, they
// have normally all been consumed) and releases the relation.
func (m *Manager) completeRelation(h relations.RelationHandle) error {
	rel := m.relationsDB.Get(h)

	ways := make([]*osm.Way, 0, len(rel.Members))
	for _, mb := range rel.Members {
		if mb.Ref == 0 {
			continue
		}
		w, ok := m.membersDB.Get(osm.WayID(mb.Ref))
		if !ok {
			m.stats.MemberWaysMissing++
			m.log.Warn("member way missing", "relation", rel.ID, "way", mb.Ref)
			w = nil
		}
		ways = append(ways, w)
	}

	st, err := m.assembler.AssembleRelation(rel, ways, m.output.Buffer())
	m.stats.Add(st)
	switch {
	case errors.Is(err, ErrInvalidLocation):
		m.stats.InvalidLocations++
	case err != nil:
		return err
	default:
		m.output.PossiblyFlush()
	}

	m.removeMembers(rel)
	m.relationsDB.Remove(h)
	return nil
}

func (m *Manager) removeMembers(rel *osm.Relation) {
	for _, mb := range rel.Members {
		if mb.Ref != 0 {
			m.membersDB.Remove(osm.WayID(mb.Ref), rel.ID)
		}
	}
}

// assembleWay builds an area from a closed way: more than 3 node refs, both
// end locations present and equal, not tagged area=no, and at least one tag
// passing the filter.
func (m *Manager) assembleWay(w *osm.Way) error {
	if len(w.Nodes) <= 3 {
		return nil
	}
	front := w.Nodes[0]
	back := w.Nodes[len(w.Nodes)-1]
	if !hasLocation(front) || !hasLocation(back) {
		m.stats.InvalidLocations++
		return nil
	}
	if !sameLocation(front, back) {
		return nil
	}
	if w.Tags.Find("area") == "no" {
		return nil
	}
	if m.filter.MatchNoneOf(w.Tags) {
		return nil
	}

	st, err := m.assembler.AssembleWay(w, m.output.Buffer())
	m.stats.Add(st)
	if errors.Is(err, ErrInvalidLocation) {
		m.stats.InvalidLocations++
		return nil
	}
	if err != nil {
		return err
	}
	m.output.PossiblyFlush()
	return nil
}

// FlushOutput delivers any partial output buffer. Called unconditionally
// after the second pass.
func (m *Manager) FlushOutput() {
	m.output.Flush()
}

// Read returns the buffered output in pull mode.
func (m *Manager) Read() []byte {
	return m.output.Read()
}

// Incomplete returns the ids of relations still waiting for members. After
// the second pass these are the relations with way members missing from the
// input.
func (m *Manager) Incomplete() []osm.RelationID {
	var ids []osm.RelationID
	m.relationsDB.ForEach(func(_ relations.RelationHandle, rel *osm.Relation) bool {
		ids = append(ids, rel.ID)
		return true
	})
	return ids
}

// Stats returns the aggregated statistics of all assembler invocations.
// IncompleteRelations reflects the relations still held, so it is only
// final after the second pass.
func (m *Manager) Stats() AreaStats {
	st := m.stats
	st.IncompleteRelations = int64(m.relationsDB.Count())
	return st
}

// UsedMemory reports the bytes held by the manager's components.
func (m *Manager) UsedMemory() relations.MemoryUsage {
	return relations.MemoryUsage{
		Relations: m.relationsDB.UsedMemory(),
		Members:   m.membersDB.UsedMemory(),
		Stash:     m.stash.UsedMemory(),
	}
}

// Close releases all storage. Incomplete relations and their stored members
// are dropped, buffered output that was not flushed is lost.
func (m *Manager) Close() {
	m.membersDB.Clear()
	m.relationsDB.Clear()
	m.stash.Clear()
}
