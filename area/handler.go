package area

import (
	"github.com/paulmach/osm"

	"github.com/oraluben/libosmium/ordercheck"
)

// Handler is a capability record describing one pass over an OSM stream.
// Nil entry points skip the object type.
type Handler struct {
	Node     func(*osm.Node) error
	Way      func(*osm.Way) error
	Relation func(*osm.Relation) error
	Flush    func() error
}

// Object dispatches one stream object to the matching entry point.
func (h Handler) Object(o osm.Object) error {
	switch obj := o.(type) {
	case *osm.Node:
		if h.Node != nil {
			return h.Node(obj)
		}
	case *osm.Way:
		if h.Way != nil {
			return h.Way(obj)
		}
	case *osm.Relation:
		if h.Relation != nil {
			return h.Relation(obj)
		}
	}
	return nil
}

// FirstPassHandler returns the handler for the first pass: only relations
// are of interest.
func (m *Manager) FirstPassHandler() Handler {
	return Handler{
		Relation: func(rel *osm.Relation) error {
			m.Relation(rel)
			return nil
		},
	}
}

// SecondPassHandler returns the handler for the second pass. Every object
// is checked against the canonical file order (violations are fatal), ways
// are fed into the manager, and Flush delivers the remaining output.
func (m *Manager) SecondPassHandler() Handler {
	check := &ordercheck.Checker{}
	return Handler{
		Node: func(n *osm.Node) error {
			return check.Check(n)
		},
		Way: func(w *osm.Way) error {
			if err := check.Check(w); err != nil {
				return err
			}
			return m.Way(w)
		},
		Relation: func(rel *osm.Relation) error {
			return check.Check(rel)
		},
		Flush: func() error {
			m.FlushOutput()
			return nil
		},
	}
}
