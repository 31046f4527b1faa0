package ordercheck_test

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/require"

	"github.com/oraluben/libosmium/ordercheck"
)

func TestCanonicalOrderPasses(t *testing.T) {
	var c ordercheck.Checker

	stream := []osm.Object{
		&osm.Node{ID: 1},
		&osm.Node{ID: 5},
		&osm.Way{ID: 1},
		&osm.Way{ID: 2},
		&osm.Relation{ID: 1},
		&osm.Relation{ID: 7},
	}
	for _, o := range stream {
		require.NoError(t, c.Check(o))
	}
}

func TestDescendingIDFails(t *testing.T) {
	var c ordercheck.Checker

	require.NoError(t, c.Check(&osm.Way{ID: 10}))
	err := c.Check(&osm.Way{ID: 9})
	require.Error(t, err)

	var oerr *ordercheck.InvalidOrderError
	require.ErrorAs(t, err, &oerr)
	require.Equal(t, osm.TypeWay, oerr.Type)
	require.Equal(t, int64(10), oerr.PrevID)
	require.Equal(t, int64(9), oerr.ID)
}

func TestDuplicateIDFails(t *testing.T) {
	var c ordercheck.Checker

	require.NoError(t, c.Check(&osm.Node{ID: 3}))
	require.Error(t, c.Check(&osm.Node{ID: 3}))
}

func TestTypeRegressionFails(t *testing.T) {
	var c ordercheck.Checker

	require.NoError(t, c.Check(&osm.Way{ID: 1}))
	require.Error(t, c.Check(&osm.Node{ID: 99}))
}

func TestSkippedTypeSectionsAllowed(t *testing.T) {
	var c ordercheck.Checker

	// a stream without a ways section is in canonical order
	require.NoError(t, c.Check(&osm.Node{ID: 2}))
	require.NoError(t, c.Check(&osm.Relation{ID: 1}))
}
