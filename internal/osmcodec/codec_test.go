package osmcodec_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/require"

	"github.com/oraluben/libosmium/internal/osmcodec"
)

func TestWayRoundTrip(t *testing.T) {
	w := &osm.Way{
		ID: 42,
		Nodes: osm.WayNodes{
			{ID: 1, Lat: 51.5007, Lon: -0.1246},
			{ID: 2, Lat: 51.5014, Lon: -0.1419},
			{ID: 1, Lat: 51.5007, Lon: -0.1246},
		},
		Tags: osm.Tags{
			{Key: "building", Value: "yes"},
			{Key: "name", Value: "somewhere"},
		},
	}

	got, err := osmcodec.DecodeWay(osmcodec.AppendWay(nil, w))
	require.NoError(t, err)
	require.Equal(t, w, got)
}

func TestNegativeWayID(t *testing.T) {
	w := &osm.Way{ID: -17, Nodes: osm.WayNodes{{ID: -3, Lat: 1, Lon: 2}}}

	got, err := osmcodec.DecodeWay(osmcodec.AppendWay(nil, w))
	require.NoError(t, err)
	require.Equal(t, osm.WayID(-17), got.ID)
	require.Equal(t, osm.NodeID(-3), got.Nodes[0].ID)
}

func TestRelationRoundTrip(t *testing.T) {
	rel := &osm.Relation{
		ID: 7,
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 10, Role: "outer", Orientation: orb.CCW},
			{Type: osm.TypeWay, Ref: 11, Role: "inner", Orientation: orb.CW},
			{Type: osm.TypeNode, Ref: 0, Role: "admin_centre"},
		},
		Tags: osm.Tags{{Key: "type", Value: "multipolygon"}},
	}

	got, err := osmcodec.DecodeRelation(osmcodec.AppendRelation(nil, rel))
	require.NoError(t, err)
	require.Equal(t, rel, got)
}

func TestDecodeWrongTag(t *testing.T) {
	data := osmcodec.AppendWay(nil, &osm.Way{ID: 1})

	_, err := osmcodec.DecodeRelation(data)
	require.Error(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	data := osmcodec.AppendWay(nil, &osm.Way{
		ID:    1,
		Nodes: osm.WayNodes{{ID: 1, Lat: 1, Lon: 1}, {ID: 2, Lat: 2, Lon: 2}},
	})

	for i := 1; i < len(data); i++ {
		_, err := osmcodec.DecodeWay(data[:i])
		require.Error(t, err, "prefix of %d bytes should not decode", i)
	}
}

func TestReaderSticksOnError(t *testing.T) {
	r := osmcodec.NewReader(nil)
	_ = r.Byte()
	require.Error(t, r.Err())
	require.Zero(t, r.Varint())
	require.Zero(t, r.Float())
	require.Empty(t, r.String())
}
