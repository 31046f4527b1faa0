package tagmatch_test

import (
	"regexp"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/require"

	"github.com/oraluben/libosmium/tagmatch"
)

func TestStringMatchers(t *testing.T) {
	require.True(t, tagmatch.AlwaysTrue().Match("anything"))
	require.False(t, tagmatch.AlwaysFalse().Match("anything"))

	require.True(t, tagmatch.Equal("highway").Match("highway"))
	require.False(t, tagmatch.Equal("highway").Match("highway:old"))

	require.True(t, tagmatch.Prefix("addr:").Match("addr:street"))
	require.False(t, tagmatch.Prefix("addr:").Match("street"))

	require.True(t, tagmatch.Substring("forest").Match("landuse=forest zone"))
	require.False(t, tagmatch.Substring("forest").Match("meadow"))

	require.True(t, tagmatch.OneOf("yes", "true", "1").Match("true"))
	require.False(t, tagmatch.OneOf("yes", "true", "1").Match("no"))

	re := regexp.MustCompile(`^name(:.*)?$`)
	require.True(t, tagmatch.Regexp(re).Match("name:en"))
	require.False(t, tagmatch.Regexp(re).Match("int_name"))
}

func TestTagMatcher(t *testing.T) {
	m := tagmatch.MatchKeyValue(tagmatch.Equal("building"), tagmatch.Equal("yes"), false)

	require.True(t, m.MatchTag(osm.Tag{Key: "building", Value: "yes"}))
	require.False(t, m.MatchTag(osm.Tag{Key: "building", Value: "no"}))
	require.False(t, m.MatchTag(osm.Tag{Key: "landuse", Value: "yes"}))
}

func TestTagMatcherInvert(t *testing.T) {
	// building with any value except "no"
	m := tagmatch.MatchKeyValue(tagmatch.Equal("building"), tagmatch.Equal("no"), true)

	require.True(t, m.MatchTag(osm.Tag{Key: "building", Value: "yes"}))
	require.False(t, m.MatchTag(osm.Tag{Key: "building", Value: "no"}))
	require.False(t, m.MatchTag(osm.Tag{Key: "landuse", Value: "no"}))
}

func TestTagMatcherMatchAny(t *testing.T) {
	m := tagmatch.MatchKey(tagmatch.Equal("natural"))

	tags := osm.Tags{
		{Key: "name", Value: "Lake"},
		{Key: "natural", Value: "water"},
	}
	require.True(t, m.MatchAny(tags))
	require.False(t, m.MatchAny(osm.Tags{{Key: "name", Value: "Lake"}}))
	require.False(t, m.MatchAny(nil))
}

func TestMatchNone(t *testing.T) {
	m := tagmatch.MatchNone()
	require.False(t, m.MatchTag(osm.Tag{Key: "building", Value: "yes"}))
}

func TestTagsFilterDefault(t *testing.T) {
	all := tagmatch.NewTagsFilter(true)
	none := tagmatch.NewTagsFilter(false)

	tags := osm.Tags{{Key: "building", Value: "yes"}}
	require.True(t, all.MatchAnyOf(tags))
	require.False(t, none.MatchAnyOf(tags))
	require.True(t, none.MatchNoneOf(tags))

	// empty tag set matches nothing regardless of default
	require.False(t, all.MatchAnyOf(nil))
}

func TestTagsFilterRuleOrder(t *testing.T) {
	// reject created_by, accept everything else
	f := tagmatch.NewTagsFilter(true).
		Add(false, tagmatch.MatchKey(tagmatch.Equal("created_by")))

	require.False(t, f.MatchTag(osm.Tag{Key: "created_by", Value: "editor"}))
	require.True(t, f.MatchTag(osm.Tag{Key: "landuse", Value: "forest"}))

	tags := osm.Tags{{Key: "created_by", Value: "editor"}}
	require.False(t, f.MatchAnyOf(tags))
	require.True(t, f.MatchAnyOf(append(tags, osm.Tag{Key: "landuse", Value: "forest"})))
}
