// Package tagmatch implements predicates over OSM tag sets. A StringMatcher
// matches a single key or value, a TagMatcher combines a key and a value
// matcher, and a TagsFilter is an ordered rule list deciding whether a tag
// set qualifies an object for further processing.
package tagmatch

import (
	"regexp"
	"strings"

	"github.com/paulmach/osm"
)

// StringMatcher matches a single tag key or value.
type StringMatcher interface {
	Match(s string) bool
}

type alwaysMatcher bool

func (m alwaysMatcher) Match(string) bool { return bool(m) }

// AlwaysTrue returns a matcher accepting every string.
func AlwaysTrue() StringMatcher { return alwaysMatcher(true) }

// AlwaysFalse returns a matcher accepting no string.
func AlwaysFalse() StringMatcher { return alwaysMatcher(false) }

type equalMatcher string

func (m equalMatcher) Match(s string) bool { return s == string(m) }

// Equal matches exactly the given string.
func Equal(v string) StringMatcher { return equalMatcher(v) }

type prefixMatcher string

func (m prefixMatcher) Match(s string) bool { return strings.HasPrefix(s, string(m)) }

// Prefix matches any string starting with the given prefix.
func Prefix(p string) StringMatcher { return prefixMatcher(p) }

type substringMatcher string

func (m substringMatcher) Match(s string) bool { return strings.Contains(s, string(m)) }

// Substring matches any string containing the given substring.
func Substring(sub string) StringMatcher { return substringMatcher(sub) }

type oneOfMatcher []string

func (m oneOfMatcher) Match(s string) bool {
	for _, v := range m {
		if s == v {
			return true
		}
	}
	return false
}

// OneOf matches any of the given strings.
func OneOf(values ...string) StringMatcher { return oneOfMatcher(values) }

type regexpMatcher struct{ re *regexp.Regexp }

func (m regexpMatcher) Match(s string) bool { return m.re.MatchString(s) }

// Regexp matches strings against the given regular expression.
func Regexp(re *regexp.Regexp) StringMatcher { return regexpMatcher{re: re} }

// TagMatcher matches one tag: the key matcher must accept the key and the
// value matcher result, xor-ed with the invert flag, must accept the value.
type TagMatcher struct {
	key    StringMatcher
	value  StringMatcher
	result bool
}

// MatchNone returns a TagMatcher matching no tags.
func MatchNone() TagMatcher {
	return TagMatcher{key: AlwaysFalse(), value: AlwaysFalse(), result: true}
}

// MatchKey returns a TagMatcher matching every tag whose key is accepted,
// regardless of value.
func MatchKey(key StringMatcher) TagMatcher {
	return TagMatcher{key: key, value: AlwaysTrue(), result: true}
}

// MatchKeyValue returns a TagMatcher for the given key and value matchers.
// With invert set the value match is negated, the key match is not.
func MatchKeyValue(key, value StringMatcher, invert bool) TagMatcher {
	return TagMatcher{key: key, value: value, result: !invert}
}

// MatchTag reports whether the tag matches.
func (m TagMatcher) MatchTag(t osm.Tag) bool {
	return m.key.Match(t.Key) && m.value.Match(t.Value) == m.result
}

// MatchAny reports whether any tag of the set matches.
func (m TagMatcher) MatchAny(tags osm.Tags) bool {
	for _, t := range tags {
		if m.MatchTag(t) {
			return true
		}
	}
	return false
}

type filterRule struct {
	matcher TagMatcher
	result  bool
}

// TagsFilter decides for each tag whether it is interesting. Rules are
// checked in order, the first matching rule wins, tags matching no rule get
// the default result.
type TagsFilter struct {
	rules        []filterRule
	defaultValue bool
}

// NewTagsFilter returns a filter with the given default result and no rules.
func NewTagsFilter(defaultResult bool) *TagsFilter {
	return &TagsFilter{defaultValue: defaultResult}
}

// Add appends a rule. Tags matched by m get the given result.
func (f *TagsFilter) Add(result bool, m TagMatcher) *TagsFilter {
	f.rules = append(f.rules, filterRule{matcher: m, result: result})
	return f
}

// MatchTag reports the filter result for a single tag.
func (f *TagsFilter) MatchTag(t osm.Tag) bool {
	for _, r := range f.rules {
		if r.matcher.MatchTag(t) {
			return r.result
		}
	}
	return f.defaultValue
}

// MatchAnyOf reports whether at least one tag passes the filter.
func (f *TagsFilter) MatchAnyOf(tags osm.Tags) bool {
	for _, t := range tags {
		if f.MatchTag(t) {
			return true
		}
	}
	return false
}

// MatchNoneOf reports whether no tag passes the filter.
func (f *TagsFilter) MatchNoneOf(tags osm.Tags) bool {
	return !f.MatchAnyOf(tags)
}
