// Package osmcodec serializes OSM objects into the compact binary form kept
// in the item stash and written into area output buffers. Every encoded item
// starts with a one-byte type tag, numbers are varints and coordinates are
// little-endian float64 bits.
package osmcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Item type tags.
const (
	ItemWay      byte = 'w'
	ItemRelation byte = 'r'
	ItemArea     byte = 'a'
)

var ErrTruncated = errors.New("osmcodec: truncated item")

const (
	memberNode     byte = 'n'
	memberWay      byte = 'w'
	memberRelation byte = 'r'
)

func memberTypeByte(t osm.Type) byte {
	switch t {
	case osm.TypeWay:
		return memberWay
	case osm.TypeRelation:
		return memberRelation
	default:
		return memberNode
	}
}

func memberTypeFromByte(b byte) osm.Type {
	switch b {
	case memberWay:
		return osm.TypeWay
	case memberRelation:
		return osm.TypeRelation
	default:
		return osm.TypeNode
	}
}

// AppendFloat appends the little-endian bit pattern of f.
func AppendFloat(dst []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(f))
}

// AppendString appends a length-prefixed string.
func AppendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// AppendTags appends a count-prefixed tag list.
func AppendTags(dst []byte, tags osm.Tags) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(tags)))
	for _, t := range tags {
		dst = AppendString(dst, t.Key)
		dst = AppendString(dst, t.Value)
	}
	return dst
}

// AppendWayNodes appends a count-prefixed node-ref list with locations.
func AppendWayNodes(dst []byte, nodes osm.WayNodes) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(nodes)))
	for _, n := range nodes {
		dst = binary.AppendVarint(dst, int64(n.ID))
		dst = AppendFloat(dst, n.Lat)
		dst = AppendFloat(dst, n.Lon)
	}
	return dst
}

// AppendWay appends a full way item.
func AppendWay(dst []byte, w *osm.Way) []byte {
	dst = append(dst, ItemWay)
	dst = binary.AppendVarint(dst, int64(w.ID))
	dst = AppendWayNodes(dst, w.Nodes)
	return AppendTags(dst, w.Tags)
}

// AppendRelation appends a full relation item, including member refs, roles
// and orientations.
func AppendRelation(dst []byte, r *osm.Relation) []byte {
	dst = append(dst, ItemRelation)
	dst = binary.AppendVarint(dst, int64(r.ID))
	dst = binary.AppendUvarint(dst, uint64(len(r.Members)))
	for _, m := range r.Members {
		dst = append(dst, memberTypeByte(m.Type))
		dst = binary.AppendVarint(dst, m.Ref)
		dst = AppendString(dst, m.Role)
		dst = append(dst, byte(int8(m.Orientation)))
	}
	return AppendTags(dst, r.Tags)
}

// DecodeWay decodes one way item produced by AppendWay.
func DecodeWay(data []byte) (*osm.Way, error) {
	r := NewReader(data)
	if tag := r.Byte(); tag != ItemWay && r.Err() == nil {
		return nil, fmt.Errorf("osmcodec: expected way item, got tag %q", tag)
	}
	w := &osm.Way{
		ID:    osm.WayID(r.Varint()),
		Nodes: r.WayNodes(),
	}
	w.Tags = r.Tags()
	return w, r.Err()
}

// DecodeRelation decodes one relation item produced by AppendRelation.
func DecodeRelation(data []byte) (*osm.Relation, error) {
	r := NewReader(data)
	if tag := r.Byte(); tag != ItemRelation && r.Err() == nil {
		return nil, fmt.Errorf("osmcodec: expected relation item, got tag %q", tag)
	}
	rel := &osm.Relation{ID: osm.RelationID(r.Varint())}
	n := r.Uvarint()
	if n > uint64(r.Remaining()) {
		return nil, ErrTruncated
	}
	rel.Members = make(osm.Members, 0, n)
	for i := uint64(0); i < n && r.Err() == nil; i++ {
		m := osm.Member{
			Type: memberTypeFromByte(r.Byte()),
			Ref:  r.Varint(),
			Role: r.String(),
		}
		m.Orientation = orb.Orientation(int8(r.Byte()))
		rel.Members = append(rel.Members, m)
	}
	rel.Tags = r.Tags()
	return rel, r.Err()
}

// Reader decodes the primitives written by the Append functions. The first
// decoding error sticks, later reads return zero values.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) fail() {
	if r.err == nil {
		r.err = ErrTruncated
	}
}

func (r *Reader) Byte() byte {
	if r.err != nil || r.off >= len(r.data) {
		r.fail()
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *Reader) Uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.data[r.off:])
	if n <= 0 {
		r.fail()
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) Varint() int64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.data[r.off:])
	if n <= 0 {
		r.fail()
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) Float() float64 {
	if r.err != nil || r.off+8 > len(r.data) {
		r.fail()
		return 0
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v
}

func (r *Reader) String() string {
	n := r.Uvarint()
	if r.err != nil || n > uint64(r.Remaining()) {
		r.fail()
		return ""
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s
}

func (r *Reader) Tags() osm.Tags {
	n := r.Uvarint()
	if r.err != nil || n > uint64(r.Remaining()) {
		r.fail()
		return nil
	}
	tags := make(osm.Tags, 0, n)
	for i := uint64(0); i < n && r.err == nil; i++ {
		tags = append(tags, osm.Tag{Key: r.String(), Value: r.String()})
	}
	return tags
}

func (r *Reader) WayNodes() osm.WayNodes {
	n := r.Uvarint()
	if r.err != nil || n > uint64(r.Remaining())/8 {
		r.fail()
		return nil
	}
	nodes := make(osm.WayNodes, 0, n)
	for i := uint64(0); i < n && r.err == nil; i++ {
		nodes = append(nodes, osm.WayNode{
			ID:  osm.NodeID(r.Varint()),
			Lat: r.Float(),
			Lon: r.Float(),
		})
	}
	return nodes
}
