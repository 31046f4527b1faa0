package area

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/paulmach/osm"

	"github.com/oraluben/libosmium/internal/osmcodec"
)

// AppendArea appends the binary form of a to dst. Encoded areas are
// self-delimiting and can be concatenated into one output buffer.
func AppendArea(dst []byte, a *Area) []byte {
	dst = append(dst, osmcodec.ItemArea)
	dst = binary.AppendVarint(dst, a.ID)
	dst = osmcodec.AppendTags(dst, a.Tags)
	dst = binary.AppendUvarint(dst, uint64(len(a.Polygons)))
	for _, p := range a.Polygons {
		dst = osmcodec.AppendWayNodes(dst, osm.WayNodes(p.Outer))
		dst = binary.AppendUvarint(dst, uint64(len(p.Inners)))
		for _, inner := range p.Inners {
			dst = osmcodec.AppendWayNodes(dst, osm.WayNodes(inner))
		}
	}
	return dst
}

func writeArea(buf *bytes.Buffer, a *Area) {
	buf.Write(AppendArea(nil, a))
}

// DecodeAreas decodes a sequence of concatenated encoded areas, such as the
// contents of a flushed output buffer.
func DecodeAreas(data []byte) ([]*Area, error) {
	r := osmcodec.NewReader(data)
	var areas []*Area
	for r.Remaining() > 0 {
		if tag := r.Byte(); tag != osmcodec.ItemArea {
			return nil, fmt.Errorf("area: expected area item, got tag %q", tag)
		}
		a := &Area{
			ID:   r.Varint(),
			Tags: r.Tags(),
		}
		npolys := r.Uvarint()
		if npolys > uint64(r.Remaining()) {
			return nil, osmcodec.ErrTruncated
		}
		for i := uint64(0); i < npolys && r.Err() == nil; i++ {
			p := Polygon{Outer: Ring(r.WayNodes())}
			ninner := r.Uvarint()
			if ninner > uint64(r.Remaining()) {
				return nil, osmcodec.ErrTruncated
			}
			for j := uint64(0); j < ninner && r.Err() == nil; j++ {
				p.Inners = append(p.Inners, Ring(r.WayNodes()))
			}
			a.Polygons = append(a.Polygons, p)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, nil
}
