package area_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oraluben/libosmium/area"
)

func TestBufferPullMode(t *testing.T) {
	b := area.NewCallbackBuffer(0, nil)

	b.Buffer().WriteString("payload")
	require.Equal(t, 7, b.Len())

	require.Equal(t, []byte("payload"), b.Read())
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Read())
}

func TestPossiblyFlushBelowThreshold(t *testing.T) {
	flushed := 0
	b := area.NewCallbackBuffer(1024, func([]byte) { flushed++ })

	b.Buffer().WriteString("small")
	b.PossiblyFlush()
	require.Equal(t, 0, flushed)
	require.Equal(t, 5, b.Len())
}

func TestPossiblyFlushAtThreshold(t *testing.T) {
	var got [][]byte
	b := area.NewCallbackBuffer(8, func(data []byte) { got = append(got, data) })

	b.Buffer().WriteString("0123456789")
	b.PossiblyFlush()

	require.Len(t, got, 1)
	require.Equal(t, []byte("0123456789"), got[0])
	require.Equal(t, 0, b.Len())
}

func TestFlushForcesHandOff(t *testing.T) {
	var got [][]byte
	b := area.NewCallbackBuffer(1024, func(data []byte) { got = append(got, data) })

	b.Buffer().WriteString("partial")
	b.Flush()

	require.Len(t, got, 1)
	require.Equal(t, []byte("partial"), got[0])

	// empty buffer flushes nothing
	b.Flush()
	require.Len(t, got, 1)
}

func TestSetCallbackSwitchesMode(t *testing.T) {
	b := area.NewCallbackBuffer(1024, nil)
	b.Buffer().WriteString("x")
	b.Flush() // pull mode, no-op
	require.Equal(t, 1, b.Len())

	var got []byte
	b.SetCallback(func(data []byte) { got = data })
	b.Flush()
	require.Equal(t, []byte("x"), got)
}
