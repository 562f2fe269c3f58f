package layout

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goOCR2/internal/core/ledger/entry"
	"github.com/LeJamon/goOCR2/internal/core/types"
)

func TestWriterReaderFields(t *testing.T) {
	addr := types.Address{1, 2, 3}
	w := NewWriter(entry.TypeState, 0)
	w.U8(7)
	w.Bool(true)
	w.U16(0x0102)
	w.U32(0xdeadbeef)
	w.U64(1 << 40)
	w.I64(-5)
	w.Address(addr)
	w.Int128(sdkmath.NewInt(-42))
	data, err := w.Bytes()
	require.NoError(t, err)
	require.True(t, entry.TypeState.Matches(data))

	r := NewReader(data)
	require.Equal(t, uint8(7), r.U8())
	require.True(t, r.Bool())
	require.Equal(t, uint16(0x0102), r.U16())
	require.Equal(t, uint32(0xdeadbeef), r.U32())
	require.Equal(t, uint64(1<<40), r.U64())
	require.Equal(t, int64(-5), r.I64())
	require.Equal(t, addr, r.Address())
	require.True(t, sdkmath.NewInt(-42).Equal(r.Int128()))
	require.NoError(t, r.Err())
	require.Equal(t, len(data), r.Offset())
}

func TestLittleEndianLayout(t *testing.T) {
	w := &Writer{}
	w.U32(1)
	w.Int128(sdkmath.NewInt(-1))
	data, err := w.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0}, data[:4])
	for _, b := range data[4:] {
		require.Equal(t, byte(0xff), b)
	}
}

func TestWriterInt128Overflow(t *testing.T) {
	w := &Writer{}
	w.Int128(types.MaxInt128.AddRaw(1))
	_, err := w.Bytes()
	require.ErrorIs(t, err, types.ErrInt128Overflow)
}

func TestReaderShortBuffer(t *testing.T) {
	r := NewRawReader([]byte{1, 2, 3})
	require.Equal(t, uint8(1), r.U8())
	require.Zero(t, r.U32())
	require.ErrorIs(t, r.Err(), ErrShortBuffer)
	require.Zero(t, r.U8())
}

func TestReaderFixedCopies(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	r := NewRawReader(data)
	b := r.Fixed(4)
	b[0] = 9
	require.Equal(t, byte(1), data[0])
}

func TestPad(t *testing.T) {
	w := NewWriter(entry.TypeStore, 32)
	w.U8(1)
	w.Pad(32)
	data, err := w.Bytes()
	require.NoError(t, err)
	require.Len(t, data, 32)
}
