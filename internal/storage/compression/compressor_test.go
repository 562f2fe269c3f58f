package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAvailable(t *testing.T) {
	require.Equal(t, []string{"lz4", "none"}, Available())
	_, err := Get("zstd")
	require.Error(t, err)
}

func TestLZ4ShrinksRepetitiveData(t *testing.T) {
	c, err := Get("lz4")
	require.NoError(t, err)

	data := bytes.Repeat([]byte{0}, 4096)
	out, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, tagLZ4, out[0])
	require.Less(t, len(out), 200)

	back, err := c.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, back)
}

func TestLZ4Restores(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.ByteRange(0, 3), 0, 2048).Draw(t, "data")
		out, err := LZ4Compressor{}.Compress(data)
		if err != nil {
			t.Fatalf("compress: %v", err)
		}
		back, err := LZ4Compressor{}.Decompress(out)
		if err != nil {
			t.Fatalf("decompress: %v", err)
		}
		if !bytes.Equal(data, back) {
			t.Fatalf("got %x, want %x", back, data)
		}
	})
}

func TestLZ4RejectsCorruptFrames(t *testing.T) {
	for _, frame := range [][]byte{nil, {tagRaw}, {tagRaw, 5, 1}, {7, 1, 0}} {
		_, err := LZ4Compressor{}.Decompress(frame)
		require.ErrorIs(t, err, ErrCorrupt)
	}
}

func TestSealOpen(t *testing.T) {
	data := bytes.Repeat([]byte("feed"), 64)

	tt := []struct {
		name string
		id   byte
	}{
		{"none", IDNone},
		{"lz4", IDLZ4},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Get(tc.name)
			require.NoError(t, err)
			sealed, err := Seal(c, data)
			require.NoError(t, err)
			require.Equal(t, tc.id, sealed[0])

			back, err := Open(sealed)
			require.NoError(t, err)
			require.Equal(t, data, back)
		})
	}
}

func TestOpenRejectsBadBlobs(t *testing.T) {
	_, err := Open(nil)
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = Open([]byte{9, 1, 2})
	require.ErrorIs(t, err, ErrUnknownCodec)

	_, err = Open([]byte{IDLZ4, tagRaw})
	require.ErrorIs(t, err, ErrCorrupt)
}
