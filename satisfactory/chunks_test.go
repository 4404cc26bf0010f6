package satisfactory

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"satisfactory-save-edit/memory"
)

func testBody(size int) []byte {
	body := make([]byte, size)
	for i := range body {
		body[i] = byte(i % 251)
	}
	return body
}

func TestChunkRoundTrip(t *testing.T) {
	// spans three compression windows
	body := testBody(2*LoadingCompressionChunkSize + 777)

	var packed bytes.Buffer
	require.NoError(t, compressBody(&packed, body))

	got, err := decompressBody(bytes.NewReader(packed.Bytes()), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestChunkBadMagic(t *testing.T) {
	var packed bytes.Buffer
	require.NoError(t, compressBody(&packed, testBody(64)))

	corrupted := packed.Bytes()
	corrupted[0] ^= 0xFF

	_, err := decompressBody(bytes.NewReader(corrupted), zerolog.Nop())
	require.ErrorIs(t, err, ErrChunkFraming)
}

func TestChunkSizeFieldMismatch(t *testing.T) {
	var packed bytes.Buffer
	require.NoError(t, compressBody(&packed, testBody(64)))

	// UncompressedSize2 lives after the 16-byte chunk header and the first
	// three 8-byte size fields
	corrupted := packed.Bytes()
	corrupted[16+24] ^= 0x01

	_, err := decompressBody(bytes.NewReader(corrupted), zerolog.Nop())
	require.ErrorIs(t, err, ErrChunkFraming)
}

func TestChunkLengthPrefixMismatch(t *testing.T) {
	// hand-rolled single chunk whose embedded total-length field lies
	window := make([]byte, 4+32)
	binary.LittleEndian.PutUint32(window, 99)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(window)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var packed bytes.Buffer
	require.NoError(t, binary.Write(&packed, binary.LittleEndian, chunkHeader{
		PackageFileTag:   PackageFileTag,
		MaximumChunkSize: LoadingCompressionChunkSize,
	}))
	require.NoError(t, binary.Write(&packed, binary.LittleEndian, chunkInfo{
		CompressedSize:    int64(compressed.Len()),
		UncompressedSize:  int64(len(window)),
		CompressedSize2:   int64(compressed.Len()),
		UncompressedSize2: int64(len(window)),
	}))
	packed.Write(compressed.Bytes())

	_, err = decompressBody(bytes.NewReader(packed.Bytes()), zerolog.Nop())
	require.ErrorIs(t, err, ErrChunkFraming)
}

func TestHasChunkMagic(t *testing.T) {
	var packed bytes.Buffer
	require.NoError(t, compressBody(&packed, testBody(16)))

	r := bytes.NewReader(packed.Bytes())
	ok, err := hasChunkMagic(r)
	require.NoError(t, err)
	require.True(t, ok)

	// the peek must not move the cursor
	pos, err := memory.Pos(r)
	require.NoError(t, err)
	require.Zero(t, pos)

	plain := bytes.NewReader([]byte{2, 0, 0, 0})
	ok, err = hasChunkMagic(plain)
	require.NoError(t, err)
	require.False(t, ok)
}
