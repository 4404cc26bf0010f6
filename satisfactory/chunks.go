package satisfactory

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"satisfactory-save-edit/memory"
)

const (
	// PackageFileTag opens every compressed chunk.
	PackageFileTag = 0x9E2A83C1

	// LoadingCompressionChunkSize is the uncompressed window size the game
	// splits the payload into.
	LoadingCompressionChunkSize = 131072

	maxCompressedChunkSize = 16 * 1024 * 1024
)

type chunkHeader struct {
	PackageFileTag   uint64
	MaximumChunkSize uint64
}

type chunkInfo struct {
	CompressedSize    int64
	UncompressedSize  int64
	CompressedSize2   int64
	UncompressedSize2 int64
}

// hasChunkMagic peeks the next 4 bytes without moving the cursor. The body
// either opens with a chunk tag (compressed payload) or with the object
// count (plain payload); the tag value is far outside any sane count.
func hasChunkMagic(r io.ReadSeeker) (bool, error) {
	pos, err := memory.Pos(r)
	if err != nil {
		return false, err
	}

	tag, err := memory.ReadInt[uint32](r)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		_, seekErr := r.Seek(pos, io.SeekStart)
		return false, seekErr
	}
	if err != nil {
		return false, err
	}

	_, err = r.Seek(pos, io.SeekStart)
	if err != nil {
		return false, err
	}
	return tag == PackageFileTag, nil
}

// decompressBody reassembles the chunked payload into one contiguous buffer
// and strips the redundant total-length prefix.
func decompressBody(r io.ReadSeeker, log zerolog.Logger) ([]byte, error) {
	var out bytes.Buffer
	var declaredTotal int64
	chunks := 0

	for {
		header := chunkHeader{}
		err := binary.Read(r, binary.LittleEndian, &header)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "failed to read chunk header")
		}

		if header.PackageFileTag != PackageFileTag {
			return nil, eris.Wrapf(ErrChunkFraming, "bad package file tag 0x%X in chunk %d", header.PackageFileTag, chunks)
		}

		info := chunkInfo{}
		err = binary.Read(r, binary.LittleEndian, &info)
		if err != nil {
			return nil, eris.Wrap(err, "failed to read chunk info")
		}
		if info.CompressedSize != info.CompressedSize2 || info.UncompressedSize != info.UncompressedSize2 {
			return nil, eris.Wrapf(ErrChunkFraming,
				"chunk %d size fields disagree: compressed %d/%d, uncompressed %d/%d",
				chunks, info.CompressedSize, info.CompressedSize2, info.UncompressedSize, info.UncompressedSize2)
		}
		if info.CompressedSize <= 0 || info.CompressedSize > maxCompressedChunkSize {
			return nil, eris.Wrapf(ErrChunkFraming, "chunk %d compressed size %d out of range", chunks, info.CompressedSize)
		}

		windowStart, err := memory.Pos(r)
		if err != nil {
			return nil, err
		}

		zr, err := zlib.NewReader(io.LimitReader(r, info.CompressedSize))
		if err != nil {
			return nil, eris.Wrapf(ErrChunkFraming, "chunk %d is not a zlib stream: %v", chunks, err)
		}
		written, err := io.Copy(&out, io.LimitReader(zr, info.UncompressedSize))
		zr.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "failed to decompress chunk %d", chunks)
		}
		if written != info.UncompressedSize {
			return nil, eris.Wrapf(ErrChunkFraming, "chunk %d inflated to %d bytes, declared %d", chunks, written, info.UncompressedSize)
		}

		// The zlib reader may have consumed bytes belonging to the next
		// chunk; the declared compressed size is authoritative.
		_, err = r.Seek(windowStart+info.CompressedSize, io.SeekStart)
		if err != nil {
			return nil, err
		}

		declaredTotal += info.UncompressedSize
		chunks++
	}

	if declaredTotal < 4 {
		return nil, eris.Wrapf(ErrChunkFraming, "assembled payload is only %d bytes", declaredTotal)
	}

	body := out.Bytes()
	bodyLen := int64(binary.LittleEndian.Uint32(body[:4]))
	if bodyLen != declaredTotal-4 {
		return nil, eris.Wrapf(ErrChunkFraming, "payload length field %d does not match assembled size %d", bodyLen, declaredTotal-4)
	}

	log.Debug().Int("chunks", chunks).Int64("bytes", declaredTotal).Msg("decompressed save body")
	return body[4:], nil
}

// compressBody writes body as a sequence of independently compressed chunks,
// prefixing it with the redundant total-length field first.
func compressBody(w io.Writer, body []byte) error {
	prefixed := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(prefixed, uint32(len(body)))
	prefixed = append(prefixed, body...)

	for len(prefixed) > 0 {
		window := prefixed
		if len(window) > LoadingCompressionChunkSize {
			window = window[:LoadingCompressionChunkSize]
		}
		prefixed = prefixed[len(window):]

		var compressed bytes.Buffer
		zw := zlib.NewWriter(&compressed)
		_, err := zw.Write(window)
		if err != nil {
			return eris.Wrap(err, "failed to compress chunk")
		}
		err = zw.Close()
		if err != nil {
			return eris.Wrap(err, "failed to compress chunk")
		}

		header := chunkHeader{
			PackageFileTag:   PackageFileTag,
			MaximumChunkSize: LoadingCompressionChunkSize,
		}
		err = binary.Write(w, binary.LittleEndian, header)
		if err != nil {
			return err
		}
		info := chunkInfo{
			CompressedSize:    int64(compressed.Len()),
			UncompressedSize:  int64(len(window)),
			CompressedSize2:   int64(compressed.Len()),
			UncompressedSize2: int64(len(window)),
		}
		err = binary.Write(w, binary.LittleEndian, info)
		if err != nil {
			return err
		}
		_, err = w.Write(compressed.Bytes())
		if err != nil {
			return err
		}
	}

	return nil
}
