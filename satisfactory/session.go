package satisfactory

import (
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

// Decoder reads one save stream into a SaveSession. The zero value plus
// NewDecoder defaults decode any stream with generic objects and all
// properties dynamic; callers plug in a factory, registry, tail decoders,
// progress and logging as needed. A Decoder is single-use state-wise only
// for its intern table and safe to reuse sequentially; decode independent
// streams concurrently with separate Decoders.
type Decoder struct {
	Factory  ObjectFactory
	Registry FieldRegistry
	Tails    TailRegistry
	Progress ProgressFunc
	Log      zerolog.Logger
	Diag     *Diagnostics

	interned map[string]string
}

func NewDecoder() *Decoder {
	return &Decoder{Log: zerolog.Nop()}
}

func (d *Decoder) factory() ObjectFactory {
	if d.Factory != nil {
		return d.Factory
	}
	return DefaultFactory()
}

func (d *Decoder) resolve(typePath, propertyName string) (FieldSetter, bool) {
	if d.Registry == nil {
		return nil, false
	}
	return d.Registry.Resolve(typePath, propertyName)
}

// intern deduplicates repeated class-path strings across the object table.
func (d *Decoder) intern(s string) string {
	if d.interned == nil {
		d.interned = make(map[string]string)
	}
	if shared, ok := d.interned[s]; ok {
		return shared
	}
	d.interned[s] = s
	return s
}

func (d *Decoder) DecodeFile(path string) (*SaveSession, error) {
	d.Progress.report(StageOpen, 0, 1)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open save file %s", path)
	}
	return d.Decode(bytes.NewReader(data))
}

// Decode runs the full pipeline: header, transport selection, object table,
// object data, destroyed list, end-of-stream verification.
func (d *Decoder) Decode(r io.ReadSeeker) (*SaveSession, error) {
	header, err := readSaveHeader(r)
	if err != nil {
		return nil, err
	}
	d.Progress.report(StageHeader, 1, 1)

	session := &SaveSession{Header: header}

	compressed, err := hasChunkMagic(r)
	if err != nil {
		return nil, err
	}

	body := r
	if compressed {
		d.Progress.report(StageDecompress, 0, 1)
		assembled, err := decompressBody(r, d.Log)
		if err != nil {
			return nil, err
		}
		d.Progress.report(StageDecompress, 1, 1)
		session.Compressed = true
		body = bytes.NewReader(assembled)
	}

	err = d.decodeBody(body, session)
	if err != nil {
		return nil, err
	}

	d.Progress.report(StageDone, 1, 1)
	return session, nil
}

// readCount reads a list count and rejects values the remaining stream
// cannot hold. Every element of a counted list occupies at least one byte,
// so a count past the end of the stream is corruption, not data.
func readCount(r io.ReadSeeker, what string) (int32, error) {
	count, err := memory.ReadInt[int32](r)
	if err != nil {
		return 0, eris.Wrapf(err, "failed to read %s count", what)
	}
	if count < 0 {
		return 0, eris.Wrapf(ErrSizeMismatch, "negative %s count %d", what, count)
	}
	if count == 0 {
		return 0, nil
	}

	pos, err := memory.Pos(r)
	if err != nil {
		return 0, err
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = r.Seek(pos, io.SeekStart)
	if err != nil {
		return 0, err
	}
	if int64(count) > size-pos {
		return 0, eris.Wrapf(ErrSizeMismatch, "%s count %d exceeds the %d bytes left in the stream", what, count, size-pos)
	}
	return count, nil
}

func (d *Decoder) decodeBody(r io.ReadSeeker, session *SaveSession) error {
	objectCount, err := readCount(r, "object")
	if err != nil {
		return err
	}

	session.Objects = make([]SaveObject, objectCount)
	for i := 0; i < int(objectCount); i++ {
		session.Objects[i], err = d.readObjectHeader(r)
		if err != nil {
			return eris.Wrapf(err, "failed to read object header %d", i)
		}
		d.Progress.report(StageObjectHeaders, i+1, int(objectCount))
	}

	dataCount, err := memory.ReadInt[int32](r)
	if err != nil {
		return eris.Wrap(err, "failed to read object data count")
	}
	if dataCount != objectCount {
		return eris.Errorf("object data count %d does not match table count %d", dataCount, objectCount)
	}

	for i := 0; i < int(objectCount); i++ {
		err = d.readObjectData(r, session.Objects[i])
		if err != nil {
			return eris.Wrapf(err, "failed to read object data %d", i)
		}
		d.Progress.report(StageObjectData, i+1, int(objectCount))
	}

	session.Destroyed, err = readDestroyedList(r)
	if err != nil {
		return err
	}
	d.Progress.report(StageDestroyed, 1, 1)

	pos, err := memory.Pos(r)
	if err != nil {
		return err
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if pos != size {
		return &TrailingDataError{Offset: pos, Size: size}
	}

	return nil
}

func readDestroyedList(r io.ReadSeeker) ([]ue.ObjectReference, error) {
	count, err := readCount(r, "destroyed reference")
	if err != nil {
		return nil, err
	}
	destroyed := make([]ue.ObjectReference, count)
	for i := 0; i < int(count); i++ {
		destroyed[i], err = ue.ReadObjectReference(r)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read destroyed reference %d", i)
		}
	}
	return destroyed, nil
}

func writeDestroyedList(w io.Writer, destroyed []ue.ObjectReference) error {
	err := memory.WriteNum(w, int32(len(destroyed)))
	if err != nil {
		return err
	}
	for _, ref := range destroyed {
		err = ue.WriteObjectReference(w, ref)
		if err != nil {
			return err
		}
	}
	return nil
}

// Encoder writes a SaveSession back to the wire format. Every bound
// property, every dynamic property and the native tails are serialized;
// body lengths are recomputed from the serialized content.
type Encoder struct {
	Progress ProgressFunc
	Log      zerolog.Logger
}

func NewEncoder() *Encoder {
	return &Encoder{Log: zerolog.Nop()}
}

func (e *Encoder) EncodeFile(path string, session *SaveSession) error {
	var out bytes.Buffer
	err := e.Encode(&out, session)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out.Bytes(), 0644)
}

func (e *Encoder) Encode(w io.Writer, session *SaveSession) error {
	err := writeSaveHeader(w, session.Header)
	if err != nil {
		return err
	}
	e.Progress.report(StageHeader, 1, 1)

	// actors first, then components, original relative order within each
	ordered := partitionObjects(session.Objects)

	var body bytes.Buffer
	err = memory.WriteNum(&body, int32(len(ordered)))
	if err != nil {
		return err
	}
	for i, object := range ordered {
		err = writeObjectHeader(&body, object)
		if err != nil {
			return eris.Wrapf(err, "failed to write object header %d", i)
		}
		e.Progress.report(StageObjectHeaders, i+1, len(ordered))
	}

	err = memory.WriteNum(&body, int32(len(ordered)))
	if err != nil {
		return err
	}
	for i, object := range ordered {
		err = writeObjectData(&body, object)
		if err != nil {
			return eris.Wrapf(err, "failed to write object data %d", i)
		}
		e.Progress.report(StageObjectData, i+1, len(ordered))
	}

	err = writeDestroyedList(&body, session.Destroyed)
	if err != nil {
		return err
	}
	e.Progress.report(StageDestroyed, 1, 1)

	if session.Compressed {
		e.Progress.report(StageDecompress, 0, 1)
		err = compressBody(w, body.Bytes())
		if err != nil {
			return err
		}
		e.Progress.report(StageDecompress, 1, 1)
	} else {
		_, err = w.Write(body.Bytes())
		if err != nil {
			return err
		}
	}

	e.Progress.report(StageDone, 1, 1)
	return nil
}
