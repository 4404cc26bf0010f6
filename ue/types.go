// Package ue reads and writes the Unreal Engine primitive types that make up
// the save wire format. All fields are little-endian.
package ue

import (
	"encoding/binary"
	"io"
	"unicode/utf16"

	"github.com/rotisserie/eris"

	"satisfactory-save-edit/memory"
)

// maxSerializedString bounds a claimed string length. Save strings are
// object paths and option lists; a length anywhere near this is corruption.
const maxSerializedString = 1 << 20

// ReadFString reads a length-prefixed string. A non-negative length denotes a
// null-terminated narrow string, a negative length denotes a null-terminated
// UTF-16 string of -length code units.
func ReadFString(r io.Reader) (string, error) {
	stringSize, err := memory.ReadInt[int32](r)
	if err != nil {
		return "", err
	}
	if stringSize == 0 {
		return "", nil
	}

	length := int64(stringSize)
	if length < 0 {
		length = -length
	}
	if length > maxSerializedString {
		return "", eris.Errorf("string length %d out of range", stringSize)
	}

	if stringSize < 0 {
		units := make([]uint16, length)
		err = binary.Read(r, binary.LittleEndian, &units)
		if err != nil {
			return "", err
		}
		// drop the null terminator
		return string(utf16.Decode(units[:len(units)-1])), nil
	}

	stringData := make([]byte, stringSize)
	err = binary.Read(r, binary.LittleEndian, &stringData)
	if err != nil {
		return "", err
	}
	return string(stringData[:stringSize-1]), nil
}

// WriteFString mirrors ReadFString, selecting the wide encoding only when the
// string does not fit in single bytes. The selection must match what the game
// writes or round trips stop being byte-identical.
func WriteFString(w io.Writer, s string) error {
	if s == "" {
		return memory.WriteNum(w, int32(0))
	}

	if isNarrow(s) {
		err := memory.WriteNum(w, int32(len(s)+1))
		if err != nil {
			return err
		}
		_, err = w.Write(append([]byte(s), 0))
		return err
	}

	units := utf16.Encode([]rune(s))
	units = append(units, 0)
	err := memory.WriteNum(w, int32(-len(units)))
	if err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, units)
}

// SerializedStringSize reports how many bytes WriteFString emits for s,
// including the length prefix and the null terminator.
func SerializedStringSize(s string) int64 {
	if s == "" {
		return 4
	}
	if isNarrow(s) {
		return 4 + int64(len(s)) + 1
	}
	return 4 + 2*(int64(len(utf16.Encode([]rune(s))))+1)
}

func isNarrow(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// ObjectReference identifies a persisted object by level and object path. An
// empty PathName denotes a null reference.
type ObjectReference struct {
	LevelName string
	PathName  string
}

func (o ObjectReference) IsNil() bool {
	return o.PathName == ""
}

func ReadObjectReference(r io.Reader) (ObjectReference, error) {
	levelName, err := ReadFString(r)
	if err != nil {
		return ObjectReference{}, eris.Wrap(err, "failed to read level name")
	}
	pathName, err := ReadFString(r)
	if err != nil {
		return ObjectReference{}, eris.Wrap(err, "failed to read path name")
	}
	return ObjectReference{LevelName: levelName, PathName: pathName}, nil
}

func WriteObjectReference(w io.Writer, ref ObjectReference) error {
	err := WriteFString(w, ref.LevelName)
	if err != nil {
		return err
	}
	return WriteFString(w, ref.PathName)
}

type Vector struct {
	X float32
	Y float32
	Z float32
}

type Rotator struct {
	Pitch float32
	Yaw   float32
	Roll  float32
}

type Quat struct {
	X float32
	Y float32
	Z float32
	W float32
}

type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

type LinearColor struct {
	R float32
	G float32
	B float32
	A float32
}

type Guid [16]byte

type Box struct {
	Min     Vector
	Max     Vector
	IsValid uint8
}

func ReadVector(r io.Reader) (Vector, error) {
	v := Vector{}
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func ReadQuat(r io.Reader) (Quat, error) {
	q := Quat{}
	err := binary.Read(r, binary.LittleEndian, &q)
	return q, err
}

func ReadGuid(r io.Reader) (Guid, error) {
	g := Guid{}
	err := binary.Read(r, binary.LittleEndian, &g)
	return g, err
}
