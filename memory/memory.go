package memory

import (
	"encoding/binary"
	"io"
)

type Int interface {
	int | uint | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64
}

type Number interface {
	Int | float32 | float64
}

func ReadInt[T Int](r io.Reader) (T, error) {
	var value T
	err := binary.Read(r, binary.LittleEndian, &value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func ReadNum[T Number](r io.Reader) (T, error) {
	var value T
	err := binary.Read(r, binary.LittleEndian, &value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func WriteNum[T Number](w io.Writer, value T) error {
	return binary.Write(w, binary.LittleEndian, value)
}

// Pos reports the current cursor position without moving it.
func Pos(r io.Seeker) (int64, error) {
	return r.Seek(0, io.SeekCurrent)
}

func ReadBytes(r io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	_, err := io.ReadFull(r, data)
	if err != nil {
		return nil, err
	}
	return data, nil
}
