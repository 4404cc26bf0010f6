package satisfactory

import (
	"errors"
	"fmt"
)

// Fatal error kinds. Every one of these aborts the whole decode or encode
// call; the cursor cannot be trusted once any of them fires.
var (
	ErrUnsupportedHeaderVersion = errors.New("unsupported save header version")
	ErrUnsupportedSaveVersion   = errors.New("unsupported save version")
	ErrChunkFraming             = errors.New("compressed chunk framing mismatch")
	ErrUnknownObjectKind        = errors.New("unknown object kind")
	ErrUnknownPropertyKind      = errors.New("unknown property kind")
	ErrSizeMismatch             = errors.New("declared size does not match bytes consumed")
	ErrTrailingData             = errors.New("unexpected data after end of save")
)

// VersionError reports a header whose version fields exceed what this codec
// understands. Kind is one of ErrUnsupportedHeaderVersion or
// ErrUnsupportedSaveVersion.
type VersionError struct {
	Kind    error
	Version int32
	Max     int32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%v: got %d, newest supported is %d", e.Kind, e.Version, e.Max)
}

func (e *VersionError) Is(target error) bool {
	return target == e.Kind
}

// SizeMismatchError carries the absolute byte offset at which a declared
// size stopped agreeing with the bytes actually consumed.
type SizeMismatchError struct {
	Context  string
	Offset   int64
	Declared int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: declared %d bytes but consumed %d at offset %d",
		e.Context, e.Declared, e.Actual, e.Offset)
}

func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// TrailingDataError reports a cursor that did not land exactly on the end of
// the stream after a full decode.
type TrailingDataError struct {
	Offset int64
	Size   int64
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("decode stopped at offset %d of %d", e.Offset, e.Size)
}

func (e *TrailingDataError) Is(target error) bool {
	return target == ErrTrailingData
}
