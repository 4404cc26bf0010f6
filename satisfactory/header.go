package satisfactory

import (
	"io"

	"github.com/rotisserie/eris"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

const (
	// MaxHeaderVersion and MaxSaveVersion are the newest format revisions
	// this codec understands. Anything newer fails before a single further
	// byte is read.
	MaxHeaderVersion = 13
	MaxSaveVersion   = 41

	// sessionVisibilityVersion is the header revision that introduced the
	// trailing visibility byte.
	sessionVisibilityVersion = 5
)

// SaveHeader is the fixed-then-version-gated file header.
type SaveHeader struct {
	HeaderVersion int32
	SaveVersion   int32
	BuildVersion  int32

	MapName     string
	MapOptions  string
	SessionName string

	PlayDurationSeconds int32
	SaveDateTime        int64 // 100ns ticks
	SessionVisibility   uint8
}

// HasSessionVisibility derives the presence of the visibility byte from the
// header version. Both decode and encode consult this predicate; the flag is
// never stored separately.
func (h *SaveHeader) HasSessionVisibility() bool {
	return h.HeaderVersion >= sessionVisibilityVersion
}

func readSaveHeader(r io.Reader) (SaveHeader, error) {
	header := SaveHeader{}
	var err error

	header.HeaderVersion, err = memory.ReadInt[int32](r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read header version")
	}
	header.SaveVersion, err = memory.ReadInt[int32](r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read save version")
	}
	if header.HeaderVersion > MaxHeaderVersion {
		return header, &VersionError{Kind: ErrUnsupportedHeaderVersion, Version: header.HeaderVersion, Max: MaxHeaderVersion}
	}
	if header.SaveVersion > MaxSaveVersion {
		return header, &VersionError{Kind: ErrUnsupportedSaveVersion, Version: header.SaveVersion, Max: MaxSaveVersion}
	}

	header.BuildVersion, err = memory.ReadInt[int32](r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read build version")
	}
	header.MapName, err = ue.ReadFString(r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read map name")
	}
	header.MapOptions, err = ue.ReadFString(r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read map options")
	}
	header.SessionName, err = ue.ReadFString(r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read session name")
	}
	header.PlayDurationSeconds, err = memory.ReadInt[int32](r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read play duration")
	}
	header.SaveDateTime, err = memory.ReadInt[int64](r)
	if err != nil {
		return header, eris.Wrap(err, "failed to read save timestamp")
	}

	if header.HasSessionVisibility() {
		header.SessionVisibility, err = memory.ReadInt[uint8](r)
		if err != nil {
			return header, eris.Wrap(err, "failed to read session visibility")
		}
	}

	return header, nil
}

func writeSaveHeader(w io.Writer, header SaveHeader) error {
	if header.HeaderVersion > MaxHeaderVersion {
		return &VersionError{Kind: ErrUnsupportedHeaderVersion, Version: header.HeaderVersion, Max: MaxHeaderVersion}
	}
	if header.SaveVersion > MaxSaveVersion {
		return &VersionError{Kind: ErrUnsupportedSaveVersion, Version: header.SaveVersion, Max: MaxSaveVersion}
	}

	err := memory.WriteNum(w, header.HeaderVersion)
	if err != nil {
		return err
	}
	err = memory.WriteNum(w, header.SaveVersion)
	if err != nil {
		return err
	}
	err = memory.WriteNum(w, header.BuildVersion)
	if err != nil {
		return err
	}
	err = ue.WriteFString(w, header.MapName)
	if err != nil {
		return err
	}
	err = ue.WriteFString(w, header.MapOptions)
	if err != nil {
		return err
	}
	err = ue.WriteFString(w, header.SessionName)
	if err != nil {
		return err
	}
	err = memory.WriteNum(w, header.PlayDurationSeconds)
	if err != nil {
		return err
	}
	err = memory.WriteNum(w, header.SaveDateTime)
	if err != nil {
		return err
	}

	if header.HasSessionVisibility() {
		err = memory.WriteNum(w, header.SessionVisibility)
		if err != nil {
			return err
		}
	}

	return nil
}
