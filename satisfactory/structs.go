package satisfactory

import (
	"encoding/binary"
	"io"

	"github.com/rotisserie/eris"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

// readStructPayload decodes the payload of one struct value. Well-known POD
// layouts are decoded by fixed field lists; everything else falls back to a
// nested property stream.
func readStructPayload(r io.ReadSeeker, structType string) (PropertyValue, error) {
	switch structType {
	case "Vector":
		v, err := ue.ReadVector(r)
		return VectorStruct(v), err

	case "Rotator":
		rot := ue.Rotator{}
		err := binary.Read(r, binary.LittleEndian, &rot)
		return RotatorStruct(rot), err

	case "Quat":
		q, err := ue.ReadQuat(r)
		return QuatStruct(q), err

	case "Box":
		box := ue.Box{}
		err := binary.Read(r, binary.LittleEndian, &box)
		return BoxStruct(box), err

	case "Color":
		c := ue.Color{}
		err := binary.Read(r, binary.LittleEndian, &c)
		return ColorStruct(c), err

	case "LinearColor":
		c := ue.LinearColor{}
		err := binary.Read(r, binary.LittleEndian, &c)
		return LinearColorStruct(c), err

	case "Guid":
		guid, err := ue.ReadGuid(r)
		return GuidStruct(guid), err

	case "DateTime":
		ticks, err := memory.ReadInt[int64](r)
		return DateTimeStruct(ticks), err
	}

	properties, err := readProperties(r)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s struct body", structType)
	}
	return PropertyListStruct{Properties: properties}, nil
}

func writeStructPayload(w io.Writer, payload PropertyValue) error {
	switch value := payload.(type) {
	case VectorStruct:
		return binary.Write(w, binary.LittleEndian, ue.Vector(value))
	case RotatorStruct:
		return binary.Write(w, binary.LittleEndian, ue.Rotator(value))
	case QuatStruct:
		return binary.Write(w, binary.LittleEndian, ue.Quat(value))
	case BoxStruct:
		return binary.Write(w, binary.LittleEndian, ue.Box(value))
	case ColorStruct:
		return binary.Write(w, binary.LittleEndian, ue.Color(value))
	case LinearColorStruct:
		return binary.Write(w, binary.LittleEndian, ue.LinearColor(value))
	case GuidStruct:
		return binary.Write(w, binary.LittleEndian, ue.Guid(value))
	case DateTimeStruct:
		return memory.WriteNum(w, int64(value))
	case PropertyListStruct:
		return writeProperties(w, value.Properties)
	}
	return eris.Errorf("cannot encode %T as a struct payload", payload)
}
