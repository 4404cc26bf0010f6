package satisfactory

import (
	"io"

	"github.com/rotisserie/eris"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

// Wire tags of the supported property kinds.
const (
	ArrayPropertyTag     = "ArrayProperty"
	BoolPropertyTag      = "BoolProperty"
	BytePropertyTag      = "ByteProperty"
	EnumPropertyTag      = "EnumProperty"
	FloatPropertyTag     = "FloatProperty"
	IntPropertyTag       = "IntProperty"
	Int64PropertyTag     = "Int64Property"
	InterfacePropertyTag = "InterfaceProperty"
	MapPropertyTag       = "MapProperty"
	NamePropertyTag      = "NameProperty"
	ObjectPropertyTag    = "ObjectProperty"
	StrPropertyTag       = "StrProperty"
	StructPropertyTag    = "StructProperty"
	TextPropertyTag      = "TextProperty"
)

// noneName terminates every property stream.
const noneName = "None"

// Property is one named, typed, sized record of a property stream.
type Property struct {
	Name  string
	Type  string
	Index int32
	Value PropertyValue

	// Bound reports whether a typed field binding claimed this property
	// during decode. Unbound properties are dynamic: preserved verbatim.
	Bound bool
}

// PropertyValue is the closed set of kind-specific payloads.
type PropertyValue interface {
	propertyValue()
}

type BoolValue bool
type IntValue int32
type Int64Value int64
type FloatValue float32
type NameValue string
type StrValue string
type ObjectValue ue.ObjectReference
type InterfaceValue ue.ObjectReference

// ByteValue is a raw byte when EnumType is "None", otherwise a named value
// of the enum EnumType.
type ByteValue struct {
	EnumType string
	Byte     uint8
	EnumName string
}

type EnumValue struct {
	EnumType string
	Value    string
}

// TextValue decodes the base and culture-invariant localized-text histories;
// anything else is kept as an opaque blob and replayed on encode.
type TextValue struct {
	Flags       uint32
	HistoryType uint8

	Namespace    string
	Key          string
	SourceString string

	HasCultureInvariantString int32
	CultureInvariantString    string

	Raw []byte
}

// ArrayValue holds raw-encoded elements, except Struct arrays whose elements
// share the single inner frame kept alongside them.
type ArrayValue struct {
	ElementType string

	InnerName     string
	InnerIndex    int32
	StructType    string
	InnerReserved [16]byte

	Elements []PropertyValue
}

type MapEntry struct {
	Key   PropertyValue
	Value PropertyValue
}

// MapValue with Mode 0 carries decoded entries; any other mode keeps the
// remaining declared bytes opaque in Raw.
type MapValue struct {
	KeyType   string
	ValueType string
	Mode      int32
	Entries   []MapEntry
	Raw       []byte
}

// StructValue is a well-known POD payload or, for unrecognized struct types,
// a nested property stream.
type StructValue struct {
	StructType string
	Reserved   [16]byte
	Payload    PropertyValue
}

type VectorStruct ue.Vector
type RotatorStruct ue.Rotator
type QuatStruct ue.Quat
type BoxStruct ue.Box
type ColorStruct ue.Color
type LinearColorStruct ue.LinearColor
type GuidStruct ue.Guid
type DateTimeStruct int64

type PropertyListStruct struct {
	Properties []Property
}

func (BoolValue) propertyValue()          {}
func (IntValue) propertyValue()           {}
func (Int64Value) propertyValue()         {}
func (FloatValue) propertyValue()         {}
func (NameValue) propertyValue()          {}
func (StrValue) propertyValue()           {}
func (ObjectValue) propertyValue()        {}
func (InterfaceValue) propertyValue()     {}
func (ByteValue) propertyValue()          {}
func (EnumValue) propertyValue()          {}
func (TextValue) propertyValue()          {}
func (ArrayValue) propertyValue()         {}
func (MapValue) propertyValue()           {}
func (StructValue) propertyValue()        {}
func (VectorStruct) propertyValue()       {}
func (RotatorStruct) propertyValue()      {}
func (QuatStruct) propertyValue()         {}
func (BoxStruct) propertyValue()          {}
func (ColorStruct) propertyValue()        {}
func (LinearColorStruct) propertyValue()  {}
func (GuidStruct) propertyValue()         {}
func (DateTimeStruct) propertyValue()     {}
func (PropertyListStruct) propertyValue() {}

// readProperty reads one self-describing property, or (nil, nil) when the
// stream's "None" terminator is reached.
func readProperty(r io.ReadSeeker) (*Property, error) {
	name, err := ue.ReadFString(r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read property name")
	}
	if name == noneName {
		return nil, nil
	}
	if name == "" {
		return nil, eris.New("empty property name")
	}

	typ, err := ue.ReadFString(r)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read type of property %q", name)
	}
	size, err := memory.ReadInt[int32](r)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read size of property %q", name)
	}
	index, err := memory.ReadInt[int32](r)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read index of property %q", name)
	}

	start, err := memory.Pos(r)
	if err != nil {
		return nil, err
	}

	value, overhead, err := readPropertyValue(r, typ, size, false)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read property %q (%s, %d bytes)", name, typ, size)
	}

	end, err := memory.Pos(r)
	if err != nil {
		return nil, err
	}
	actual := end - start - overhead
	if actual != int64(size) {
		return nil, &SizeMismatchError{
			Context:  "property " + name + " (" + typ + ")",
			Offset:   end,
			Declared: int64(size),
			Actual:   actual,
		}
	}

	return &Property{Name: name, Type: typ, Index: index, Value: value}, nil
}

// readProperties consumes a "None"-terminated property stream.
func readProperties(r io.ReadSeeker) ([]Property, error) {
	result := []Property{}
	for {
		property, err := readProperty(r)
		if err != nil {
			return nil, err
		}
		if property == nil {
			break
		}
		result = append(result, *property)
	}
	return result, nil
}

// readPropertyValue dispatches on the kind tag. raw selects the unframed
// element encoding used inside arrays and maps. It returns the decoded value
// and the number of overhead bytes consumed beyond the measured payload.
func readPropertyValue(r io.ReadSeeker, typ string, size int32, raw bool) (PropertyValue, int64, error) {
	switch typ {
	case BoolPropertyTag:
		return readBoolValue(r, raw)
	case IntPropertyTag:
		value, overhead, err := readNumValue[int32](r, raw)
		return IntValue(value), overhead, err
	case Int64PropertyTag:
		value, overhead, err := readNumValue[int64](r, raw)
		return Int64Value(value), overhead, err
	case FloatPropertyTag:
		value, overhead, err := readNumValue[float32](r, raw)
		return FloatValue(value), overhead, err
	case NamePropertyTag:
		value, overhead, err := readStringValue(r, raw)
		return NameValue(value), overhead, err
	case StrPropertyTag:
		value, overhead, err := readStringValue(r, raw)
		return StrValue(value), overhead, err
	case ObjectPropertyTag:
		ref, overhead, err := readReferenceValue(r, raw)
		return ObjectValue(ref), overhead, err
	case InterfacePropertyTag:
		ref, overhead, err := readReferenceValue(r, raw)
		return InterfaceValue(ref), overhead, err
	case BytePropertyTag:
		return readByteValue(r, raw)
	case EnumPropertyTag:
		return readEnumValue(r, raw)
	case TextPropertyTag:
		return readTextValue(r, size, raw)
	case StructPropertyTag:
		return readStructValue(r, raw)
	case ArrayPropertyTag:
		return readArrayValue(r)
	case MapPropertyTag:
		return readMapValue(r, size)
	}
	return nil, 0, eris.Wrapf(ErrUnknownPropertyKind, "%s", typ)
}

func skipPad(r io.ReadSeeker) error {
	_, err := r.Seek(1, io.SeekCurrent)
	return err
}

func readBoolValue(r io.ReadSeeker, raw bool) (PropertyValue, int64, error) {
	value, err := memory.ReadInt[uint8](r)
	if err != nil {
		return nil, 0, err
	}
	if raw {
		return BoolValue(value != 0), 0, nil
	}
	// value byte plus pad byte; the declared size of a bool is zero
	err = skipPad(r)
	if err != nil {
		return nil, 0, err
	}
	return BoolValue(value != 0), 2, nil
}

func readNumValue[T memory.Number](r io.ReadSeeker, raw bool) (T, int64, error) {
	var overhead int64
	if !raw {
		err := skipPad(r)
		if err != nil {
			return 0, 0, err
		}
		overhead = 1
	}
	value, err := memory.ReadNum[T](r)
	return value, overhead, err
}

func readStringValue(r io.ReadSeeker, raw bool) (string, int64, error) {
	var overhead int64
	if !raw {
		err := skipPad(r)
		if err != nil {
			return "", 0, err
		}
		overhead = 1
	}
	value, err := ue.ReadFString(r)
	return value, overhead, err
}

func readReferenceValue(r io.ReadSeeker, raw bool) (ue.ObjectReference, int64, error) {
	var overhead int64
	if !raw {
		err := skipPad(r)
		if err != nil {
			return ue.ObjectReference{}, 0, err
		}
		overhead = 1
	}
	ref, err := ue.ReadObjectReference(r)
	return ref, overhead, err
}

func readByteValue(r io.ReadSeeker, raw bool) (PropertyValue, int64, error) {
	if raw {
		value, err := memory.ReadInt[uint8](r)
		if err != nil {
			return nil, 0, err
		}
		return ByteValue{EnumType: noneName, Byte: value}, 0, nil
	}

	enumType, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	err = skipPad(r)
	if err != nil {
		return nil, 0, err
	}
	overhead := ue.SerializedStringSize(enumType) + 1

	if enumType == noneName {
		value, err := memory.ReadInt[uint8](r)
		if err != nil {
			return nil, 0, err
		}
		return ByteValue{EnumType: enumType, Byte: value}, overhead, nil
	}

	enumName, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	return ByteValue{EnumType: enumType, EnumName: enumName}, overhead, nil
}

func readEnumValue(r io.ReadSeeker, raw bool) (PropertyValue, int64, error) {
	if raw {
		value, err := ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
		return EnumValue{Value: value}, 0, nil
	}

	enumType, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	err = skipPad(r)
	if err != nil {
		return nil, 0, err
	}
	value, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	return EnumValue{EnumType: enumType, Value: value}, ue.SerializedStringSize(enumType) + 1, nil
}

func readTextValue(r io.ReadSeeker, size int32, raw bool) (PropertyValue, int64, error) {
	var overhead int64
	if !raw {
		err := skipPad(r)
		if err != nil {
			return nil, 0, err
		}
		overhead = 1
	}

	payloadStart, err := memory.Pos(r)
	if err != nil {
		return nil, 0, err
	}

	text := TextValue{}
	text.Flags, err = memory.ReadInt[uint32](r)
	if err != nil {
		return nil, 0, err
	}
	text.HistoryType, err = memory.ReadInt[uint8](r)
	if err != nil {
		return nil, 0, err
	}

	switch text.HistoryType {
	case 0:
		text.Namespace, err = ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
		text.Key, err = ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
		text.SourceString, err = ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
	case 255:
		text.HasCultureInvariantString, err = memory.ReadInt[int32](r)
		if err != nil {
			return nil, 0, err
		}
		if text.HasCultureInvariantString != 0 {
			text.CultureInvariantString, err = ue.ReadFString(r)
			if err != nil {
				return nil, 0, err
			}
		}
	default:
		if raw {
			return nil, 0, eris.Errorf("unsupported text history %d in raw element", text.HistoryType)
		}
		// opaque sub-format, keep the remaining declared bytes as-is
		pos, err := memory.Pos(r)
		if err != nil {
			return nil, 0, err
		}
		remaining := int64(size) - (pos - payloadStart)
		if remaining < 0 {
			return nil, 0, &SizeMismatchError{Context: "text property", Offset: pos, Declared: int64(size), Actual: pos - payloadStart}
		}
		text.Raw, err = memory.ReadBytes(r, int(remaining))
		if err != nil {
			return nil, 0, err
		}
	}

	return text, overhead, nil
}

func readArrayValue(r io.ReadSeeker) (PropertyValue, int64, error) {
	elementType, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	err = skipPad(r)
	if err != nil {
		return nil, 0, err
	}
	overhead := ue.SerializedStringSize(elementType) + 1

	count, err := readCount(r, "array element")
	if err != nil {
		return nil, 0, err
	}

	result := ArrayValue{ElementType: elementType, Elements: make([]PropertyValue, 0, count)}

	if elementType == StructPropertyTag {
		// one shared inner frame, then bare struct payloads
		result.InnerName, err = ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
		innerType, err := ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
		if innerType != StructPropertyTag {
			return nil, 0, eris.Errorf("struct array declares inner type %q", innerType)
		}
		_, err = memory.ReadInt[int32](r) // element payload size, recomputed on encode
		if err != nil {
			return nil, 0, err
		}
		result.InnerIndex, err = memory.ReadInt[int32](r)
		if err != nil {
			return nil, 0, err
		}
		result.StructType, err = ue.ReadFString(r)
		if err != nil {
			return nil, 0, err
		}
		reserved, err := memory.ReadBytes(r, 16)
		if err != nil {
			return nil, 0, err
		}
		copy(result.InnerReserved[:], reserved)
		err = skipPad(r)
		if err != nil {
			return nil, 0, err
		}

		for i := 0; i < int(count); i++ {
			element, err := readStructPayload(r, result.StructType)
			if err != nil {
				return nil, 0, eris.Wrapf(err, "failed to read struct array element %d", i)
			}
			result.Elements = append(result.Elements, element)
		}
		return result, overhead, nil
	}

	for i := 0; i < int(count); i++ {
		element, _, err := readPropertyValue(r, elementType, 0, true)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "failed to read array element %d", i)
		}
		result.Elements = append(result.Elements, element)
	}
	return result, overhead, nil
}

func readMapValue(r io.ReadSeeker, size int32) (PropertyValue, int64, error) {
	keyType, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	valueType, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	err = skipPad(r)
	if err != nil {
		return nil, 0, err
	}
	overhead := ue.SerializedStringSize(keyType) + ue.SerializedStringSize(valueType) + 1

	payloadStart, err := memory.Pos(r)
	if err != nil {
		return nil, 0, err
	}

	result := MapValue{KeyType: keyType, ValueType: valueType}
	result.Mode, err = memory.ReadInt[int32](r)
	if err != nil {
		return nil, 0, err
	}

	if result.Mode != 0 {
		// compact layout, format-version dependent; preserved opaquely
		pos, err := memory.Pos(r)
		if err != nil {
			return nil, 0, err
		}
		remaining := int64(size) - (pos - payloadStart)
		if remaining < 0 {
			return nil, 0, &SizeMismatchError{Context: "map property", Offset: pos, Declared: int64(size), Actual: pos - payloadStart}
		}
		result.Raw, err = memory.ReadBytes(r, int(remaining))
		if err != nil {
			return nil, 0, err
		}
		return result, overhead, nil
	}

	count, err := readCount(r, "map entry")
	if err != nil {
		return nil, 0, err
	}

	result.Entries = make([]MapEntry, 0, count)
	for i := 0; i < int(count); i++ {
		key, err := readMapElement(r, keyType)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "failed to read map key %d", i)
		}
		value, err := readMapElement(r, valueType)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "failed to read map value %d", i)
		}
		result.Entries = append(result.Entries, MapEntry{Key: key, Value: value})
	}
	return result, overhead, nil
}

// readMapElement applies the raw convention, except struct-typed entries
// which are nested "None"-terminated property streams.
func readMapElement(r io.ReadSeeker, typ string) (PropertyValue, error) {
	if typ == StructPropertyTag {
		properties, err := readProperties(r)
		if err != nil {
			return nil, err
		}
		return PropertyListStruct{Properties: properties}, nil
	}
	value, _, err := readPropertyValue(r, typ, 0, true)
	return value, err
}

func readStructValue(r io.ReadSeeker, raw bool) (PropertyValue, int64, error) {
	if raw {
		// raw struct elements outside arrays are nested property streams
		properties, err := readProperties(r)
		if err != nil {
			return nil, 0, err
		}
		return PropertyListStruct{Properties: properties}, 0, nil
	}

	structType, err := ue.ReadFString(r)
	if err != nil {
		return nil, 0, err
	}
	result := StructValue{StructType: structType}

	reserved, err := memory.ReadBytes(r, 16)
	if err != nil {
		return nil, 0, err
	}
	copy(result.Reserved[:], reserved)
	err = skipPad(r)
	if err != nil {
		return nil, 0, err
	}

	result.Payload, err = readStructPayload(r, structType)
	if err != nil {
		return nil, 0, err
	}
	return result, ue.SerializedStringSize(structType) + 17, nil
}
