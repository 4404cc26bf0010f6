package satisfactory

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

// writeProperties emits the stream followed by its "None" terminator.
func writeProperties(w io.Writer, properties []Property) error {
	for _, p := range properties {
		err := writeProperty(w, p)
		if err != nil {
			return err
		}
	}
	return ue.WriteFString(w, noneName)
}

// writeProperty serializes the kind section to a scratch buffer first so the
// declared size is measured, never assumed.
func writeProperty(w io.Writer, p Property) error {
	var scratch bytes.Buffer
	overhead, err := writePropertyValue(&scratch, p.Type, p.Value, false)
	if err != nil {
		return eris.Wrapf(err, "failed to write property %q (%s)", p.Name, p.Type)
	}
	size := int64(scratch.Len()) - overhead

	err = ue.WriteFString(w, p.Name)
	if err != nil {
		return err
	}
	err = ue.WriteFString(w, p.Type)
	if err != nil {
		return err
	}
	err = memory.WriteNum(w, int32(size))
	if err != nil {
		return err
	}
	err = memory.WriteNum(w, p.Index)
	if err != nil {
		return err
	}
	_, err = w.Write(scratch.Bytes())
	return err
}

func writePad(w io.Writer) error {
	_, err := w.Write([]byte{0})
	return err
}

// writePropertyValue mirrors readPropertyValue field for field and reports
// the same overhead convention.
func writePropertyValue(w io.Writer, typ string, value PropertyValue, raw bool) (int64, error) {
	switch typ {
	case BoolPropertyTag:
		return writeBoolValue(w, value, raw)
	case IntPropertyTag:
		v, ok := value.(IntValue)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeNumValue(w, int32(v), raw)
	case Int64PropertyTag:
		v, ok := value.(Int64Value)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeNumValue(w, int64(v), raw)
	case FloatPropertyTag:
		v, ok := value.(FloatValue)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeNumValue(w, float32(v), raw)
	case NamePropertyTag:
		v, ok := value.(NameValue)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeStringValue(w, string(v), raw)
	case StrPropertyTag:
		v, ok := value.(StrValue)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeStringValue(w, string(v), raw)
	case ObjectPropertyTag:
		v, ok := value.(ObjectValue)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeReferenceValue(w, ue.ObjectReference(v), raw)
	case InterfacePropertyTag:
		v, ok := value.(InterfaceValue)
		if !ok {
			return 0, valueTypeError(typ, value)
		}
		return writeReferenceValue(w, ue.ObjectReference(v), raw)
	case BytePropertyTag:
		return writeByteValue(w, value, raw)
	case EnumPropertyTag:
		return writeEnumValue(w, value, raw)
	case TextPropertyTag:
		return writeTextValue(w, value, raw)
	case StructPropertyTag:
		return writeStructValue(w, value, raw)
	case ArrayPropertyTag:
		return writeArrayValue(w, value)
	case MapPropertyTag:
		return writeMapValue(w, value)
	}
	return 0, eris.Wrapf(ErrUnknownPropertyKind, "%s", typ)
}

func valueTypeError(typ string, value PropertyValue) error {
	return eris.Errorf("value %T does not match property kind %s", value, typ)
}

func writeBoolValue(w io.Writer, value PropertyValue, raw bool) (int64, error) {
	v, ok := value.(BoolValue)
	if !ok {
		return 0, valueTypeError(BoolPropertyTag, value)
	}
	var b uint8
	if v {
		b = 1
	}
	err := memory.WriteNum(w, b)
	if err != nil {
		return 0, err
	}
	if raw {
		return 0, nil
	}
	err = writePad(w)
	if err != nil {
		return 0, err
	}
	return 2, nil
}

func writeNumValue[T memory.Number](w io.Writer, value T, raw bool) (int64, error) {
	var overhead int64
	if !raw {
		err := writePad(w)
		if err != nil {
			return 0, err
		}
		overhead = 1
	}
	return overhead, memory.WriteNum(w, value)
}

func writeStringValue(w io.Writer, value string, raw bool) (int64, error) {
	var overhead int64
	if !raw {
		err := writePad(w)
		if err != nil {
			return 0, err
		}
		overhead = 1
	}
	return overhead, ue.WriteFString(w, value)
}

func writeReferenceValue(w io.Writer, ref ue.ObjectReference, raw bool) (int64, error) {
	var overhead int64
	if !raw {
		err := writePad(w)
		if err != nil {
			return 0, err
		}
		overhead = 1
	}
	return overhead, ue.WriteObjectReference(w, ref)
}

func writeByteValue(w io.Writer, value PropertyValue, raw bool) (int64, error) {
	v, ok := value.(ByteValue)
	if !ok {
		return 0, valueTypeError(BytePropertyTag, value)
	}
	if raw {
		return 0, memory.WriteNum(w, v.Byte)
	}

	err := ue.WriteFString(w, v.EnumType)
	if err != nil {
		return 0, err
	}
	err = writePad(w)
	if err != nil {
		return 0, err
	}
	overhead := ue.SerializedStringSize(v.EnumType) + 1

	if v.EnumType == noneName {
		return overhead, memory.WriteNum(w, v.Byte)
	}
	return overhead, ue.WriteFString(w, v.EnumName)
}

func writeEnumValue(w io.Writer, value PropertyValue, raw bool) (int64, error) {
	v, ok := value.(EnumValue)
	if !ok {
		return 0, valueTypeError(EnumPropertyTag, value)
	}
	if raw {
		return 0, ue.WriteFString(w, v.Value)
	}

	err := ue.WriteFString(w, v.EnumType)
	if err != nil {
		return 0, err
	}
	err = writePad(w)
	if err != nil {
		return 0, err
	}
	return ue.SerializedStringSize(v.EnumType) + 1, ue.WriteFString(w, v.Value)
}

func writeTextValue(w io.Writer, value PropertyValue, raw bool) (int64, error) {
	v, ok := value.(TextValue)
	if !ok {
		return 0, valueTypeError(TextPropertyTag, value)
	}

	var overhead int64
	if !raw {
		err := writePad(w)
		if err != nil {
			return 0, err
		}
		overhead = 1
	}

	err := memory.WriteNum(w, v.Flags)
	if err != nil {
		return 0, err
	}
	err = memory.WriteNum(w, v.HistoryType)
	if err != nil {
		return 0, err
	}

	switch v.HistoryType {
	case 0:
		err = ue.WriteFString(w, v.Namespace)
		if err != nil {
			return 0, err
		}
		err = ue.WriteFString(w, v.Key)
		if err != nil {
			return 0, err
		}
		return overhead, ue.WriteFString(w, v.SourceString)
	case 255:
		err = memory.WriteNum(w, v.HasCultureInvariantString)
		if err != nil {
			return 0, err
		}
		if v.HasCultureInvariantString != 0 {
			return overhead, ue.WriteFString(w, v.CultureInvariantString)
		}
		return overhead, nil
	}

	_, err = w.Write(v.Raw)
	return overhead, err
}

func writeStructValue(w io.Writer, value PropertyValue, raw bool) (int64, error) {
	if raw {
		list, ok := value.(PropertyListStruct)
		if !ok {
			return 0, valueTypeError(StructPropertyTag, value)
		}
		return 0, writeProperties(w, list.Properties)
	}

	v, ok := value.(StructValue)
	if !ok {
		return 0, valueTypeError(StructPropertyTag, value)
	}

	err := ue.WriteFString(w, v.StructType)
	if err != nil {
		return 0, err
	}
	_, err = w.Write(v.Reserved[:])
	if err != nil {
		return 0, err
	}
	err = writePad(w)
	if err != nil {
		return 0, err
	}
	return ue.SerializedStringSize(v.StructType) + 17, writeStructPayload(w, v.Payload)
}

func writeArrayValue(w io.Writer, value PropertyValue) (int64, error) {
	v, ok := value.(ArrayValue)
	if !ok {
		return 0, valueTypeError(ArrayPropertyTag, value)
	}

	err := ue.WriteFString(w, v.ElementType)
	if err != nil {
		return 0, err
	}
	err = writePad(w)
	if err != nil {
		return 0, err
	}
	overhead := ue.SerializedStringSize(v.ElementType) + 1

	err = memory.WriteNum(w, int32(len(v.Elements)))
	if err != nil {
		return 0, err
	}

	if v.ElementType == StructPropertyTag {
		var elements bytes.Buffer
		for i, element := range v.Elements {
			err = writeStructPayload(&elements, element)
			if err != nil {
				return 0, eris.Wrapf(err, "failed to write struct array element %d", i)
			}
		}

		err = ue.WriteFString(w, v.InnerName)
		if err != nil {
			return 0, err
		}
		err = ue.WriteFString(w, StructPropertyTag)
		if err != nil {
			return 0, err
		}
		err = memory.WriteNum(w, int32(elements.Len()))
		if err != nil {
			return 0, err
		}
		err = memory.WriteNum(w, v.InnerIndex)
		if err != nil {
			return 0, err
		}
		err = ue.WriteFString(w, v.StructType)
		if err != nil {
			return 0, err
		}
		_, err = w.Write(v.InnerReserved[:])
		if err != nil {
			return 0, err
		}
		err = writePad(w)
		if err != nil {
			return 0, err
		}
		_, err = w.Write(elements.Bytes())
		return overhead, err
	}

	for i, element := range v.Elements {
		_, err = writePropertyValue(w, v.ElementType, element, true)
		if err != nil {
			return 0, eris.Wrapf(err, "failed to write array element %d", i)
		}
	}
	return overhead, nil
}

func writeMapValue(w io.Writer, value PropertyValue) (int64, error) {
	v, ok := value.(MapValue)
	if !ok {
		return 0, valueTypeError(MapPropertyTag, value)
	}

	err := ue.WriteFString(w, v.KeyType)
	if err != nil {
		return 0, err
	}
	err = ue.WriteFString(w, v.ValueType)
	if err != nil {
		return 0, err
	}
	err = writePad(w)
	if err != nil {
		return 0, err
	}
	overhead := ue.SerializedStringSize(v.KeyType) + ue.SerializedStringSize(v.ValueType) + 1

	err = memory.WriteNum(w, v.Mode)
	if err != nil {
		return 0, err
	}

	if v.Mode != 0 {
		_, err = w.Write(v.Raw)
		return overhead, err
	}

	err = memory.WriteNum(w, int32(len(v.Entries)))
	if err != nil {
		return 0, err
	}
	for i, entry := range v.Entries {
		err = writeMapElement(w, v.KeyType, entry.Key)
		if err != nil {
			return 0, eris.Wrapf(err, "failed to write map key %d", i)
		}
		err = writeMapElement(w, v.ValueType, entry.Value)
		if err != nil {
			return 0, eris.Wrapf(err, "failed to write map value %d", i)
		}
	}
	return overhead, nil
}

func writeMapElement(w io.Writer, typ string, value PropertyValue) error {
	if typ == StructPropertyTag {
		list, ok := value.(PropertyListStruct)
		if !ok {
			return valueTypeError(typ, value)
		}
		return writeProperties(w, list.Properties)
	}
	_, err := writePropertyValue(w, typ, value, true)
	return err
}
