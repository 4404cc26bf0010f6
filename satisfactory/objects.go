package satisfactory

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

// readObjectHeader reads one object-table entry: kind tag, class path,
// instance reference, then the kind-specific fixed fields.
func (d *Decoder) readObjectHeader(r io.ReadSeeker) (SaveObject, error) {
	kind, err := memory.ReadInt[int32](r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read object kind")
	}
	if ObjectKind(kind) != KindActor && ObjectKind(kind) != KindComponent {
		return nil, eris.Wrapf(ErrUnknownObjectKind, "kind tag %d", kind)
	}

	typePath, err := ue.ReadFString(r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read object type path")
	}

	object, err := d.factory().Create(ObjectKind(kind), d.intern(typePath))
	if err != nil {
		return nil, eris.Wrap(err, "object factory failed")
	}
	if object.Kind() != ObjectKind(kind) {
		return nil, eris.Errorf("factory returned %s for kind %s", object.Kind(), ObjectKind(kind))
	}

	object.Base().Instance, err = ue.ReadObjectReference(r)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read instance reference")
	}

	switch obj := object.(type) {
	case *Actor:
		obj.NeedTransform, err = memory.ReadInt[int32](r)
		if err != nil {
			return nil, err
		}
		obj.Rotation, err = ue.ReadQuat(r)
		if err != nil {
			return nil, err
		}
		obj.Position, err = ue.ReadVector(r)
		if err != nil {
			return nil, err
		}
		obj.Scale, err = ue.ReadVector(r)
		if err != nil {
			return nil, err
		}
		obj.WasPlacedInLevel, err = memory.ReadInt[int32](r)
		if err != nil {
			return nil, err
		}
	case *Component:
		obj.ParentEntityName, err = ue.ReadFString(r)
		if err != nil {
			return nil, err
		}
	}

	return object, nil
}

func writeObjectHeader(w io.Writer, object SaveObject) error {
	err := memory.WriteNum(w, int32(object.Kind()))
	if err != nil {
		return err
	}
	err = ue.WriteFString(w, object.Base().TypePath)
	if err != nil {
		return err
	}
	err = ue.WriteObjectReference(w, object.Base().Instance)
	if err != nil {
		return err
	}

	switch obj := object.(type) {
	case *Actor:
		err = memory.WriteNum(w, obj.NeedTransform)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Rotation.X)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Rotation.Y)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Rotation.Z)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Rotation.W)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Position.X)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Position.Y)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Position.Z)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Scale.X)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Scale.Y)
		if err != nil {
			return err
		}
		err = memory.WriteNum(w, obj.Scale.Z)
		if err != nil {
			return err
		}
		return memory.WriteNum(w, obj.WasPlacedInLevel)
	case *Component:
		return ue.WriteFString(w, obj.ParentEntityName)
	}
	return eris.Wrapf(ErrUnknownObjectKind, "%T", object)
}

// readObjectData reads one object's length-prefixed body: kind-specific
// reference fields, the property stream, the extra trailer, and whatever is
// left as the native-data tail.
func (d *Decoder) readObjectData(r io.ReadSeeker, object SaveObject) error {
	length, err := memory.ReadInt[int32](r)
	if err != nil {
		return eris.Wrap(err, "failed to read object body length")
	}
	start, err := memory.Pos(r)
	if err != nil {
		return err
	}

	base := object.Base()

	if actor, ok := object.(*Actor); ok {
		actor.Parent, err = ue.ReadObjectReference(r)
		if err != nil {
			return eris.Wrap(err, "failed to read parent reference")
		}
		componentCount, err := readCount(r, "component reference")
		if err != nil {
			return err
		}
		actor.Components = make([]ue.ObjectReference, componentCount)
		for i := 0; i < int(componentCount); i++ {
			actor.Components[i], err = ue.ReadObjectReference(r)
			if err != nil {
				return eris.Wrapf(err, "failed to read component reference %d", i)
			}
		}
	}

	properties, err := readProperties(r)
	if err != nil {
		return eris.Wrapf(err, "failed to read properties of %s", base.TypePath)
	}
	for _, p := range properties {
		if setter, ok := d.resolve(base.TypePath, p.Name); ok {
			err = setter(object, p)
			if err != nil {
				return eris.Wrapf(err, "failed to bind property %q on %s", p.Name, base.TypePath)
			}
			p.Bound = true
		} else {
			d.Diag.UnboundProperty(d.Log, base.TypePath, p.Name, p.Type)
		}
		base.Properties.Add(p)
	}

	base.ExtraCount, err = memory.ReadInt[int32](r)
	if err != nil {
		return eris.Wrap(err, "failed to read extra count")
	}
	if base.ExtraCount != 0 {
		d.Log.Warn().
			Str("type", base.TypePath).
			Int32("extra", base.ExtraCount).
			Msg("non-zero extra trailer")
	}

	pos, err := memory.Pos(r)
	if err != nil {
		return err
	}
	remaining := start + int64(length) - pos
	if remaining < 0 {
		return &SizeMismatchError{
			Context:  "object body of " + base.TypePath,
			Offset:   pos,
			Declared: int64(length),
			Actual:   pos - start,
		}
	}
	if remaining > 0 {
		base.NativeData, err = memory.ReadBytes(r, int(remaining))
		if err != nil {
			return eris.Wrap(err, "failed to read native data")
		}
		if tail, ok := d.Tails[base.TypePath]; ok {
			err = tail.DecodeTail(object, base.NativeData)
			if err != nil {
				return eris.Wrapf(err, "tail decoder failed for %s", base.TypePath)
			}
		}
	}

	return nil
}

func writeObjectData(w io.Writer, object SaveObject) error {
	var scratch bytes.Buffer
	base := object.Base()

	if actor, ok := object.(*Actor); ok {
		err := ue.WriteObjectReference(&scratch, actor.Parent)
		if err != nil {
			return err
		}
		err = memory.WriteNum(&scratch, int32(len(actor.Components)))
		if err != nil {
			return err
		}
		for _, ref := range actor.Components {
			err = ue.WriteObjectReference(&scratch, ref)
			if err != nil {
				return err
			}
		}
	}

	err := writeProperties(&scratch, base.Properties.All())
	if err != nil {
		return eris.Wrapf(err, "failed to write properties of %s", base.TypePath)
	}
	err = memory.WriteNum(&scratch, base.ExtraCount)
	if err != nil {
		return err
	}
	_, err = scratch.Write(base.NativeData)
	if err != nil {
		return err
	}

	err = memory.WriteNum(w, int32(scratch.Len()))
	if err != nil {
		return err
	}
	_, err = w.Write(scratch.Bytes())
	return err
}

// partitionObjects orders actors before components, each keeping original
// relative order. The wire format requires this grouping on write.
func partitionObjects(objects []SaveObject) []SaveObject {
	ordered := make([]SaveObject, 0, len(objects))
	for _, object := range objects {
		if object.Kind() == KindActor {
			ordered = append(ordered, object)
		}
	}
	for _, object := range objects {
		if object.Kind() == KindComponent {
			ordered = append(ordered, object)
		}
	}
	return ordered
}
