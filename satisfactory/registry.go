package satisfactory

import (
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ObjectFactory constructs an empty object for a (kind, type path) pair read
// from the object table. The returned object must match kind or the codec
// cannot dispatch kind-specific fields.
type ObjectFactory interface {
	Create(kind ObjectKind, typePath string) (SaveObject, error)
}

// FactoryFunc adapts a plain function to ObjectFactory.
type FactoryFunc func(kind ObjectKind, typePath string) (SaveObject, error)

func (f FactoryFunc) Create(kind ObjectKind, typePath string) (SaveObject, error) {
	return f(kind, typePath)
}

// DefaultFactory builds generic Actor/Component instances.
func DefaultFactory() ObjectFactory {
	return FactoryFunc(func(kind ObjectKind, typePath string) (SaveObject, error) {
		switch kind {
		case KindActor:
			return &Actor{ObjectBase: ObjectBase{TypePath: typePath}}, nil
		case KindComponent:
			return &Component{ObjectBase: ObjectBase{TypePath: typePath}}, nil
		}
		return nil, eris.Wrapf(ErrUnknownObjectKind, "factory: kind %d", kind)
	})
}

// FieldSetter assigns one decoded property into a typed field of obj.
type FieldSetter func(obj SaveObject, p Property) error

// FieldRegistry decides whether a decoded property has a typed field
// binding. Absence of a binding is not an error; unbound properties are
// retained as dynamic properties.
type FieldRegistry interface {
	Resolve(typePath, propertyName string) (FieldSetter, bool)
}

// TableRegistry is a static type-path -> property-name -> setter table, the
// declared replacement for matching fields by runtime reflection.
type TableRegistry map[string]map[string]FieldSetter

func (t TableRegistry) Resolve(typePath, propertyName string) (FieldSetter, bool) {
	setters, ok := t[typePath]
	if !ok {
		return nil, false
	}
	setter, ok := setters[propertyName]
	return setter, ok
}

// TailDecoder may claim some or all of one object's native-data tail. The
// codec keeps the raw bytes regardless, so round trips stay intact.
type TailDecoder interface {
	DecodeTail(obj SaveObject, data []byte) error
}

// TailRegistry maps object type paths to their tail decoders.
type TailRegistry map[string]TailDecoder

// Diagnostics deduplicates unbound-property log lines. It is decode-neutral
// state: dropping it changes logging volume, never decoded output. Safe for
// concurrent use.
type Diagnostics struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{seen: make(map[string]struct{})}
}

// UnboundProperty logs one debug line per (type path, property name, kind)
// combination and swallows repeats.
func (d *Diagnostics) UnboundProperty(log zerolog.Logger, typePath, name, kind string) {
	if d == nil {
		log.Debug().
			Str("type", typePath).
			Str("property", name).
			Str("kind", kind).
			Msg("no typed field binding, keeping property dynamic")
		return
	}

	key := typePath + "\x00" + name + "\x00" + kind
	d.mu.Lock()
	_, dup := d.seen[key]
	if !dup {
		d.seen[key] = struct{}{}
	}
	d.mu.Unlock()
	if dup {
		return
	}

	log.Debug().
		Str("type", typePath).
		Str("property", name).
		Str("kind", kind).
		Msg("no typed field binding, keeping property dynamic")
}
