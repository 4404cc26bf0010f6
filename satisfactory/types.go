package satisfactory

import (
	"github.com/goccy/go-json"

	"satisfactory-save-edit/ue"
)

// ObjectKind is the wire tag in front of every object header.
type ObjectKind int32

const (
	KindComponent ObjectKind = 0
	KindActor     ObjectKind = 1
)

func (k ObjectKind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindActor:
		return "actor"
	}
	return "unknown"
}

// PropertySet keeps an object's decoded properties in wire order. Name
// lookups resolve to the most recently added entry with that name; adding a
// property whose (name, index) pair already exists replaces it in place.
type PropertySet struct {
	entries []Property
	latest  map[string]int
}

func (s *PropertySet) Add(p Property) {
	if s.latest == nil {
		s.latest = make(map[string]int)
	}
	for i := range s.entries {
		if s.entries[i].Name == p.Name && s.entries[i].Index == p.Index {
			s.entries[i] = p
			s.latest[p.Name] = i
			return
		}
	}
	s.entries = append(s.entries, p)
	s.latest[p.Name] = len(s.entries) - 1
}

// Get returns the last-written property with the given name.
func (s *PropertySet) Get(name string) (Property, bool) {
	i, ok := s.latest[name]
	if !ok {
		return Property{}, false
	}
	return s.entries[i], true
}

func (s *PropertySet) Len() int {
	return len(s.entries)
}

// All returns the properties in wire order. The returned slice is the set's
// backing storage; callers must not reorder it.
func (s *PropertySet) All() []Property {
	return s.entries
}

func (s PropertySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.entries)
}

// ObjectBase carries the fields common to both object variants.
type ObjectBase struct {
	TypePath   string
	Instance   ue.ObjectReference
	Properties PropertySet

	// ExtraCount is the trailing int32 after the property stream. Expected
	// to be zero; preserved either way.
	ExtraCount int32

	// NativeData is the unparsed tail of the object body, owned by
	// class-specific logic outside this codec.
	NativeData []byte
}

func (b *ObjectBase) Base() *ObjectBase {
	return b
}

// SaveObject is one persisted world object. The two implementations are
// Actor and Component; the codec dispatches kind-specific fields on Kind.
type SaveObject interface {
	Kind() ObjectKind
	Base() *ObjectBase
}

type Actor struct {
	ObjectBase

	NeedTransform    int32
	Rotation         ue.Quat
	Position         ue.Vector
	Scale            ue.Vector
	WasPlacedInLevel int32

	Parent     ue.ObjectReference
	Components []ue.ObjectReference
}

func (a *Actor) Kind() ObjectKind {
	return KindActor
}

type Component struct {
	ObjectBase

	ParentEntityName string
}

func (c *Component) Kind() ObjectKind {
	return KindComponent
}

// SaveSession is the aggregate produced by one decode pass.
type SaveSession struct {
	Header    SaveHeader
	Objects   []SaveObject
	Destroyed []ue.ObjectReference

	// Compressed records whether the decoded payload was chunk-compressed,
	// so a default re-encode picks the same transport.
	Compressed bool
}
