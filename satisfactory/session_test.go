package satisfactory

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"satisfactory-save-edit/memory"
	"satisfactory-save-edit/ue"
)

const (
	testActorPath     = "/Game/FactoryGame/Buildable/Factory/SmelterMk1/Build_SmelterMk1.Build_SmelterMk1_C"
	testComponentPath = "/Script/FactoryGame.FGInventoryComponent"
)

// testSession builds the reference scenario: one actor with a single bool
// property, one component with none, nothing destroyed.
func testSession() *SaveSession {
	actor := &Actor{
		ObjectBase: ObjectBase{
			TypePath: testActorPath,
			Instance: ue.ObjectReference{
				LevelName: "Persistent_Level",
				PathName:  "Persistent_Level:PersistentLevel.Build_SmelterMk1_C_1",
			},
		},
		NeedTransform: 1,
		Rotation:      ue.Quat{W: 1},
		Scale:         ue.Vector{X: 1, Y: 1, Z: 1},
		Components:    []ue.ObjectReference{},
	}
	actor.Properties.Add(Property{Name: "mActive", Type: BoolPropertyTag, Value: BoolValue(true)})

	component := &Component{
		ObjectBase: ObjectBase{
			TypePath: testComponentPath,
			Instance: ue.ObjectReference{
				LevelName: "Persistent_Level",
				PathName:  "Persistent_Level:PersistentLevel.Build_SmelterMk1_C_1.InputInventory",
			},
		},
		ParentEntityName: "Build_SmelterMk1_C_1",
	}

	return &SaveSession{
		Header:    testHeader(),
		Objects:   []SaveObject{actor, component},
		Destroyed: []ue.ObjectReference{},
	}
}

func TestEndToEndScenario(t *testing.T) {
	session := testSession()

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	decoded, err := NewDecoder().Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)

	require.Equal(t, session.Header, decoded.Header)
	require.Len(t, decoded.Objects, 2)
	require.Empty(t, decoded.Destroyed)

	actor, ok := decoded.Objects[0].(*Actor)
	require.True(t, ok)
	require.Equal(t, testActorPath, actor.TypePath)
	active, ok := actor.Properties.Get("mActive")
	require.True(t, ok)
	require.Equal(t, BoolValue(true), active.Value)
	require.Equal(t, int32(0), active.Index)

	component, ok := decoded.Objects[1].(*Component)
	require.True(t, ok)
	require.Zero(t, component.Properties.Len())
	require.Equal(t, "Build_SmelterMk1_C_1", component.ParentEntityName)

	require.Equal(t, session, decoded)

	var reencoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&reencoded, decoded))
	require.Equal(t, encoded.Bytes(), reencoded.Bytes(), "round trip must be byte-identical")
}

func TestCompressedRoundTrip(t *testing.T) {
	session := testSession()
	session.Compressed = true

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	decoded, err := NewDecoder().Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)
	require.True(t, decoded.Compressed)
	require.Equal(t, session, decoded)

	var reencoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&reencoded, decoded))
	require.Equal(t, encoded.Bytes(), reencoded.Bytes())
}

func TestOrderingPartition(t *testing.T) {
	actorA := &Actor{ObjectBase: ObjectBase{TypePath: "/Game/A.A_C"}, Components: []ue.ObjectReference{}}
	actorB := &Actor{ObjectBase: ObjectBase{TypePath: "/Game/B.B_C"}, Components: []ue.ObjectReference{}}
	componentC := &Component{ObjectBase: ObjectBase{TypePath: "/Script/C"}}

	session := &SaveSession{
		Header:    testHeader(),
		Objects:   []SaveObject{actorA, componentC, actorB},
		Destroyed: []ue.ObjectReference{},
	}

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	decoded, err := NewDecoder().Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)

	// actors first in original relative order, then components
	require.Len(t, decoded.Objects, 3)
	require.Equal(t, "/Game/A.A_C", decoded.Objects[0].Base().TypePath)
	require.Equal(t, "/Game/B.B_C", decoded.Objects[1].Base().TypePath)
	require.Equal(t, "/Script/C", decoded.Objects[2].Base().TypePath)

	var reencoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&reencoded, decoded))
	require.Equal(t, encoded.Bytes(), reencoded.Bytes())
}

func TestDecodeVersionGate(t *testing.T) {
	session := testSession()
	session.Header.SaveVersion = MaxSaveVersion

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	// bump the save version field in place; it is the second int32
	raw := encoded.Bytes()
	binary.LittleEndian.PutUint32(raw[4:8], uint32(MaxSaveVersion+1))

	_, err := NewDecoder().Decode(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrUnsupportedSaveVersion)
}

func TestDecodeTrailingData(t *testing.T) {
	session := testSession()

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))
	encoded.WriteByte(0xAB)

	_, err := NewDecoder().Decode(bytes.NewReader(encoded.Bytes()))
	require.ErrorIs(t, err, ErrTrailingData)

	var trailing *TrailingDataError
	require.ErrorAs(t, err, &trailing)
	require.Equal(t, trailing.Size-1, trailing.Offset)
}

// TestScenarioWireImage pins the reference scenario as a hand-assembled byte
// image, so the expected framing is not derived from the encoder under test.
func TestScenarioWireImage(t *testing.T) {
	var image bytes.Buffer
	num := func(v int32) { require.NoError(t, memory.WriteNum(&image, v)) }
	i64 := func(v int64) { require.NoError(t, memory.WriteNum(&image, v)) }
	f32 := func(v float32) { require.NoError(t, memory.WriteNum(&image, v)) }
	u8 := func(v uint8) { require.NoError(t, memory.WriteNum(&image, v)) }
	str := func(s string) { require.NoError(t, ue.WriteFString(&image, s)) }

	// header
	num(13)
	num(41)
	num(211839)
	str("Persistent_Level")
	str("?sessionName=Test")
	str("Test")
	num(3600)
	i64(638400000000000000)
	u8(1)

	// object table
	num(2)
	num(1) // actor
	str(testActorPath)
	str("Persistent_Level")
	str("Persistent_Level:PersistentLevel.Build_SmelterMk1_C_1")
	num(1) // need transform
	for _, component := range []float32{0, 0, 0, 1} { // rotation
		f32(component)
	}
	for _, component := range []float32{0, 0, 0, 1, 1, 1} { // position, scale
		f32(component)
	}
	num(0) // placed in level
	num(0) // component
	str(testComponentPath)
	str("Persistent_Level")
	str("Persistent_Level:PersistentLevel.Build_SmelterMk1_C_1.InputInventory")
	str("Build_SmelterMk1_C_1")

	// object data
	num(2)
	num(64) // actor body: parent 8 + components 4 + property 39 + None 9 + extra 4
	str("")
	str("")
	num(0) // no components
	str("mActive")
	str("BoolProperty")
	num(0) // bool payload size is zero on the wire
	num(0) // index
	u8(1)  // value
	u8(0)  // pad
	str("None")
	num(0) // extra
	num(13) // component body: None 9 + extra 4
	str("None")
	num(0)

	// destroyed list
	num(0)

	decoded, err := NewDecoder().Decode(bytes.NewReader(image.Bytes()))
	require.NoError(t, err)
	require.Equal(t, testSession(), decoded)

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, decoded))
	require.Equal(t, image.Bytes(), encoded.Bytes())
}

func TestDecodeNegativeObjectCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSaveHeader(&buf, testHeader()))
	require.NoError(t, memory.WriteNum(&buf, int32(-1)))

	_, err := NewDecoder().Decode(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeOversizedObjectCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSaveHeader(&buf, testHeader()))
	require.NoError(t, memory.WriteNum(&buf, int32(0x7FFFFFFF)))

	_, err := NewDecoder().Decode(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeNegativeDestroyedCount(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSaveHeader(&buf, testHeader()))
	require.NoError(t, memory.WriteNum(&buf, int32(0))) // object table
	require.NoError(t, memory.WriteNum(&buf, int32(0))) // object data
	require.NoError(t, memory.WriteNum(&buf, int32(-1)))

	_, err := NewDecoder().Decode(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeNegativeComponentCount(t *testing.T) {
	actor := &Actor{ObjectBase: ObjectBase{TypePath: "/Game/A.A_C"}}

	var buf bytes.Buffer
	require.NoError(t, writeSaveHeader(&buf, testHeader()))
	require.NoError(t, memory.WriteNum(&buf, int32(1)))
	require.NoError(t, writeObjectHeader(&buf, actor))
	require.NoError(t, memory.WriteNum(&buf, int32(1)))
	require.NoError(t, memory.WriteNum(&buf, int32(16))) // body length
	require.NoError(t, ue.WriteFString(&buf, ""))
	require.NoError(t, ue.WriteFString(&buf, ""))
	require.NoError(t, memory.WriteNum(&buf, int32(-1)))

	_, err := NewDecoder().Decode(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeUnknownObjectKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSaveHeader(&buf, testHeader()))
	require.NoError(t, memory.WriteNum(&buf, int32(1)))
	require.NoError(t, memory.WriteNum(&buf, int32(7))) // not a valid kind tag

	_, err := NewDecoder().Decode(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, ErrUnknownObjectKind)
}

func TestObjectDataSizeMismatch(t *testing.T) {
	session := testSession()

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	// shrink the actor's declared body length by one; the data section
	// starts right after the table and its duplicate count
	raw := encoded.Bytes()
	headerLen := func() int {
		var h bytes.Buffer
		_ = writeSaveHeader(&h, session.Header)
		return h.Len()
	}()

	var table bytes.Buffer
	require.NoError(t, memory.WriteNum(&table, int32(2)))
	require.NoError(t, writeObjectHeader(&table, session.Objects[0]))
	require.NoError(t, writeObjectHeader(&table, session.Objects[1]))
	require.NoError(t, memory.WriteNum(&table, int32(2)))

	lengthOffset := headerLen + table.Len()
	raw[lengthOffset]--

	_, err := NewDecoder().Decode(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestRegistryBinding(t *testing.T) {
	session := testSession()

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	var boundValue bool
	decoder := NewDecoder()
	decoder.Registry = TableRegistry{
		testActorPath: {
			"mActive": func(obj SaveObject, p Property) error {
				boundValue = bool(p.Value.(BoolValue))
				return nil
			},
		},
	}

	decoded, err := decoder.Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)
	require.True(t, boundValue)

	actor := decoded.Objects[0].(*Actor)
	active, ok := actor.Properties.Get("mActive")
	require.True(t, ok)
	require.True(t, active.Bound)

	// bound properties still re-encode
	var reencoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&reencoded, decoded))
	require.Equal(t, encoded.Bytes(), reencoded.Bytes())
}

func TestDiagnosticsDedup(t *testing.T) {
	var out bytes.Buffer
	log := zerolog.New(&out)

	diag := NewDiagnostics()
	diag.UnboundProperty(log, testActorPath, "mActive", BoolPropertyTag)
	diag.UnboundProperty(log, testActorPath, "mActive", BoolPropertyTag)
	diag.UnboundProperty(log, testActorPath, "mSpeed", FloatPropertyTag)

	lines := strings.Count(out.String(), "\n")
	require.Equal(t, 2, lines)
}

func TestProgressStageOrder(t *testing.T) {
	session := testSession()

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	type event struct {
		stage   Stage
		current int
		total   int
	}
	var events []event

	decoder := NewDecoder()
	decoder.Progress = func(stage Stage, current, total int) {
		events = append(events, event{stage, current, total})
	}

	_, err := decoder.Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)

	require.Equal(t, []event{
		{StageHeader, 1, 1},
		{StageObjectHeaders, 1, 2},
		{StageObjectHeaders, 2, 2},
		{StageObjectData, 1, 2},
		{StageObjectData, 2, 2},
		{StageDestroyed, 1, 1},
		{StageDone, 1, 1},
	}, events)
}

func TestDestroyedListRoundTrip(t *testing.T) {
	session := testSession()
	session.Destroyed = []ue.ObjectReference{
		{LevelName: "Persistent_Level", PathName: "Persistent_Level:PersistentLevel.BP_Crystal_C_88"},
		{LevelName: "Persistent_Level", PathName: "Persistent_Level:PersistentLevel.BP_Crystal_C_89"},
	}

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	decoded, err := NewDecoder().Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)
	require.Equal(t, session.Destroyed, decoded.Destroyed)
}

func TestNativeDataPreserved(t *testing.T) {
	session := testSession()
	actor := session.Objects[0].(*Actor)
	actor.NativeData = []byte{0xDE, 0xAD, 0xBE, 0xEF}

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	var claimed []byte
	decoder := NewDecoder()
	decoder.Tails = TailRegistry{
		testActorPath: tailFunc(func(obj SaveObject, data []byte) error {
			claimed = append([]byte(nil), data...)
			return nil
		}),
	}

	decoded, err := decoder.Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, claimed)
	require.Equal(t, actor.NativeData, decoded.Objects[0].Base().NativeData)

	var reencoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&reencoded, decoded))
	require.Equal(t, encoded.Bytes(), reencoded.Bytes())
}

type tailFunc func(obj SaveObject, data []byte) error

func (f tailFunc) DecodeTail(obj SaveObject, data []byte) error {
	return f(obj, data)
}

func TestExtraCountPreserved(t *testing.T) {
	session := testSession()
	session.Objects[1].Base().ExtraCount = 3

	var encoded bytes.Buffer
	require.NoError(t, NewEncoder().Encode(&encoded, session))

	decoded, err := NewDecoder().Decode(bytes.NewReader(encoded.Bytes()))
	require.NoError(t, err)
	require.Equal(t, int32(3), decoded.Objects[1].Base().ExtraCount)
}
