package migration

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type myModel struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Cnt      int64             `protobuf:"varint,2,opt,name=cnt,proto3" json:"cnt,omitempty"`
}

func (m *myModel) Reset()                   { *m = myModel{} }
func (m *myModel) String() string           { return proto.CompactTextString(m) }
func (*myModel) ProtoMessage()              {}
func (m *myModel) Marshal() ([]byte, error) { return proto.Marshal((*myModelCodec)(m)) }
func (m *myModel) Unmarshal(b []byte) error { return proto.Unmarshal(b, (*myModelCodec)(m)) }

// myModelCodec has no Marshal method so that the protobuf table codec does not
// call back into myModel.Marshal.
type myModelCodec myModel

func (m *myModelCodec) Reset()                    { *m = myModelCodec{} }
func (m *myModelCodec) String() string            { return proto.CompactTextString(m) }
func (*myModelCodec) ProtoMessage()               {}
func (m *myModel) GetMetadata() *harvest.Metadata { return m.Metadata }

func (m *myModel) Validate() error {
	if m.Cnt < 0 {
		return errors.Wrap(errors.ErrModel, "negative counter")
	}
	return m.Metadata.Validate()
}

func TestSchemaVersioning(t *testing.T) {
	db := store.MemStore()
	sb := NewSchemaBucket()

	_, err := sb.CurrentSchema(db, "mypkg")
	assert.True(t, errors.ErrNotFound.Is(err))

	MustInitPkg(db, "mypkg")
	// Initializing twice is safe.
	MustInitPkg(db, "mypkg")

	v, err := sb.CurrentSchema(db, "mypkg")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	v, err = sb.Upgrade(db, "mypkg")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)

	v, err = sb.CurrentSchema(db, "mypkg")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)
}

func TestModelBucketMigrates(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &myModel{}, NoModification)
	r.MustRegister(2, &myModel{}, func(db harvest.ReadOnlyKVStore, m Migratable) error {
		m.(*myModel).Cnt *= 10
		return nil
	})

	db := store.MemStore()
	MustInitPkg(db, "mypkg")

	b := NewModelBucket("mypkg", orm.NewModelBucket("mymodels", &myModel{}))
	b.useRegister(r)

	// A model without a schema gets the current one.
	fresh := &myModel{Metadata: &harvest.Metadata{}, Cnt: 1}
	_, err := b.Put(db, []byte("a"), fresh)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), fresh.Metadata.Schema)

	_, err = NewSchemaBucket().Upgrade(db, "mypkg")
	require.NoError(t, err)

	var got myModel
	require.NoError(t, b.One(db, []byte("a"), &got))
	assert.Equal(t, uint32(2), got.Metadata.Schema)
	assert.Equal(t, int64(10), got.Cnt)

	it, err := b.PrefixScan(db, nil, false)
	require.NoError(t, err)
	defer it.Release()
	var scanned myModel
	_, err = it.LoadNext(&scanned)
	require.NoError(t, err)
	assert.Equal(t, int64(10), scanned.Cnt)

	// Models from the future are rejected.
	future := &myModel{Metadata: &harvest.Metadata{Schema: 3}}
	_, err = b.Put(db, []byte("b"), future)
	assert.True(t, errors.ErrSchema.Is(err))

	// Metadata is required.
	_, err = b.Put(db, []byte("c"), &myModel{})
	assert.True(t, errors.ErrMetadata.Is(err))
}

func TestRegisterDuplicate(t *testing.T) {
	r := newRegister()
	require.NoError(t, r.Register(1, &myModel{}, NoModification))
	assert.True(t, errors.ErrDuplicate.Is(r.Register(1, &myModel{}, NoModification)))
	assert.True(t, errors.ErrInput.Is(r.Register(0, &myModel{}, NoModification)))
}

func TestApplyMissingMigration(t *testing.T) {
	r := newRegister()
	r.MustRegister(1, &myModel{}, NoModification)
	m := &myModel{Metadata: &harvest.Metadata{Schema: 1}}
	err := r.Apply(store.MemStore(), m, 2)
	assert.True(t, errors.ErrSchema.Is(err))
}
