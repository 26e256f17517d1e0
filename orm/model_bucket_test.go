package orm

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Name  string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Count int64  `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
}

func (m *counter) Reset()                   { *m = counter{} }
func (m *counter) String() string           { return proto.CompactTextString(m) }
func (*counter) ProtoMessage()              {}
func (m *counter) Marshal() ([]byte, error) { return proto.Marshal((*counterCodec)(m)) }
func (m *counter) Unmarshal(b []byte) error { return proto.Unmarshal(b, (*counterCodec)(m)) }

// counterCodec has no Marshal method so that the protobuf table codec does not
// call back into counter.Marshal.
type counterCodec counter

func (m *counterCodec) Reset()         { *m = counterCodec{} }
func (m *counterCodec) String() string { return proto.CompactTextString(m) }
func (*counterCodec) ProtoMessage()    {}

func (m *counter) Validate() error {
	if m.Name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	return nil
}

type other struct {
	counter
}

func TestModelBucketPutOneDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("counters", &counter{}, WithIDSequence(NewSequence("counters", "id")))

	key, err := b.Put(db, nil, &counter{Name: "first", Count: 1})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(1), key)

	key2, err := b.Put(db, nil, &counter{Name: "second", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(2), key2)

	var c counter
	require.NoError(t, b.One(db, key, &c))
	assert.Equal(t, "first", c.Name)
	assert.Equal(t, int64(1), c.Count)

	// Overwrite keeps the key.
	_, err = b.Put(db, key, &counter{Name: "first", Count: 10})
	require.NoError(t, err)
	require.NoError(t, b.One(db, key, &c))
	assert.Equal(t, int64(10), c.Count)

	require.NoError(t, b.Delete(db, key))
	assert.True(t, errors.ErrNotFound.Is(b.One(db, key, &c)))
	assert.True(t, errors.ErrNotFound.Is(b.Delete(db, key)))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, key)))
	assert.NoError(t, b.Has(db, key2))
}

func TestModelBucketErrors(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("counters", &counter{})

	cases := map[string]struct {
		run     func() error
		wantErr *errors.Error
	}{
		"invalid model is rejected": {
			run: func() error {
				_, err := b.Put(db, []byte("k"), &counter{})
				return err
			},
			wantErr: errors.ErrEmpty,
		},
		"wrong type is rejected on put": {
			run: func() error {
				_, err := b.Put(db, []byte("k"), &other{counter{Name: "x"}})
				return err
			},
			wantErr: errors.ErrType,
		},
		"wrong type is rejected on load": {
			run: func() error {
				return b.One(db, []byte("k"), &other{})
			},
			wantErr: errors.ErrType,
		},
		"no sequence without a key": {
			run: func() error {
				_, err := b.Put(db, nil, &counter{Name: "x"})
				return err
			},
			wantErr: errors.ErrHuman,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.run(); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestModelBucketScan(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("history", &counter{})
	// Another bucket sharing the name prefix must not leak into scans.
	x := NewModelBucket("historyx", &counter{})
	_, err := x.Put(db, []byte("a"), &counter{Name: "leak"})
	require.NoError(t, err)

	for i, owner := range []string{"alice", "alice", "alice", "bob"} {
		key := CompositeKey([]byte(owner), Uint64Key(uint64(i+1)))
		_, err := b.Put(db, key, &counter{Name: owner, Count: int64(i + 1)})
		require.NoError(t, err)
	}

	load := func(it ModelIterator) []int64 {
		defer it.Release()
		var res []int64
		for {
			var c counter
			_, err := it.LoadNext(&c)
			if errors.ErrIteratorDone.Is(err) {
				return res
			}
			require.NoError(t, err)
			res = append(res, c.Count)
		}
	}

	it, err := b.PrefixScan(db, CompositeKey([]byte("alice")), false)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, load(it))

	// Latest alice entry at or before 2.
	aliceStart := CompositeKey([]byte("alice"))
	it, err = b.Scan(db, aliceStart, CompositeKey([]byte("alice"), Uint64Key(3)), true)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, load(it))

	// Length prefixed parts order shorter names first.
	it, err = b.Scan(db, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 1, 2, 3}, load(it))
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), PrefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01}, PrefixEnd([]byte{0x00, 0xFF}))
	assert.Nil(t, PrefixEnd([]byte{0xFF, 0xFF}))
	assert.Nil(t, PrefixEnd(nil))
}

func TestCompositeKey(t *testing.T) {
	a := CompositeKey([]byte("ab"), []byte("c"))
	b := CompositeKey([]byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, []byte{2, 'a', 'b', 1, 'c'}, a)
}

func TestSequence(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("vault", "id")

	latest, err := s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	for want := int64(1); want < 4; want++ {
		got, err := s.NextInt(db)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	val, err := s.NextVal(db)
	require.NoError(t, err)
	assert.Equal(t, int64(4), DecodeSequence(val))
}
