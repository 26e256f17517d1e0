package orm

import (
	"reflect"
	"regexp"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,24}$`).MatchString

// NewModelBucket returns a ModelBucket instance that stores models of the
// same type as given one.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("illegal bucket name: " + name)
	}
	b := &modelBucket{
		name:      name,
		prefix:    []byte(name + ":"),
		model:     reflect.TypeOf(m),
		idSeqName: name + "_id",
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIDSequence configures the bucket to use the given sequence instance for
// generating ID when a model is stored with an empty key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = &s
	}
}

type modelBucket struct {
	name      string
	prefix    []byte
	model     reflect.Type
	idSeq     *Sequence
	idSeqName string
}

func (mb *modelBucket) Name() string {
	return mb.name
}

func (mb *modelBucket) dbKey(key []byte) []byte {
	res := make([]byte, len(mb.prefix)+len(key))
	copy(res, mb.prefix)
	copy(res[len(mb.prefix):], key)
	return res
}

func (mb *modelBucket) One(db harvest.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s with key %x", mb.name, key)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal %s into %T", mb.name, dest)
	}
	return nil
}

func (mb *modelBucket) Has(db harvest.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot query the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s with key %x", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Put(db harvest.KVStore, key []byte, m Model) ([]byte, error) {
	if err := mb.checkType(m); err != nil {
		return nil, err
	}
	if len(key) == 0 {
		if mb.idSeq == nil {
			return nil, errors.Wrapf(errors.ErrHuman, "bucket %s has no id sequence", mb.name)
		}
		id, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "id sequence")
		}
		key = id
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize model")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (mb *modelBucket) Delete(db harvest.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (mb *modelBucket) Scan(db harvest.ReadOnlyKVStore, start, end []byte, reverse bool) (ModelIterator, error) {
	dbStart := mb.dbKey(start)
	var dbEnd []byte
	if end == nil {
		dbEnd = PrefixEnd(mb.prefix)
	} else {
		dbEnd = mb.dbKey(end)
	}

	var (
		it  harvest.Iterator
		err error
	)
	if reverse {
		it, err = db.ReverseIterator(dbStart, dbEnd)
	} else {
		it, err = db.Iterator(dbStart, dbEnd)
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot create iterator")
	}
	return &modelIterator{it: it, bucket: mb}, nil
}

func (mb *modelBucket) PrefixScan(db harvest.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error) {
	return mb.Scan(db, prefix, PrefixEnd(prefix), reverse)
}

func (mb *modelBucket) checkType(m Model) error {
	if t := reflect.TypeOf(m); t != mb.model {
		return errors.Wrapf(errors.ErrType, "%s bucket cannot use %v, expected %v", mb.name, t, mb.model)
	}
	return nil
}

type modelIterator struct {
	it     harvest.Iterator
	bucket *modelBucket
}

func (i *modelIterator) LoadNext(dest Model) ([]byte, error) {
	if err := i.bucket.checkType(dest); err != nil {
		return nil, err
	}
	key, raw, err := i.it.Next()
	if err != nil {
		return nil, err
	}
	if err := dest.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal %s into %T", i.bucket.name, dest)
	}
	return key[len(i.bucket.prefix):], nil
}

func (i *modelIterator) Release() {
	i.it.Release()
}

var _ ModelBucket = (*modelBucket)(nil)
