package migration

import (
	"encoding/binary"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/orm"
)

// Schema declares the schema version of a package. A new entity is stored
// for every version a package was upgraded to.
type Schema struct {
	Metadata *harvest.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Pkg      string            `protobuf:"bytes,2,opt,name=pkg,proto3" json:"pkg,omitempty"`
	Version  uint32            `protobuf:"varint,3,opt,name=version,proto3" json:"version,omitempty"`
}

func (s *Schema) Reset()                   { *s = Schema{} }
func (s *Schema) String() string           { return proto.CompactTextString(s) }
func (*Schema) ProtoMessage()              {}
func (s *Schema) Marshal() ([]byte, error) { return proto.Marshal((*schemaCodec)(s)) }
func (s *Schema) Unmarshal(b []byte) error { return proto.Unmarshal(b, (*schemaCodec)(s)) }

// schemaCodec has no Marshal method so that the protobuf table codec does not
// call back into Schema.Marshal.
type schemaCodec Schema

func (m *schemaCodec) Reset()         { *m = schemaCodec{} }
func (m *schemaCodec) String() string { return proto.CompactTextString(m) }
func (*schemaCodec) ProtoMessage()    {}

// GetMetadata implements Migratable.
func (s *Schema) GetMetadata() *harvest.Metadata {
	return s.Metadata
}

func (s *Schema) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", s.Metadata.Validate())
	if s.Version < 1 {
		errs = errors.AppendField(errs, "Version", errors.ErrModel)
	}
	if s.Pkg == "" {
		errs = errors.AppendField(errs, "Pkg", errors.ErrEmpty)
	}
	return errs
}

// schemaID returns a deterministic ID of this schema instance. Created IDs
// can be sorted using lexicographical order from the lowest to the highest
// version.
func schemaID(pkg string, version uint32) []byte {
	raw := make([]byte, len(pkg)+4)
	copy(raw, pkg)
	binary.BigEndian.PutUint32(raw[len(pkg):], version)
	return raw
}

// SchemaBucket keeps track of the schema version of every package.
type SchemaBucket struct {
	b orm.ModelBucket
}

// NewSchemaBucket returns a bucket for schema entities. It is using a plain
// orm bucket so that it can insert entities without schema version being
// registered.
func NewSchemaBucket() *SchemaBucket {
	return &SchemaBucket{b: orm.NewModelBucket("schema", &Schema{})}
}

// MustInitPkg initialize schema versioning for given package names. This
// registers a version one schema.
// This function panics if not successful. It is safe to call this function
// many times as duplicate registrations are ignored.
func MustInitPkg(db harvest.KVStore, packageNames ...string) {
	b := NewSchemaBucket()
	for _, name := range packageNames {
		if err := b.b.Has(db, schemaID(name, 1)); err == nil {
			continue
		}
		s := &Schema{Metadata: &harvest.Metadata{Schema: 1}, Pkg: name, Version: 1}
		if _, err := b.b.Put(db, schemaID(name, 1), s); err != nil {
			panic(errors.Wrap(err, name))
		}
	}
}

// CurrentSchema returns the current version of the schema for a given package.
// It returns ErrNotFound if no schema version was registered for this package.
// Minimum schema version is 1.
func (b *SchemaBucket) CurrentSchema(db harvest.ReadOnlyKVStore, packageName string) (uint32, error) {
	for ver := uint32(1); ver < 10000; ver++ {
		err := b.b.Has(db, schemaID(packageName, ver))
		switch {
		case err == nil:
			continue
		case !errors.ErrNotFound.Is(err):
			return 0, err
		case ver == 1:
			return 0, errors.Wrapf(errors.ErrNotFound, "package %q not initialized", packageName)
		default:
			return ver - 1, nil
		}
	}
	return 0, errors.Wrap(errors.ErrState, "version too high")
}

// Upgrade bumps the schema version of given package by one and returns the
// new version. Models stored with an older schema are migrated on access.
func (b *SchemaBucket) Upgrade(db harvest.KVStore, packageName string) (uint32, error) {
	curr, err := b.CurrentSchema(db, packageName)
	if err != nil {
		return 0, err
	}
	next := &Schema{
		Metadata: &harvest.Metadata{Schema: 1},
		Pkg:      packageName,
		Version:  curr + 1,
	}
	if _, err := b.b.Put(db, schemaID(packageName, next.Version), next); err != nil {
		return 0, errors.Wrap(err, "save schema")
	}
	return next.Version, nil
}
