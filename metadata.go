package harvest

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/harvest/errors"
)

// Metadata is carried by every persisted model and every message. Schema is
// the version of the model layout the data was written with.
type Metadata struct {
	Schema uint32 `protobuf:"varint,1,opt,name=schema,proto3" json:"schema,omitempty"`
}

func (m *Metadata) Reset()         { *m = Metadata{} }
func (m *Metadata) String() string { return proto.CompactTextString(m) }
func (*Metadata) ProtoMessage()    {}

// Validate returns an error if the schema is not set.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema must be at least 1")
	}
	return nil
}
