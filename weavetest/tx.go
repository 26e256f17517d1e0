package weavetest

import "github.com/iov-one/harvest"

// Tx represents a transaction with a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg harvest.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ harvest.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (harvest.Msg, error) {
	return tx.Msg, tx.Err
}

func (tx *Tx) Unmarshal([]byte) error {
	panic("not implemented")
}

func (tx *Tx) Marshal() ([]byte, error) {
	panic("not implemented")
}

// Msg represents a message that is routed by its path.
type Msg struct {
	// RoutePath is returned by the path method, consumed by the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ harvest.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}

func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}
