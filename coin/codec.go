package coin

import (
	"github.com/gogo/protobuf/proto"
)

// Coin can hold any amount between -10^15 and +10^15
// at steps of 10^-9. It is a fixed-point decimal
// representation and uses integers to avoid rounding
// associated with floats.
type Coin struct {
	// Whole coins, -10^15 < integer < 10^15
	Whole int64 `protobuf:"varint,1,opt,name=whole,proto3" json:"whole,omitempty"`
	// Billionth of coins. 0 <= abs(fractional) < 10^9
	// If fractional != 0, must have same sign as integer
	Fractional int64 `protobuf:"varint,2,opt,name=fractional,proto3" json:"fractional,omitempty"`
	// Ticker is 3-4 upper-case letters and
	// all Coins of the same currency can be combined
	Ticker string `protobuf:"bytes,3,opt,name=ticker,proto3" json:"ticker,omitempty"`
}

func (m *Coin) Reset()      { *m = Coin{} }
func (*Coin) ProtoMessage() {}

// Marshal serializes the coin using the protobuf wire format.
func (m *Coin) Marshal() ([]byte, error) {
	return proto.Marshal((*coinCodec)(m))
}

// Unmarshal loads the coin from its protobuf wire format.
func (m *Coin) Unmarshal(raw []byte) error {
	return proto.Unmarshal(raw, (*coinCodec)(m))
}

// coinCodec has no Marshal method so that the protobuf table codec does not
// call back into Coin.Marshal.
type coinCodec Coin

func (m *coinCodec) Reset()         { *m = coinCodec{} }
func (m *coinCodec) String() string { return proto.CompactTextString(m) }
func (*coinCodec) ProtoMessage()    {}
