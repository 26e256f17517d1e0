package harvest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/harvest/errors"
)

var (
	// AddressLength is the length of all addresses
	// You can modify it in init() before any addresses are calculated,
	// but it must not change during the lifetime of the kvstore
	AddressLength = 20

	// AddressPrefix is the human readable part of a bech32 encoded
	// address.
	AddressPrefix = "hrv"

	// it must have (?s) flags, otherwise it errors when last section contains 0x20 (newline)
	perm = regexp.MustCompile(`(?s)^([a-zA-Z0-9_\-]{3,12})/([a-zA-Z0-9_\-]{3,12})/(.+)$`)
)

// Condition is a specially formatted array, containing
// information on who can authorize an action.
// It is of the format:
//
//	sprintf("%s/%s/%s", extension, type, data)
type Condition []byte

// NewCondition returns a condition for the given extension and type.
func NewCondition(ext, typ string, data []byte) Condition {
	pre := fmt.Sprintf("%s/%s/", ext, typ)
	return append([]byte(pre), data...)
}

// Parse will extract the sections from the Condition bytes
// and verify it is properly formatted
func (c Condition) Parse() (string, string, []byte, error) {
	chunks := perm.FindSubmatch(c)
	if len(chunks) == 0 {
		return "", "", nil, errors.ErrInput.Newf("condition: %X", []byte(c))
	}
	// returns [all, match1, match2, match3]
	return string(chunks[1]), string(chunks[2]), chunks[3], nil
}

// Address will convert a Condition into an Address
func (c Condition) Address() Address {
	return NewAddress(c)
}

// Equals checks if two permissions are the same
func (c Condition) Equals(b Condition) bool {
	return bytes.Equal(c, b)
}

// String returns a human readable string.
// We keep the extension and type in ascii and
// hex-encode the binary data
func (c Condition) String() string {
	ext, typ, data, err := c.Parse()
	if err != nil {
		return fmt.Sprintf("Invalid Condition: %X", []byte(c))
	}
	return fmt.Sprintf("%s/%s/%X", ext, typ, data)
}

// Validate returns an error if the Condition is not the proper format
func (c Condition) Validate() error {
	if !perm.Match(c) {
		return errors.ErrInput.Newf("condition: %X", []byte(c))
	}
	return nil
}

// Address represents a collision-free, one-way digest
// of a Condition
//
// It will be of size AddressLength
type Address []byte

// NewAddress hashes and truncates into the proper size
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := sha256.Sum256(data)
	return h[:AddressLength]
}

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Clone returns a copy that does not share the underlying array.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	cpy := make(Address, len(a))
	copy(cpy, a)
	return cpy
}

// String returns the bech32 representation of the address.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	data, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(a))
	}
	s, err := bech32.Encode(AddressPrefix, data)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(a))
	}
	return s
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) == 0 {
		return errors.Wrap(errors.ErrEmpty, "address")
	}
	if len(a) != AddressLength {
		return errors.ErrInput.Newf("address: %X", []byte(a))
	}
	return nil
}

// MarshalJSON provides a bech32 representation for JSON,
// to override the standard base64 []byte encoding
func (a Address) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a bech32 encoded address, or a hex or condition one
// when prefixed with "hex:" or "cond:".
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress decodes an address from its human readable form.
// Supported formats are bech32 (default), "hex:<hex>" and
// "cond:<ext>/<type>/<hexdata>".
func ParseAddress(enc string) (Address, error) {
	if len(enc) == 0 {
		return nil, nil
	}

	chunks := strings.SplitN(enc, ":", 2)
	format := "bech32"
	if len(chunks) == 2 {
		format, enc = chunks[0], chunks[1]
	}

	var addr Address
	switch format {
	case "hex":
		val, err := hex.DecodeString(enc)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "cannot decode hex: %s", err)
		}
		addr = val
	case "cond":
		args := strings.Split(enc, "/")
		if len(args) != 3 {
			return nil, errors.Wrap(errors.ErrInput, "invalid condition format")
		}
		data, err := hex.DecodeString(args[2])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "malformed condition data: %s", err)
		}
		cond := NewCondition(args[0], args[1], data)
		if err := cond.Validate(); err != nil {
			return nil, err
		}
		addr = cond.Address()
	case "bech32":
		hrp, payload, err := bech32.Decode(enc)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "deserialize bech32: %s", err)
		}
		if hrp != AddressPrefix {
			return nil, errors.Wrapf(errors.ErrInput, "unexpected address prefix %q", hrp)
		}
		data, err := bech32.ConvertBits(payload, 5, 8, false)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "convert bech32 payload: %s", err)
		}
		addr = data
	default:
		return nil, errors.ErrType.Newf("unknown format %q", format)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	return addr, nil
}
