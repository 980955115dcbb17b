package neutron

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"

	"github.com/multiversx/mx-chain-core-go/hashing/sha256"
)

// ShortAddressLen is the byte length of the data part of a short address
const ShortAddressLen = 20

var addressHasher = sha256.NewSha256()

// Address is a full, dynamic-length address identifying a principal.
// The version selects the address type; for contract addresses it also names
// the root VM responsible for executing the contract.
type Address struct {
	Version uint32
	Data    []byte
}

// ShortAddress is the fixed-length form of an Address, derived by hashing.
// Persistent state is partitioned under short addresses.
type ShortAddress struct {
	Version uint32
	Data    [ShortAddressLen]byte
}

// NewRandomAddress creates an address with the given version and 32 random data bytes
func NewRandomAddress(version uint32) Address {
	data := make([]byte, 32)
	_, _ = rand.Read(data)
	return Address{
		Version: version,
		Data:    data,
	}
}

// ToShortAddress derives the short form of the address: SHA-256 over the
// data, truncated to the first 20 bytes
func (address Address) ToShortAddress() ShortAddress {
	hash := addressHasher.Compute(string(address.Data))

	short := ShortAddress{Version: address.Version}
	copy(short.Data[:], hash[:ShortAddressLen])
	return short
}

// Equal returns true if the two addresses are structurally identical
func (address Address) Equal(other Address) bool {
	return address.Version == other.Version && bytes.Equal(address.Data, other.Data)
}

// Bytes serializes the address as little-endian version followed by the data
func (address Address) Bytes() []byte {
	result := make([]byte, 4+len(address.Data))
	binary.LittleEndian.PutUint32(result, address.Version)
	copy(result[4:], address.Data)
	return result
}

// String returns a hex rendering of the address, for diagnostics only
func (address Address) String() string {
	return hex.EncodeToString(address.Bytes())
}

// Bytes serializes the short address as little-endian version followed by the 20 data bytes
func (address ShortAddress) Bytes() []byte {
	result := make([]byte, 4+ShortAddressLen)
	binary.LittleEndian.PutUint32(result, address.Version)
	copy(result[4:], address.Data[:])
	return result
}

// String returns a hex rendering of the short address, for diagnostics only
func (address ShortAddress) String() string {
	return hex.EncodeToString(address.Bytes())
}
