package neutron

import (
	"encoding/binary"
	"fmt"
)

// VersionRecordLength is the serialized length of a NeutronVersion
const VersionRecordLength = 9

// DeployHeaderLength is the length of the version header pushed for a deploy
const DeployHeaderLength = 4

// NeutronVersion is the version record carried by deployed contracts,
// serialized little-endian.
type NeutronVersion struct {
	Format          uint8
	RootVM          uint8
	VMVersion       uint8
	Flags           uint16
	PlatformVersion uint32
}

// ToBytes serializes the version record
func (version *NeutronVersion) ToBytes() []byte {
	result := make([]byte, VersionRecordLength)
	result[0] = version.Format
	result[1] = version.RootVM
	result[2] = version.VMVersion
	binary.LittleEndian.PutUint16(result[3:], version.Flags)
	binary.LittleEndian.PutUint32(result[5:], version.PlatformVersion)
	return result
}

// VersionFromBytes deserializes a version record
func VersionFromBytes(data []byte) (*NeutronVersion, error) {
	if len(data) != VersionRecordLength {
		return nil, fmt.Errorf("%w (version record must be %d bytes)", ErrInvalidContractImage, VersionRecordLength)
	}
	return &NeutronVersion{
		Format:          data[0],
		RootVM:          data[1],
		VMVersion:       data[2],
		Flags:           binary.LittleEndian.Uint16(data[3:]),
		PlatformVersion: binary.LittleEndian.Uint32(data[5:]),
	}, nil
}

// DeployHeader returns the 4-byte header pushed onto the SCCS for a deploy:
// [root_vm, vm_version, flags_lo, flags_hi]
func (version *NeutronVersion) DeployHeader() []byte {
	result := make([]byte, DeployHeaderLength)
	result[0] = version.RootVM
	result[1] = version.VMVersion
	binary.LittleEndian.PutUint16(result[2:], version.Flags)
	return result
}

// VersionFromDeployHeader parses the 4-byte deploy header
func VersionFromDeployHeader(data []byte) (*NeutronVersion, error) {
	if len(data) != DeployHeaderLength {
		return nil, fmt.Errorf("%w (deploy header must be %d bytes)", ErrErrorInitializingVM, DeployHeaderLength)
	}
	return &NeutronVersion{
		RootVM:    data[0],
		VMVersion: data[1],
		Flags:     binary.LittleEndian.Uint16(data[2:]),
	}, nil
}
