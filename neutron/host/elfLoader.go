package host

import (
	"debug/elf"
	"fmt"

	"github.com/qtumproject/neutron-vm-go/neutron"
)

// ContractImage is an on-disk contract ready for deployment
type ContractImage struct {
	Code []byte
	Data []byte
}

// LoadContractImage parses an ELF contract image and checks the fixed load
// addresses of its sections: .text at the code entry, .data at primary RAM
func LoadContractImage(filePath string) (*ContractImage, error) {
	file, err := elf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", neutron.ErrInvalidContractImage, err)
	}
	defer func() {
		_ = file.Close()
	}()

	textSection := file.Section(".text")
	if textSection == nil {
		return nil, neutron.ErrMissingTextSection
	}
	if textSection.Addr != uint64(neutron.CodeMemoryStart) {
		return nil, fmt.Errorf("%w (.text at 0x%x)", neutron.ErrWrongSectionAddress, textSection.Addr)
	}

	dataSection := file.Section(".data")
	if dataSection == nil {
		return nil, neutron.ErrMissingDataSection
	}
	if dataSection.Addr != uint64(neutron.PrimaryMemoryStart) {
		return nil, fmt.Errorf("%w (.data at 0x%x)", neutron.ErrWrongSectionAddress, dataSection.Addr)
	}

	code, err := textSection.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", neutron.ErrInvalidContractImage, err)
	}
	data, err := dataSection.Data()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", neutron.ErrInvalidContractImage, err)
	}

	log.Debug("contract image loaded", "path", filePath, "codeSize", len(code), "dataSize", len(data))
	return &ContractImage{
		Code: code,
		Data: data,
	}, nil
}

// PushDeployImage pushes the deploy quadruple onto the SCCS: data, code,
// section info and the version header, which ends up on top
func PushDeployImage(stack neutron.CallStack, image *ContractImage) error {
	if image == nil {
		return neutron.ErrInvalidContractImage
	}

	err := stack.PushSCCS(image.Data)
	if err != nil {
		return err
	}
	err = stack.PushSCCS(image.Code)
	if err != nil {
		return err
	}
	err = stack.PushSCCS([]byte{1, 1})
	if err != nil {
		return err
	}

	version := neutron.NeutronVersion{RootVM: neutron.X86RootVM}
	return stack.PushSCCS(version.DeployHeader())
}
