package mock

import (
	"errors"
	"fmt"

	"github.com/qtumproject/neutron-vm-go/config"
	"github.com/qtumproject/neutron-vm-go/neutron"
)

var _ neutron.VirtualCPU = (*CPUMock)(nil)

// ErrMemoryAccessViolation is returned by the mocked memory on out-of-region access
var ErrMemoryAccessViolation = errors.New("memory access violation")

type memoryRegion struct {
	start    uint32
	readOnly bool
	data     []byte
}

// CPUMock is a scriptable virtual CPU used in tests. RunFunc plays the role
// of the guest program: it manipulates registers and raises interrupts on
// the handler through Raise.
type CPUMock struct {
	RunFunc func(cpu *CPUMock, handler neutron.InterruptHandler) error

	Regs      map[neutron.Register]uint32
	EIP       uint32
	Gas       uint64
	CostTable *config.CPUCost

	regions []*memoryRegion
}

// NewCPUMock creates an empty scriptable CPU
func NewCPUMock() *CPUMock {
	return &CPUMock{
		Regs: make(map[neutron.Register]uint32),
	}
}

// Execute runs the scripted guest program. A handler asking for a clean halt
// through ErrVMStop terminates the run successfully, like a real decode loop.
func (cpu *CPUMock) Execute(handler neutron.InterruptHandler) error {
	if cpu.RunFunc == nil {
		return nil
	}

	err := cpu.RunFunc(cpu, handler)
	if errors.Is(err, neutron.ErrVMStop) {
		return nil
	}
	return err
}

// Raise delivers one interrupt to the handler, as the decode loop would
func (cpu *CPUMock) Raise(handler neutron.InterruptHandler, num uint8) error {
	return handler.HandleInterrupt(cpu, num)
}

// AddMemoryRegion registers a zeroed memory region
func (cpu *CPUMock) AddMemoryRegion(start uint32, size uint32, readOnly bool) error {
	cpu.regions = append(cpu.regions, &memoryRegion{
		start:    start,
		readOnly: readOnly,
		data:     make([]byte, size),
	})
	return nil
}

func (cpu *CPUMock) regionFor(address uint32, size int) (*memoryRegion, int, error) {
	for _, region := range cpu.regions {
		if address < region.start {
			continue
		}
		offset := int(address - region.start)
		if offset+size <= len(region.data) {
			return region, offset, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: address 0x%x size %d", ErrMemoryAccessViolation, address, size)
}

// CopyIntoMemory writes the data at the given guest address
func (cpu *CPUMock) CopyIntoMemory(address uint32, data []byte) error {
	region, offset, err := cpu.regionFor(address, len(data))
	if err != nil {
		return err
	}
	if region.readOnly {
		return fmt.Errorf("%w: read-only region 0x%x", ErrMemoryAccessViolation, region.start)
	}
	copy(region.data[offset:], data)
	return nil
}

// CopyFromMemory reads size bytes from the given guest address
func (cpu *CPUMock) CopyFromMemory(address uint32, size uint32) ([]byte, error) {
	region, offset, err := cpu.regionFor(address, int(size))
	if err != nil {
		return nil, err
	}
	result := make([]byte, size)
	copy(result, region.data[offset:offset+int(size)])
	return result, nil
}

// MemoryAt reads guest memory without error translation, for assertions
func (cpu *CPUMock) MemoryAt(address uint32, size uint32) []byte {
	data, err := cpu.CopyFromMemory(address, size)
	if err != nil {
		return nil
	}
	return data
}

// GetRegister returns the value of a general-purpose register
func (cpu *CPUMock) GetRegister(reg neutron.Register) uint32 {
	return cpu.Regs[reg]
}

// SetRegister sets the value of a general-purpose register
func (cpu *CPUMock) SetRegister(reg neutron.Register, value uint32) {
	cpu.Regs[reg] = value
}

// SetInstructionPointer sets EIP
func (cpu *CPUMock) SetInstructionPointer(address uint32) {
	cpu.EIP = address
}

// InstructionPointer returns EIP
func (cpu *CPUMock) InstructionPointer() uint32 {
	return cpu.EIP
}

// SetCostTable installs the instruction cost table
func (cpu *CPUMock) SetCostTable(costs *config.CPUCost) {
	cpu.CostTable = costs
}

// GasRemaining returns the remaining gas of the CPU
func (cpu *CPUMock) GasRemaining() uint64 {
	return cpu.Gas
}

// SetGasRemaining sets the remaining gas of the CPU
func (cpu *CPUMock) SetGasRemaining(gas uint64) {
	cpu.Gas = gas
}

// IsInterfaceNil returns true if there is no value under the interface
func (cpu *CPUMock) IsInterfaceNil() bool {
	return cpu == nil
}
