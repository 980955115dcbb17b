package mock

import (
	"github.com/qtumproject/neutron-vm-go/neutron"
)

var _ neutron.CPUBuilder = (*CPUBuilderMock)(nil)

// CPUBuilderMock creates CPUMock instances, installing the configured guest
// program on each. The created CPUs are retained for assertions.
type CPUBuilderMock struct {
	RunFunc func(cpu *CPUMock, handler neutron.InterruptHandler) error
	Err     error

	CreatedCPUs []*CPUMock
}

// NewCPU creates a new scripted CPUMock
func (builder *CPUBuilderMock) NewCPU() (neutron.VirtualCPU, error) {
	if builder.Err != nil {
		return nil, builder.Err
	}

	cpu := NewCPUMock()
	cpu.RunFunc = builder.RunFunc
	builder.CreatedCPUs = append(builder.CreatedCPUs, cpu)
	return cpu, nil
}

// LastCPU returns the most recently created CPU, nil if none
func (builder *CPUBuilderMock) LastCPU() *CPUMock {
	if len(builder.CreatedCPUs) == 0 {
		return nil
	}
	return builder.CreatedCPUs[len(builder.CreatedCPUs)-1]
}

// IsInterfaceNil returns true if there is no value under the interface
func (builder *CPUBuilderMock) IsInterfaceNil() bool {
	return builder == nil
}
