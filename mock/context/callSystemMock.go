package mock

import (
	"github.com/qtumproject/neutron-vm-go/neutron"
)

var _ neutron.CallSystem = (*CallSystemMock)(nil)

// CallSystemMock is used in tests to check the CallSystem interface method calls
type CallSystemMock struct {
	SystemCallCalled    func(stack neutron.CallStack, feature uint32, function uint32) (uint32, error)
	ReadStateKeyCalled  func(stack neutron.CallStack, space byte, key []byte) ([]byte, error)
	WriteStateKeyCalled func(stack neutron.CallStack, space byte, key []byte, value []byte) error

	Height   uint32
	Messages []string
}

// SystemCall calls the mocked function or returns 0
func (cs *CallSystemMock) SystemCall(stack neutron.CallStack, feature uint32, function uint32) (uint32, error) {
	if cs.SystemCallCalled != nil {
		return cs.SystemCallCalled(stack, feature, function)
	}
	return 0, nil
}

// BlockHeight returns the mocked height, or 1 when no height is set
func (cs *CallSystemMock) BlockHeight() (uint32, error) {
	if cs.Height == 0 {
		return 1, nil
	}
	return cs.Height, nil
}

// ReadStateKey calls the mocked function or fails with StateOutOfRent
func (cs *CallSystemMock) ReadStateKey(stack neutron.CallStack, space byte, key []byte) ([]byte, error) {
	if cs.ReadStateKeyCalled != nil {
		return cs.ReadStateKeyCalled(stack, space, key)
	}
	return nil, neutron.ErrStateOutOfRent
}

// WriteStateKey calls the mocked function or succeeds silently
func (cs *CallSystemMock) WriteStateKey(stack neutron.CallStack, space byte, key []byte, value []byte) error {
	if cs.WriteStateKeyCalled != nil {
		return cs.WriteStateKeyCalled(stack, space, key, value)
	}
	return nil
}

// LogError records the message
func (cs *CallSystemMock) LogError(message string) {
	cs.Messages = append(cs.Messages, "ERROR: "+message)
}

// LogWarning records the message
func (cs *CallSystemMock) LogWarning(message string) {
	cs.Messages = append(cs.Messages, "WARN: "+message)
}

// LogInfo records the message
func (cs *CallSystemMock) LogInfo(message string) {
	cs.Messages = append(cs.Messages, "INFO: "+message)
}

// LogDebug records the message
func (cs *CallSystemMock) LogDebug(message string) {
	cs.Messages = append(cs.Messages, "DEBUG: "+message)
}

// IsInterfaceNil returns true if there is no value under the interface
func (cs *CallSystemMock) IsInterfaceNil() bool {
	return cs == nil
}
