package features

import (
	"github.com/multiversx/mx-chain-core-go/core/check"
	"github.com/qtumproject/neutron-vm-go/neutron"
)

// Function identifiers of the global storage feature
const (
	// StoreStateFunction writes the popped (key, value) pair into user state
	StoreStateFunction uint32 = iota + 1

	// LoadStateFunction reads the value of the popped key and pushes it
	LoadStateFunction

	// KeyExistsFunction is reserved
	KeyExistsFunction
)

var _ neutron.FeatureInterface = (*globalStorageInterface)(nil)

// globalStorageInterface implements the persistent storage feature. All keys
// live in the user namespace of the currently executing contract.
type globalStorageInterface struct {
	callSystem neutron.CallSystem
}

// NewGlobalStorageInterface creates the storage feature backed by the given call system
func NewGlobalStorageInterface(callSystem neutron.CallSystem) (*globalStorageInterface, error) {
	if check.IfNil(callSystem) {
		return nil, neutron.ErrNilCallSystem
	}

	return &globalStorageInterface{callSystem: callSystem}, nil
}

// TrySystemCall handles the (feature, function) pair if it belongs to the
// global storage feature
func (gs *globalStorageInterface) TrySystemCall(stack neutron.CallStack, feature uint32, function uint32) (bool, error) {
	switch {
	case feature != neutron.GlobalStorageFeature:
		return false, nil
	case function == StoreStateFunction:
		return true, gs.storeState(stack)
	case function == LoadStateFunction:
		return true, gs.loadState(stack)
	case function == KeyExistsFunction:
		return true, neutron.ErrNotImplemented
	}
	return true, neutron.ErrInvalidSystemFunction
}

func (gs *globalStorageInterface) storeState(stack neutron.CallStack) error {
	key, err := stack.PopSCCS()
	if err != nil {
		return err
	}
	value, err := stack.PopSCCS()
	if err != nil {
		return err
	}

	return gs.callSystem.WriteStateKey(stack, neutron.UserSpace, key, value)
}

func (gs *globalStorageInterface) loadState(stack neutron.CallStack) error {
	key, err := stack.PopSCCS()
	if err != nil {
		return err
	}

	value, err := gs.callSystem.ReadStateKey(stack, neutron.UserSpace, key)
	if err != nil {
		return err
	}

	return stack.PushSCCS(value)
}

// IsInterfaceNil returns true if there is no value under the interface
func (gs *globalStorageInterface) IsInterfaceNil() bool {
	return gs == nil
}
