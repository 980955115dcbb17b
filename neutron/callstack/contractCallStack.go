package callstack

import (
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/qtumproject/neutron-vm-go/config"
	"github.com/qtumproject/neutron-vm-go/neutron"
)

var log = logger.GetOrCreate("neutron/callstack")

var _ neutron.CallStack = (*ContractCallStack)(nil)

// ContractCallStack is the primary communication structure between the call
// system, the hypervisor and the VMs. It owns the SCCS data stack and the
// stack of nested execution contexts, and meters every data-carrying
// operation against the gas schedule.
type ContractCallStack struct {
	dataStack    [][]byte
	contextStack []neutron.ExecutionContext
	gasSchedule  *config.GasCost

	// pendingGas accumulates charges not yet reconciled with the VM; it is
	// signed so refunds compose additively
	pendingGas            int64
	gasRemaining          uint64
	systemChargesDisabled bool
}

// NewContractCallStack creates an empty call stack bound to the given gas schedule
func NewContractCallStack(gasSchedule *config.GasCost) (*ContractCallStack, error) {
	if gasSchedule == nil {
		return nil, neutron.ErrNilGasSchedule
	}

	return &ContractCallStack{
		dataStack:    make([][]byte, 0),
		contextStack: make([]neutron.ExecutionContext, 0),
		gasSchedule:  gasSchedule,
	}, nil
}

// ChargeGas adds to the gas consumed by the current system call; it fails
// with OutOfGas if the accumulated charges exceed the remaining gas
func (stack *ContractCallStack) ChargeGas(amount int64) error {
	stack.pendingGas += amount
	if stack.pendingGas > int64(stack.gasRemaining) {
		return neutron.ErrOutOfGas
	}
	return nil
}

// GasCost returns the scheduled cost for the given (feature, cost id) pair;
// it returns 0 for every pair while system charges are disabled
func (stack *ContractCallStack) GasCost(feature uint32, costID uint32) int64 {
	if stack.systemChargesDisabled {
		return 0
	}
	return stack.gasSchedule.Cost(feature, costID)
}

// GasSchedule returns the gas schedule the stack was created with
func (stack *ContractCallStack) GasSchedule() *config.GasCost {
	return stack.gasSchedule
}

// EnableSystemCharges re-enables metering of built-in operations
func (stack *ContractCallStack) EnableSystemCharges() {
	stack.systemChargesDisabled = false
}

// DisableSystemCharges suppresses metering of built-in operations; used by
// executors to run tests without a gas budget
func (stack *ContractCallStack) DisableSystemCharges() {
	stack.systemChargesDisabled = true
}

// PendingGas returns the charges accumulated since the last reconciliation
func (stack *ContractCallStack) PendingGas() int64 {
	return stack.pendingGas
}

// ResetPendingGas clears the accumulated charges after reconciliation
func (stack *ContractCallStack) ResetPendingGas() {
	stack.pendingGas = 0
}

// GasRemaining returns the gas view used to communicate with the CPU
func (stack *ContractCallStack) GasRemaining() uint64 {
	return stack.gasRemaining
}

// SetGasRemaining publishes the CPU's remaining gas into the stack
func (stack *ContractCallStack) SetGasRemaining(gas uint64) {
	stack.gasRemaining = gas
}

func (stack *ContractCallStack) chargePerByte(costID uint32, numBytes int) error {
	return stack.ChargeGas(stack.GasCost(neutron.InternalBuiltInFeature, costID) * int64(numBytes))
}

// PushSCCS pushes an item onto the Smart Contract Communication Stack
func (stack *ContractCallStack) PushSCCS(data []byte) error {
	if len(data) > neutron.MaxSCCSItemSize {
		return neutron.ErrStackItemTooLarge
	}

	err := stack.chargePerByte(config.WriteByteCost, len(data))
	if err != nil {
		return err
	}

	item := make([]byte, len(data))
	copy(item, data)
	stack.dataStack = append(stack.dataStack, item)
	return nil
}

// PopSCCS removes and returns the top item of the SCCS
func (stack *ContractCallStack) PopSCCS() ([]byte, error) {
	if len(stack.dataStack) == 0 {
		return nil, neutron.ErrStackIndexDoesntExist
	}

	item := stack.dataStack[len(stack.dataStack)-1]
	err := stack.chargePerByte(config.ReadByteCost, len(item))
	if err != nil {
		return nil, err
	}
	err = stack.chargePerByte(config.ClearByteRefundCost, len(item))
	if err != nil {
		return nil, err
	}

	stack.dataStack = stack.dataStack[:len(stack.dataStack)-1]
	return item, nil
}

// DropSCCS removes the top item of the SCCS without returning it
func (stack *ContractCallStack) DropSCCS() error {
	if len(stack.dataStack) == 0 {
		return neutron.ErrStackIndexDoesntExist
	}

	item := stack.dataStack[len(stack.dataStack)-1]
	err := stack.chargePerByte(config.ClearByteRefundCost, len(item))
	if err != nil {
		return err
	}

	stack.dataStack = stack.dataStack[:len(stack.dataStack)-1]
	return nil
}

func (stack *ContractCallStack) itemAt(index uint32) ([]byte, error) {
	position := len(stack.dataStack) - 1 - int(index)
	if position < 0 {
		return nil, neutron.ErrStackIndexDoesntExist
	}
	return stack.dataStack[position], nil
}

// PeekSCCS returns the item at the given index without removing it; index 0
// is the top of the stack
func (stack *ContractCallStack) PeekSCCS(index uint32) ([]byte, error) {
	item, err := stack.itemAt(index)
	if err != nil {
		return nil, err
	}

	err = stack.chargePerByte(config.ReadByteCost, len(item))
	if err != nil {
		return nil, err
	}

	result := make([]byte, len(item))
	copy(result, item)
	return result, nil
}

// PeekSCCSSize returns the byte length of the item at the given index
func (stack *ContractCallStack) PeekSCCSSize(index uint32) (uint32, error) {
	item, err := stack.itemAt(index)
	if err != nil {
		return 0, err
	}
	return uint32(len(item)), nil
}

// SwapSCCS exchanges the top item with the item at the given index
func (stack *ContractCallStack) SwapSCCS(index uint32) error {
	if index == 0 {
		return neutron.ErrStackIndexDoesntExist
	}

	other, err := stack.itemAt(index)
	if err != nil {
		return err
	}
	top := stack.dataStack[len(stack.dataStack)-1]

	err = stack.chargePerByte(config.ReadByteCost, len(top)+len(other))
	if err != nil {
		return err
	}

	position := len(stack.dataStack) - 1 - int(index)
	stack.dataStack[position] = top
	stack.dataStack[len(stack.dataStack)-1] = other
	return nil
}

// DupSCCS replicates the item at the given index onto the top of the stack
func (stack *ContractCallStack) DupSCCS(index uint32) error {
	item, err := stack.itemAt(index)
	if err != nil {
		return err
	}
	return stack.PushSCCS(item)
}

// SCCSItemCount returns the number of items on the SCCS
func (stack *ContractCallStack) SCCSItemCount() int {
	return len(stack.dataStack)
}

// SCCSMemorySize returns the total byte size occupied by the SCCS
func (stack *ContractCallStack) SCCSMemorySize() int {
	total := 0
	for _, item := range stack.dataStack {
		total += len(item)
	}
	return total
}

// PushContext pushes a new execution context onto the context stack
func (stack *ContractCallStack) PushContext(context neutron.ExecutionContext) {
	stack.contextStack = append(stack.contextStack, context)
}

// PopContext removes and returns the top execution context. Popping the last
// context ends the transaction and discards any SCCS leftovers, so that no
// item crosses a popped top-level context.
func (stack *ContractCallStack) PopContext() (neutron.ExecutionContext, error) {
	if len(stack.contextStack) == 0 {
		return neutron.ExecutionContext{}, neutron.ErrContextIndexEmpty
	}

	context := stack.contextStack[len(stack.contextStack)-1]
	stack.contextStack = stack.contextStack[:len(stack.contextStack)-1]

	if len(stack.contextStack) == 0 {
		stack.dataStack = stack.dataStack[:0]
	}

	return context, nil
}

// PeekContext returns the context at the given index without removing it;
// index 0 is the current context
func (stack *ContractCallStack) PeekContext(index uint32) (*neutron.ExecutionContext, error) {
	position := len(stack.contextStack) - 1 - int(index)
	if position < 0 {
		return nil, neutron.ErrStackIndexDoesntExist
	}
	return &stack.contextStack[position], nil
}

// CurrentContext returns the context of the current contract execution, or
// nil between transactions
func (stack *ContractCallStack) CurrentContext() *neutron.ExecutionContext {
	context, err := stack.PeekContext(0)
	if err != nil {
		return nil
	}
	return context
}

// ContextCount returns the number of contexts involved in the overall execution
func (stack *ContractCallStack) ContextCount() int {
	return len(stack.contextStack)
}

// CreateTopLevelCall pushes the context for calling an existing contract
// from a transaction; the context stack must be empty
func (stack *ContractCallStack) CreateTopLevelCall(address neutron.Address, sender neutron.Address, gasLimit uint64, value uint64) error {
	return stack.createTopLevelContext(address, sender, gasLimit, value, neutron.ExecutionTypeCall)
}

// CreateTopLevelDeploy pushes the context for deploying a new contract from
// a transaction; the context stack must be empty
func (stack *ContractCallStack) CreateTopLevelDeploy(address neutron.Address, sender neutron.Address, gasLimit uint64, value uint64) error {
	return stack.createTopLevelContext(address, sender, gasLimit, value, neutron.ExecutionTypeDeploy)
}

func (stack *ContractCallStack) createTopLevelContext(
	address neutron.Address,
	sender neutron.Address,
	gasLimit uint64,
	value uint64,
	executionType neutron.ExecutionType,
) error {
	if len(stack.contextStack) != 0 {
		return neutron.ErrContextStackNotEmpty
	}

	stack.PushContext(neutron.ExecutionContext{
		Sender:        sender,
		Origin:        sender,
		SelfAddress:   address,
		GasLimit:      gasLimit,
		ValueSent:     value,
		ExecutionType: executionType,
	})
	stack.gasRemaining = gasLimit
	stack.pendingGas = 0

	log.Trace("top level context created",
		"address", address.String(),
		"gasLimit", gasLimit,
		"executionType", executionType)
	return nil
}

// CreateCall pushes the context for a nested call; the context stack must
// not be empty
func (stack *ContractCallStack) CreateCall(address neutron.Address, gasLimit uint64, value uint64) error {
	return stack.createInnerContext(address, gasLimit, value, neutron.ExecutionTypeCall)
}

// CreateDeploy pushes the context for a nested deploy; the context stack
// must not be empty
func (stack *ContractCallStack) CreateDeploy(address neutron.Address, gasLimit uint64, value uint64) error {
	return stack.createInnerContext(address, gasLimit, value, neutron.ExecutionTypeDeploy)
}

func (stack *ContractCallStack) createInnerContext(
	address neutron.Address,
	gasLimit uint64,
	value uint64,
	executionType neutron.ExecutionType,
) error {
	if len(stack.contextStack) == 0 {
		return neutron.ErrContextIndexEmpty
	}

	caller := stack.contextStack[len(stack.contextStack)-1]
	bottom := stack.contextStack[0]

	stack.PushContext(neutron.ExecutionContext{
		Sender:        caller.SelfAddress,
		Origin:        bottom.Sender,
		SelfAddress:   address,
		GasLimit:      gasLimit,
		ValueSent:     value,
		ExecutionType: executionType,
	})
	stack.gasRemaining = gasLimit

	return nil
}

// IsInterfaceNil returns true if there is no value under the interface
func (stack *ContractCallStack) IsInterfaceNil() bool {
	return stack == nil
}
