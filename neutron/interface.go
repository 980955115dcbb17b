package neutron

import (
	"github.com/qtumproject/neutron-vm-go/config"
)

// ExecutionType selects the flow executed for a context frame
type ExecutionType int

const (
	// ExecutionTypeCall executes an already deployed contract
	ExecutionTypeCall ExecutionType = iota

	// ExecutionTypeDeploy deploys a new contract from the SCCS
	ExecutionTypeDeploy

	// ExecutionTypeBareExecution is reserved
	ExecutionTypeBareExecution
)

// ExecutionContext is one frame of nested contract execution.
// Origin is fixed at the bottom frame and propagated to every inner frame;
// the sender of an inner frame is the self address of its immediate caller.
type ExecutionContext struct {
	Flags         uint64
	Sender        Address
	Origin        Address
	SelfAddress   Address
	GasLimit      uint64
	ValueSent     uint64
	ExecutionType ExecutionType
}

// VMResult is the outcome of a contract execution
type VMResult struct {
	// GasUsed is the total amount of gas consumed by the execution
	GasUsed uint64

	// ShouldRevert is true if no state effects may survive this execution
	ShouldRevert bool

	// ErrorCode describes how the contract ended (0 = success)
	ErrorCode uint32

	// ErrorLocation identifies where the contract ended; for x86 this is EIP
	ErrorLocation uint64

	// ExtraData is VM-defined and not exposed to contracts
	ExtraData uint64
}

// CallStack is the shared communication stack between the host, the
// hypervisor and the guest: an SCCS of opaque byte strings plus the stack of
// nested execution contexts, with gas charging threaded through every
// data-carrying operation.
type CallStack interface {
	ChargeGas(amount int64) error
	GasCost(feature uint32, costID uint32) int64
	GasSchedule() *config.GasCost
	EnableSystemCharges()
	DisableSystemCharges()
	PendingGas() int64
	ResetPendingGas()
	GasRemaining() uint64
	SetGasRemaining(gas uint64)

	PushSCCS(data []byte) error
	PopSCCS() ([]byte, error)
	DropSCCS() error
	PeekSCCS(index uint32) ([]byte, error)
	PeekSCCSSize(index uint32) (uint32, error)
	SwapSCCS(index uint32) error
	DupSCCS(index uint32) error
	SCCSItemCount() int
	SCCSMemorySize() int

	PushContext(context ExecutionContext)
	PopContext() (ExecutionContext, error)
	PeekContext(index uint32) (*ExecutionContext, error)
	CurrentContext() *ExecutionContext
	ContextCount() int
	CreateTopLevelCall(address Address, sender Address, gasLimit uint64, value uint64) error
	CreateTopLevelDeploy(address Address, sender Address, gasLimit uint64, value uint64) error
	CreateCall(address Address, gasLimit uint64, value uint64) error
	CreateDeploy(address Address, gasLimit uint64, value uint64) error

	IsInterfaceNil() bool
}

// StateStore is the checkpointed per-contract key-value store. Reads search
// the checkpoint stack top-down and then committed storage; writes target
// only the top checkpoint. Both charge gas through the given call stack.
type StateStore interface {
	Checkpoint() int
	RevertCheckpoint() (int, error)
	CollapseCheckpoints()
	ClearCheckpoints()
	Commit() error
	CheckpointCount() int
	ReadKey(stack CallStack, address ShortAddress, key []byte) ([]byte, error)
	WriteKey(stack CallStack, address ShortAddress, key []byte, value []byte) error
	IsInterfaceNil() bool
}

// CallSystem bridges guest system calls to host features. Feature interfaces
// are tried in order; state-key access is used by hypervisors to persist and
// load contract sections.
type CallSystem interface {
	SystemCall(stack CallStack, feature uint32, function uint32) (uint32, error)
	BlockHeight() (uint32, error)
	ReadStateKey(stack CallStack, space byte, key []byte) ([]byte, error)
	WriteStateKey(stack CallStack, space byte, key []byte, value []byte) error

	LogError(message string)
	LogWarning(message string)
	LogInfo(message string)
	LogDebug(message string)

	IsInterfaceNil() bool
}

// FeatureInterface is one composable feature of the system-call surface.
// TrySystemCall returns (true, nil) when the pair was claimed and handled,
// (false, nil) when the feature id belongs to another interface, and an
// error when the feature was claimed but the call failed.
type FeatureInterface interface {
	TrySystemCall(stack CallStack, feature uint32, function uint32) (bool, error)
	IsInterfaceNil() bool
}

// Executor composes the state store, the call system with its feature
// interfaces and the hypervisors into a runnable unit.
type Executor interface {
	CallSystem

	ExecuteTopContext(stack CallStack) (VMResult, error)
	DeployFromELF(stack CallStack, filePath string) (VMResult, error)
	State() StateStore
}

// Register identifies a general-purpose register of the virtual CPU
type Register int

// General-purpose registers used by the interrupt calling convention
const (
	RegEAX Register = iota
	RegECX
	RegEDX
	RegEBX
	RegESP
	RegEBP
	RegESI
	RegEDI
)

// InterruptHandler receives the interrupts raised by the guest. The returned
// error steers the CPU: nil resumes execution, ErrVMStop halts cleanly, any
// other error halts with a system-call failure.
type InterruptHandler interface {
	HandleInterrupt(cpu VirtualCPU, num uint8) error
}

// VirtualCPU is the surface the hypervisor requires from the sandboxed x86
// interpreter. Execute runs the decode loop to completion: it returns nil on
// a clean halt (including a handler returning ErrVMStop), ErrOutOfGas when
// the gas budget is exhausted mid-execution, and any other error on a crash
// or a terminal handler failure.
type VirtualCPU interface {
	Execute(handler InterruptHandler) error

	AddMemoryRegion(start uint32, size uint32, readOnly bool) error
	CopyIntoMemory(address uint32, data []byte) error
	CopyFromMemory(address uint32, size uint32) ([]byte, error)

	GetRegister(reg Register) uint32
	SetRegister(reg Register, value uint32)
	SetInstructionPointer(address uint32)
	InstructionPointer() uint32

	SetCostTable(costs *config.CPUCost)
	GasRemaining() uint64
	SetGasRemaining(gas uint64)

	IsInterfaceNil() bool
}

// CPUBuilder creates virtual CPU instances, one per contract execution
type CPUBuilder interface {
	NewCPU() (VirtualCPU, error)
	IsInterfaceNil() bool
}
