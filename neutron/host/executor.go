package host

import (
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-storage-go/memorydb"
	"github.com/multiversx/mx-chain-storage-go/types"
	"github.com/qtumproject/neutron-vm-go/neutron"
	"github.com/qtumproject/neutron-vm-go/neutron/features"
	"github.com/qtumproject/neutron-vm-go/neutron/hypervisor"
	"github.com/qtumproject/neutron-vm-go/neutron/state"
)

var log = logger.GetOrCreate("neutron/host")

var _ neutron.Executor = (*neutronExecutor)(nil)
var _ features.LogSink = (*neutronExecutor)(nil)

// ExecutorArguments configures a new executor
type ExecutorArguments struct {
	// CPUBuilder creates the virtual CPU instances, one per execution
	CPUBuilder neutron.CPUBuilder

	// Persister backs committed state; defaults to an in-memory database
	Persister types.Persister

	// BlockHeight is reported to contracts; defaults to 1
	BlockHeight uint32

	// LogSink overrides the destination of guest log messages, for tests
	LogSink features.LogSink
}

// neutronExecutor composes the checkpointed state store, the call system
// with its feature interfaces and the hypervisor into a runnable unit
type neutronExecutor struct {
	stateStore  neutron.StateStore
	cpuBuilder  neutron.CPUBuilder
	features    []neutron.FeatureInterface
	blockHeight uint32
	sink        features.LogSink
}

// NewNeutronExecutor creates a fully wired executor
func NewNeutronExecutor(args ExecutorArguments) (*neutronExecutor, error) {
	if check.IfNil(args.CPUBuilder) {
		return nil, neutron.ErrNilCPUBuilder
	}

	persister := args.Persister
	if check.IfNil(persister) {
		persister = memorydb.New()
	}

	stateStore, err := state.NewCheckpointedKV(persister)
	if err != nil {
		return nil, err
	}

	blockHeight := args.BlockHeight
	if blockHeight == 0 {
		blockHeight = 1
	}

	executor := &neutronExecutor{
		stateStore:  stateStore,
		cpuBuilder:  args.CPUBuilder,
		blockHeight: blockHeight,
		sink:        args.LogSink,
	}

	globalStorage, err := features.NewGlobalStorageInterface(executor)
	if err != nil {
		return nil, err
	}
	logging, err := features.NewLoggingInterface(executor)
	if err != nil {
		return nil, err
	}
	executor.features = []neutron.FeatureInterface{globalStorage, logging}

	return executor, nil
}

// SystemCall tries each feature interface in turn until one claims the
// (feature, function) pair
func (executor *neutronExecutor) SystemCall(stack neutron.CallStack, feature uint32, function uint32) (uint32, error) {
	for _, featureInterface := range executor.features {
		handled, err := featureInterface.TrySystemCall(stack, feature, function)
		if err != nil {
			return 0, err
		}
		if handled {
			return 0, nil
		}
	}

	log.Trace("unclaimed system call", "feature", feature, "function", function)
	return 0, neutron.ErrInvalidSystemFeature
}

// BlockHeight returns the block height at execution
func (executor *neutronExecutor) BlockHeight() (uint32, error) {
	return executor.blockHeight, nil
}

func (executor *neutronExecutor) selfShortAddress(stack neutron.CallStack) (neutron.ShortAddress, error) {
	context := stack.CurrentContext()
	if context == nil {
		return neutron.ShortAddress{}, neutron.ErrContextIndexEmpty
	}
	return context.SelfAddress.ToShortAddress(), nil
}

func composeStateKey(space byte, key []byte) []byte {
	composed := make([]byte, 0, 1+len(key))
	composed = append(composed, space)
	composed = append(composed, key...)
	return composed
}

// ReadStateKey reads a state key of the currently executing contract from
// the given sub-namespace
func (executor *neutronExecutor) ReadStateKey(stack neutron.CallStack, space byte, key []byte) ([]byte, error) {
	address, err := executor.selfShortAddress(stack)
	if err != nil {
		return nil, err
	}
	return executor.stateStore.ReadKey(stack, address, composeStateKey(space, key))
}

// WriteStateKey writes a state key of the currently executing contract into
// the given sub-namespace
func (executor *neutronExecutor) WriteStateKey(stack neutron.CallStack, space byte, key []byte, value []byte) error {
	address, err := executor.selfShortAddress(stack)
	if err != nil {
		return err
	}
	return executor.stateStore.WriteKey(stack, address, composeStateKey(space, key), value)
}

// LogError emits a guest error message
func (executor *neutronExecutor) LogError(message string) {
	if executor.sink != nil {
		executor.sink.LogError(message)
		return
	}
	log.Error(message)
}

// LogWarning emits a guest warning message
func (executor *neutronExecutor) LogWarning(message string) {
	if executor.sink != nil {
		executor.sink.LogWarning(message)
		return
	}
	log.Warn(message)
}

// LogInfo emits a guest informational message
func (executor *neutronExecutor) LogInfo(message string) {
	if executor.sink != nil {
		executor.sink.LogInfo(message)
		return
	}
	log.Info(message)
}

// LogDebug emits a guest debug message
func (executor *neutronExecutor) LogDebug(message string) {
	if executor.sink != nil {
		executor.sink.LogDebug(message)
		return
	}
	log.Debug(message)
}

// State returns the checkpointed state store of the executor
func (executor *neutronExecutor) State() neutron.StateStore {
	return executor.stateStore
}

// ExecuteTopContext runs the top context of the given call stack inside a
// fresh checkpoint. On success the checkpoint is committed; on failure or a
// guest revert every outstanding checkpoint is discarded, so that no partial
// state leaks. The top context is popped on every exit path.
func (executor *neutronExecutor) ExecuteTopContext(stack neutron.CallStack) (neutron.VMResult, error) {
	context := stack.CurrentContext()
	if context == nil {
		return neutron.VMResult{}, neutron.ErrContextIndexEmpty
	}

	executor.stateStore.Checkpoint()
	result, err := executor.runTopContext(stack, context)
	_, popErr := stack.PopContext()
	if popErr != nil {
		log.Error("cannot pop top context", "err", popErr)
	}

	if err != nil || result.ShouldRevert {
		executor.stateStore.ClearCheckpoints()
		return result, err
	}

	commitErr := executor.stateStore.Commit()
	if commitErr != nil {
		executor.stateStore.ClearCheckpoints()
		return result, commitErr
	}

	log.Trace("top context committed", "gasUsed", result.GasUsed)
	return result, nil
}

func (executor *neutronExecutor) runTopContext(stack neutron.CallStack, context *neutron.ExecutionContext) (neutron.VMResult, error) {
	if context.SelfAddress.Version != uint32(neutron.X86RootVM) {
		return neutron.VMResult{}, neutron.ErrUnknownVM
	}

	cpu, err := executor.cpuBuilder.NewCPU()
	if err != nil {
		log.Error("cannot create CPU instance", "err", err)
		return neutron.VMResult{}, neutron.ErrErrorInitializingVM
	}

	hv, err := hypervisor.NewX86Hypervisor(executor, stack, cpu)
	if err != nil {
		return neutron.VMResult{}, err
	}

	return hv.Execute()
}

// DeployFromELF loads a contract image from the given ELF file, pushes the
// deploy quadruple onto the SCCS and executes the top context
func (executor *neutronExecutor) DeployFromELF(stack neutron.CallStack, filePath string) (neutron.VMResult, error) {
	image, err := LoadContractImage(filePath)
	if err != nil {
		return neutron.VMResult{}, err
	}

	err = PushDeployImage(stack, image)
	if err != nil {
		return neutron.VMResult{}, err
	}

	return executor.ExecuteTopContext(stack)
}

// IsInterfaceNil returns true if there is no value under the interface
func (executor *neutronExecutor) IsInterfaceNil() bool {
	return executor == nil
}
