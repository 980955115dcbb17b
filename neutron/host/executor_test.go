package host

import (
	"testing"

	"github.com/qtumproject/neutron-vm-go/config"
	mock "github.com/qtumproject/neutron-vm-go/mock/context"
	"github.com/qtumproject/neutron-vm-go/neutron"
	"github.com/qtumproject/neutron-vm-go/neutron/callstack"
	"github.com/qtumproject/neutron-vm-go/neutron/features"
	"github.com/stretchr/testify/require"
)

func exitWithStatus(status uint32) func(cpu *mock.CPUMock, handler neutron.InterruptHandler) error {
	return func(cpu *mock.CPUMock, handler neutron.InterruptHandler) error {
		cpu.SetRegister(neutron.RegEAX, status)
		return cpu.Raise(handler, neutron.ExitExecutionInterrupt)
	}
}

func makeExecutorTestStack(t *testing.T) *callstack.ContractCallStack {
	gasCost, err := config.CreateGasConfig(config.MakeGasMapForTests())
	require.Nil(t, err)
	stack, err := callstack.NewContractCallStack(gasCost)
	require.Nil(t, err)
	return stack
}

func pushDeployQuadruple(t *testing.T, stack *callstack.ContractCallStack, code []byte, data []byte) {
	t.Helper()
	err := PushDeployImage(stack, &ContractImage{Code: code, Data: data})
	require.Nil(t, err)
}

func TestNewNeutronExecutor(t *testing.T) {
	t.Parallel()

	executor, err := NewNeutronExecutor(ExecutorArguments{})
	require.Equal(t, neutron.ErrNilCPUBuilder, err)
	require.Nil(t, executor)

	executor, err = NewNeutronExecutor(ExecutorArguments{CPUBuilder: &mock.CPUBuilderMock{}})
	require.Nil(t, err)
	require.NotNil(t, executor)
	require.NotNil(t, executor.State())

	height, err := executor.BlockHeight()
	require.Nil(t, err)
	require.Equal(t, uint32(1), height)
}

func TestNeutronExecutor_DeployThenCallThenCall(t *testing.T) {
	t.Parallel()

	builder := &mock.CPUBuilderMock{RunFunc: exitWithStatus(0)}
	executor, err := NewNeutronExecutor(ExecutorArguments{CPUBuilder: builder})
	require.Nil(t, err)

	stack := makeExecutorTestStack(t)
	contractAddress := neutron.NewRandomAddress(uint32(neutron.X86RootVM))
	sender := neutron.NewRandomAddress(1)

	require.Nil(t, stack.CreateTopLevelDeploy(contractAddress, sender, 1_000_000, 0))
	pushDeployQuadruple(t, stack, []byte{0x90, 0xC3}, []byte{1, 2, 3})

	result, err := executor.ExecuteTopContext(stack)
	require.Nil(t, err)
	require.Equal(t, uint32(0), result.ErrorCode)
	require.Equal(t, 0, stack.ContextCount())
	require.Equal(t, 0, executor.State().CheckpointCount())

	for i := 0; i < 2; i++ {
		require.Nil(t, stack.CreateTopLevelCall(contractAddress, sender, 1_000_000, 0))
		result, err = executor.ExecuteTopContext(stack)
		require.Nil(t, err)
		require.Equal(t, uint32(0), result.ErrorCode)
		require.False(t, result.ShouldRevert)
	}

	// a fresh random address has no persisted contract
	require.Nil(t, stack.CreateTopLevelCall(neutron.NewRandomAddress(uint32(neutron.X86RootVM)), sender, 1_000_000, 0))
	_, err = executor.ExecuteTopContext(stack)
	require.Equal(t, neutron.ErrStateOutOfRent, err)
	require.Equal(t, 0, executor.State().CheckpointCount())
	require.Equal(t, 0, stack.ContextCount())
}

func TestNeutronExecutor_UnknownVMVersion(t *testing.T) {
	t.Parallel()

	executor, err := NewNeutronExecutor(ExecutorArguments{CPUBuilder: &mock.CPUBuilderMock{}})
	require.Nil(t, err)

	stack := makeExecutorTestStack(t)
	require.Nil(t, stack.CreateTopLevelCall(neutron.NewRandomAddress(7), neutron.NewRandomAddress(1), 1000, 0))

	_, err = executor.ExecuteTopContext(stack)
	require.Equal(t, neutron.ErrUnknownVM, err)
	require.Equal(t, 0, executor.State().CheckpointCount())
}

func TestNeutronExecutor_ExecuteWithoutContext(t *testing.T) {
	t.Parallel()

	executor, err := NewNeutronExecutor(ExecutorArguments{CPUBuilder: &mock.CPUBuilderMock{}})
	require.Nil(t, err)

	stack := makeExecutorTestStack(t)
	_, err = executor.ExecuteTopContext(stack)
	require.Equal(t, neutron.ErrContextIndexEmpty, err)
}

func TestNeutronExecutor_GuestRevertDiscardsState(t *testing.T) {
	t.Parallel()

	revertRun := func(cpu *mock.CPUMock, handler neutron.InterruptHandler) error {
		cpu.SetRegister(neutron.RegEAX, 1)
		return cpu.Raise(handler, neutron.RevertExecutionInterrupt)
	}

	builder := &mock.CPUBuilderMock{RunFunc: revertRun}
	executor, err := NewNeutronExecutor(ExecutorArguments{CPUBuilder: builder})
	require.Nil(t, err)

	stack := makeExecutorTestStack(t)
	contractAddress := neutron.NewRandomAddress(uint32(neutron.X86RootVM))
	require.Nil(t, stack.CreateTopLevelDeploy(contractAddress, neutron.NewRandomAddress(1), 1_000_000, 0))
	pushDeployQuadruple(t, stack, []byte{0x90}, []byte{1})

	result, err := executor.ExecuteTopContext(stack)
	require.Nil(t, err)
	require.True(t, result.ShouldRevert)
	require.Equal(t, 0, executor.State().CheckpointCount())

	// nothing was persisted: calling the contract now fails
	require.Nil(t, stack.CreateTopLevelCall(contractAddress, neutron.NewRandomAddress(1), 1_000_000, 0))
	_, err = executor.ExecuteTopContext(stack)
	require.Equal(t, neutron.ErrStateOutOfRent, err)
}

func TestNeutronExecutor_GuestLogging(t *testing.T) {
	t.Parallel()

	logRun := func(cpu *mock.CPUMock, handler neutron.InterruptHandler) error {
		// the guest pushes "world", then "hello", then the fragment count,
		// and requests log_info(2, 2)
		scratch := neutron.AuxMemoryStart
		err := cpu.CopyIntoMemory(scratch, []byte("world"))
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, scratch)
		cpu.SetRegister(neutron.RegECX, 5)
		err = cpu.Raise(handler, neutron.SCCSPushInterrupt)
		if err != nil {
			return err
		}

		err = cpu.CopyIntoMemory(scratch, []byte("hello"))
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, scratch)
		cpu.SetRegister(neutron.RegECX, 5)
		err = cpu.Raise(handler, neutron.SCCSPushInterrupt)
		if err != nil {
			return err
		}

		err = cpu.CopyIntoMemory(scratch, []byte{2})
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, scratch)
		cpu.SetRegister(neutron.RegECX, 1)
		err = cpu.Raise(handler, neutron.SCCSPushInterrupt)
		if err != nil {
			return err
		}

		cpu.SetRegister(neutron.RegEAX, neutron.LoggingFeature)
		cpu.SetRegister(neutron.RegECX, features.LogInfoFunction)
		err = cpu.Raise(handler, neutron.SystemCallInterrupt)
		if err != nil {
			return err
		}

		cpu.SetRegister(neutron.RegEAX, 0)
		return cpu.Raise(handler, neutron.ExitExecutionInterrupt)
	}

	sink := &mock.LogSinkMock{}
	builder := &mock.CPUBuilderMock{RunFunc: logRun}
	executor, err := NewNeutronExecutor(ExecutorArguments{CPUBuilder: builder, LogSink: sink})
	require.Nil(t, err)

	stack := makeExecutorTestStack(t)
	require.Nil(t, stack.CreateTopLevelDeploy(neutron.NewRandomAddress(uint32(neutron.X86RootVM)), neutron.NewRandomAddress(1), 1_000_000, 0))
	pushDeployQuadruple(t, stack, []byte{0x90}, []byte{1})

	result, err := executor.ExecuteTopContext(stack)
	require.Nil(t, err)
	require.Equal(t, uint32(0), result.ErrorCode)
	require.Equal(t, []string{"helloworld"}, sink.Infos)
}

func TestNeutronExecutor_GuestStorageRoundTrip(t *testing.T) {
	t.Parallel()

	pushBytes := func(cpu *mock.CPUMock, handler neutron.InterruptHandler, payload []byte) error {
		scratch := neutron.AuxMemoryStart
		err := cpu.CopyIntoMemory(scratch, payload)
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, scratch)
		cpu.SetRegister(neutron.RegECX, uint32(len(payload)))
		return cpu.Raise(handler, neutron.SCCSPushInterrupt)
	}

	storeRun := func(cpu *mock.CPUMock, handler neutron.InterruptHandler) error {
		// store_state(key=[7], value=[1,2,3]), then load it back and exit
		// with the loaded size minus 3 as status
		err := pushBytes(cpu, handler, []byte{1, 2, 3})
		if err != nil {
			return err
		}
		err = pushBytes(cpu, handler, []byte{7})
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, neutron.GlobalStorageFeature)
		cpu.SetRegister(neutron.RegECX, features.StoreStateFunction)
		err = cpu.Raise(handler, neutron.SystemCallInterrupt)
		if err != nil {
			return err
		}

		err = pushBytes(cpu, handler, []byte{7})
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, neutron.GlobalStorageFeature)
		cpu.SetRegister(neutron.RegECX, features.LoadStateFunction)
		err = cpu.Raise(handler, neutron.SystemCallInterrupt)
		if err != nil {
			return err
		}

		cpu.SetRegister(neutron.RegEAX, 0)
		cpu.SetRegister(neutron.RegECX, 0)
		err = cpu.Raise(handler, neutron.SCCSPopInterrupt)
		if err != nil {
			return err
		}

		cpu.SetRegister(neutron.RegEAX, cpu.GetRegister(neutron.RegEAX)-3)
		return cpu.Raise(handler, neutron.ExitExecutionInterrupt)
	}

	builder := &mock.CPUBuilderMock{RunFunc: storeRun}
	executor, err := NewNeutronExecutor(ExecutorArguments{CPUBuilder: builder})
	require.Nil(t, err)

	stack := makeExecutorTestStack(t)
	require.Nil(t, stack.CreateTopLevelDeploy(neutron.NewRandomAddress(uint32(neutron.X86RootVM)), neutron.NewRandomAddress(1), 1_000_000, 0))
	pushDeployQuadruple(t, stack, []byte{0x90}, []byte{1})

	result, err := executor.ExecuteTopContext(stack)
	require.Nil(t, err)
	// the loaded value had 3 bytes, so the guest exited with status 0
	require.Equal(t, uint32(0), result.ErrorCode)
	require.False(t, result.ShouldRevert)
}

func TestLoadContractImage_MissingFile(t *testing.T) {
	t.Parallel()

	image, err := LoadContractImage("definitely-not-a-file.elf")
	require.NotNil(t, err)
	require.Nil(t, image)
}
