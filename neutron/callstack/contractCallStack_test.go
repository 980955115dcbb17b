package callstack

import (
	"bytes"
	"testing"

	"github.com/qtumproject/neutron-vm-go/config"
	"github.com/qtumproject/neutron-vm-go/neutron"
	"github.com/stretchr/testify/require"
)

func makeTestStack(t *testing.T, gasLimit uint64) *ContractCallStack {
	gasCost, err := config.CreateGasConfig(config.MakeGasMapForTests())
	require.Nil(t, err)

	stack, err := NewContractCallStack(gasCost)
	require.Nil(t, err)

	err = stack.CreateTopLevelCall(neutron.NewRandomAddress(2), neutron.NewRandomAddress(1), gasLimit, 0)
	require.Nil(t, err)
	return stack
}

func TestNewContractCallStack(t *testing.T) {
	t.Parallel()

	stack, err := NewContractCallStack(nil)
	require.Equal(t, neutron.ErrNilGasSchedule, err)
	require.Nil(t, stack)

	gasCost, err := config.CreateGasConfig(config.MakeGasMapForTests())
	require.Nil(t, err)

	stack, err = NewContractCallStack(gasCost)
	require.Nil(t, err)
	require.NotNil(t, stack)
	require.Equal(t, 0, stack.SCCSItemCount())
	require.Equal(t, 0, stack.ContextCount())
}

func TestContractCallStack_PushPopPeek(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 1_000_000)

	err := stack.PushSCCS([]byte{7, 8, 9})
	require.Nil(t, err)

	popped, err := stack.PopSCCS()
	require.Nil(t, err)
	require.Equal(t, []byte{7, 8, 9}, popped)

	err = stack.PushSCCS([]byte{1})
	require.Nil(t, err)
	err = stack.PushSCCS([]byte{2})
	require.Nil(t, err)

	popped, err = stack.PopSCCS()
	require.Nil(t, err)
	require.Equal(t, []byte{2}, popped)

	top, err := stack.PeekSCCS(0)
	require.Nil(t, err)
	require.Equal(t, []byte{1}, top)
	require.Equal(t, 1, stack.SCCSItemCount())
}

func TestContractCallStack_PeekMatchesPopAfterDrops(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 1_000_000)

	items := [][]byte{{1}, {2, 2}, {3, 3, 3}, {4}}
	for _, item := range items {
		require.Nil(t, stack.PushSCCS(item))
	}

	for index := uint32(0); index < uint32(len(items)); index++ {
		peeked, err := stack.PeekSCCS(index)
		require.Nil(t, err)
		require.True(t, bytes.Equal(items[len(items)-1-int(index)], peeked))
	}

	_, err := stack.PeekSCCS(uint32(len(items)))
	require.Equal(t, neutron.ErrStackIndexDoesntExist, err)

	require.Nil(t, stack.DropSCCS())
	require.Nil(t, stack.DropSCCS())
	popped, err := stack.PopSCCS()
	require.Nil(t, err)
	require.Equal(t, []byte{2, 2}, popped)
}

func TestContractCallStack_ItemSizeBoundaries(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 1<<40)

	err := stack.PushSCCS(make([]byte, neutron.MaxSCCSItemSize))
	require.Nil(t, err)

	err = stack.PushSCCS(make([]byte, neutron.MaxSCCSItemSize+1))
	require.Equal(t, neutron.ErrStackItemTooLarge, err)
	require.Equal(t, 1, stack.SCCSItemCount())
}

func TestContractCallStack_EmptyStackErrors(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 1_000_000)

	_, err := stack.PopSCCS()
	require.Equal(t, neutron.ErrStackIndexDoesntExist, err)

	err = stack.DropSCCS()
	require.Equal(t, neutron.ErrStackIndexDoesntExist, err)

	_, err = stack.PeekSCCS(0)
	require.Equal(t, neutron.ErrStackIndexDoesntExist, err)
}

func TestContractCallStack_SwapAndDup(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 1_000_000)

	require.Nil(t, stack.PushSCCS([]byte{1}))
	require.Nil(t, stack.PushSCCS([]byte{2}))
	require.Nil(t, stack.PushSCCS([]byte{3}))

	err := stack.SwapSCCS(0)
	require.Equal(t, neutron.ErrStackIndexDoesntExist, err)

	err = stack.SwapSCCS(2)
	require.Nil(t, err)
	top, _ := stack.PeekSCCS(0)
	require.Equal(t, []byte{1}, top)
	bottom, _ := stack.PeekSCCS(2)
	require.Equal(t, []byte{3}, bottom)

	err = stack.DupSCCS(1)
	require.Nil(t, err)
	require.Equal(t, 4, stack.SCCSItemCount())
	top, _ = stack.PeekSCCS(0)
	require.Equal(t, []byte{2}, top)
}

func TestContractCallStack_GasCharging(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 1_000_000)

	// WriteByte = 1 per byte
	err := stack.PushSCCS([]byte{1, 2, 3, 4, 5})
	require.Nil(t, err)
	require.Equal(t, int64(5), stack.PendingGas())

	// ReadByte = 1 and ClearByteRefund = -1 cancel out on pop
	_, err = stack.PopSCCS()
	require.Nil(t, err)
	require.Equal(t, int64(5), stack.PendingGas())

	stack.ResetPendingGas()
	require.Equal(t, int64(0), stack.PendingGas())

	// drop only applies the refund
	require.Nil(t, stack.PushSCCS([]byte{1, 2, 3}))
	stack.ResetPendingGas()
	require.Nil(t, stack.DropSCCS())
	require.Equal(t, int64(-3), stack.PendingGas())
}

func TestContractCallStack_ChargeGasOutOfGas(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 4)

	err := stack.PushSCCS([]byte{1, 2, 3, 4})
	require.Nil(t, err)

	err = stack.PushSCCS([]byte{5})
	require.Equal(t, neutron.ErrOutOfGas, err)
	require.Equal(t, 1, stack.SCCSItemCount())
}

func TestContractCallStack_DisabledSystemCharges(t *testing.T) {
	t.Parallel()

	stack := makeTestStack(t, 0)
	stack.DisableSystemCharges()

	require.Equal(t, int64(0), stack.GasCost(neutron.InternalBuiltInFeature, config.WriteByteCost))

	err := stack.PushSCCS([]byte{1, 2, 3})
	require.Nil(t, err)
	require.Equal(t, int64(0), stack.PendingGas())

	stack.EnableSystemCharges()
	require.Equal(t, int64(1), stack.GasCost(neutron.InternalBuiltInFeature, config.WriteByteCost))
}

func TestContractCallStack_TopLevelContexts(t *testing.T) {
	t.Parallel()

	gasCost, err := config.CreateGasConfig(config.MakeGasMapForTests())
	require.Nil(t, err)
	stack, err := NewContractCallStack(gasCost)
	require.Nil(t, err)

	contractAddress := neutron.NewRandomAddress(2)
	sender := neutron.NewRandomAddress(1)

	err = stack.CreateTopLevelCall(contractAddress, sender, 5000, 77)
	require.Nil(t, err)
	require.Equal(t, 1, stack.ContextCount())
	require.Equal(t, uint64(5000), stack.GasRemaining())

	context := stack.CurrentContext()
	require.NotNil(t, context)
	require.True(t, context.SelfAddress.Equal(contractAddress))
	require.True(t, context.Sender.Equal(sender))
	require.True(t, context.Origin.Equal(sender))
	require.Equal(t, uint64(77), context.ValueSent)
	require.Equal(t, neutron.ExecutionTypeCall, context.ExecutionType)

	err = stack.CreateTopLevelDeploy(contractAddress, sender, 5000, 0)
	require.Equal(t, neutron.ErrContextStackNotEmpty, err)
}

func TestContractCallStack_InnerContexts(t *testing.T) {
	t.Parallel()

	gasCost, err := config.CreateGasConfig(config.MakeGasMapForTests())
	require.Nil(t, err)
	stack, err := NewContractCallStack(gasCost)
	require.Nil(t, err)

	err = stack.CreateCall(neutron.NewRandomAddress(2), 1000, 0)
	require.Equal(t, neutron.ErrContextIndexEmpty, err)

	firstContract := neutron.NewRandomAddress(2)
	secondContract := neutron.NewRandomAddress(2)
	sender := neutron.NewRandomAddress(1)

	require.Nil(t, stack.CreateTopLevelCall(firstContract, sender, 5000, 0))
	require.Nil(t, stack.CreateCall(secondContract, 1000, 3))

	context := stack.CurrentContext()
	require.True(t, context.Sender.Equal(firstContract))
	require.True(t, context.Origin.Equal(sender))
	require.True(t, context.SelfAddress.Equal(secondContract))
	require.Equal(t, neutron.ExecutionTypeCall, context.ExecutionType)
	require.Equal(t, 2, stack.ContextCount())

	caller, err := stack.PeekContext(1)
	require.Nil(t, err)
	require.True(t, caller.SelfAddress.Equal(firstContract))
}

func TestContractCallStack_PopContext(t *testing.T) {
	t.Parallel()

	gasCost, err := config.CreateGasConfig(config.MakeGasMapForTests())
	require.Nil(t, err)
	stack, err := NewContractCallStack(gasCost)
	require.Nil(t, err)

	_, err = stack.PopContext()
	require.Equal(t, neutron.ErrContextIndexEmpty, err)

	require.Nil(t, stack.CreateTopLevelCall(neutron.NewRandomAddress(2), neutron.NewRandomAddress(1), 100000, 0))
	require.Nil(t, stack.PushSCCS([]byte{1, 2, 3}))

	context, err := stack.PopContext()
	require.Nil(t, err)
	require.Equal(t, neutron.ExecutionTypeCall, context.ExecutionType)

	// SCCS items do not survive the top-level context
	require.Equal(t, 0, stack.SCCSItemCount())
	require.Nil(t, stack.CurrentContext())
}
