package hypervisor

import (
	"errors"

	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/qtumproject/neutron-vm-go/config"
	"github.com/qtumproject/neutron-vm-go/neutron"
)

var log = logger.GetOrCreate("neutron/hypervisor")

var _ neutron.InterruptHandler = (*X86Hypervisor)(nil)

// X86Hypervisor binds one virtual CPU to the contract call stack and the
// call system for the duration of a single context execution. It translates
// guest interrupts into SCCS operations, system calls or process control,
// and keeps the gas views of the CPU and the stack synchronized at every
// interrupt boundary.
type X86Hypervisor struct {
	callSystem neutron.CallSystem
	stack      neutron.CallStack
	cpu        neutron.VirtualCPU

	codeSections [][]byte
	dataSections [][]byte

	exitStatus uint32
	reverted   bool
}

// NewX86Hypervisor creates a hypervisor for one execution of the top context
func NewX86Hypervisor(callSystem neutron.CallSystem, stack neutron.CallStack, cpu neutron.VirtualCPU) (*X86Hypervisor, error) {
	if check.IfNil(callSystem) {
		return nil, neutron.ErrNilCallSystem
	}
	if check.IfNil(stack) {
		return nil, neutron.ErrNilCallStack
	}
	if check.IfNil(cpu) {
		return nil, neutron.ErrNilVirtualCPU
	}

	return &X86Hypervisor{
		callSystem:   callSystem,
		stack:        stack,
		cpu:          cpu,
		codeSections: make([][]byte, 0, 1),
		dataSections: make([][]byte, 0, 1),
	}, nil
}

// Execute runs the top context of the call stack to completion
func (hv *X86Hypervisor) Execute() (neutron.VMResult, error) {
	context := hv.stack.CurrentContext()
	if context == nil {
		return neutron.VMResult{}, neutron.ErrContextIndexEmpty
	}

	switch context.ExecutionType {
	case neutron.ExecutionTypeDeploy:
		return hv.executeDeploy(context)
	case neutron.ExecutionTypeCall:
		return hv.executeCall(context)
	default:
		return neutron.VMResult{}, neutron.ErrNotImplemented
	}
}

func (hv *X86Hypervisor) executeDeploy(context *neutron.ExecutionContext) (neutron.VMResult, error) {
	err := hv.initCPU(context)
	if err != nil {
		return neutron.VMResult{}, err
	}

	err = hv.loadDeployFromSCCS()
	if err != nil {
		return neutron.VMResult{}, err
	}

	err = hv.reconcileGas()
	if err != nil {
		return hv.outOfGasResult(context), neutron.ErrOutOfGas
	}

	result, err := hv.runCPU(context)
	if err != nil || result.ShouldRevert {
		return result, err
	}

	err = hv.persistSections()
	if err != nil {
		if errors.Is(err, neutron.ErrOutOfGas) {
			return hv.outOfGasResult(context), neutron.ErrOutOfGas
		}
		return result, err
	}

	result.GasUsed = context.GasLimit - hv.stack.GasRemaining()
	return result, nil
}

func (hv *X86Hypervisor) executeCall(context *neutron.ExecutionContext) (neutron.VMResult, error) {
	err := hv.initCPU(context)
	if err != nil {
		return neutron.VMResult{}, err
	}

	err = hv.loadPersistedSections()
	if err != nil {
		if errors.Is(err, neutron.ErrOutOfGas) {
			return hv.outOfGasResult(context), neutron.ErrOutOfGas
		}
		return neutron.VMResult{}, err
	}

	err = hv.reconcileGas()
	if err != nil {
		return hv.outOfGasResult(context), neutron.ErrOutOfGas
	}

	return hv.runCPU(context)
}

// initCPU installs the canonical memory map, the instruction cost table and
// the gas budget, and points the CPU at the code entry
func (hv *X86Hypervisor) initCPU(context *neutron.ExecutionContext) error {
	regions := []struct {
		start    uint32
		size     uint32
		readOnly bool
	}{
		{neutron.CodeMemoryStart, neutron.CodeMemorySize, false},
		{neutron.ExecDataMemoryStart, neutron.ReadOnlyMemorySize, true},
		{neutron.TxDataMemoryStart, neutron.ReadOnlyMemorySize, true},
		{neutron.BlockDataMemoryStart, neutron.ReadOnlyMemorySize, true},
		{neutron.StackMemoryStart, neutron.StackMemorySize, false},
		{neutron.PrimaryMemoryStart, neutron.PrimaryMemorySize, false},
		{neutron.AuxMemoryStart, neutron.AuxMemorySize, false},
	}

	for _, region := range regions {
		err := hv.cpu.AddMemoryRegion(region.start, region.size, region.readOnly)
		if err != nil {
			log.Error("cannot add memory region", "start", region.start, "err", err)
			return neutron.ErrErrorInitializingVM
		}
	}

	hv.cpu.SetInstructionPointer(neutron.CodeMemoryStart)
	hv.cpu.SetCostTable(&hv.stack.GasSchedule().CPUCost)
	hv.cpu.SetGasRemaining(context.GasLimit)
	return nil
}

// loadDeployFromSCCS pops the version header, the section info and the code
// and data sections from the SCCS and copies the sections into VM memory
func (hv *X86Hypervisor) loadDeployFromSCCS() error {
	header, err := hv.stack.PopSCCS()
	if err != nil {
		return err
	}
	version, err := neutron.VersionFromDeployHeader(header)
	if err != nil {
		return err
	}
	if version.RootVM != neutron.X86RootVM {
		return neutron.ErrUnknownVM
	}

	sectionInfo, err := hv.stack.PopSCCS()
	if err != nil {
		return err
	}
	if len(sectionInfo) != 2 || sectionInfo[0] != 1 || sectionInfo[1] != 1 {
		log.Debug("unsupported section layout", "sectionInfo", sectionInfo)
		return neutron.ErrErrorInitializingVM
	}

	code, err := hv.stack.PopSCCS()
	if err != nil {
		return err
	}
	data, err := hv.stack.PopSCCS()
	if err != nil {
		return err
	}

	if len(code) > int(neutron.CodeMemorySize) || len(data) > int(neutron.PrimaryMemorySize) {
		return neutron.ErrErrorInitializingVM
	}

	err = hv.cpu.CopyIntoMemory(neutron.CodeMemoryStart, code)
	if err != nil {
		return neutron.ErrErrorInitializingVM
	}
	err = hv.cpu.CopyIntoMemory(neutron.PrimaryMemoryStart, data)
	if err != nil {
		return neutron.ErrErrorInitializingVM
	}

	hv.codeSections = append(hv.codeSections, code)
	hv.dataSections = append(hv.dataSections, data)
	return nil
}

// persistSections stores the deployed sections under the contract's
// short-address namespace
func (hv *X86Hypervisor) persistSections() error {
	err := hv.callSystem.WriteStateKey(hv.stack, neutron.X86Space, []byte{neutron.CodeSectionSpace, 0}, hv.codeSections[0])
	if err != nil {
		return err
	}
	err = hv.callSystem.WriteStateKey(hv.stack, neutron.X86Space, []byte{neutron.DataSectionSpace, 0}, hv.dataSections[0])
	if err != nil {
		return err
	}

	return hv.reconcileGas()
}

// loadPersistedSections loads the sections of an already deployed contract
// into VM memory
func (hv *X86Hypervisor) loadPersistedSections() error {
	code, err := hv.callSystem.ReadStateKey(hv.stack, neutron.X86Space, []byte{neutron.CodeSectionSpace, 0})
	if err != nil {
		return err
	}
	data, err := hv.callSystem.ReadStateKey(hv.stack, neutron.X86Space, []byte{neutron.DataSectionSpace, 0})
	if err != nil {
		return err
	}

	err = hv.cpu.CopyIntoMemory(neutron.CodeMemoryStart, code)
	if err != nil {
		return neutron.ErrErrorInitializingVM
	}
	err = hv.cpu.CopyIntoMemory(neutron.PrimaryMemoryStart, data)
	if err != nil {
		return neutron.ErrErrorInitializingVM
	}

	hv.codeSections = append(hv.codeSections, code)
	hv.dataSections = append(hv.dataSections, data)
	return nil
}

// runCPU drives the decode loop to completion and translates its outcome
func (hv *X86Hypervisor) runCPU(context *neutron.ExecutionContext) (neutron.VMResult, error) {
	err := hv.cpu.Execute(hv)

	result := neutron.VMResult{
		GasUsed:       context.GasLimit - hv.cpu.GasRemaining(),
		ErrorLocation: uint64(hv.cpu.InstructionPointer()),
	}

	switch {
	case err == nil:
		// fallthrough to exit-status inspection below
	case errors.Is(err, neutron.ErrOutOfGas):
		return hv.outOfGasResult(context), neutron.ErrOutOfGas
	case neutron.IsUnrecoverable(err):
		result.ShouldRevert = true
		return result, err
	default:
		// the CPU crashed while decoding or executing guest code
		log.Debug("contract execution error", "err", err)
		result.ShouldRevert = true
		result.ErrorCode = neutron.ErrContractExecutionError.Code()
		return result, neutron.ErrContractExecutionError
	}

	result.ErrorCode = hv.exitStatus
	if hv.reverted {
		result.ShouldRevert = true
		return result, nil
	}
	if hv.exitStatus != 0 {
		result.ShouldRevert = true
		return result, neutron.ErrContractSignaledError
	}

	return result, nil
}

func (hv *X86Hypervisor) outOfGasResult(context *neutron.ExecutionContext) neutron.VMResult {
	return neutron.VMResult{
		GasUsed:       context.GasLimit,
		ShouldRevert:  true,
		ErrorCode:     neutron.ErrOutOfGas.Code(),
		ErrorLocation: uint64(hv.cpu.InstructionPointer()),
	}
}

// reconcileGas folds the pending charges of the stack into the shared gas
// view and mirrors the result into the CPU
func (hv *X86Hypervisor) reconcileGas() error {
	pending := hv.stack.PendingGas()
	hv.stack.ResetPendingGas()

	remaining := hv.stack.GasRemaining()
	if pending > int64(remaining) {
		hv.haltOutOfGas()
		return neutron.ErrOutOfGas
	}

	newRemaining := uint64(int64(remaining) - pending)
	hv.stack.SetGasRemaining(newRemaining)
	hv.cpu.SetGasRemaining(newRemaining)
	return nil
}

func (hv *X86Hypervisor) haltOutOfGas() {
	hv.stack.ResetPendingGas()
	hv.stack.SetGasRemaining(0)
	hv.cpu.SetGasRemaining(0)
}

// HandleInterrupt receives every interrupt raised by the guest. The stack's
// gas view is refreshed on entry and reconciled with the CPU on exit;
// recoverable failures surface as an error code in EAX with the VM still
// running, while unrecoverable failures halt the CPU.
func (hv *X86Hypervisor) HandleInterrupt(cpu neutron.VirtualCPU, num uint8) error {
	hv.stack.SetGasRemaining(cpu.GasRemaining())

	err := hv.dispatchInterrupt(cpu, num)
	if errors.Is(err, neutron.ErrOutOfGas) {
		hv.haltOutOfGas()
		return neutron.ErrOutOfGas
	}
	if err != nil && !neutron.IsRecoverable(err) && !errors.Is(err, neutron.ErrVMStop) {
		return err
	}

	reconcileErr := hv.reconcileGas()
	if reconcileErr != nil {
		return neutron.ErrOutOfGas
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, neutron.ErrVMStop):
		return neutron.ErrVMStop
	default:
		cpu.SetRegister(neutron.RegEAX, neutron.ErrorCode(err))
		return nil
	}
}

func (hv *X86Hypervisor) dispatchInterrupt(cpu neutron.VirtualCPU, num uint8) error {
	switch num {
	case neutron.SCCSPushInterrupt:
		return hv.sccsPush(cpu)
	case neutron.SCCSPopInterrupt:
		return hv.sccsPop(cpu)
	case neutron.SCCSPeekInterrupt:
		return hv.sccsPeek(cpu)
	case neutron.SCCSSwapInterrupt:
		return hv.stack.SwapSCCS(cpu.GetRegister(neutron.RegEDX))
	case neutron.SCCSDupInterrupt:
		return hv.stack.DupSCCS(cpu.GetRegister(neutron.RegEDX))
	case neutron.SCCSCountInterrupt:
		cpu.SetRegister(neutron.RegEAX, uint32(hv.stack.SCCSItemCount()))
		return nil
	case neutron.SCCSSizeInterrupt:
		size, err := hv.stack.PeekSCCSSize(0)
		if err != nil {
			return err
		}
		cpu.SetRegister(neutron.RegEAX, size)
		return nil
	case neutron.SCCSSizeRemainingInterrupt:
		cpu.SetRegister(neutron.RegEAX, uint32(clampToZero(neutron.MaxSCCSTotalSize-hv.stack.SCCSMemorySize())))
		return nil
	case neutron.SCCSItemLimitRemainingInterrupt:
		cpu.SetRegister(neutron.RegEAX, uint32(clampToZero(neutron.MaxSCCSItemCount-hv.stack.SCCSItemCount())))
		return nil
	case neutron.SystemCallInterrupt:
		return hv.systemCall(cpu)
	case neutron.MemoryAllocationInterrupt:
		return neutron.ErrNotImplemented
	case neutron.RevertExecutionInterrupt:
		hv.reverted = true
		hv.exitStatus = cpu.GetRegister(neutron.RegEAX)
		return neutron.ErrVMStop
	case neutron.ExitExecutionInterrupt:
		hv.exitStatus = cpu.GetRegister(neutron.RegEAX)
		return neutron.ErrVMStop
	}

	if num >= neutron.ContextGasLimitInterrupt && num <= neutron.ContextGasRemainingInterrupt {
		return hv.contextInfo(cpu, num)
	}

	log.Debug("invalid hypervisor interrupt", "num", num)
	return neutron.ErrInvalidHypervisorInterrupt
}

func clampToZero(value int) int {
	if value < 0 {
		return 0
	}
	return value
}

// sccsPush copies a buffer out of guest memory (pointer in EAX, size in ECX)
// and pushes it onto the SCCS
func (hv *X86Hypervisor) sccsPush(cpu neutron.VirtualCPU) error {
	address := cpu.GetRegister(neutron.RegEAX)
	size := cpu.GetRegister(neutron.RegECX)

	var data []byte
	if size > 0 {
		var err error
		data, err = cpu.CopyFromMemory(address, size)
		if err != nil {
			return neutron.ErrErrorCopyingFromVM
		}
		err = hv.stack.ChargeGas(hv.stack.GasCost(neutron.InternalBuiltInFeature, config.CopyDataFromVMCost) * int64(size))
		if err != nil {
			return err
		}
	}

	return hv.stack.PushSCCS(data)
}

// sccsPop pops the top item and copies it into guest memory (pointer in EAX,
// buffer size in ECX). A null buffer performs the stack effect without a
// copy; EAX receives the true item size either way.
func (hv *X86Hypervisor) sccsPop(cpu neutron.VirtualCPU) error {
	address := cpu.GetRegister(neutron.RegEAX)
	maxSize := cpu.GetRegister(neutron.RegECX)

	item, err := hv.stack.PopSCCS()
	if err != nil {
		return err
	}

	err = hv.copyItemToGuest(cpu, address, maxSize, item)
	if err != nil {
		return err
	}

	cpu.SetRegister(neutron.RegEAX, uint32(len(item)))
	return nil
}

// sccsPeek copies the item at index EDX into guest memory without removing it
func (hv *X86Hypervisor) sccsPeek(cpu neutron.VirtualCPU) error {
	address := cpu.GetRegister(neutron.RegEAX)
	maxSize := cpu.GetRegister(neutron.RegECX)
	index := cpu.GetRegister(neutron.RegEDX)

	item, err := hv.stack.PeekSCCS(index)
	if err != nil {
		return err
	}

	err = hv.copyItemToGuest(cpu, address, maxSize, item)
	if err != nil {
		return err
	}

	cpu.SetRegister(neutron.RegEAX, uint32(len(item)))
	return nil
}

func (hv *X86Hypervisor) copyItemToGuest(cpu neutron.VirtualCPU, address uint32, maxSize uint32, item []byte) error {
	if address == 0 || maxSize == 0 {
		return nil
	}

	copied := len(item)
	if copied > int(maxSize) {
		copied = int(maxSize)
	}
	if copied == 0 {
		return nil
	}

	err := cpu.CopyIntoMemory(address, item[:copied])
	if err != nil {
		return neutron.ErrErrorCopyingIntoVM
	}

	return hv.stack.ChargeGas(hv.stack.GasCost(neutron.InternalBuiltInFeature, config.CopyDataToVMCost) * int64(copied))
}

// systemCall dispatches (feature=EAX, function=ECX) to the call system and
// places the returned value in EAX
func (hv *X86Hypervisor) systemCall(cpu neutron.VirtualCPU) error {
	feature := cpu.GetRegister(neutron.RegEAX)
	function := cpu.GetRegister(neutron.RegECX)

	returnValue, err := hv.callSystem.SystemCall(hv.stack, feature, function)
	if err != nil {
		return err
	}

	cpu.SetRegister(neutron.RegEAX, returnValue)
	return nil
}

// contextInfo services the read-only context information interrupts
func (hv *X86Hypervisor) contextInfo(cpu neutron.VirtualCPU, num uint8) error {
	context := hv.stack.CurrentContext()
	if context == nil {
		return neutron.ErrContextIndexEmpty
	}

	switch num {
	case neutron.ContextGasLimitInterrupt:
		setRegisterPair(cpu, context.GasLimit)
	case neutron.ContextSelfShortInterrupt:
		return hv.copyAddressToGuest(cpu, context.SelfAddress.ToShortAddress().Bytes())
	case neutron.ContextSelfLongInterrupt:
		return hv.copyAddressToGuest(cpu, context.SelfAddress.Bytes())
	case neutron.ContextOriginShortInterrupt:
		return hv.copyAddressToGuest(cpu, context.Origin.ToShortAddress().Bytes())
	case neutron.ContextOriginLongInterrupt:
		return hv.copyAddressToGuest(cpu, context.Origin.Bytes())
	case neutron.ContextSenderShortInterrupt:
		return hv.copyAddressToGuest(cpu, context.Sender.ToShortAddress().Bytes())
	case neutron.ContextSenderLongInterrupt:
		return hv.copyAddressToGuest(cpu, context.Sender.Bytes())
	case neutron.ContextValueInterrupt:
		setRegisterPair(cpu, context.ValueSent)
	case neutron.ContextNestingInterrupt:
		cpu.SetRegister(neutron.RegEAX, uint32(hv.stack.ContextCount()))
		cpu.SetRegister(neutron.RegECX, uint32(context.ExecutionType))
	case neutron.ContextGasRemainingInterrupt:
		setRegisterPair(cpu, hv.stack.GasRemaining())
	}

	return nil
}

func (hv *X86Hypervisor) copyAddressToGuest(cpu neutron.VirtualCPU, addressBytes []byte) error {
	address := cpu.GetRegister(neutron.RegEAX)
	maxSize := cpu.GetRegister(neutron.RegECX)

	err := hv.copyItemToGuest(cpu, address, maxSize, addressBytes)
	if err != nil {
		return err
	}

	cpu.SetRegister(neutron.RegEAX, uint32(len(addressBytes)))
	return nil
}

// setRegisterPair places a 64-bit value in the EAX:EDX pair
func setRegisterPair(cpu neutron.VirtualCPU, value uint64) {
	cpu.SetRegister(neutron.RegEAX, uint32(value))
	cpu.SetRegister(neutron.RegEDX, uint32(value>>32))
}
