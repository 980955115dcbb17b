package neutron

import (
	"errors"
	"fmt"
)

// RecoverableError is an error the guest contract is allowed to observe and
// react to. Its numeric code is placed in EAX when the hypervisor resumes the
// VM after the failed operation.
type RecoverableError struct {
	code    uint32
	message string
}

// NewRecoverableError creates a new RecoverableError with the given code
func NewRecoverableError(code uint32, message string) *RecoverableError {
	return &RecoverableError{
		code:    code,
		message: message,
	}
}

// Error returns the message of the error
func (err *RecoverableError) Error() string {
	return err.message
}

// Code returns the numeric code communicated to the guest
func (err *RecoverableError) Code() uint32 {
	return err.code
}

// ErrStackIndexDoesntExist signals that the requested SCCS item does not exist
var ErrStackIndexDoesntExist = NewRecoverableError(0x80000001, "stack index doesn't exist")

// ErrStackItemTooLarge signals that an SCCS item exceeds the maximum item size
var ErrStackItemTooLarge = NewRecoverableError(0x80000002, "stack item too large")

// ErrStackItemTooSmall signals that an SCCS item is smaller than the operation requires
var ErrStackItemTooSmall = NewRecoverableError(0x80000003, "stack item too small")

// ErrInvalidSystemFunction signals that a claimed feature does not know the requested function
var ErrInvalidSystemFunction = NewRecoverableError(0x80000004, "invalid system function")

// ErrInvalidSystemFeature signals that no feature interface claims the requested feature
var ErrInvalidSystemFeature = NewRecoverableError(0x80000005, "invalid system feature")

// ErrErrorCopyingIntoVM signals that a copy into VM memory failed
var ErrErrorCopyingIntoVM = NewRecoverableError(0x80000006, "error copying into VM memory")

// ErrErrorCopyingFromVM signals that a copy from VM memory failed
var ErrErrorCopyingFromVM = NewRecoverableError(0x80000007, "error copying from VM memory")

// ErrContractSignaledError signals that the contract terminated with a non-zero status
var ErrContractSignaledError = NewRecoverableError(0x80000008, "error signalled by contract")

// ErrContractExecutionError signals that the VM crashed while executing the contract
var ErrContractExecutionError = NewRecoverableError(0x80000009, "contract execution error")

// ErrInvalidHypervisorInterrupt signals that the guest raised an interrupt outside the handled ranges
var ErrInvalidHypervisorInterrupt = NewRecoverableError(0x8000000A, "invalid hypervisor interrupt")

// ErrOutOfGas signals that the gas budget was exhausted; it forces a VM halt
var ErrOutOfGas = NewRecoverableError(0x8000000B, "out of gas")

// ErrNotImplemented signals that a reserved operation was invoked
var ErrNotImplemented = errors.New("not implemented")

// ErrStateOutOfRent signals that the requested state key is not present anywhere
var ErrStateOutOfRent = errors.New("state out of rent")

// ErrContextIndexEmpty signals that the execution context stack is empty
var ErrContextIndexEmpty = errors.New("context index empty")

// ErrContextStackNotEmpty signals that a top-level context was created over live contexts
var ErrContextStackNotEmpty = errors.New("context stack not empty")

// ErrUnknownVM signals that the context names a VM version with no registered hypervisor
var ErrUnknownVM = errors.New("unknown VM")

// ErrDatabaseCommitError signals that committing or reverting checkpointed state failed
var ErrDatabaseCommitError = errors.New("database commit error")

// ErrDatabaseWritingError signals that a state write was attempted with no open checkpoint
var ErrDatabaseWritingError = errors.New("database writing error")

// ErrErrorInitializingVM signals that the VM instance could not be prepared for execution
var ErrErrorInitializingVM = errors.New("error initializing VM")

// ErrVMStop signals a clean halt request from the hypervisor to the virtual CPU.
// It is not a failure; CPU implementations must translate it into a normal stop.
var ErrVMStop = errors.New("vm stop requested")

// ErrInvalidContractImage signals that the on-disk contract image is malformed
var ErrInvalidContractImage = errors.New("invalid contract image")

// ErrMissingTextSection signals that the contract image has no .text section
var ErrMissingTextSection = fmt.Errorf("%w (missing .text section)", ErrInvalidContractImage)

// ErrMissingDataSection signals that the contract image has no .data section
var ErrMissingDataSection = fmt.Errorf("%w (missing .data section)", ErrInvalidContractImage)

// ErrWrongSectionAddress signals that a contract image section is not mapped at its fixed load address
var ErrWrongSectionAddress = fmt.Errorf("%w (wrong section load address)", ErrInvalidContractImage)

// ErrNilCallSystem signals that the provided CallSystem is nil
var ErrNilCallSystem = errors.New("nil CallSystem")

// ErrNilCallStack signals that the provided ContractCallStack is nil
var ErrNilCallStack = errors.New("nil ContractCallStack")

// ErrNilGasSchedule signals that the provided gas schedule is nil
var ErrNilGasSchedule = errors.New("nil gas schedule")

// ErrNilVirtualCPU signals that the provided VirtualCPU is nil
var ErrNilVirtualCPU = errors.New("nil VirtualCPU")

// ErrNilCPUBuilder signals that the provided CPUBuilder is nil
var ErrNilCPUBuilder = errors.New("nil CPUBuilder")

// ErrNilStateStore signals that the provided StateStore is nil
var ErrNilStateStore = errors.New("nil StateStore")

// ErrNilPersister signals that the provided Persister is nil
var ErrNilPersister = errors.New("nil Persister")

// ErrNilLogSink signals that the provided log sink is nil
var ErrNilLogSink = errors.New("nil log sink")

// IsRecoverable returns true if the given error carries a guest-observable code
func IsRecoverable(err error) bool {
	var recoverable *RecoverableError
	return errors.As(err, &recoverable)
}

// ErrorCode returns the guest-observable code of a recoverable error, 0 otherwise
func ErrorCode(err error) uint32 {
	var recoverable *RecoverableError
	if errors.As(err, &recoverable) {
		return recoverable.Code()
	}
	return 0
}

var unrecoverableErrors = []error{
	ErrNotImplemented,
	ErrStateOutOfRent,
	ErrContextIndexEmpty,
	ErrContextStackNotEmpty,
	ErrUnknownVM,
	ErrDatabaseCommitError,
	ErrDatabaseWritingError,
	ErrErrorInitializingVM,
}

// IsUnrecoverable returns true if the given error is one of the kinds that
// abort the current execution entirely
func IsUnrecoverable(err error) bool {
	for _, unrecoverable := range unrecoverableErrors {
		if errors.Is(err, unrecoverable) {
			return true
		}
	}
	return false
}
