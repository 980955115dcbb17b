package neutron

// Feature identifiers of the system-call surface. The pair (feature, function)
// uniquely identifies a host service.
const (
	// InternalBuiltInFeature hosts the SCCS byte costs and the VM memory-copy costs
	InternalBuiltInFeature uint32 = 0

	// GlobalStorageFeature is the persistent per-contract key-value store
	GlobalStorageFeature uint32 = 1

	// LoggingFeature is the diagnostic logging service
	LoggingFeature uint32 = 2
)

// Space bytes prefixed onto state keys to partition a contract's namespace.
const (
	// X86Space holds the VM-internal data of x86 contracts
	X86Space byte = 2

	// CodeSectionSpace keys the persisted code section within X86Space
	CodeSectionSpace byte = 1

	// DataSectionSpace keys the persisted data section within X86Space
	DataSectionSpace byte = 2

	// UserSpace holds state freely accessible to the contract ('_')
	UserSpace byte = 0x5F
)

// X86RootVM is the root VM identifier of the x86 virtual CPU
const X86RootVM byte = 2

// Fixed guest memory map of the x86 virtual CPU.
const (
	// CodeMemoryStart is the load address of the contract code section
	CodeMemoryStart uint32 = 0x10000

	// CodeMemorySize is the size of the code region
	CodeMemorySize uint32 = 0x10000

	// ExecDataMemoryStart is the read-only execution info region
	ExecDataMemoryStart uint32 = 0x70000000

	// TxDataMemoryStart is the read-only transaction info region
	TxDataMemoryStart uint32 = 0x70010000

	// BlockDataMemoryStart is the read-only blockchain info region
	BlockDataMemoryStart uint32 = 0x70020000

	// ReadOnlyMemorySize is the size of each read-only info region
	ReadOnlyMemorySize uint32 = 0x10000

	// StackMemoryStart is the guest stack region
	StackMemoryStart uint32 = 0x80010000

	// StackMemorySize is the size of the guest stack region
	StackMemorySize uint32 = 8 * 1024

	// PrimaryMemoryStart is the load address of the contract data section
	PrimaryMemoryStart uint32 = 0x80020000

	// PrimaryMemorySize is the size of the primary RAM region
	PrimaryMemorySize uint32 = 0x10000

	// AuxMemoryStart is the auxiliary RAM region
	AuxMemoryStart uint32 = 0x80030000

	// AuxMemorySize is the size of the auxiliary RAM region
	AuxMemorySize uint32 = 0x10000
)

// SCCS limits.
const (
	// MaxSCCSItemSize is the largest byte length of a single SCCS item
	MaxSCCSItemSize = 0xFFFF

	// MaxSCCSItemCount is the item budget reported to guests
	MaxSCCSItemCount = 256

	// MaxSCCSTotalSize is the total byte budget reported to guests
	MaxSCCSTotalSize = 1 << 20
)

// Interrupt numbers of the guest-host boundary.
const (
	// SCCSPushInterrupt pushes an item from guest memory onto the SCCS
	SCCSPushInterrupt uint8 = 0x10

	// SCCSPopInterrupt pops the top item into guest memory
	SCCSPopInterrupt uint8 = 0x11

	// SCCSPeekInterrupt copies an arbitrary item into guest memory without removing it
	SCCSPeekInterrupt uint8 = 0x12

	// SCCSSwapInterrupt swaps the top item with the item at the given index
	SCCSSwapInterrupt uint8 = 0x13

	// SCCSDupInterrupt duplicates the item at the given index onto the top
	SCCSDupInterrupt uint8 = 0x14

	// SCCSCountInterrupt reports the number of items on the SCCS
	SCCSCountInterrupt uint8 = 0x15

	// SCCSSizeInterrupt reports the byte length of the top item
	SCCSSizeInterrupt uint8 = 0x16

	// SCCSSizeRemainingInterrupt reports the remaining SCCS byte budget
	SCCSSizeRemainingInterrupt uint8 = 0x17

	// SCCSItemLimitRemainingInterrupt reports the remaining SCCS item budget
	SCCSItemLimitRemainingInterrupt uint8 = 0x18

	// SystemCallInterrupt dispatches (feature=EAX, function=ECX) to the CallSystem
	SystemCallInterrupt uint8 = 0x20

	// MemoryAllocationInterrupt is reserved
	MemoryAllocationInterrupt uint8 = 0x80

	// ContextGasLimitInterrupt reports the gas limit of the current context in EAX:EDX
	ContextGasLimitInterrupt uint8 = 0x90

	// ContextSelfShortInterrupt copies the short self address into guest memory
	ContextSelfShortInterrupt uint8 = 0x91

	// ContextSelfLongInterrupt copies the full self address into guest memory
	ContextSelfLongInterrupt uint8 = 0x92

	// ContextOriginShortInterrupt copies the short origin address into guest memory
	ContextOriginShortInterrupt uint8 = 0x93

	// ContextOriginLongInterrupt copies the full origin address into guest memory
	ContextOriginLongInterrupt uint8 = 0x94

	// ContextSenderShortInterrupt copies the short sender address into guest memory
	ContextSenderShortInterrupt uint8 = 0x95

	// ContextSenderLongInterrupt copies the full sender address into guest memory
	ContextSenderLongInterrupt uint8 = 0x96

	// ContextValueInterrupt reports the value sent with the execution in EAX:EDX
	ContextValueInterrupt uint8 = 0x97

	// ContextNestingInterrupt reports the nesting level in EAX and the execution type in ECX
	ContextNestingInterrupt uint8 = 0x98

	// ContextGasRemainingInterrupt reports the remaining gas in EAX:EDX
	ContextGasRemainingInterrupt uint8 = 0x99

	// RevertExecutionInterrupt halts the VM and discards all state effects, status in EAX
	RevertExecutionInterrupt uint8 = 0xFE

	// ExitExecutionInterrupt halts the VM cleanly, status in EAX
	ExitExecutionInterrupt uint8 = 0xFF
)
