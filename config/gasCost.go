package config

// Gas cost identifiers of the internal built-in feature (feature id 0)
const (
	// WriteByteCost is charged per byte pushed onto the SCCS
	WriteByteCost uint32 = iota + 1

	// ReadByteCost is charged per byte popped or peeked from the SCCS
	ReadByteCost

	// ClearByteRefundCost is applied per byte removed from the SCCS; it is
	// negative in the schedule and composes as a refund
	ClearByteRefundCost

	// CopyDataFromVMCost is charged per byte copied out of guest memory
	CopyDataFromVMCost

	// CopyDataToVMCost is charged per byte copied into guest memory
	CopyDataToVMCost
)

// Gas cost identifiers of the storage feature (feature id 1)
const (
	ReadCachedByteCost uint32 = iota + 1
	ReadUncachedCost
	ReadUncachedByteCost
	WriteCachedCost
	WriteCachedByteCost
	RefundCachedByteCost
	WriteUncachedCost
	WriteUncachedByteCost
	WriteKeyByteCost
	RefundUncachedByteCost
)

// BuiltInCost holds the SCCS and memory-copy costs of the internal built-in feature
type BuiltInCost struct {
	WriteByte       int64
	ReadByte        int64
	ClearByteRefund int64
	CopyDataFromVM  int64
	CopyDataToVM    int64
}

// StorageCost holds the costs of the persistent storage feature.
// Refund values are positive and subtracted by the charging formulas.
type StorageCost struct {
	ReadCachedByte     int64
	ReadUncached       int64
	ReadUncachedByte   int64
	WriteCached        int64
	WriteCachedByte    int64
	RefundCachedByte   int64
	WriteUncached      int64
	WriteUncachedByte  int64
	WriteKeyByte       int64
	RefundUncachedByte int64
}

// CPUCost is the instruction cost table installed into the virtual CPU
type CPUCost struct {
	OpcodeBase       int64
	MemoryAccessByte int64
	DivideExtra      int64
	SyscallOverhead  int64
}

// GasCost is the complete gas schedule of the execution host
type GasCost struct {
	BuiltInCost BuiltInCost
	StorageCost StorageCost
	CPUCost     CPUCost
}

// Feature identifiers used by the two-level cost lookup
const (
	builtInFeature uint32 = 0
	storageFeature uint32 = 1
)

// Cost returns the cost registered for the given (feature, cost id) pair,
// 0 for unknown pairs
func (gasCost *GasCost) Cost(feature uint32, costID uint32) int64 {
	switch feature {
	case builtInFeature:
		return gasCost.builtInCost(costID)
	case storageFeature:
		return gasCost.storageCost(costID)
	}
	return 0
}

func (gasCost *GasCost) builtInCost(costID uint32) int64 {
	switch costID {
	case WriteByteCost:
		return gasCost.BuiltInCost.WriteByte
	case ReadByteCost:
		return gasCost.BuiltInCost.ReadByte
	case ClearByteRefundCost:
		return gasCost.BuiltInCost.ClearByteRefund
	case CopyDataFromVMCost:
		return gasCost.BuiltInCost.CopyDataFromVM
	case CopyDataToVMCost:
		return gasCost.BuiltInCost.CopyDataToVM
	}
	return 0
}

func (gasCost *GasCost) storageCost(costID uint32) int64 {
	switch costID {
	case ReadCachedByteCost:
		return gasCost.StorageCost.ReadCachedByte
	case ReadUncachedCost:
		return gasCost.StorageCost.ReadUncached
	case ReadUncachedByteCost:
		return gasCost.StorageCost.ReadUncachedByte
	case WriteCachedCost:
		return gasCost.StorageCost.WriteCached
	case WriteCachedByteCost:
		return gasCost.StorageCost.WriteCachedByte
	case RefundCachedByteCost:
		return gasCost.StorageCost.RefundCachedByte
	case WriteUncachedCost:
		return gasCost.StorageCost.WriteUncached
	case WriteUncachedByteCost:
		return gasCost.StorageCost.WriteUncachedByte
	case WriteKeyByteCost:
		return gasCost.StorageCost.WriteKeyByte
	case RefundUncachedByteCost:
		return gasCost.StorageCost.RefundUncachedByte
	}
	return 0
}
