package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateGasConfig(t *testing.T) {
	t.Parallel()

	gasCost, err := CreateGasConfig(nil)
	require.Equal(t, ErrNilGasScheduleMap, err)
	require.Nil(t, gasCost)

	gasMap := MakeGasMapForTests()
	gasCost, err = CreateGasConfig(gasMap)
	require.Nil(t, err)
	require.NotNil(t, gasCost)

	require.Equal(t, int64(1), gasCost.BuiltInCost.WriteByte)
	require.Equal(t, int64(-1), gasCost.BuiltInCost.ClearByteRefund)
	require.Equal(t, int64(20), gasCost.StorageCost.WriteUncached)
	require.Equal(t, int64(1), gasCost.CPUCost.OpcodeBase)
}

func TestCreateGasConfig_MissingSection(t *testing.T) {
	t.Parallel()

	gasMap := MakeGasMapForTests()
	delete(gasMap, "StorageCost")

	gasCost, err := CreateGasConfig(gasMap)
	require.NotNil(t, err)
	require.Nil(t, gasCost)
}

func TestGasCost_Cost(t *testing.T) {
	t.Parallel()

	gasCost, err := CreateGasConfig(MakeGasMapForTests())
	require.Nil(t, err)

	require.Equal(t, int64(1), gasCost.Cost(builtInFeature, WriteByteCost))
	require.Equal(t, int64(-1), gasCost.Cost(builtInFeature, ClearByteRefundCost))
	require.Equal(t, int64(10), gasCost.Cost(storageFeature, ReadUncachedCost))
	require.Equal(t, int64(0), gasCost.Cost(builtInFeature, 999))
	require.Equal(t, int64(0), gasCost.Cost(999, WriteByteCost))
}

func TestLoadGasScheduleConfig(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "gasSchedule.toml")
	content := `
[BuiltInCost]
    WriteByte = 2
    ReadByte = 2
    ClearByteRefund = -2
    CopyDataFromVM = 1
    CopyDataToVM = 1

[StorageCost]
    ReadCachedByte = 1
    ReadUncached = 50
    ReadUncachedByte = 2
    WriteCached = 25
    WriteCachedByte = 5
    RefundCachedByte = 3
    WriteUncached = 100
    WriteUncachedByte = 10
    WriteKeyByte = 2
    RefundUncachedByte = 6

[CPUCost]
    OpcodeBase = 1
    MemoryAccessByte = 1
    DivideExtra = 20
    SyscallOverhead = 50
`
	require.Nil(t, os.WriteFile(filePath, []byte(content), 0644))

	gasMap, err := LoadGasScheduleConfig(filePath)
	require.Nil(t, err)

	gasCost, err := CreateGasConfig(gasMap)
	require.Nil(t, err)
	require.Equal(t, int64(2), gasCost.BuiltInCost.WriteByte)
	require.Equal(t, int64(-2), gasCost.BuiltInCost.ClearByteRefund)
	require.Equal(t, int64(100), gasCost.StorageCost.WriteUncached)
	require.Equal(t, int64(50), gasCost.CPUCost.SyscallOverhead)
}

func TestLoadGasScheduleConfig_MissingFile(t *testing.T) {
	t.Parallel()

	gasMap, err := LoadGasScheduleConfig("no-such-schedule.toml")
	require.NotNil(t, err)
	require.Nil(t, gasMap)
}
