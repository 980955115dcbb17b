package config

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml"
)

// GasScheduleMap is the raw gas schedule, as loaded from a TOML file:
// section name to cost name to signed cost
type GasScheduleMap = map[string]map[string]int64

// ErrNilGasScheduleMap signals that a nil gas schedule map was provided
var ErrNilGasScheduleMap = errors.New("nil gas schedule map")

var requiredSections = []string{"BuiltInCost", "StorageCost", "CPUCost"}

// CreateGasConfig converts a raw gas schedule map into the typed cost tables
func CreateGasConfig(gasMap GasScheduleMap) (*GasCost, error) {
	if gasMap == nil {
		return nil, ErrNilGasScheduleMap
	}

	for _, section := range requiredSections {
		if _, ok := gasMap[section]; !ok {
			return nil, fmt.Errorf("gas schedule is missing the %s section", section)
		}
	}

	builtInCost := BuiltInCost{}
	err := mapstructure.Decode(gasMap["BuiltInCost"], &builtInCost)
	if err != nil {
		return nil, err
	}

	storageCost := StorageCost{}
	err = mapstructure.Decode(gasMap["StorageCost"], &storageCost)
	if err != nil {
		return nil, err
	}

	cpuCost := CPUCost{}
	err = mapstructure.Decode(gasMap["CPUCost"], &cpuCost)
	if err != nil {
		return nil, err
	}

	gasCost := &GasCost{
		BuiltInCost: builtInCost,
		StorageCost: storageCost,
		CPUCost:     cpuCost,
	}

	return gasCost, nil
}

// LoadGasScheduleConfig loads a gas schedule map from the given TOML file
func LoadGasScheduleConfig(filePath string) (GasScheduleMap, error) {
	tree, err := toml.LoadFile(filePath)
	if err != nil {
		return nil, err
	}

	gasMap := make(GasScheduleMap)
	for sectionName, sectionValue := range tree.ToMap() {
		section, ok := sectionValue.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("gas schedule section %s is not a table", sectionName)
		}

		costs := make(map[string]int64)
		for costName, costValue := range section {
			cost, ok := costValue.(int64)
			if !ok {
				return nil, fmt.Errorf("gas cost %s.%s is not an integer", sectionName, costName)
			}
			costs[costName] = cost
		}
		gasMap[sectionName] = costs
	}

	return gasMap, nil
}

// MakeGasMapForTests creates a gas schedule map with small deterministic costs
func MakeGasMapForTests() GasScheduleMap {
	return GasScheduleMap{
		"BuiltInCost": {
			"WriteByte":       1,
			"ReadByte":        1,
			"ClearByteRefund": -1,
			"CopyDataFromVM":  1,
			"CopyDataToVM":    1,
		},
		"StorageCost": {
			"ReadCachedByte":     1,
			"ReadUncached":       10,
			"ReadUncachedByte":   2,
			"WriteCached":        5,
			"WriteCachedByte":    2,
			"RefundCachedByte":   1,
			"WriteUncached":      20,
			"WriteUncachedByte":  3,
			"WriteKeyByte":       1,
			"RefundUncachedByte": 2,
		},
		"CPUCost": {
			"OpcodeBase":       1,
			"MemoryAccessByte": 1,
			"DivideExtra":      5,
			"SyscallOverhead":  10,
		},
	}
}
