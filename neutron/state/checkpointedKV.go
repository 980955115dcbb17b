package state

import (
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-storage-go/types"
	"github.com/qtumproject/neutron-vm-go/config"
	"github.com/qtumproject/neutron-vm-go/neutron"
)

var log = logger.GetOrCreate("neutron/state")

var _ neutron.StateStore = (*CheckpointedKV)(nil)

// checkpoint is one write-scope overlay: short-address key to contract key to value
type checkpoint map[string]map[string][]byte

// CheckpointedKV is the persistent per-contract key-value store. Committed
// state lives in the persister; on top of it sits an ordered stack of
// checkpoints. Reads search the checkpoints top-down before falling back to
// the persister; writes only ever target the top checkpoint.
type CheckpointedKV struct {
	persister   types.Persister
	checkpoints []checkpoint
}

// NewCheckpointedKV creates a store committing into the given persister
func NewCheckpointedKV(persister types.Persister) (*CheckpointedKV, error) {
	if check.IfNil(persister) {
		return nil, neutron.ErrNilPersister
	}

	return &CheckpointedKV{
		persister:   persister,
		checkpoints: make([]checkpoint, 0),
	}, nil
}

func persistedKey(address neutron.ShortAddress, key []byte) []byte {
	addressBytes := address.Bytes()
	result := make([]byte, 0, len(addressBytes)+len(key))
	result = append(result, addressBytes...)
	result = append(result, key...)
	return result
}

// Checkpoint opens a new checkpoint and returns the new checkpoint depth
func (store *CheckpointedKV) Checkpoint() int {
	store.checkpoints = append(store.checkpoints, make(checkpoint))
	return len(store.checkpoints)
}

// RevertCheckpoint discards the modifications made since the last checkpoint
// and returns the new depth; reverting with no open checkpoint is unrecoverable
func (store *CheckpointedKV) RevertCheckpoint() (int, error) {
	if len(store.checkpoints) == 0 {
		return 0, neutron.ErrDatabaseCommitError
	}

	store.checkpoints = store.checkpoints[:len(store.checkpoints)-1]
	return len(store.checkpoints), nil
}

// CollapseCheckpoints merges all outstanding checkpoints into a single one,
// preserving the most recent value of every key
func (store *CheckpointedKV) CollapseCheckpoints() {
	if len(store.checkpoints) < 2 {
		return
	}

	collapsed := make(checkpoint)
	for _, cp := range store.checkpoints {
		for address, entries := range cp {
			existing, ok := collapsed[address]
			if !ok {
				existing = make(map[string][]byte)
				collapsed[address] = existing
			}
			for key, value := range entries {
				existing[key] = value
			}
		}
	}

	store.checkpoints = []checkpoint{collapsed}
}

// ClearCheckpoints discards every outstanding checkpoint
func (store *CheckpointedKV) ClearCheckpoints() {
	store.checkpoints = store.checkpoints[:0]
}

// Commit collapses the outstanding checkpoints and folds the result into
// committed storage; keys not written by the checkpoints are preserved
func (store *CheckpointedKV) Commit() error {
	store.CollapseCheckpoints()
	if len(store.checkpoints) == 0 {
		return nil
	}

	collapsed := store.checkpoints[0]
	for address, entries := range collapsed {
		for key, value := range entries {
			err := store.persister.Put(append([]byte(address), []byte(key)...), value)
			if err != nil {
				log.Error("commit failed", "err", err)
				return neutron.ErrDatabaseCommitError
			}
		}
	}

	store.ClearCheckpoints()
	return nil
}

// CheckpointCount returns the number of outstanding checkpoints
func (store *CheckpointedKV) CheckpointCount() int {
	return len(store.checkpoints)
}

// ReadKey reads the value stored under (address, key), searching the
// checkpoints top-down and then committed storage. The read is metered
// through the given call stack; a missing key is unrecoverable.
func (store *CheckpointedKV) ReadKey(stack neutron.CallStack, address neutron.ShortAddress, key []byte) ([]byte, error) {
	addressKey := string(address.Bytes())

	for i := len(store.checkpoints) - 1; i >= 0; i-- {
		entries, ok := store.checkpoints[i][addressKey]
		if !ok {
			continue
		}
		value, ok := entries[string(key)]
		if !ok {
			continue
		}

		cached := i == len(store.checkpoints)-1
		err := store.chargeRead(stack, value, cached)
		if err != nil {
			return nil, err
		}
		return value, nil
	}

	value, err := store.persister.Get(persistedKey(address, key))
	if err != nil {
		return nil, neutron.ErrStateOutOfRent
	}

	err = store.chargeRead(stack, value, false)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// WriteKey stores the value under (address, key) in the top checkpoint. The
// write is metered through the given call stack; writing with no open
// checkpoint is unrecoverable.
func (store *CheckpointedKV) WriteKey(stack neutron.CallStack, address neutron.ShortAddress, key []byte, value []byte) error {
	if len(store.checkpoints) == 0 {
		return neutron.ErrDatabaseWritingError
	}

	top := store.checkpoints[len(store.checkpoints)-1]
	addressKey := string(address.Bytes())

	entries, ok := top[addressKey]
	if !ok {
		entries = make(map[string][]byte)
		top[addressKey] = entries
	}

	oldValue, cached := entries[string(key)]
	err := store.chargeWrite(stack, key, value, len(oldValue), cached)
	if err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	entries[string(key)] = stored

	log.Trace("state written", "address", address.String(), "key", key, "valueSize", len(value))
	return nil
}

func (store *CheckpointedKV) chargeRead(stack neutron.CallStack, value []byte, cached bool) error {
	if check.IfNil(stack) {
		return nil
	}

	valueSize := int64(len(value))
	var cost int64
	if cached {
		cost = stack.GasCost(neutron.GlobalStorageFeature, config.ReadCachedByteCost) * valueSize
	} else {
		cost = stack.GasCost(neutron.GlobalStorageFeature, config.ReadUncachedCost) +
			stack.GasCost(neutron.GlobalStorageFeature, config.ReadUncachedByteCost)*valueSize
	}

	return stack.ChargeGas(cost)
}

func (store *CheckpointedKV) chargeWrite(stack neutron.CallStack, key []byte, value []byte, oldSize int, cached bool) error {
	if check.IfNil(stack) {
		return nil
	}

	valueSize := int64(len(value))
	var cost int64
	if cached {
		cost = stack.GasCost(neutron.GlobalStorageFeature, config.WriteCachedCost) +
			stack.GasCost(neutron.GlobalStorageFeature, config.WriteCachedByteCost)*valueSize -
			stack.GasCost(neutron.GlobalStorageFeature, config.RefundCachedByteCost)*int64(oldSize)
	} else {
		cost = stack.GasCost(neutron.GlobalStorageFeature, config.WriteUncachedCost) +
			stack.GasCost(neutron.GlobalStorageFeature, config.WriteUncachedByteCost)*valueSize +
			stack.GasCost(neutron.GlobalStorageFeature, config.WriteKeyByteCost)*int64(len(key))
	}

	return stack.ChargeGas(cost)
}

// IsInterfaceNil returns true if there is no value under the interface
func (store *CheckpointedKV) IsInterfaceNil() bool {
	return store == nil
}
