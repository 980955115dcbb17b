package features

import (
	"strings"

	"github.com/multiversx/mx-chain-core-go/core/check"
	"github.com/qtumproject/neutron-vm-go/neutron"
)

// Function identifiers of the logging feature
const (
	// LogDebugFunction emits the message at debug level
	LogDebugFunction uint32 = iota + 1

	// LogInfoFunction emits the message at info level
	LogInfoFunction

	// LogWarningFunction emits the message at warning level
	LogWarningFunction

	// LogErrorFunction emits the message at error level
	LogErrorFunction
)

// LogSink receives the messages emitted by guest contracts
type LogSink interface {
	LogError(message string)
	LogWarning(message string)
	LogInfo(message string)
	LogDebug(message string)
	IsInterfaceNil() bool
}

var _ neutron.FeatureInterface = (*loggingInterface)(nil)

// loggingInterface implements the diagnostic logging feature. The guest
// pushes its message as a sequence of string fragments followed by a one-byte
// fragment count; the host pops the count, then the fragments, and emits the
// reassembled message at the requested level.
type loggingInterface struct {
	sink LogSink
}

// NewLoggingInterface creates the logging feature emitting into the given sink
func NewLoggingInterface(sink LogSink) (*loggingInterface, error) {
	if check.IfNil(sink) {
		return nil, neutron.ErrNilLogSink
	}

	return &loggingInterface{sink: sink}, nil
}

// TrySystemCall handles the (feature, function) pair if it belongs to the
// logging feature
func (li *loggingInterface) TrySystemCall(stack neutron.CallStack, feature uint32, function uint32) (bool, error) {
	if feature != neutron.LoggingFeature {
		return false, nil
	}
	if function < LogDebugFunction || function > LogErrorFunction {
		return true, neutron.ErrInvalidSystemFunction
	}

	message, err := popMessage(stack)
	if err != nil {
		return true, err
	}

	switch function {
	case LogDebugFunction:
		li.sink.LogDebug(message)
	case LogInfoFunction:
		li.sink.LogInfo(message)
	case LogWarningFunction:
		li.sink.LogWarning(message)
	case LogErrorFunction:
		li.sink.LogError(message)
	}

	return true, nil
}

// popMessage pops the one-byte fragment count, then the fragments. The top of
// the SCCS holds the first fragment of the message, so appending in pop order
// reassembles the guest's intended left-to-right string. Invalid UTF-8 is
// decoded lossily.
func popMessage(stack neutron.CallStack) (string, error) {
	countItem, err := stack.PopSCCS()
	if err != nil {
		return "", err
	}
	if len(countItem) == 0 {
		return "", neutron.ErrStackItemTooSmall
	}
	if len(countItem) > 1 {
		return "", neutron.ErrStackItemTooLarge
	}

	var builder strings.Builder
	count := int(countItem[0])
	for i := 0; i < count; i++ {
		fragment, err := stack.PopSCCS()
		if err != nil {
			return "", err
		}
		builder.Write(fragment)
	}

	return strings.ToValidUTF8(builder.String(), "�"), nil
}

// IsInterfaceNil returns true if there is no value under the interface
func (li *loggingInterface) IsInterfaceNil() bool {
	return li == nil
}
