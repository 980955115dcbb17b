package mock

import (
	"github.com/qtumproject/neutron-vm-go/neutron/features"
)

var _ features.LogSink = (*LogSinkMock)(nil)

// LogSinkMock records guest log messages per level
type LogSinkMock struct {
	Errors   []string
	Warnings []string
	Infos    []string
	Debugs   []string
}

// LogError records the message
func (sink *LogSinkMock) LogError(message string) {
	sink.Errors = append(sink.Errors, message)
}

// LogWarning records the message
func (sink *LogSinkMock) LogWarning(message string) {
	sink.Warnings = append(sink.Warnings, message)
}

// LogInfo records the message
func (sink *LogSinkMock) LogInfo(message string) {
	sink.Infos = append(sink.Infos, message)
}

// LogDebug records the message
func (sink *LogSinkMock) LogDebug(message string) {
	sink.Debugs = append(sink.Debugs, message)
}

// IsInterfaceNil returns true if there is no value under the interface
func (sink *LogSinkMock) IsInterfaceNil() bool {
	return sink == nil
}
