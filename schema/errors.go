package schema

import "errors"

var (
	// ErrInvalidInput indicates a missing or empty required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownColor indicates a literal color outside the descriptor table.
	ErrUnknownColor = errors.New("unknown color")
	// ErrNoDevicesFound indicates device discovery returned nothing.
	ErrNoDevicesFound = errors.New("no devices found")
	// ErrDeviceCommand indicates a single device rejected or timed out on a command.
	ErrDeviceCommand = errors.New("device command failed")
	// ErrLexiconUnavailable indicates the lexicon gateway failed or timed out.
	ErrLexiconUnavailable = errors.New("lexicon unavailable")
	// ErrNoMatchingRecord indicates a replay lookup miss.
	ErrNoMatchingRecord = errors.New("no matching highlight or note found")
)

// ErrorCode maps an error to its taxonomy name. Unknown errors map to "Internal".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrUnknownColor):
		return "UnknownColor"
	case errors.Is(err, ErrNoDevicesFound):
		return "NoDevicesFound"
	case errors.Is(err, ErrDeviceCommand):
		return "DeviceCommandFailure"
	case errors.Is(err, ErrLexiconUnavailable):
		return "LexiconUnavailable"
	case errors.Is(err, ErrNoMatchingRecord):
		return "NoMatchingRecord"
	default:
		return "Internal"
	}
}
