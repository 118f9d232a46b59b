package fitstream

import "errors"

// Decode failures are terminal for a given byte buffer; there is no partial
// result mode. Each sentinel maps to exactly one user-facing message.
var (
	// ErrInvalidFormat means the buffer is too short or the header-length
	// byte declares a header smaller than the minimum.
	ErrInvalidFormat = errors.New("invalid activity file format")

	// ErrUnsupportedVersion means the protocol version byte is newer than
	// this decoder understands.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")

	// ErrCorruptedData means a declared field or message length exceeds the
	// remaining buffer.
	ErrCorruptedData = errors.New("corrupted activity data")

	// ErrNoActivityData means a structurally valid scan produced zero ride
	// samples.
	ErrNoActivityData = errors.New("no activity data in file")
)

// DecodeErrorMessage maps a decode error to its human-readable message.
// Unknown errors fall through to err.Error().
func DecodeErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return "This file does not look like a supported activity recording."
	case errors.Is(err, ErrUnsupportedVersion):
		return "This activity file uses a newer protocol version than this app supports."
	case errors.Is(err, ErrCorruptedData):
		return "The activity file appears to be corrupted and could not be read."
	case errors.Is(err, ErrNoActivityData):
		return "The file was read successfully but contains no ride data."
	default:
		return err.Error()
	}
}
