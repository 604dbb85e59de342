package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNoData) {
//	    // normal idle read, not a failure
//	}
var (
	// ErrNoData is returned by Driver.ReadKeyStates when the timeout
	// elapses with no input. A frequent, entirely normal outcome.
	ErrNoData = errors.New("device: no input data")

	// ErrDisconnected is returned by driver operations once the
	// hardware is gone. It closes the device, never the process.
	ErrDisconnected = errors.New("device: disconnected")

	// ErrClosed is returned by Core operations after the device has
	// been marked closed.
	ErrClosed = errors.New("device: closed")

	// ErrInvalidKey is returned when a key index is outside the
	// device's physical range.
	ErrInvalidKey = errors.New("device: invalid key index")

	// ErrButtonNotFound is returned when an operation targets a key
	// with no button on the visible panel.
	ErrButtonNotFound = errors.New("device: button not found")

	// ErrComponentNotFound is returned when a component name is absent
	// from the targeted button.
	ErrComponentNotFound = errors.New("device: component not found")

	// ErrDeviceNotFound is returned by manager lookups for untracked
	// serials.
	ErrDeviceNotFound = errors.New("device: device not found")

	// ErrDeviceExists is returned when tracking a serial that is
	// already managed.
	ErrDeviceExists = errors.New("device: device already tracked")
)
