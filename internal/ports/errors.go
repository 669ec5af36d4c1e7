package ports

import "fmt"

// ConfigurationError is returned while setting up a port whose device or channel is invalid.
type ConfigurationError struct {
	Device  string
	Channel string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Channel) > 0 {
		return fmt.Sprintf("invalid configuration of device %s, channel %s: %v", e.Device, e.Channel, e.Err)
	}
	return fmt.Sprintf("invalid configuration of device %s: %v", e.Device, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AcquisitionError is returned when reading samples from a port fails at runtime.
type AcquisitionError struct {
	Port string
	Err  error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition on port %s failed: %v", e.Port, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// ActuationError is returned when writing a command to a port fails at runtime.
type ActuationError struct {
	Port string
	Err  error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuation on port %s failed: %v", e.Port, e.Err)
}

func (e *ActuationError) Unwrap() error {
	return e.Err
}
