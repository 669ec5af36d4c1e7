package configuration

import (
	"errors"
	"fmt"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/markusressel/daq2go/internal/util"
	"golang.org/x/exp/slices"
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	if len(config.Loops) <= 0 {
		return errors.New("no loops configured")
	}

	err := validateLoops(config)
	if err != nil {
		return err
	}

	if containsCmdPorts(config) && len(path) > 0 {
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			return fmt.Errorf("config file '%s' has invalid permissions: %s", path, err)
		}
	}

	return nil
}

func containsCmdPorts(config *Configuration) bool {
	for _, loopConfig := range config.Loops {
		if loopConfig.Port.Cmd != nil {
			return true
		}
	}
	return false
}

func validateLoops(config *Configuration) error {
	var loopIds []string
	stdinLoops := 0

	for _, loopConfig := range config.Loops {
		if len(loopConfig.ID) <= 0 {
			return errors.New("all loops must have a non-empty id")
		}
		if slices.Contains(loopIds, loopConfig.ID) {
			return fmt.Errorf("duplicate loop id detected: %s", loopConfig.ID)
		}
		loopIds = append(loopIds, loopConfig.ID)

		if loopConfig.Setpoint.Stdin {
			stdinLoops++
		}

		err := validateLoop(loopConfig)
		if err != nil {
			return err
		}
	}

	if stdinLoops > 1 {
		return errors.New("setpoint input from stdin can only be enabled for a single loop")
	}

	return nil
}

func validateLoop(loopConfig LoopConfig) error {
	if loopConfig.Samples <= 0 {
		return fmt.Errorf("loop %s: samples must be > 0", loopConfig.ID)
	}
	if loopConfig.SampleRate <= 0 {
		return fmt.Errorf("loop %s: sampleRate must be > 0", loopConfig.ID)
	}
	if loopConfig.MaxRetries < 0 {
		return fmt.Errorf("loop %s: maxRetries must be >= 0", loopConfig.ID)
	}
	if loopConfig.Period < 0 {
		return fmt.Errorf("loop %s: period must be >= 0", loopConfig.ID)
	}
	if loopConfig.Scale == 0 {
		ui.Warning("Loop %s: scale is 0, all measurements will read as 0", loopConfig.ID)
	}

	if loopConfig.Smoothing.Enabled && loopConfig.Smoothing.Capacity < 1 {
		return fmt.Errorf("loop %s: smoothing capacity must be >= 1", loopConfig.ID)
	}

	pid := loopConfig.Pid
	if pid.DeltaT < 0 {
		return fmt.Errorf("loop %s: pid deltaT must be > 0", loopConfig.ID)
	}
	if pid.P == 0 && pid.I == 0 && pid.D == 0 {
		return fmt.Errorf("loop %s: pid constants must not all be 0", loopConfig.ID)
	}

	switch loopConfig.Output.Type {
	case ChannelTypeAnalog, ChannelTypeDigital:
	default:
		return fmt.Errorf("loop %s: unsupported output type '%s', use one of: analog | digital", loopConfig.ID, loopConfig.Output.Type)
	}

	if loopConfig.Telemetry.MaxEntries < 0 {
		return fmt.Errorf("loop %s: telemetry maxEntries must be >= 0", loopConfig.ID)
	}

	return validatePort(loopConfig.ID, loopConfig.Port)
}

func validatePort(loopId string, portConfig PortConfig) error {
	subConfigs := 0
	if portConfig.Serial != nil {
		subConfigs++
	}
	if portConfig.File != nil {
		subConfigs++
	}
	if portConfig.Cmd != nil {
		subConfigs++
	}
	if portConfig.Hwmon != nil {
		subConfigs++
	}
	if portConfig.Simulated != nil {
		subConfigs++
	}
	if subConfigs > 1 {
		return fmt.Errorf("loop %s: only one port type can be used per loop definition block", loopId)
	}
	if subConfigs <= 0 {
		return fmt.Errorf("loop %s: sub-configuration for port is missing, use one of: serial | file | cmd | hwmon | simulated", loopId)
	}

	if portConfig.Serial != nil {
		serial := portConfig.Serial
		if len(serial.Device) <= 0 {
			return fmt.Errorf("loop %s: serial device must not be empty", loopId)
		}
		if serial.BaudRate <= 0 {
			return fmt.Errorf("loop %s: invalid serial baudRate, must be > 0", loopId)
		}
		if serial.Input < 0 {
			return fmt.Errorf("loop %s: invalid serial input channel, must be >= 0", loopId)
		}
		if serial.Output < 0 {
			return fmt.Errorf("loop %s: invalid serial output channel, must be >= 0", loopId)
		}
	}

	if portConfig.File != nil {
		if len(portConfig.File.Input) <= 0 || len(portConfig.File.Output) <= 0 {
			return fmt.Errorf("loop %s: file port requires both an input and an output path", loopId)
		}
	}

	if portConfig.Cmd != nil {
		cmd := portConfig.Cmd
		if cmd.Acquire == nil || cmd.Actuate == nil {
			return fmt.Errorf("loop %s: cmd port requires both an acquire and an actuate command", loopId)
		}
		for _, execConfig := range []*ExecConfig{cmd.Acquire, cmd.Actuate} {
			if _, err := util.CheckFilePermissionsForExecution(execConfig.Exec); err != nil {
				return fmt.Errorf("loop %s: cannot execute %s: %s", loopId, execConfig.Exec, err)
			}
		}
	}

	if portConfig.Hwmon != nil {
		if portConfig.Hwmon.Index <= 0 {
			return fmt.Errorf("loop %s: invalid hwmon index, must be >= 1", loopId)
		}
		if len(portConfig.Hwmon.Output) <= 0 {
			return fmt.Errorf("loop %s: hwmon port requires an output path", loopId)
		}
	}

	if portConfig.Simulated != nil {
		if portConfig.Simulated.TimeConstant <= 0 {
			return fmt.Errorf("loop %s: simulated timeConstant must be > 0", loopId)
		}
	}

	return nil
}
