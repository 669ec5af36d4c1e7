package configuration

import (
	"fmt"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"time"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`

	Loops []LoopConfig `json:"loops"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("daq2go")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Fatal("Couldn't detect home directory: %v", err)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/daq2go/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbPath", "/etc/daq2go/daq2go.db")

	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9001)

	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9000)

	viper.SetDefault("loops", []LoopConfig{})
}

// DetectConfigFile locates the configuration file and reads it, returning its path
func DetectConfigFile() (string, error) {
	if err := viper.ReadInConfig(); err != nil {
		return "", fmt.Errorf("error reading config file: %w", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed(), nil
}

// DetectAndReadConfigFile is DetectConfigFile followed by LoadConfig,
// exiting the process if either of them fails
func DetectAndReadConfigFile() string {
	configPath, err := DetectConfigFile()
	if err != nil {
		// config file is required, so we fail here
		ui.Fatal("%v", err)
	}
	if err = LoadConfig(); err != nil {
		ui.Fatal("%v", err)
	}
	return configPath
}

// LoadConfig decodes the configuration read by viper into CurrentConfig
// and fills in loop defaults
func LoadConfig() error {
	var config Configuration
	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			channelTypeHookFunc(),
			DefaultTrueBoolHookFunc(),
		),
	))
	if err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}

	for idx := range config.Loops {
		applyLoopDefaults(&config.Loops[idx])
	}

	CurrentConfig = config
	return nil
}

func applyLoopDefaults(loop *LoopConfig) {
	if loop.Samples == 0 {
		loop.Samples = DefaultSamples
	}
	if loop.SampleRate == 0 {
		loop.SampleRate = DefaultSampleRate
	}
	if loop.Scale == 0 {
		loop.Scale = 1
	}
	if loop.RetryBackoff == 0 {
		loop.RetryBackoff = 100 * time.Millisecond
	}
	if loop.Pid.P == 0 && loop.Pid.I == 0 && loop.Pid.D == 0 {
		deltaT := loop.Pid.DeltaT
		loop.Pid = DefaultPidConfig
		loop.Pid.DeltaT = deltaT
	}
	if loop.Smoothing.Capacity == 0 {
		loop.Smoothing.Capacity = DefaultSmoothingCapacity
	}
	if len(loop.Setpoint.Prompt) <= 0 {
		loop.Setpoint.Prompt = "Enter required value: "
	}
	if loop.Telemetry.MaxEntries == 0 {
		loop.Telemetry.MaxEntries = DefaultTelemetryMaxEntries
	}
	if loop.Telemetry.Buffer == 0 {
		loop.Telemetry.Buffer = DefaultTelemetryBuffer
	}
	if len(loop.Output.Type) <= 0 {
		loop.Output.Type = ChannelTypeAnalog
	}
	if loop.Port.Serial != nil {
		if loop.Port.Serial.BaudRate == 0 {
			loop.Port.Serial.BaudRate = DefaultBaudRate
		}
		if loop.Port.Serial.Timeout == 0 {
			loop.Port.Serial.Timeout = 2 * time.Second
		}
	}
	if loop.Port.Cmd != nil && loop.Port.Cmd.Timeout == 0 {
		loop.Port.Cmd.Timeout = 2 * time.Second
	}
	if loop.Port.Simulated != nil && loop.Port.Simulated.TimeConstant == 0 {
		loop.Port.Simulated.TimeConstant = 1
	}
}

// FindLoop returns the configuration of the loop with the given id,
// or the only configured loop if id is empty
func FindLoop(id string) (LoopConfig, error) {
	loops := CurrentConfig.Loops
	if len(id) <= 0 {
		if len(loops) == 1 {
			return loops[0], nil
		}
		if len(loops) == 0 {
			return LoopConfig{}, fmt.Errorf("no loops configured")
		}
		return LoopConfig{}, fmt.Errorf("multiple loops configured, select one using --loop")
	}

	for _, loop := range loops {
		if loop.ID == id {
			return loop, nil
		}
	}
	return LoopConfig{}, fmt.Errorf("no loop with id found: %s", id)
}
