package global

import (
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ui"
)

var (
	CfgFile string
	NoColor bool
	NoStyle bool
	Verbose bool
	LoopId  string
)

// LoadLoopConfig reads and validates the configuration file and
// returns the loop selected by --loop
func LoadLoopConfig() (configuration.LoopConfig, error) {
	configPath, err := configuration.DetectConfigFile()
	if err != nil {
		return configuration.LoopConfig{}, err
	}
	ui.Debug("Using configuration file at: %s", configPath)
	if err = configuration.LoadConfig(); err != nil {
		return configuration.LoopConfig{}, err
	}
	if err = configuration.Validate(configPath); err != nil {
		return configuration.LoopConfig{}, err
	}
	return configuration.FindLoop(LoopId)
}
