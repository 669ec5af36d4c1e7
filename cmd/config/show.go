package config

import (
	"encoding/json"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the effective configuration, including default values",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := configuration.DetectConfigFile()
		if err != nil {
			return err
		}
		ui.Debug("Using configuration file at: %s", configPath)
		if err = configuration.LoadConfig(); err != nil {
			return err
		}

		text, err := Render(configuration.CurrentConfig)
		if err != nil {
			return err
		}
		ui.Printf("%s", text)
		return nil
	},
}

// Render formats the configuration as yaml, keys are named like in the configuration file
func Render(config configuration.Configuration) (string, error) {
	// round trip through json to apply the json field names
	data, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	var generic map[string]interface{}
	if err = json.Unmarshal(data, &generic); err != nil {
		return "", err
	}

	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func init() {
	Command.AddCommand(showCmd)
}
