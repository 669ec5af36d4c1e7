package config

import (
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
	"os"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the current configuration",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// note: config file path parameter comes from the root command (-c)
		configPath, err := configuration.DetectConfigFile()
		if err != nil {
			return err
		}
		ui.Info("Using configuration file at: %s", configPath)
		if err = configuration.LoadConfig(); err != nil {
			return err
		}

		if err := configuration.Validate(configPath); err != nil {
			ui.Error("Validation failed: %v", err)
			os.Exit(1)
		}

		ui.Success("Config looks good! :)")
		return nil
	},
}

func init() {
	Command.AddCommand(validateCmd)
}
