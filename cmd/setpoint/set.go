package setpoint

import (
	"github.com/markusressel/daq2go/internal/setpoint"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <value>",
	Short: "Persist the setpoint the loop starts with",
	Long: `Persists the setpoint of a loop. A running daemon is not affected,
use the REST API to change the setpoint of a running loop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := setpoint.ParseValue(args[0])
		if err != nil {
			return err
		}

		pers, loopConfig, err := openPersistence()
		if err != nil {
			return err
		}
		if !loopConfig.Setpoint.Persist.Get() {
			ui.Warning("Setpoint persistence is disabled for loop %s, the value will be ignored on startup", loopConfig.ID)
		}

		if err = pers.SaveSetpoint(loopConfig.ID, value); err != nil {
			return err
		}
		ui.Success("Setpoint of loop %s set to %v", loopConfig.ID, value)
		return nil
	},
}

func init() {
	Command.AddCommand(setCmd)
}
