package setpoint

import (
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the persisted setpoint, the loop starts with its configured initial value",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pers, loopConfig, err := openPersistence()
		if err != nil {
			return err
		}

		if err = pers.DeleteSetpoint(loopConfig.ID); err != nil {
			return err
		}
		ui.Success("Setpoint of loop %s reset to %v", loopConfig.ID, loopConfig.Setpoint.Initial)
		return nil
	},
}

func init() {
	Command.AddCommand(resetCmd)
}
