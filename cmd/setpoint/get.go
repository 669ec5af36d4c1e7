package setpoint

import (
	"fmt"
	"github.com/markusressel/daq2go/cmd/global"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/persistence"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"sort"
)

var all bool

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the setpoint the loop starts with",
	Long:  `Prints the setpoint the selected loop starts with, or with --all every persisted setpoint.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if all {
			return printAllSetpoints()
		}

		pterm.DisableOutput()

		pers, loopConfig, err := openPersistence()
		if err != nil {
			return err
		}

		fmt.Printf("%v", currentSetpoint(pers, loopConfig))
		return nil
	},
}

func printAllSetpoints() error {
	configPath, err := configuration.DetectConfigFile()
	if err != nil {
		return err
	}
	ui.Debug("Using configuration file at: %s", configPath)
	if err = configuration.LoadConfig(); err != nil {
		return err
	}

	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err = pers.Init(); err != nil {
		return err
	}
	setpoints, err := pers.LoadSetpoints()
	if err != nil {
		return err
	}
	if len(setpoints) <= 0 {
		ui.Info("No setpoints persisted in %s", configuration.CurrentConfig.DbPath)
		return nil
	}

	tableString, err := ui.RenderTable([]string{"Loop", "Setpoint"}, setpointRows(setpoints), !global.NoColor)
	if err != nil {
		return err
	}
	ui.Printfln("%s", tableString)
	return nil
}

// setpointRows returns one row per loop, sorted by loop id
func setpointRows(setpoints map[string]float64) [][]string {
	ids := make([]string, 0, len(setpoints))
	for id := range setpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, fmt.Sprintf("%v", setpoints[id])})
	}
	return rows
}

func init() {
	getCmd.Flags().BoolVarP(&all, "all", "a", false, "Print the persisted setpoints of all loops")
	Command.AddCommand(getCmd)
}
