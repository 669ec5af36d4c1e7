package loop

import (
	"fmt"
	"github.com/markusressel/daq2go/cmd/global"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
	"strconv"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all configured control loops",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := configuration.DetectConfigFile()
		if err != nil {
			return err
		}
		ui.Info("Using configuration file at: %s", configPath)
		if err = configuration.LoadConfig(); err != nil {
			return err
		}
		if err = configuration.Validate(configPath); err != nil {
			return err
		}

		var rows [][]string
		for _, loop := range configuration.CurrentConfig.Loops {
			rows = append(rows, loopRow(loop))
		}

		tableString, err := ui.RenderTable(
			[]string{"ID", "Port", "Output", "Samples", "Rate (Hz)", "PID (p, i, d, dt)"},
			rows,
			!global.NoColor,
		)
		if err != nil {
			return err
		}
		ui.Printfln("%s", tableString)
		return nil
	},
}

func loopRow(loop configuration.LoopConfig) []string {
	return []string{
		loop.ID,
		portType(loop.Port),
		string(loop.Output.Type),
		strconv.Itoa(loop.Samples),
		strconv.FormatFloat(loop.SampleRate, 'f', -1, 64),
		fmt.Sprintf("%v, %v, %v, %v", loop.Pid.P, loop.Pid.I, loop.Pid.D, loop.EffectiveDeltaT()),
	}
}

func portType(config configuration.PortConfig) string {
	switch {
	case config.Serial != nil:
		return fmt.Sprintf("serial (%s)", config.Serial.Device)
	case config.File != nil:
		return "file"
	case config.Cmd != nil:
		return "cmd"
	case config.Hwmon != nil:
		return fmt.Sprintf("hwmon (%s)", config.Hwmon.Platform)
	case config.Simulated != nil:
		return "simulated"
	default:
		return "unknown"
	}
}

func init() {
	Command.AddCommand(listCmd)
}
