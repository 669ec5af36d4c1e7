package port

import (
	"fmt"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
	"strconv"
)

var writeCmd = &cobra.Command{
	Use:   "write <value>",
	Short: "Write a value to the output channel of a loop",
	Long: `Writes a value to the output channel of a loop.
For analog outputs the value is written as is, for digital outputs
it is the duration of the pulse in seconds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid value '%s': %w", args[0], err)
		}

		port, loopConfig, err := getPort()
		if err != nil {
			return err
		}
		defer func() {
			if err := port.Close(); err != nil {
				ui.Warning("Error closing port %s: %v", port.GetId(), err)
			}
		}()

		command := commandFor(loopConfig.Output.Type, value)
		if err = port.Actuate(cmd.Context(), command); err != nil {
			return err
		}
		ui.Success("Sent %s to port %s", command, port.GetId())
		return nil
	},
}

func commandFor(channelType configuration.ChannelType, value float64) actuation.Command {
	if channelType == configuration.ChannelTypeDigital {
		return actuation.Command{Kind: actuation.KindPulse, Value: actuation.ClampPulse(value)}
	}
	return actuation.Command{Kind: actuation.KindAnalog, Value: value}
}

func init() {
	Command.AddCommand(writeCmd)
}
