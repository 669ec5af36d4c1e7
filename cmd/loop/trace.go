package loop

import (
	"context"
	"github.com/markusressel/daq2go/cmd/global"
	"github.com/markusressel/daq2go/internal"
	"github.com/markusressel/daq2go/internal/controller"
	"github.com/markusressel/daq2go/internal/telemetry"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/markusressel/daq2go/internal/util"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

var cycles int

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run a number of control cycles and plot measured and commanded values",
	Long: `Runs the selected loop for the given number of cycles,
printing every cycle and a graph of the measured and commanded values afterwards.
The setpoint is not persisted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loopConfig, err := global.LoadLoopConfig()
		if err != nil {
			return err
		}
		// the graph is printed once at the end
		loopConfig.Telemetry.Plot = false

		setup, err := internal.SetupLoop(loopConfig, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := setup.Port.Close(); err != nil {
				ui.Warning("Error closing port %s: %v", setup.Port.GetId(), err)
			}
		}()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		results, err := internal.RunCycles(ctx, setup.Loop, cycles, os.Stdout)
		if len(results) > 0 {
			measured, command := traceValues(results)
			ui.Printfln("%s", telemetry.RenderGraph(loopConfig.ID, measured, command))
			ui.Printfln("measured: min %.4f, max %.4f, avg %.4f", util.Min(measured), util.Max(measured), util.Avg(measured))
			ui.Printfln("command:  min %.4f, max %.4f, avg %.4f", util.Min(command), util.Max(command), util.Avg(command))
		}
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func traceValues(results []controller.CycleResult) (measured []float64, command []float64) {
	for _, result := range results {
		measured = append(measured, result.Current)
		command = append(command, result.Command.Value)
	}
	return measured, command
}

func init() {
	traceCmd.Flags().IntVarP(&cycles, "cycles", "n", 50, "Number of cycles to run")
	Command.AddCommand(traceCmd)
}
