package port

import (
	"fmt"
	"github.com/markusressel/daq2go/internal/smoothing"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"strconv"
	"strings"
)

var (
	count   int
	average bool
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Acquire samples from the input channel of a loop",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		port, loopConfig, err := getPort()
		if err != nil {
			return err
		}
		defer func() {
			if err := port.Close(); err != nil {
				ui.Warning("Error closing port %s: %v", port.GetId(), err)
			}
		}()

		if count <= 0 {
			count = loopConfig.Samples
		}
		batch, err := port.Acquire(cmd.Context(), count)
		if err != nil {
			return err
		}

		fmt.Println(formatSamples(batch, average))
		return nil
	},
}

func formatSamples(batch []float64, average bool) string {
	if average {
		averaged := smoothing.BlockAverage(batch, len(batch))
		if len(averaged) <= 0 {
			return ""
		}
		return strconv.FormatFloat(averaged[0], 'f', -1, 64)
	}
	values := make([]string, len(batch))
	for idx, value := range batch {
		values[idx] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	return strings.Join(values, "\n")
}

func init() {
	readCmd.Flags().IntVarP(&count, "count", "n", 0, "Number of samples, defaults to the samples of the loop")
	readCmd.Flags().BoolVarP(&average, "average", "a", false, "Print only the average of all samples")
	Command.AddCommand(readCmd)
}
