package cmd

import (
	"fmt"
	"github.com/markusressel/daq2go/cmd/global"
	"github.com/markusressel/daq2go/internal/hwmon"
	"github.com/markusressel/daq2go/internal/ports"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/spf13/cobra"
	"path/filepath"
	"strconv"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all serial ports and lm-sensors temperature inputs and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		serialPorts, err := ports.ListSerialPorts()
		if err != nil {
			ui.Warning("%v", err)
		}

		if len(serialPorts) > 0 {
			ui.Printfln("> Serial")
			var rows [][]string
			for idx, name := range serialPorts {
				rows = append(rows, []string{"", strconv.Itoa(idx + 1), name})
			}
			printTable([]string{"Ports  ", "Index", "Device"}, rows)
		}

		for _, chip := range hwmon.GetChips() {
			if len(chip.Name) <= 0 {
				continue
			}

			ui.Printfln("> %s", chip.Name)

			var rows [][]string
			for _, sensor := range chip.Sensors {
				_, file := filepath.Split(sensor.Input)
				labelAndFile := fmt.Sprintf("%s (%s)", sensor.Label, file)
				rows = append(rows, []string{
					"", strconv.Itoa(sensor.Index), labelAndFile, strconv.FormatFloat(sensor.Value, 'f', 1, 64),
				})
			}
			printTable([]string{"Sensors", "Index", "Label", "Value"}, rows)
		}
	},
}

func printTable(headers []string, rows [][]string) {
	tableString, err := ui.RenderTable(headers, rows, !global.NoColor)
	if err != nil {
		ui.Fatal("Error printing table: %v", err)
	}
	ui.Printfln("%s", tableString)
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
