package port

import (
	"github.com/markusressel/daq2go/cmd/global"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ports"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "port",
	Short:            "Direct access to the I/O port of a loop",
	Long:             ``,
	TraverseChildren: true,
}

func getPort() (ports.Port, configuration.LoopConfig, error) {
	loopConfig, err := global.LoadLoopConfig()
	if err != nil {
		return nil, loopConfig, err
	}
	port, err := ports.NewPort(loopConfig.ID, loopConfig.Port, loopConfig.SampleRate)
	if err != nil {
		return nil, loopConfig, err
	}
	return port, loopConfig, nil
}
