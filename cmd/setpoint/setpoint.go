package setpoint

import (
	"github.com/markusressel/daq2go/cmd/global"
	"github.com/markusressel/daq2go/internal"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/persistence"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "setpoint",
	Short:            "Persisted setpoint related commands",
	Long:             ``,
	TraverseChildren: true,
}

func openPersistence() (persistence.Persistence, configuration.LoopConfig, error) {
	loopConfig, err := global.LoadLoopConfig()
	if err != nil {
		return nil, loopConfig, err
	}
	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err = pers.Init(); err != nil {
		return nil, loopConfig, err
	}
	return pers, loopConfig, nil
}

// currentSetpoint is the setpoint the daemon would start with
func currentSetpoint(pers persistence.Persistence, loopConfig configuration.LoopConfig) float64 {
	return internal.ResolveInitialSetpoint(loopConfig, pers)
}
