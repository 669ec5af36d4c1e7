package loop

import (
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "loop",
	Short:            "Control loop related commands",
	Long:             ``,
	TraverseChildren: true,
}
