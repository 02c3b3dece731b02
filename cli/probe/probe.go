package probe

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmeunier/confarc/configuration"
)

var (
	verbose bool
)

func NewCommand() *cobra.Command {
	probeCommand := &cobra.Command{
		Use:   "probe",
		Short: "Test the connection to the Confluence server",
		Run:   runProbeCommand,
	}

	probeCommand.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print status code hints")

	return probeCommand
}

func runProbeCommand(cmd *cobra.Command, args []string) {
	client, err := configuration.NewClient()
	if err != nil {
		log.Fatal(err)
	}
	if !client.TestConnection(verbose) {
		os.Exit(1)
	}
}
