package open

import (
	"log"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/lmeunier/confarc/configuration"
	"github.com/lmeunier/confarc/utils"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the archive index in a browser",
		Run:   runOpenCommand,
	}
}

func runOpenCommand(cmd *cobra.Command, args []string) {
	root, err := configuration.ArchiveRoot()
	if err != nil {
		log.Fatal(err)
	}
	index := filepath.Join(root, "index.html")
	if exists, err := utils.PathExists(index); err != nil || !exists {
		log.Fatalf("No index at %s, run the index command first", index)
	}
	browser.OpenFile(index)
}
