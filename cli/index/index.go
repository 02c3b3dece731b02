package index

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lmeunier/confarc/cf_scraper"
	"github.com/lmeunier/confarc/configuration"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Regenerate index.html and feed.xml from the archived posts",
		Run:   runIndexCommand,
	}
}

func runIndexCommand(cmd *cobra.Command, args []string) {
	client, err := configuration.NewClient()
	if err != nil {
		log.Fatal(err)
	}
	root, err := configuration.ArchiveRoot()
	if err != nil {
		log.Fatal(err)
	}

	ib := cf_scraper.NewIndexBuilder(client, root)
	if _, err := ib.BuildIndex(); err != nil {
		log.Fatal(err)
	}
	filename, err := ib.BuildFeed()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Wrote %s\n", filename)
}
