package search

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lmeunier/confarc/configuration"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <regexp>",
		Short: "Search the listed post titles by regular expression",
		Args:  cobra.ExactArgs(1),
		Run:   runSearchCommand,
	}
}

func runSearchCommand(cmd *cobra.Command, args []string) {
	ldb, err := configuration.OpenListingDB()
	if err != nil {
		log.Fatal(err)
	}
	defer ldb.Close()

	posts, err := ldb.SearchTitles(args[0])
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range posts {
		fmt.Printf("%s: %s\n", p.ID, p.Title)
	}
}
