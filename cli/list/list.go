package list

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/lmeunier/confarc/cf_scraper"
	"github.com/lmeunier/confarc/configuration"
)

var (
	startOffset int
	endOffset   int
	noMerge     bool
)

func NewCommand() *cobra.Command {
	listCommand := &cobra.Command{
		Use:   "list",
		Short: "Update the listing of blog posts",
		Long:  "Walks the paginated blog listing, deduplicates it and merges it into the local record set",
		Run:   runListCommand,
	}

	listCommand.Flags().IntVar(&startOffset, "start", 0, "Listing offset to start from")
	listCommand.Flags().IntVar(&endOffset, "end", -1, "Stop before this listing offset (-1 for no limit)")
	listCommand.Flags().BoolVar(&noMerge, "no-merge", false, "Replace the stored listing instead of merging into it")

	return listCommand
}

func runListCommand(cmd *cobra.Command, args []string) {
	client, err := configuration.NewClient()
	if err != nil {
		log.Fatal(err)
	}
	ldb, err := configuration.OpenListingDB()
	if err != nil {
		log.Fatal(err)
	}
	defer ldb.Close()

	lister := cf_scraper.NewBlogLister(client, ldb)
	res, err := lister.ListPosts(startOffset, endOffset, !noMerge)

	for _, warning := range res.Warnings {
		log.Printf("Warning: %s", warning)
	}
	fmt.Printf("Listing now holds %d posts (%d duplicates this run)\n", ldb.PostCount(), res.Duplicates)

	if res.Incomplete {
		log.Fatalf("Listing run incomplete: %v", err)
	}
	if err != nil {
		log.Fatal(err)
	}
}
