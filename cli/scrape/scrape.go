package scrape

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bit101/go-ansi"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lmeunier/confarc/cf_scraper"
	"github.com/lmeunier/confarc/configuration"
	"github.com/lmeunier/confarc/model"
)

var (
	idsFile string
)

func NewCommand() *cobra.Command {
	scrapeCommand := &cobra.Command{
		Use:   "scrape [ID...]",
		Short: "Scrape blog posts into the archive",
		Long:  "Fetches each post with its attachments and comments and writes a standalone HTML artifact",
		Example: "" +
			"  " + os.Args[0] + " scrape --server URL --space KEY\n" +
			"  " + os.Args[0] + " scrape --server URL --space KEY 123456 123789",
		Run: runScrapeCommand,
	}

	scrapeCommand.Flags().StringVar(&idsFile, "ids-file", "", "File of post IDs to scrape, one per row")

	return scrapeCommand
}

func runScrapeCommand(cmd *cobra.Command, args []string) {
	client, err := configuration.NewClient()
	if err != nil {
		log.Fatal(err)
	}
	root, err := configuration.ArchiveRoot()
	if err != nil {
		log.Fatal(err)
	}

	ids := args
	if len(ids) == 0 && idsFile != "" {
		if ids, err = cf_scraper.ReadIDFile(idsFile); err != nil {
			log.Fatal(err)
		}
	}
	if len(ids) == 0 {
		ldb, err := configuration.OpenListingDB()
		if err != nil {
			log.Fatal(err)
		}
		posts, err := ldb.AllPosts()
		ldb.Close()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
	}

	fmt.Printf("Scraping %d posts\n", len(ids))
	ps := cf_scraper.NewPostScraper(client, root)
	stats, err := ps.ScrapePosts(ids)
	if err != nil {
		log.Fatal(err)
	}

	ib := cf_scraper.NewIndexBuilder(client, root)
	if _, err := ib.BuildIndex(); err != nil {
		log.Printf("Could not rebuild index: %v", err)
	}
	if _, err := ib.BuildFeed(); err != nil {
		log.Printf("Could not rebuild feed: %v", err)
	}

	report(stats)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func report(stats model.ScrapeStats) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		ansi.Fprintf(os.Stdout, ansi.Green, "%d succeeded", stats.Succeeded)
		ansi.Fprintf(os.Stdout, ansi.Default, " / ")
		ansi.Fprintf(os.Stdout, ansi.Yellow, "%d skipped", stats.Skipped)
		ansi.Fprintf(os.Stdout, ansi.Default, " / ")
		ansi.Fprintf(os.Stdout, ansi.Red, "%d failed", stats.Failed)
		ansi.Fprintf(os.Stdout, ansi.Default, " of %d\n", stats.Total)
		if len(stats.FailedIDs) > 0 {
			ansi.Fprintf(os.Stdout, ansi.Red, "Failed IDs: %s\n", strings.Join(stats.FailedIDs, " "))
		}
	} else {
		fmt.Printf("%d succeeded / %d skipped / %d failed of %d\n",
			stats.Succeeded, stats.Skipped, stats.Failed, stats.Total)
		if len(stats.FailedIDs) > 0 {
			fmt.Printf("Failed IDs: %s\n", strings.Join(stats.FailedIDs, " "))
		}
	}
}
