package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lmeunier/confarc/cli/index"
	"github.com/lmeunier/confarc/cli/list"
	"github.com/lmeunier/confarc/cli/open"
	"github.com/lmeunier/confarc/cli/probe"
	"github.com/lmeunier/confarc/cli/scrape"
	"github.com/lmeunier/confarc/cli/search"
	"github.com/lmeunier/confarc/cli/serve"
	"github.com/lmeunier/confarc/cli/wordcloud"
)

var (
	server   string
	space    string
	folder   string
	dbName   string
	user     string
	password string
)

func NewCommand() *cobra.Command {
	confarcCli := &cobra.Command{
		Use:     "confarc",
		Short:   "Confluence blog archiver",
		Long:    "Archives the blog of a Confluence space into standalone local HTML",
		Example: fmt.Sprintf("  %s <command> [flags...]", os.Args[0]),
	}

	flags := confarcCli.PersistentFlags()
	flags.StringVar(&server, "server", "", "Confluence server URL, e.g. https://confluence.example.com")
	flags.StringVar(&space, "space", "", "Space key whose blog to archive")
	flags.StringVar(&folder, "folder", ".", "Local folder holding the archive")
	flags.StringVar(&dbName, "database", "listing.db", "Listing database filename, relative to the archive root")
	flags.StringVar(&user, "user", "", "Username for basic auth (anonymous if empty)")
	flags.StringVar(&password, "password", "", "Password for basic auth (prompted or $CONFARC_PASSWORD if empty)")
	viper.BindPFlag("server", flags.Lookup("server"))
	viper.BindPFlag("space", flags.Lookup("space"))
	viper.BindPFlag("folder", flags.Lookup("folder"))
	viper.BindPFlag("database", flags.Lookup("database"))
	viper.BindPFlag("user", flags.Lookup("user"))
	viper.BindPFlag("password", flags.Lookup("password"))
	viper.SetEnvPrefix("confarc")
	viper.BindEnv("password")

	confarcCli.AddCommand(index.NewCommand())
	confarcCli.AddCommand(list.NewCommand())
	confarcCli.AddCommand(open.NewCommand())
	confarcCli.AddCommand(probe.NewCommand())
	confarcCli.AddCommand(scrape.NewCommand())
	confarcCli.AddCommand(search.NewCommand())
	confarcCli.AddCommand(serve.NewCommand())
	confarcCli.AddCommand(wordcloud.NewCommand())

	return confarcCli
}
