package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/lmeunier/confarc/cf_scraper"
	"github.com/lmeunier/confarc/database"
	"github.com/lmeunier/confarc/utils"
)

// ArchiveRoot resolves the configured folder joined with the space key.
// Every filesystem path used by a run derives from this value; nothing
// depends on the process working directory.
func ArchiveRoot() (string, error) {
	folder := viper.GetString("folder")
	space := viper.GetString("space")
	if space == "" {
		return "", fmt.Errorf("no space configured")
	}
	if strings.HasPrefix(folder, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		folder = filepath.Join(home, folder[1:])
	}
	return filepath.Join(folder, space), nil
}

// OpenListingDB opens (creating if needed) the listing database under the
// archive root.
func OpenListingDB() (ldb *database.ListingDB, err error) {
	root, err := ArchiveRoot()
	if err != nil {
		return
	}
	if err = utils.EnsureDir(root); err != nil {
		return
	}
	return database.OpenListingDB(filepath.Join(root, viper.GetString("database")))
}

// NewClient builds the API client from the configuration. When a user is
// set but no password is configured and stdin is a terminal, the password
// is prompted without echo.
func NewClient() (*cf_scraper.Client, error) {
	server := viper.GetString("server")
	if server == "" {
		return nil, fmt.Errorf("no server configured")
	}
	space := viper.GetString("space")
	if space == "" {
		return nil, fmt.Errorf("no space configured")
	}

	user := viper.GetString("user")
	password := viper.GetString("password")
	if user != "" && password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Password for %s: ", user)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return nil, err
		}
		password = string(raw)
	}

	return cf_scraper.NewClient(server, space, user, password), nil
}
