package serve

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/lmeunier/confarc/configuration"
)

var (
	addr string
)

func NewCommand() *cobra.Command {
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local archive over HTTP",
		Run:   runServeCommand,
	}

	serveCommand.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")

	return serveCommand
}

func runServeCommand(cmd *cobra.Command, args []string) {
	root, err := configuration.ArchiveRoot()
	if err != nil {
		log.Fatal(err)
	}

	router := mux.NewRouter()
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(root)))

	fmt.Printf("Serving %s on http://%s/\n", root, addr)
	log.Fatal(http.ListenAndServe(addr, router))
}
