package main

import (
	"log"

	"github.com/lmeunier/confarc/cli"
)

func main() {
	confarcCmd := cli.NewCommand()
	if err := confarcCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
