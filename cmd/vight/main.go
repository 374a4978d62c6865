package main

import (
	"os"

	"github.com/axiomata/vight/cmd/vight/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
