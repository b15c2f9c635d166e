package main

import (
	"os"

	"github.com/rill-lang/rill/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
