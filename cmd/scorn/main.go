package main

import (
	"os"

	"github.com/scornlab/scorn/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
