package main

import (
	"os"

	"github.com/dshills/patchdiff/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
