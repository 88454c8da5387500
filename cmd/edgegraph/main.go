package main

import (
	"edgegraph/internal/ui/cli"
	"os"
)

func main() {
	os.Exit(cli.Execute())
}
