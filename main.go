package main

import (
	_ "time/tzdata"

	"github.com/feyndora/backend/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
