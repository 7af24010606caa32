package main

import (
	"fmt"
	"os"

	"github.com/medkb-labs/icdassist/internal/adapters/driving/cli"
)

// version is overridden at build time via
// -ldflags "-X main.version=v...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
