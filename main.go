// Command quarry is a local-first document knowledge base.
// It ingests documents into vector collections and retrieves
// relevant passages for search and grounded drafting.
package main

import (
	"os"

	"github.com/custodia-labs/quarry/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
