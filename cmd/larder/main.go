// Command larder imports and exports item forests as CSV blocks.
package main

import (
	"os"

	"github.com/mesh-intelligence/larder/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
