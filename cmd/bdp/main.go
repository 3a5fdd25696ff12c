// Command bdp is the asset orchestration CLI.
package main

import (
	"os"

	"github.com/barefootlabs/bdp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
