// Command hypha-artifact transfers files to and from Hypha artifacts.
package main

import (
	"os"

	"github.com/aicell-lab/hypha-artifact/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
