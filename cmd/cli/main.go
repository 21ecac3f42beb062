// actilog analyzes activity server logs and smoke tests deployed activities.
package main

import (
	"os"

	"github.com/c4r-dev/actilog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
