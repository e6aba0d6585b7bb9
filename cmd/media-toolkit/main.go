// Command media-toolkit fetches remote media and converts local files from
// the terminal, using the same job runner as the desktop app.
package main

import (
	"os"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
