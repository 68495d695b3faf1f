// Command finsight analyzes SME financial statement exports from the
// command line and can serve the HTTP API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
