package main

import (
	"os"

	"github.com/atlasdatatech/arctile/internal/log"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
