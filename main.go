package main

import (
	"os"

	"github.com/dagr-org/dagr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
