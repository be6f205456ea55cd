package main

import (
	"os"

	"github.com/SatelliteQE/rendezvous/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
