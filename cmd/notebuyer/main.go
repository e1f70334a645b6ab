package main

import (
	"os"

	"github.com/rustyeddy/notebuyer/cmd/notebuyer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
