package main

import (
	"os"

	"github.com/conceptclarity/clarity/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
