package main

import (
	"os"

	"stockwatch/cmd/stockwatchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
