package main

import (
	"os"

	"defter/cmd/defterctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
