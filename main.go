package main

import (
	"os"
	_ "time/tzdata"

	"inferno-tracker-bot/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
