package main

import (
	"os"

	"git.skobk.in/skobkin/dota2-notify-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
