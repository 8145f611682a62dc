package main

import (
	"os"

	"github.com/talentbridge/talentbridge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
