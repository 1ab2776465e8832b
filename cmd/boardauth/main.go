package main

import (
	"os"

	"github.com/MrEthical07/boardAuth/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
