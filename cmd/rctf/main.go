// Package main is the entry point for the rctf client.
package main

import (
	"os"

	"github.com/DarinMao/rctf-client/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
