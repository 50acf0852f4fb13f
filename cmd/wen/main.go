// ABOUTME: Entry point for the wen CLI
// ABOUTME: Tear the daily scroll, check status and browse history

package main

import (
	"os"

	"github.com/2389/wen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
