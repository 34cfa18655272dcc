// Package main is the entry point for the compliance-checks CLI binary.
package main

import (
	"os"

	cli "github.com/dograga/compliance-checks/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
