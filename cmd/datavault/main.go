// Package main provides the datavault CLI.
package main

import (
	"os"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
