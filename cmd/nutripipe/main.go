// Package main is the entry point for the nutripipe CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/nutripipe/internal/cli"

	// Register export adapters.
	_ "github.com/leapstack-labs/nutripipe/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/nutripipe/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/nutripipe/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
