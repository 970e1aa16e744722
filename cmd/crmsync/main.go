package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vitrine-labs/crmsync/internal/cli"
)

func main() {
	// Best effort: a missing .env just means config comes from the
	// process environment.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
