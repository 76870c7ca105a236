package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/phasehours/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Config, logging, database and services are wired by the root command
	// once flags are parsed.
	app := &cli.App{}
	rootCmd := cli.NewRootCmd(app)
	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := app.Close(context.Background()); err == nil {
		err = closeErr
	}
	return err
}
