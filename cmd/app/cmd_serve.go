package main

import (
	"fmt"

	"IndexImpact/internal/di"

	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API with the scheduled refresh
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve impact reports over HTTP and refresh them on a schedule",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	// Run application (blocks until signal)
	return app.Run(cmd.Context())
}
