// Package main provides the main entry point for the Ideas Central admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"ideascentral/cmd/adm/commands"
	"ideascentral/internal/config"
	"ideascentral/internal/di"
	"ideascentral/internal/observability"
	"ideascentral/internal/version"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	if os.Getenv(config.ConfigFileEnv) == "" {
		defaultPaths := []string{
			"../config.yaml",
			"../../config.yaml",
			"config.yaml",
		}
		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv(config.ConfigFileEnv, path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set %s: %v\n", config.ConfigFileEnv, err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg.Server.LogLevel = "error"

	// Disable all OpenTelemetry features for admin CLI to avoid connection errors
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "ideas-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize services: %v\n", err)
		os.Exit(1)
	}

	rootCmd, err := newRootCommand(container)
	if err == nil {
		err = rootCmd.ExecuteContext(ctx)
	}

	if shutdownErr := container.Shutdown(ctx); shutdownErr != nil {
		logger.Warn(ctx, "Failed to close store", map[string]interface{}{"error": shutdownErr.Error()})
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(container di.ServiceContainerInterface) (*cobra.Command, error) {
	authService, err := container.GetAuthService()
	if err != nil {
		return nil, err
	}
	records, err := container.GetRecordService()
	if err != nil {
		return nil, err
	}
	classifier, err := container.GetClassifier()
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Ideas Central Administration Tool",
		Long: `Ideas Central Administration Tool

Manages accounts and inspects the configured store. Point it at the postgres backend;
the memory backend starts empty on every run.`,
		Version:      version.Get("ideas-admin").String(),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	logger := container.GetLogger()
	rootCmd.AddCommand(commands.UserCommands(authService, logger))
	rootCmd.AddCommand(commands.DatabaseCommands(container.GetConfig(), authService, records, logger))
	rootCmd.AddCommand(commands.ClassifyCommand(classifier))

	return rootCmd, nil
}
