// Package main implements the entry point for the tasks API server, which
// serves CRUD operations over a CSV-backed task list.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var configFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tasks-api",
		Short:         "tasks-api - HTTP API over a CSV task list",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	addServeFlags(rootCmd.Flags())
	addServeFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

// addServeFlags registers the flags config.WithFlags knows how to bind.
func addServeFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&configFile, "config", "c", "", "Path to a config file (yaml, json or toml)")
	fs.Int("port", config.DefaultPort, "Port to listen on")
	fs.String("store-path", config.DefaultStorePath, "Path to the CSV file backing the task list")
	fs.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.Duration("shutdown-timeout", config.DefaultShutdownTimeout, "Time allowed for in-flight requests on shutdown")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runServe is the command handler shared by the root and serve commands.
func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp(cmd.Flags())
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// initializeApp loads configuration, sets up logging and builds the
// application from flags, environment and the optional config file.
func initializeApp(flags *pflag.FlagSet) (*application, error) {
	cfg, err := config.Load(config.WithConfigFile(configFile), config.WithFlags(flags))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"store_path", cfg.Store.Path)

	app, err := newApplication(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return app, nil
}
