package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/geo-authority/internal/bootstrap"
	"github.com/bryanwahyu/geo-authority/internal/config"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// terminal colors
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgMagenta, color.Bold)
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "geoctl",
		Short: "Run GEO visibility evaluations from the terminal",
		Long: `geoctl talks to the same backend as the dashboard API. It lists
companies and projects, runs the analyze / generate / ask pipeline for one
project and writes the spreadsheet report.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigPath(), "Configuration file path")

	// wiring is deferred until a command actually runs
	open := func(cmd *cobra.Command) (*bootstrap.App, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		observability.InitLogger("geoctl", cfg.Log.Env, cfg.Log.Level)
		return bootstrap.Build(cmd.Context(), cfg)
	}

	rootCmd.AddCommand(
		companiesCmd(open),
		projectsCmd(open),
		runCmd(open),
	)

	// Ctrl-C cancels a running evaluation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		errorColor.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}
