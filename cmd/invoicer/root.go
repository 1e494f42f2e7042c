package main

import (
	"fmt"
	"os"

	"github.com/smallbiznis/invoicegen/internal/client"
	"github.com/smallbiznis/invoicegen/internal/clock"
	"github.com/smallbiznis/invoicegen/internal/config"
	"github.com/smallbiznis/invoicegen/internal/dashboard"
	"github.com/smallbiznis/invoicegen/internal/invoice"
	"github.com/smallbiznis/invoicegen/internal/migration"
	"github.com/smallbiznis/invoicegen/internal/observability/logger"
	"github.com/smallbiznis/invoicegen/internal/observability/metrics"
	"github.com/smallbiznis/invoicegen/internal/observability/tracing"
	"github.com/smallbiznis/invoicegen/internal/payment"
	"github.com/smallbiznis/invoicegen/internal/settings"
	"github.com/smallbiznis/invoicegen/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "invoicer",
	Short:         "Invoicing API and batch tools",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "invoicer: %v\n", err)
		os.Exit(1)
	}
}

// coreModules wires everything but the HTTP server.
func coreModules() fx.Option {
	return fx.Options(
		fx.Supply(config.Path(configPath)),
		config.Module,
		logger.Module,
		tracing.Module,
		metrics.Module,
		db.Module,
		migration.Module,
		clock.Module,
		client.Module,
		settings.Module,
		payment.Module,
		invoice.Module,
		dashboard.Module,
	)
}
