package main

import (
	"github.com/smallbiznis/invoicegen/internal/auth"
	"github.com/smallbiznis/invoicegen/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			coreModules(),
			auth.Module,
			server.Module,
		)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
