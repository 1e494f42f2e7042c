package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicegen/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var seedUser string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo settings and a client for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			conn *gorm.DB
			node *snowflake.Node
		)
		app := fx.New(coreModules(), fx.NopLogger, fx.Populate(&conn, &node))
		if err := app.Err(); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = app.Stop(context.Background()) }()

		if err := seed.EnsureDemoWorkspace(ctx, conn, node, seedUser); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "demo workspace ready for %s\n", seedUser)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUser, "user", "", "user to seed [required]")
	_ = seedCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(seedCmd)
}
