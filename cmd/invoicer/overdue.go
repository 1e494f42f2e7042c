package main

import (
	"context"
	"fmt"

	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var overdueUser string

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Mark sent and partially paid invoices past their due date as overdue",
	Long: `Recomputes overdue status once and exits. Listing invoices through the API
does the same lazily; this command is meant for cron.

Without --user every user's invoices are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			svc invoicedomain.Service
			log *zap.Logger
		)
		app := fx.New(coreModules(), fx.NopLogger, fx.Populate(&svc, &log))
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

		ctx = usercontext.WithUserID(ctx, overdueUser)
		marked, err := svc.RefreshOverdue(ctx)
		if err != nil {
			return err
		}
		log.Info("overdue refresh complete", zap.Int64("marked", marked))
		fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", marked)
		return nil
	},
}

func init() {
	overdueCmd.Flags().StringVar(&overdueUser, "user", "", "only check this user's invoices")
	rootCmd.AddCommand(overdueCmd)
}
