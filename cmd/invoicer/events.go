package main

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/invoicegen/internal/events"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	eventsUser   string
	eventsLimit  int
	eventsDryRun bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Relay pending invoice events to stdout as JSON lines",
	Long: `Writes undelivered invoice events, oldest first, one JSON object per line,
then marks them delivered. Pipe the output into whatever consumes them.

With --dry-run the events are printed but stay pending.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			outbox *events.Outbox
			log    *zap.Logger
		)
		app := fx.New(coreModules(), fx.NopLogger, fx.Populate(&outbox, &log))
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

		pending, err := outbox.Pending(ctx, eventsUser, eventsLimit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, rec := range pending {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		if eventsDryRun {
			return nil
		}

		marked, err := outbox.MarkPublished(ctx, lo.Map(pending, func(r events.Record, _ int) snowflake.ID {
			return r.ID
		}))
		if err != nil {
			return err
		}
		log.Info("events relayed", zap.Int("pending", len(pending)), zap.Int64("marked", marked))
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsUser, "user", "", "only relay this user's events")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 100, "maximum events to relay in one run")
	eventsCmd.Flags().BoolVar(&eventsDryRun, "dry-run", false, "print events without marking them delivered")
	rootCmd.AddCommand(eventsCmd)
}
