package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/smallbiznis/invoicegen/internal/config"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/usercontext"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	renderUser   string
	renderFormat string
	renderOut    string
	renderStatus string
)

var renderCmd = &cobra.Command{
	Use:   "render [invoice-id...]",
	Short: "Render invoices to files",
	Long: `Renders a user's invoices to PDF or HTML, one file per invoice, into the
output directory. With no ids every invoice of the user is rendered.`,
	Example: `  invoicer render --user user-1
  invoicer render --user user-1 --format html --out ./html 1790512345678901248`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderUser, "user", "", "owner of the invoices [required]")
	renderCmd.Flags().StringVar(&renderFormat, "format", "", "pdf or html (defaults to rendering.format)")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output directory (defaults to rendering.output_dir)")
	renderCmd.Flags().StringVar(&renderStatus, "status", "", "only render invoices in this status")
	_ = renderCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var (
		svc invoicedomain.Service
		cfg config.Config
		log *zap.Logger
	)
	app := fx.New(coreModules(), fx.NopLogger, fx.Populate(&svc, &cfg, &log))
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

	format := firstNonEmpty(renderFormat, cfg.RenderFormat)
	outDir := firstNonEmpty(renderOut, cfg.RenderOutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx = usercontext.WithUserID(ctx, renderUser)
	ids := args
	if len(ids) == 0 {
		resp, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: renderStatus})
		if err != nil {
			return err
		}
		for _, inv := range resp.Invoices {
			ids = append(ids, inv.ID.String())
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no invoices to render")
		return nil
	}

	bar := progressbar.NewOptions(len(ids),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Rendering invoices"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var failed int
	for _, id := range ids {
		doc, err := svc.Render(ctx, id, format)
		if err == nil {
			err = os.WriteFile(filepath.Join(outDir, doc.Filename), doc.Body, 0o644)
		}
		if err != nil {
			failed++
			log.Warn("render failed", zap.String("invoice_id", id), zap.Error(err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "\nrendered %d of %d invoice(s) into %s\n", len(ids)-failed, len(ids), outDir)
	if failed > 0 {
		return fmt.Errorf("%d invoice(s) failed to render", failed)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
