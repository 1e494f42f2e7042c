package main

import (
	"fmt"
	"time"

	"github.com/smallbiznis/invoicegen/internal/auth"
	"github.com/smallbiznis/invoicegen/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	tokenUser  string
	tokenEmail string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret must be set to mint tokens the server accepts")
		}
		verifier, err := auth.NewVerifier(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		token, err := verifier.Sign(auth.Identity{UserID: tokenUser, Email: tokenEmail}, time.Now(), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "token subject [required]")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
