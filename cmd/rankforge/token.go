package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rankforge/rankforge/internal/auth"
	"github.com/rankforge/rankforge/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenUserID string
	tokenEmail  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Long:  "Signs a bearer token for the given user with the configured signing secret. Intended for local development and API exploration.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User ID (sub claim, required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "User email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenUserID == "" {
		return errors.New("--user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Auth.SigningSecret == "" {
		return errors.New("RANKFORGE_SIGNING_SECRET is required to mint tokens")
	}

	verifier := auth.NewVerifier(cfg.Auth.SigningSecret)
	token, err := verifier.Mint(auth.Identity{UserID: tokenUserID, Email: tokenEmail}, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
