package main

import (
	"fmt"

	"github.com/jonathan/policy-generator/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	hashKeyCost  int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for auth.mode jwt",
	RunE:  runToken,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key KEY",
	Short: "Print a bcrypt hash for auth.api_key_hashes",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashKey,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Subject to embed in the token (required)")
	_ = tokenCmd.MarkFlagRequired("subject")
	hashKeyCmd.Flags().IntVar(&hashKeyCost, "cost", server.DefaultAPIKeyCost, "bcrypt cost")
	rootCmd.AddCommand(tokenCmd, hashKeyCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required to issue tokens")
	}
	expiration := cfg.Auth.JWTExpirationHours
	if expiration < 1 {
		expiration = 24
	}

	token, err := server.NewJWTService(cfg.Auth.JWTSecret, expiration).GenerateToken(tokenSubject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func runHashKey(cmd *cobra.Command, args []string) error {
	hash, err := server.HashAPIKey(args[0], hashKeyCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
