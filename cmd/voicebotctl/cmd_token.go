package main

import (
	"fmt"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/auth"
	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/rbac"

	"github.com/spf13/cobra"
)

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", rbac.RoleOperator, "operator role (operator, supervisor, admin)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime; defaults to JWT_ACCESS_TTL")
	rootCmd.AddCommand(tokenCmd)
}

var (
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <operator-id>",
	Short: "Issue an access token for the ops API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !rbac.Valid(tokenRole) {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		m, err := auth.NewManager(loaded.Auth)
		if err != nil {
			return err
		}
		tok, err := m.IssueTTL(time.Now(), args[0], tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}
