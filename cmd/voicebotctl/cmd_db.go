package main

import (
	"fmt"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/storage"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample customer, loan and EMI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.Seed(cmd.Context(), db, time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded customer %s (account %s, phone %s)\n",
			storage.SampleCustomerID, storage.SampleAccountID, storage.SamplePhone)
		return nil
	},
}
