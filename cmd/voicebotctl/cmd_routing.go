package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/handoff"

	"github.com/spf13/cobra"
)

func init() {
	provisionCmd.Flags().BoolVar(&provisionYes, "yes", false, "confirm deletion of the existing workspace")
	rootCmd.AddCommand(provisionCmd)
}

var provisionYes bool

var provisionCmd = &cobra.Command{
	Use:   "provision-routing",
	Short: "Recreate the TaskRouter workspace, workers, queues and workflow",
	Long: "Deletes any workspace with the configured name and builds a fresh one.\n" +
		"AGENT_NUMBERS supplies the Alice and Bob contact numbers, HOST the callback base URL.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !provisionYes {
			return errors.New("provision-routing deletes the existing workspace; rerun with --yes")
		}
		numbers := loaded.Routing.AgentNumbers
		if len(numbers) < 2 {
			return errors.New("AGENT_NUMBERS must list two numbers")
		}

		client, err := handoff.NewTaskRouterClient(loaded.Twilio.AccountSID, loaded.Twilio.AuthToken, 30*time.Second)
		if err != nil {
			return err
		}
		ws, err := handoff.Provision(cmd.Context(), client, handoff.ProvisionConfig{
			WorkspaceName: loaded.Routing.WorkspaceName,
			Host:          loaded.Routing.Host,
			AliceNumber:   numbers[0],
			BobNumber:     numbers[1],
		})
		if err != nil {
			return fmt.Errorf("provision: %w", err)
		}
		slog.Info("workspace provisioned", "workspace_sid", ws.SID, "workflow_sid", ws.WorkflowSID)
		fmt.Fprintf(cmd.OutOrStdout(), "workspace %s workflow %s\n", ws.SID, ws.WorkflowSID)
		return nil
	},
}
