package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player profile commands",
	}

	cmd.AddCommand(newPlayerLoginCmd())
	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerHistoryCmd())

	return cmd
}

func newPlayerLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Verify a session token and save it for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			client.SetToken(token)
			var result model.ProfileView
			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show current player profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result model.ProfileView

			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent settled matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MatchHistory

			path := fmt.Sprintf("/api/v1/players/me/matches?limit=%d", limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of matches to show (1-100)")

	return cmd
}
