package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/worduel/internal/api/request"
	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/model"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Matchmaking and guessing commands",
		Long: `Matchmaking and guessing commands.

These commands need an open event stream ("worduel events"). Results such as
match_found and guess_result are delivered there, not printed here.`,
	}

	cmd.AddCommand(newMatchSearchCmd())
	cmd.AddCommand(newMatchCancelCmd())
	cmd.AddCommand(newMatchGuessCmd())

	return cmd
}

func newMatchSearchCmd() *cobra.Command {
	var stake int
	var mode string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode = strings.ToLower(mode)
			if !model.Mode(mode).Valid() {
				return fmt.Errorf("--mode must be duel or sprint")
			}

			req := request.FindMatchRequest{Stake: stake, Mode: mode}
			var result response.Accepted
			if err := client.Post("/api/v1/match/search", req, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&stake, "stake", 50, fmt.Sprintf("Stake to wager (%d-%d)", model.MinStake, model.MaxStake))
	cmd.Flags().StringVar(&mode, "mode", string(model.ModeDuel), "Match mode: duel or sprint")

	return cmd
}

func newMatchCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Stop searching for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/match/search"); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.PrintMessage("Search cancelled")
			return nil
		},
	}
}

func newMatchGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <word>",
		Short: "Submit a guess in the current match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.GuessRequest{Word: args[0]}
			var result response.Accepted
			if err := client.Post("/api/v1/match/guess", req, &result); err != nil {
				return err
			}

			out := NewOutput(cmd.OutOrStdout(), cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
