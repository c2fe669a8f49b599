package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/worduel/internal/api/sse"
	"github.com/mcoot/worduel/internal/model"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var until string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Open your event stream",
		Long: `Connect to the event stream and print events as they arrive.

The stream authenticates with your token and stays open for the whole
session. Closing it forfeits any match in progress.

Events include:
  - connected, authenticated, auth_error
  - searching, search_cancelled, match_found, match_start
  - guess_result, opponent_guess, invalid_word
  - round_end, round_start (duel)
  - sprint_word_solved, sprint_word_failed, sprint_opponent_solved (sprint)
  - match_end, error

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout(), jsonOutput, until)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&until, "until", "", "Disconnect after this event (e.g. match_end)")

	return cmd
}

// SSEEvent is one printed stream event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, jsonOutput bool, until string) error {
	resp, err := client.Stream(ctx, "/api/v1/events")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	reader := sse.NewReader(resp.Body)
	for {
		event, err := reader.Next()
		if err != nil {
			// Interrupts and server hangups end the stream normally
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				if !jsonOutput {
					_, _ = fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		printEvent(w, event, jsonOutput)

		if event.Name == model.EventAuthError {
			var payload model.AuthErrorPayload
			_ = event.Decode(&payload)
			return fmt.Errorf("authentication failed: %s", payload.Message)
		}
		if until != "" && event.Name == until {
			return nil
		}
	}
}

func printEvent(w io.Writer, event sse.Event, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event.Name,
			Data:  json.RawMessage(event.Data),
		}
		if !json.Valid(evt.Data) {
			evt.Data, _ = json.Marshal(event.Data)
		}
		jsonData, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	if summary := summarize(event); summary != "" {
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event.Name, summary)
		return
	}

	// Truncate data if it's too long for display
	displayData := strings.ReplaceAll(event.Data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event.Name, displayData)
}

// summarize renders the events a player acts on; others print raw
func summarize(event sse.Event) string {
	switch event.Name {
	case model.EventConnected:
		var p model.ConnectedPayload
		if event.Decode(&p) == nil {
			return "connection " + string(p.ConnectionID)
		}
	case model.EventMatchFound:
		var p model.MatchFoundPayload
		if event.Decode(&p) == nil {
			return fmt.Sprintf("%s vs %s (%d, %s) for %d", p.Mode, p.Opponent.Username, p.Opponent.Rating, p.Opponent.Rank, p.Pot)
		}
	case model.EventGuessResult:
		var p model.GuessResultPayload
		if event.Decode(&p) == nil {
			return fmt.Sprintf("#%d %s %s", p.GuessNumber, p.Word, verdictTiles(p.Verdicts))
		}
	case model.EventOpponentGuess:
		var p model.OpponentGuessPayload
		if event.Decode(&p) == nil {
			return fmt.Sprintf("#%d %s", p.GuessNumber, verdictTiles(p.Verdicts))
		}
	case model.EventMatchEnd:
		var p model.MatchEndPayload
		if event.Decode(&p) == nil {
			outcome := "lost"
			if p.Won {
				outcome = "won"
			}
			return fmt.Sprintf("%s by %s, %+d coins, %+d rating (now %d, %s)",
				outcome, p.Reason, p.Winnings, p.RatingChange, p.NewRating, p.NewRank)
		}
	}
	return ""
}

// verdictTiles renders verdicts as G (correct), Y (present) and . (absent)
func verdictTiles(verdicts []model.Verdict) string {
	var b strings.Builder
	for _, v := range verdicts {
		switch v {
		case model.VerdictCorrect:
			b.WriteByte('G')
		case model.VerdictPresent:
			b.WriteByte('Y')
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}
