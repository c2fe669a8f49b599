package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mcoot/worduel/internal/api/response"
	"github.com/mcoot/worduel/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case model.ProfileView:
		o.printProfile(v)
	case response.MatchHistory:
		o.printHistory(v)
	case response.Accepted:
		fmt.Fprintf(o.w, "Request %s, watch your event stream\n", v.Status)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printProfile(p model.ProfileView) {
	fmt.Fprintf(o.w, "Player: %s\n", p.Username)
	fmt.Fprintf(o.w, "Balance: %d\n", p.Balance)
	fmt.Fprintf(o.w, "Rating: %d (%s)\n", p.Rating, p.Rank)
	fmt.Fprintf(o.w, "Record: %d won of %d\n", p.GamesWon, p.GamesPlayed)
}

func (o *Output) printHistory(h response.MatchHistory) {
	if len(h.Matches) == 0 {
		fmt.Fprintln(o.w, "No matches played")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDED\tMODE\tOPPONENT\tRESULT\tREASON\tCOINS\tRATING\tWORD")
	for _, m := range h.Matches {
		result := "lost"
		if m.Won {
			result = "won"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%+d\t%+d\t%s\n",
			m.EndedAt.Format("2006-01-02 15:04"), m.Mode, m.Opponent, result, m.Reason,
			m.Stake, m.RatingChange, m.Word)
	}
	_ = tw.Flush()
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Players online: %d\n", h.UsersOnline)
	fmt.Fprintf(o.w, "Active matches: %d\n", h.ActiveMatches)
	fmt.Fprintf(o.w, "Searching: %d\n", h.QueueSize)
}
