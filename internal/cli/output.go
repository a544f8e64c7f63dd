package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mcoot/numberguess/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
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

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case response.Round:
		o.printRound(v)
	case response.Ranking:
		o.printRanking(v)
	case response.History:
		o.printHistory(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRound(r response.Round) {
	state := "active"
	if !r.Active {
		state = "between rounds"
	}
	fmt.Fprintf(o.w, "Round: %d\n", r.Number)
	fmt.Fprintf(o.w, "Range: %d-%d\n", r.Min, r.Max)
	fmt.Fprintf(o.w, "State: %s\n", state)
}

func (o *Output) printRanking(r response.Ranking) {
	if len(r.Players) == 0 {
		fmt.Fprintln(o.w, "No players connected")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSCORE")
	for _, p := range r.Players {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", p.Position, p.Name, p.Score)
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h response.History) {
	if len(h.Rounds) == 0 {
		fmt.Fprintln(o.w, "No rounds won yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tWINNER\tSECRET\tATTEMPTS\tPOINTS\tWON AT")
	for _, r := range h.Rounds {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			r.Round, r.Winner, r.Secret, r.Attempts, r.Points, r.WonAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
	if h.Total > len(h.Rounds) {
		fmt.Fprintf(o.w, "Showing %d of %d rounds\n", len(h.Rounds), h.Total)
	}
}
