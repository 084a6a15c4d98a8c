package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/eor-ics/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult summarizes one calendar run
type OutputResult struct {
	GeneratedAt time.Time              `json:"generated_at"`
	OutputPath  string                 `json:"output_path"`
	EventCount  int                    `json:"event_count"`
	Placeholder bool                   `json:"placeholder,omitempty"`
	Events      []*event.Event         `json:"events"`
	Metrics     map[string]interface{} `json:"metrics,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	switch {
	case result.Placeholder:
		fmt.Fprintf(w, "No events found; wrote placeholder calendar to %s\n", result.OutputPath)
		return nil
	case result.EventCount == 0:
		fmt.Fprintf(w, "No events found; wrote empty calendar to %s\n", result.OutputPath)
		return nil
	}

	for _, evt := range result.Events {
		date := evt.DateText
		if date == "" {
			date = "date unknown"
		}
		fmt.Fprintf(w, "%s (%s)\n", evt.Title, date)
		if verbose {
			fmt.Fprintf(w, "     Link: %s\n", evt.Link)
			if evt.Location != "" {
				fmt.Fprintf(w, "     Location: %s\n", evt.Location)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events written to %s\n", result.EventCount, result.OutputPath)

	return nil
}
