package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/replay"
)

func classifyCommand(c *cli) *cobra.Command {
	var format string
	var eventsOnly bool

	cmd := &cobra.Command{
		Use:   "classify [frames.jsonl]",
		Short: "Replay recorded landmarks through the recognizer",
		Long: `Replay a JSON-lines landmark recording through the recognizer and print
each frame's classification and the resulting gesture changes. Use - to read
from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return classify(in, cmd.OutOrStdout(), format, eventsOnly)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json")
	cmd.Flags().BoolVar(&eventsOnly, "events", false, "Print only gesture changes")
	return cmd
}

// classifyRecord is one line of json output.
type classifyRecord struct {
	Frame      int           `json:"frame"`
	OffsetMS   int64         `json:"t"`
	Hand       bool          `json:"hand"`
	Label      gesture.Label `json:"label,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Stable     gesture.Label `json:"stable,omitempty"`
	Event      *gesture.View `json:"event,omitempty"`
}

func classify(in io.Reader, out io.Writer, format string, eventsOnly bool) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	frames, err := replay.ReadAll(in)
	if err != nil {
		return err
	}

	start := time.Unix(0, 0).UTC()
	steps, err := replay.Run(gesture.NewPipeline(), frames, start)
	if err != nil {
		return err
	}

	records := make([]classifyRecord, 0, len(steps))
	for _, s := range steps {
		if eventsOnly && !s.Result.Changed {
			continue
		}
		records = append(records, newClassifyRecord(s, start))
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tT(ms)\tLABEL\tCONF\tSTABLE\tCHANGE")
	for _, r := range records {
		label := "-"
		if r.Hand {
			label = string(r.Label)
		}
		stable := "-"
		if r.Stable != "" {
			stable = string(r.Stable)
		}
		change := ""
		if r.Event != nil {
			change = fmt.Sprintf("%s -> %s", orNone(r.Event.From), orNone(r.Event.To))
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%s\t%s\n", r.Frame, r.OffsetMS, label, r.Confidence, stable, change)
	}
	return tw.Flush()
}

func newClassifyRecord(s replay.Step, start time.Time) classifyRecord {
	r := classifyRecord{
		Frame:    s.Index,
		OffsetMS: s.At.Sub(start).Milliseconds(),
		Hand:     s.Result.Hand,
	}
	if s.Result.Hand {
		r.Label = s.Result.Frame.Label
		r.Confidence = s.Result.Frame.Confidence
	}
	if s.Result.Settled {
		r.Stable = s.Result.Stable.Label
	}
	if s.Result.Changed {
		v := gesture.NewView(s.Result.Event)
		r.Event = &v
	}
	return r
}

func orNone(l gesture.Label) string {
	if l == "" {
		return "none"
	}
	return string(l)
}
