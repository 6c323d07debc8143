package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeffersonwarrior/reqcore/storage"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := storage.OpenHistory(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer hist.Close()

			entries, err := hist.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			switch format {
			case "markdown", "md":
				return storage.WriteMarkdown(a.stdout, entries)
			case "table", "":
				return a.writeHistoryTable(entries)
			default:
				return fmt.Errorf("unknown format %q (want table or markdown)", format)
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of calls to show")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or markdown")
	return cmd
}

func (a *app) writeHistoryTable(entries []storage.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No calls recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMETHOD\tSTATUS\tDURATION\tURL\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dms\t%s\t%s\n",
			humanize.Time(e.CreatedAt), e.Method, e.Status, e.DurationMS, e.URL, e.Error)
	}
	return tw.Flush()
}
