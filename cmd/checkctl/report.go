package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

func newPendingCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List reports awaiting approval, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			pending, err := a.reports.ListPending(cmd.Context())
			if err != nil {
				return describe("pending", err)
			}

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "No reports awaiting approval")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tEQUIPMENT\tOPERATOR\tCONDITION\tDISPOSITION")
			for _, p := range pending {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.CreatedAt.In(a.cfg.Location).Format("2006-01-02 15:04"),
					p.EquipmentCode, p.OperatorName, p.Condition.Label(), p.Disposition.Label())
			}
			return tw.Flush()
		},
	}
}

func newSummaryCmd(open opener) *cobra.Command {
	var (
		preset     string
		start, end string
		pdfPath    string
		supervisor string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the management summary of a date range",
		Long: `Aggregates the reports created in a range of calendar days.

--range takes daily, weekly, monthly or all. --start and --end (YYYY-MM-DD)
select an explicit range instead. --pdf also writes the management report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			today := domain.DateOf(time.Now(), a.cfg.Location)
			rng, err := domain.ParseRange(preset, start, end, today)
			if err != nil {
				return describe("summary", err)
			}

			s, err := a.reports.Summarize(cmd.Context(), rng)
			if err != nil {
				return describe("summary", err)
			}
			printSummary(cmd, rng, s)

			if pdfPath == "" {
				return nil
			}
			doc, err := a.reports.RenderSummaryDocument(cmd.Context(), rng, supervisor)
			if err != nil {
				return describe("summary", err)
			}
			if err := os.WriteFile(pdfPath, doc.Data, 0o644); err != nil {
				return fmt.Errorf("summary: write %s: %w", pdfPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s (%d bytes)\n", pdfPath, len(doc.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "range", domain.RangeWeekly, "daily, weekly, monthly or all")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write the management report to this file")
	cmd.Flags().StringVar(&supervisor, "supervisor", "", "name printed on the management report")
	return cmd
}

func printSummary(cmd *cobra.Command, rng domain.DateRange, s *domain.Summary) {
	out := cmd.OutOrStdout()

	if rng.IsAllTime() {
		fmt.Fprintln(out, "Range: all time")
	} else {
		fmt.Fprintf(out, "Range: %s to %s\n", rng.Start.Format(domain.DateLayout), rng.End.Format(domain.DateLayout))
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Reports\t%d\n", s.Total)
	fmt.Fprintf(tw, "Operators\t%d\n", s.DistinctOperators)
	fmt.Fprintf(tw, "Equipment inspected\t%d of %d\n", s.EquipmentWithSubmission, s.CatalogSize)
	fmt.Fprintf(tw, "Reports with faults\t%d\n", s.FaultCount)
	for _, d := range domain.Dispositions {
		fmt.Fprintf(tw, "%s\t%d\n", d.Label(), s.Dispositions[d])
	}
	_ = tw.Flush()

	if top := domain.Top(s.TopEquipment, 5); len(top) > 0 {
		fmt.Fprintln(out, "\nMost inspected:")
		for _, e := range top {
			fmt.Fprintf(out, "  %-28s %d\n", e.Label, e.Count)
		}
	}
	if len(s.Idle) > 0 {
		fmt.Fprintln(out, "\nNot inspected:")
		for _, e := range s.Idle {
			fmt.Fprintf(out, "  %s  %s\n", e.Code, e.Name)
		}
	}
}
