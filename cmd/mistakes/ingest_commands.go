package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mistakevault/internal/ingest"
	"mistakevault/internal/llm"
	"mistakevault/internal/service"
	"mistakevault/internal/storage"
	"mistakevault/internal/verifier"
)

func newKeysCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Append blank answer-key rows for inbox images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			report, err := ingest.GenerateKeys(runCtx, ctx.vault.InboxDir())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.wantJSON() {
				return writeJSON(out, report)
			}
			if len(report.Folders) == 0 {
				fmt.Fprintln(out, "No images in the inbox.")
				return nil
			}

			rows := make([][]string, 0, len(report.Folders))
			for _, f := range report.Folders {
				state := "updated"
				if f.Created {
					state = "created"
				}
				rows = append(rows, []string{f.Batch, f.Path, state, strconv.Itoa(len(f.Added))})
			}
			fmt.Fprintln(out, renderTable([]string{"Batch", "Key file", "File", "Rows added"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			fmt.Fprintf(out, "%d rows added. Fill in the answer column, then run ingest.\n", report.AddedCount())
			return nil
		},
	}
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var removeDuplicates bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Move answered inbox images into the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			pipeline := ingest.NewPipeline(ctx.store, ctx.vault, ingest.WithRemoveDuplicates(removeDuplicates))

			report, runErr := pipeline.Run(runCtx)
			if report == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if ctx.wantJSON() {
				if err := writeJSON(out, report); err != nil {
					return err
				}
				return runErr
			}

			if len(report.Ingested) > 0 {
				rows := make([][]string, 0, len(report.Ingested))
				for _, f := range report.Ingested {
					rows = append(rows, []string{f.ID, f.Batch, f.Filename, f.Answer})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Batch", "Original file", "Answer"}, rows, nil))
			}
			if len(report.MissingKey) > 0 {
				rows := make([][]string, 0, len(report.MissingKey))
				for _, f := range report.MissingKey {
					rows = append(rows, []string{f.Batch, f.Path, f.Key})
				}
				fmt.Fprintln(out, "Waiting for an answer in key.csv:")
				fmt.Fprintln(out, renderTable([]string{"Batch", "File", "Key"}, rows, nil))
			}
			if len(report.Duplicates) > 0 {
				rows := make([][]string, 0, len(report.Duplicates))
				for _, f := range report.Duplicates {
					rows = append(rows, []string{f.Batch, f.Path, f.Key})
				}
				fmt.Fprintln(out, "Already in the vault:")
				fmt.Fprintln(out, renderTable([]string{"Batch", "File", "Existing ID"}, rows, nil))
			}

			fmt.Fprintf(out, "Ingested %d, missing key %d, duplicates %d, removed %d.\n",
				len(report.Ingested), len(report.MissingKey), len(report.Duplicates), report.Removed)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&removeDuplicates, "remove-duplicates", false, "Delete inbox files whose content is already vaulted")
	return cmd
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check pending answer keys against the vision model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())

			client := llm.NewClient(ctx.cfg.VisionBaseURL, ctx.cfg.VisionModel, llm.WithTimeout(ctx.cfg.VisionTimeout))
			available, err := client.ModelAvailable(runCtx)
			if err != nil {
				return fmt.Errorf("vision server unreachable at %s: %w", ctx.cfg.VisionBaseURL, err)
			}
			if !available {
				return fmt.Errorf("vision model %q is not installed on %s", ctx.cfg.VisionModel, ctx.cfg.VisionBaseURL)
			}

			v := verifier.New(ctx.store, ctx.vault, client)
			v.SetLimit(limit)
			summary, err := v.Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.wantJSON() {
				return writeJSON(out, summary)
			}

			if len(summary.Results) > 0 {
				rows := make([][]string, 0, len(summary.Results))
				for _, r := range summary.Results {
					detail := r.Computed
					if r.Error != "" {
						detail = r.Error
					}
					rows = append(rows, []string{r.ID, string(r.Status), r.Key, detail})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Status", "Key", "Model answer"}, rows, nil))
			}
			fmt.Fprintf(out, "Pending %d: verified %d, flagged %d, errors %d, skipped %d.\n",
				summary.Pending, summary.Verified, summary.Flagged, summary.Errors, summary.Skipped)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Analyze at most this many records (0 for all)")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.withLogger(cmd.Context())
			svc := service.NewRecordService(ctx.store, nil, ctx.vault, nil)

			stats, err := svc.Stats(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.wantJSON() {
				return writeJSON(out, stats)
			}

			rows := [][]string{
				{"Records", strconv.Itoa(stats.Total)},
				{"With answer", strconv.Itoa(stats.WithAnswer)},
				{"With question text", strconv.Itoa(stats.WithQuestionText)},
				{"Practice attempts", strconv.Itoa(stats.Attempts)},
				{"Correct", strconv.Itoa(stats.Correct)},
				{"Accuracy", fmt.Sprintf("%.0f%%", stats.Accuracy)},
			}
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

			statuses := make([]string, 0, len(stats.ByStatus))
			for s := range stats.ByStatus {
				statuses = append(statuses, string(s))
			}
			sort.Strings(statuses)
			statusRows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				statusRows = append(statusRows, []string{strings.ReplaceAll(s, "_", " "), strconv.Itoa(stats.ByStatus[storage.Status(s)])})
			}
			if len(statusRows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Status", "Records"}, statusRows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}
}
