package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nguyenvanduocit/indictrans/pkg/store"
)

var History = &cobra.Command{
	Use:   "history",
	Short: "Show recorded translations",
	Long:  `List, summarise and clear the SQLite translation history. Recording is enabled by setting history.path.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := db.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No translations recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tPAIR\tOK\tMS\tTEXT\tRESULT")
		for _, e := range entries {
			result := e.TranslatedText
			if !e.Success {
				result = "error: " + e.Error
			}
			fmt.Fprintf(w, "%s\t%s->%s\t%v\t%d\t%s\t%s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.SourceLang, e.TargetLang, e.Success, e.DurationMS,
				snippet(e.SourceText, 40), snippet(result, 40))
		}
		return w.Flush()
	},
}

var historyStats = &cobra.Command{
	Use:   "stats",
	Short: "Show history statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total:        %d\n", stats.Total)
		fmt.Fprintf(out, "Succeeded:    %d\n", stats.Succeeded)
		fmt.Fprintf(out, "Failed:       %d\n", stats.Failed)
		fmt.Fprintf(out, "Avg duration: %.0fms\n", stats.AvgDurationMS)
		return nil
	},
}

var historyClear = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded translations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries.\n", n)
		return nil
	},
}

func init() {
	History.PersistentFlags().String("db", "", "database path (overrides history.path)")
	History.Flags().IntP("limit", "n", 20, "number of entries to show, 0 for all")

	History.AddCommand(historyStats)
	History.AddCommand(historyClear)
}

func openHistory(cmd *cobra.Command) (*store.Store, error) {
	path := cfg.History.Path
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		path = v
	}
	if path == "" {
		return nil, errors.New("no history database: set history.path or pass --db")
	}

	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
