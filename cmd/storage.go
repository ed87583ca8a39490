package cmd

import (
	"fmt"
	"time"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagPruneOlderThan string
	flagHistoryLimit   int
)

// openStore opens only the local database; these commands never reach the API.
func openStore() (*config.Config, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return cfg, db, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent changes made from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.Recent(flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(w, "No activity recorded.")
			return nil
		}
		for _, a := range entries {
			result := "ok"
			if !a.OK {
				result = "FAILED"
			}
			fmt.Fprintf(w, "%s  %-6s  %-6s  %-24s  %s\n",
				a.At.Local().Format("2006-01-02 15:04"), a.Op, result, a.ArticleID, article.Truncate(a.Title, 40))
			if a.Detail != "" {
				fmt.Fprintf(w, "    %s\n", a.Detail)
			}
		}
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old entries from the activity log",
	Long: `Delete activity log entries older than the retention period and reclaim disk space.

Uses history_retention from config (default: 90d) unless overridden with --older-than.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseSince(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		w := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(w, "Nothing to prune.")
		} else {
			fmt.Fprintf(w, "Pruned %d activity entries older than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local store statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		dbPath := cfg.StorePath()
		count, size, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Store: %s\n", dbPath)
		fmt.Fprintf(w, "Activity entries: %d\n", count)
		fmt.Fprintf(w, "Size: %s\n", formatBytes(size))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "number of entries to show")
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")
}

func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
