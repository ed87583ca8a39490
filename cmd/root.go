package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagAPIURL string
)

var rootCmd = &cobra.Command{
	Use:   "blogdesk",
	Short: "Terminal client for the blog article API",
	Long: `blogdesk lists, reads, creates, edits and deletes articles on a blog API.

Run without arguments to open the interactive view, or use the subcommands
for scripted access.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadDotEnv,
	RunE:              runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API base URL (overrides config and BLOGDESK_API_URL)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd, uploadCmd, healthCmd)
	rootCmd.AddCommand(historyCmd, pruneCmd, statsCmd)
}

// loadDotEnv reads .env from the working directory. Variables already set
// in the environment win.
func loadDotEnv(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blogdesk %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
