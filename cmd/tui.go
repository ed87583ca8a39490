package cmd

import (
	"github.com/blogdesk/blogdesk/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	// Auto-prune the activity log on start
	if n, err := e.db.Prune(e.cfg.RetentionDuration()); err != nil {
		e.log.Warn("pruning activity failed", zap.Error(err))
	} else if n > 0 {
		e.log.Info("pruned activity", zap.Int64("rows", n))
	}

	dark := e.cfg.DarkTheme()
	if saved, err := e.db.Theme(); err != nil {
		e.log.Warn("reading saved theme failed", zap.Error(err))
	} else if saved != "" {
		dark = saved == "dark"
	}

	e.log.Info("starting", zap.String("api", e.client.BaseURL()), zap.String("version", version))
	return tui.Run(tui.RunOpts{
		API:            e.client,
		Prefs:          e.db,
		Logger:         e.log,
		BaseURL:        e.client.BaseURL(),
		ImageLink:      e.cfg.ImageLink,
		HealthInterval: e.cfg.HealthDuration(),
		Dark:           dark,
	})
}
