package cmd

import (
	"fmt"

	"github.com/blogdesk/blogdesk/internal/apiclient"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/internal/logging"
	"github.com/blogdesk/blogdesk/internal/store"
	"go.uber.org/zap"
)

// env is everything a command needs to talk to the API and the local store.
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *store.Store
	client *apiclient.Client
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("--api-url: %w", err)
		}
	}
	return cfg, nil
}

func setup() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogPath(), cfg.Level())
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	db, err := store.Open(cfg.StorePath())
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	client := apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIURL,
		HealthPath: cfg.HealthPath,
		Timeout:    cfg.TimeoutDuration(),
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		Logger:     logger,
	})

	return &env{cfg: cfg, log: logger, db: db, client: client}, nil
}

func (e *env) close() {
	e.db.Close()
	e.log.Sync()
}

// record logs a mutation to the activity table. Failures are logged, not
// returned: the API call already happened.
func (e *env) record(op, id, title string, err error) {
	a := store.Activity{Op: op, ArticleID: id, Title: title, OK: err == nil}
	if err != nil {
		a.Detail = err.Error()
	}
	if rerr := e.db.Record(a); rerr != nil {
		e.log.Warn("recording activity failed", zap.String("op", op), zap.Error(rerr))
	}
}
