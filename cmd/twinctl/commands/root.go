package commands

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/digital-twin/internal/config"
	"github.com/danielpatrickdp/digital-twin/internal/logging"
	"github.com/danielpatrickdp/digital-twin/internal/state"
	"github.com/danielpatrickdp/digital-twin/internal/twin"
)

var (
	// Global flags; empty values fall back to the environment.
	envFile   string
	dbPath    string
	twinCfg   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "twinctl",
	Short: "Run and inspect a rule-driven digital twin",
	Long: `twinctl - run a simulated conversational agent ("digital twin").

Runtime settings come from flags, then the environment, then an optional
.env file:
  TWIN_DB                SQLite file for versions and the interaction log
  TWIN_CONFIG            twin configuration (JSON or YAML)
  TWIN_GRPC_ADDR         gRPC listen address (serve)
  TWIN_METRICS_ADDR      Prometheus listen address (serve)
  TWIN_LOG_LEVEL         debug|info|warn|error
  TWIN_LOG_FORMAT        text|json
  TWIN_SHORT_TERM_LIMIT  cap on the short-term transcript

Examples:
  twinctl default-config --format yaml > twin.yaml
  twinctl chat --config twin.yaml --db twin.db
  twinctl export --db twin.db --out session.json --last 10
  twinctl replay --fixture session.json`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	pf.StringVar(&dbPath, "db", "", "SQLite database path (overrides TWIN_DB)")
	pf.StringVarP(&twinCfg, "config", "c", "", "twin configuration file (overrides TWIN_CONFIG)")
	pf.StringVar(&logLevel, "log-level", "", "log level (overrides TWIN_LOG_LEVEL)")
	pf.StringVar(&logFormat, "log-format", "", "log format (overrides TWIN_LOG_FORMAT)")
}

// #region runtime
// loadRuntime merges flags over the environment and builds the logger.
func loadRuntime() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if twinCfg != "" {
		cfg.TwinConfigPath = twinCfg
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logger, err := logging.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// buildController wires persistence, provenance and configuration into a
// controller. The returned cleanup closes the store.
func buildController(cfg config.Config, logger *slog.Logger) (*twin.Controller, func(), error) {
	opts := []twin.Option{twin.WithLogger(logger)}
	cleanup := func() {}

	var store *state.Store
	fresh := true
	if cfg.DBPath != "" {
		s, err := state.NewStore(cfg.DBPath)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open store: %w", err)
		}
		store = s
		cleanup = func() { s.Close() }

		cur, err := s.GetCurrent()
		switch {
		case err == nil:
			fresh = false
			opts = append(opts, twin.WithInitialState(cur.State))
			logger.Info("[TWIN] resuming", "version", cur.VersionID, "db", cfg.DBPath)
		case errors.Is(err, sql.ErrNoRows):
			logger.Info("[TWIN] no active state found, starting from default", "db", cfg.DBPath)
		default:
			cleanup()
			return nil, func() {}, err
		}

		rec, err := logging.NewSQLRecorder(s.DB())
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		opts = append(opts, twin.WithPersister(s), twin.WithRecorder(rec))
	}

	ctrl, err := twin.New(opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	if store != nil && fresh {
		if _, err := store.CreateInitialState(ctrl.GetState()); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("create initial state: %w", err)
		}
	}
	if cfg.TwinConfigPath != "" {
		raw, err := config.LoadTwinConfig(cfg.TwinConfigPath)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		if _, err := ctrl.Configure(raw); err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}
	if cfg.ShortTermLimit > 0 {
		mem := ctrl.GetState().Memory
		mem.ShortTermLimit = cfg.ShortTermLimit
		if _, err := ctrl.ConfigurePatch(twin.Patch{Memory: &mem}); err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}
	return ctrl, cleanup, nil
}

func openStore(cfg config.Config) (*state.Store, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("no database: pass --db or set TWIN_DB")
	}
	return state.NewStore(cfg.DBPath)
}
// #endregion runtime
