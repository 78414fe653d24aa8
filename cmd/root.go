package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kizuruki/historybowlreview/internal/config"
	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/importer"
	"github.com/Kizuruki/historybowlreview/internal/logger"
)

// dbFileName is the name DiscoverDB looks for when walking up from the working directory.
const dbFileName = ".historybowl.db"

var (
	dbPath     string
	configFile string

	cfg *config.Config
	v   *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:           "historybowl",
	Short:         "History Bowl review: knowledge graph, progress tracking and question extraction",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the "+dbFileName+" database")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default: ./historybowl.yaml)")
}

// flagBindings maps dotted config keys to the flag names that override them.
// Commands without a given flag are skipped.
var flagBindings = []struct{ key, flag string }{
	{"db.path", "db"},
	{"llm.provider", "provider"},
	{"llm.model", "model"},
	{"llm.base_url", "base-url"},
	{"extract.taxonomy", "taxonomy"},
	{"extract.delay", "delay"},
	{"server.listen", "listen"},
}

func initConfig(cmd *cobra.Command) error {
	var err error
	v, err = config.InitViper(configFile)
	if err != nil {
		return err
	}
	for _, b := range flagBindings {
		config.BindFlag(v, cmd, b.key, b.flag)
	}
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Env); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	return nil
}

// notifyContext derives a context cancelled on SIGINT or SIGTERM.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// currentConfig returns the loaded config, or defaults when a command runs
// without the root pre-run (as in tests calling helpers directly).
func currentConfig() *config.Config {
	if cfg == nil {
		return config.NewDefaultConfig()
	}
	return cfg
}

// DiscoverDB finds the database path using priority:
// HISTORYBOWL_DB > --db / db.path > walk-up for .historybowl.db > XDG data dir.
// With create set, an explicit path that does not exist yet is accepted.
func DiscoverDB(create bool) (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("HISTORYBOWL_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil || create {
			return envPath, nil
		}
	}

	// 2. CLI flag, HISTORYBOWL_DB_PATH or config file
	explicit := dbPath
	if explicit == "" {
		explicit = currentConfig().DB.Path
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil || create {
			return explicit, nil
		}
		return "", fmt.Errorf("database not found at %s (run `historybowl init --db %s` first)", explicit, explicit)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 4. XDG fallback, created on first open
	xdgPath, err := defaultDBPath()
	if err != nil {
		return "", fmt.Errorf("no %s found and no data dir available: %w", dbFileName, err)
	}
	if err := os.MkdirAll(filepath.Dir(xdgPath), 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	return xdgPath, nil
}

func defaultDBPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "historybowl", "historybowl.db"), nil
}

// OpenDatabase discovers and opens the database
func OpenDatabase(ctx context.Context) (*db.DB, error) {
	path, err := DiscoverDB(false)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("opening store", zap.String("path", path))
	return db.OpenDB(ctx, path)
}

// ResolveNode finds a node by exact ID, by the slug of a name, by ID prefix,
// or by name search, in that order. Several matches is an error listing them.
func ResolveNode(ctx context.Context, d *db.DB, reference string) (*db.Node, error) {
	// 1. Exact ID match, then the ID the importer would give this name
	for _, id := range []string{reference, importer.Slug(reference)} {
		if id == "" {
			continue
		}
		node, err := d.GetNode(ctx, id)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}

	// 2. ID prefix match
	if slug := importer.Slug(reference); len(slug) >= 3 {
		matches, err := d.SearchByIDPrefix(ctx, slug, 10)
		if err != nil {
			return nil, err
		}
		switch len(matches) {
		case 1:
			return &matches[0], nil
		case 0:
			// fall through to name search
		default:
			return nil, ambiguous(reference, matches)
		}
	}

	// 3. Name search
	matches, err := d.SearchNodes(ctx, reference, 10)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		return nil, fmt.Errorf("node not found: %s", reference)
	default:
		return nil, ambiguous(reference, matches)
	}
}

func ambiguous(reference string, matches []db.Node) error {
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("  %s  %s", m.ID, m.Name)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\nUse a full node ID instead",
		reference, len(matches), strings.Join(lines, "\n"))
}
