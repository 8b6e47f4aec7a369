// Package cli implements the coaldraw command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coaldraw/pkg/buildinfo"
	"github.com/matzehuels/coaldraw/pkg/cache"
	"github.com/matzehuels/coaldraw/pkg/config"
	"github.com/matzehuels/coaldraw/pkg/observability"
	"github.com/matzehuels/coaldraw/pkg/pipeline"
	"github.com/matzehuels/coaldraw/pkg/quiz"
	"github.com/matzehuels/coaldraw/pkg/store"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config     config.Config
	configPath string

	out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output (not logs).
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          config.AppName,
		Short:        "coaldraw draws genealogical trees for population genetics workshops",
		Long:         `coaldraw draws coalescent genealogies as SVG, PNG, PDF or Graphviz diagrams, serves them over HTTP, and runs the workshop quizzes in the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			if c.Logger.GetLevel() == log.DebugLevel {
				observability.NewLogHooks(c.Logger).RegisterAll()
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/coaldraw/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.figureCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.quizCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backend Factories
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope := c.Config.Cache.Scope; scope != "" {
		keyer = cache.NewScopedKeyer(nil, scope)
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.CacheRedis {
		c.Logger.Debug("using redis cache", "addr", cfg.RedisAddr)
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the file cache directory: the configured one, or the XDG
// default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.CacheDir()
}

func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Server
	if cfg.Store == config.StoreMongo {
		c.Logger.Debug("using mongo store", "database", cfg.MongoDatabase)
		return store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	}
	return store.NewMemoryStore(), nil
}

func (c *CLI) loadQuiz() (quiz.File, error) {
	if c.Config.Quiz.File != "" {
		return quiz.Load(c.Config.Quiz.File)
	}
	return quiz.Default()
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
