package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Global carries process-wide state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer // user-facing output; logs go to stderr
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (optional)" default:"slidebuilder.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format: text, json or auto (default from config)" placeholder:"FORMAT"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build every talk into the output directory"`
	Discover DiscoverCmd `cmd:"" help:"List the talks that a build would publish"`
	Watch    WatchCmd    `cmd:"" help:"Build, then rebuild whenever the talks change"`
	Clean    CleanCmd    `cmd:"" help:"Remove the published output directory"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; sets up logging from flags and environment until
// the configuration is loaded.
func (c *CLI) AfterApply() error {
	if c.LogFormat != "" {
		if _, err := config.ParseLogFormat(c.LogFormat); err != nil {
			return errors.ValidationError("invalid --log-format").WithCause(err).Build()
		}
	}
	level := config.LogLevelInfo
	if raw := os.Getenv(config.EnvLogLevel); raw != "" {
		level = config.NormalizeLogLevel(raw)
	}
	c.setupLogging(level, config.LogFormatText)
	return nil
}

// loadConfig reads the configuration file (absent is fine) and re-applies logging settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, errors.ConfigError("load configuration").
			WithCause(err).WithContext("path", c.Config).Build()
	}
	c.setupLogging(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// revalidate checks cfg again after flag overrides were applied.
func revalidate(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return errors.ConfigError("invalid configuration").WithCause(err).Build()
	}
	return nil
}

// setupLogging installs the default logger. -v wins over level; --log-format wins over format.
func (c *CLI) setupLogging(level config.LogLevel, format config.LogFormat) {
	if c.Verbose {
		level = config.LogLevelDebug
	}
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	slog.SetDefault(newLogger(os.Stderr, level, format))
}

func newLogger(w io.Writer, level config.LogLevel, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	if format == config.LogFormatAuto {
		format = config.LogFormatJSON
		if f, ok := w.(*os.File); ok && isTerminal(f.Fd()) {
			format = config.LogFormatText
		}
	}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// signalContext is canceled on SIGINT/SIGTERM so a running converter is stopped.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
