package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/retry"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slidebuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "talks", cfg.Content.Root)
	assert.Equal(t, "presentation.md", cfg.Content.Marker)
	assert.Equal(t, "meta.json", cfg.Content.Metadata)
	assert.Equal(t, "other", cfg.Content.FallbackCategory)
	assert.Equal(t, filepath.Join("public", "slides"), cfg.Output.Directory)
	assert.Equal(t, "talks.json", cfg.Output.Manifest)
	assert.Equal(t, ".slides-tmp", cfg.Workspace.Directory)
	assert.Equal(t, []string{"bunx", "reveal-md"}, cfg.Converter.Command)
	assert.Equal(t, []string{"dist", "plugin", "css", "_assets"}, cfg.Assets.SharedDirs)
	assert.Equal(t, []string{"index.html", "presentation.html"}, cfg.Assets.EntryFiles)
	assert.Equal(t, []string{"dist/", "plugin/", "css/", "_assets/", "favicon.ico", "mermaid/"}, cfg.Assets.Prefixes)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	require.NoError(t, Validate(cfg))

	// Defaults are copied, not shared.
	cfg.Assets.SharedDirs[0] = "changed"
	assert.Equal(t, "dist", DefaultSharedDirs[0])
}

func TestLoad_OverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("SLIDES_OUT", "site/decks")
	path := writeConfig(t, `
content:
  root: content/talks
  fallback_category: misc
output:
  directory: ${SLIDES_OUT}
converter:
  command: [npx, reveal-md]
  args: [--theme, black]
  timeout: 90s
logging:
  level: DEBUG
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "content/talks", cfg.Content.Root)
	assert.Equal(t, "misc", cfg.Content.FallbackCategory)
	assert.Equal(t, "presentation.md", cfg.Content.Marker, "unset fields keep defaults")
	assert.Equal(t, "site/decks", cfg.Output.Directory)
	assert.Equal(t, []string{"npx", "reveal-md"}, cfg.Converter.Command)
	assert.Equal(t, []string{"--theme", "black"}, cfg.Converter.Args)
	assert.Equal(t, 90*time.Second, cfg.Converter.TimeoutDuration())
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestLoadOrDefault_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "talks", cfg.Content.Root)
}

func TestLoad_EnvLogLevelOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad yaml":          "content: [",
		"bad log level":     "logging:\n  level: chatty\n",
		"marker with path":  "content:\n  marker: talks/presentation.md\n",
		"same marker/meta":  "content:\n  marker: meta.json\n",
		"bad timeout":       "converter:\n  timeout: soon\n",
		"content in output": "content:\n  root: public/slides/talks\n",
		"workspace in out":  "workspace:\n  directory: public/slides/tmp\n",
		"bad prefix":        "assets:\n  prefixes: ['\"dist/']\n",
		"bad backoff":       "output:\n  retry:\n    backoff: random\n",
		"bad retry delay":   "output:\n  retry:\n    initial: -1s\n",
		"negative retries":  "output:\n  retry:\n    max_retries: -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	cfg := Default()
	assert.Equal(t, retry.DefaultPolicy(), cfg.Output.Retry.Policy())

	path := writeConfig(t, `
output:
  retry:
    backoff: exponential
    initial: 50ms
    max: 400ms
    max_retries: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	p := cfg.Output.Retry.Policy()
	assert.Equal(t, retry.BackoffExponential, p.Mode)
	assert.Equal(t, 50*time.Millisecond, p.Initial)
	assert.Equal(t, 400*time.Millisecond, p.Max)
	assert.Equal(t, 0, p.MaxRetries, "an explicit zero disables retries")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slidebuilder.yaml")

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Converter.TimeoutDuration())

	err = Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, Init(path, true))
}

func TestLogLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.SlogLevel().String())
	assert.Equal(t, "INFO", LogLevel("").SlogLevel().String())
	assert.Equal(t, "WARN", NormalizeLogLevel(" Warn ").SlogLevel().String())
	assert.Equal(t, LogFormatAuto, NormalizeLogFormat("AUTO"))
}
