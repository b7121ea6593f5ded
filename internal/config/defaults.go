package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/slidebuilder/internal/retry"
)

// Defaults for the conventional layout: talks/<category>/<Talk>/presentation.md built into
// public/slides with reveal-md.
var (
	DefaultContentRoot      = "talks"
	DefaultMarker           = "presentation.md"
	DefaultMetadata         = "meta.json"
	DefaultFallbackCategory = "other"
	DefaultOutputDirectory  = filepath.Join("public", "slides")
	DefaultManifest         = "talks.json"
	DefaultWorkspace        = ".slides-tmp"
	DefaultConverterCommand = []string{"bunx", "reveal-md"}
	DefaultSharedDirs       = []string{"dist", "plugin", "css", "_assets"}
	DefaultFavicon          = "favicon.ico"
	DefaultEntryFiles       = []string{"index.html", "presentation.html"}
	DefaultPrefixes         = []string{"dist/", "plugin/", "css/", "_assets/", "favicon.ico", "mermaid/"}
)

// ApplyDefaults fills every unset field. Slices are copied so callers may mutate them.
func ApplyDefaults(cfg *Config) {
	c := &cfg.Content
	setString(&c.Root, DefaultContentRoot)
	setString(&c.Marker, DefaultMarker)
	setString(&c.Metadata, DefaultMetadata)
	setString(&c.FallbackCategory, DefaultFallbackCategory)

	setString(&cfg.Output.Directory, DefaultOutputDirectory)
	setString(&cfg.Output.Manifest, DefaultManifest)
	setString(&cfg.Workspace.Directory, DefaultWorkspace)

	r := &cfg.Output.Retry
	def := retry.DefaultPolicy()
	setString(&r.Backoff, string(def.Mode))
	setString(&r.Initial, def.Initial.String())
	setString(&r.Max, def.Max.String())
	if r.MaxRetries == nil {
		n := def.MaxRetries
		r.MaxRetries = &n
	}

	setSlice(&cfg.Converter.Command, DefaultConverterCommand)

	a := &cfg.Assets
	setSlice(&a.SharedDirs, DefaultSharedDirs)
	setString(&a.Favicon, DefaultFavicon)
	setSlice(&a.EntryFiles, DefaultEntryFiles)
	setSlice(&a.Prefixes, DefaultPrefixes)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setSlice(dst *[]string, def []string) {
	if len(*dst) == 0 {
		*dst = append([]string(nil), def...)
	}
}
