package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/retry"
)

// Validate checks a defaulted configuration for values that would make a build unsafe or
// impossible.
func Validate(cfg *Config) error {
	validator := &configurationValidator{config: cfg}
	return validator.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateContent(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	if err := cv.validateConverter(); err != nil {
		return err
	}
	return cv.validateAssets()
}

func (cv *configurationValidator) validateContent() error {
	c := cv.config.Content
	if strings.TrimSpace(c.Root) == "" {
		return errors.New("content.root cannot be empty")
	}
	if err := plainFileName("content.marker", c.Marker); err != nil {
		return err
	}
	if err := plainFileName("content.metadata", c.Metadata); err != nil {
		return err
	}
	if c.Marker == c.Metadata {
		return fmt.Errorf("content.marker and content.metadata must differ (both %q)", c.Marker)
	}
	return nil
}

// validateOutput rejects layouts where resetting the output root would delete the content
// root or the workspace.
func (cv *configurationValidator) validateOutput() error {
	out := cv.config.Output
	if strings.TrimSpace(out.Directory) == "" {
		return errors.New("output.directory cannot be empty")
	}
	if err := plainFileName("output.manifest", out.Manifest); err != nil {
		return err
	}

	if err := validateRetry(out.Retry); err != nil {
		return err
	}

	outAbs, err := filepath.Abs(out.Directory)
	if err != nil {
		return fmt.Errorf("output.directory: %w", err)
	}
	if base := filepath.Base(outAbs); base == string(filepath.Separator) || base == "." {
		return fmt.Errorf("output.directory %q has no usable base name", out.Directory)
	}
	guarded := []struct{ field, dir string }{
		{"content.root", cv.config.Content.Root},
		{"workspace.directory", cv.config.Workspace.Directory},
	}
	for _, g := range guarded {
		field, dir := g.field, g.dir
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if within(abs, outAbs) {
			return fmt.Errorf("%s (%s) must not be inside output.directory (%s)", field, dir, out.Directory)
		}
	}
	return nil
}

func validateRetry(r RetryConfig) error {
	switch retry.BackoffMode(r.Backoff) {
	case "", retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential:
	default:
		return fmt.Errorf("output.retry.backoff must be fixed, linear or exponential, got %q", r.Backoff)
	}
	for _, d := range []struct{ field, value string }{
		{"output.retry.initial", r.Initial},
		{"output.retry.max", r.Max},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.field, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s must be positive: %s", d.field, d.value)
		}
	}
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		return fmt.Errorf("output.retry.max_retries cannot be negative: %d", *r.MaxRetries)
	}
	return nil
}

func (cv *configurationValidator) validateConverter() error {
	conv := cv.config.Converter
	if len(conv.Command) == 0 || strings.TrimSpace(conv.Command[0]) == "" {
		return errors.New("converter.command cannot be empty")
	}
	if conv.Timeout != "" {
		d, err := time.ParseDuration(conv.Timeout)
		if err != nil {
			return fmt.Errorf("converter.timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("converter.timeout must not be negative: %s", conv.Timeout)
		}
	}
	return nil
}

func (cv *configurationValidator) validateAssets() error {
	a := cv.config.Assets
	for _, dir := range a.SharedDirs {
		if err := plainFileName("assets.shared_dirs", dir); err != nil {
			return err
		}
	}
	for _, f := range a.EntryFiles {
		if err := plainFileName("assets.entry_files", f); err != nil {
			return err
		}
	}
	for _, p := range a.Prefixes {
		if strings.TrimSpace(p) == "" || strings.Contains(p, `"`) {
			return fmt.Errorf("assets.prefixes contains an invalid prefix %q", p)
		}
	}
	return nil
}

// plainFileName requires a single path element.
func plainFileName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%s must be a plain file name, got %q", field, name)
	}
	return nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
