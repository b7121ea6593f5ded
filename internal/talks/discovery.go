package talks

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/slug"
)

// Options controls what the discoverer treats as a talk.
type Options struct {
	Marker           string
	Metadata         string
	FallbackCategory string
}

// OptionsFrom extracts discovery options from the build configuration.
func OptionsFrom(c config.ContentConfig) Options {
	return Options{
		Marker:           c.Marker,
		Metadata:         c.Metadata,
		FallbackCategory: c.FallbackCategory,
	}
}

// Discoverer scans a content root for talks.
type Discoverer struct {
	opts Options
}

// NewDiscoverer creates a discoverer, filling unset options with the defaults.
func NewDiscoverer(opts Options) *Discoverer {
	if opts.Marker == "" {
		opts.Marker = config.DefaultMarker
	}
	if opts.Metadata == "" {
		opts.Metadata = config.DefaultMetadata
	}
	if opts.FallbackCategory == "" {
		opts.FallbackCategory = config.DefaultFallbackCategory
	}
	return &Discoverer{opts: opts}
}

// Discover walks root depth-first in lexical order and returns one Talk per marker file.
// Symbolic links to directories are not followed. The scan is read-only.
func (d *Discoverer) Discover(root string) ([]Talk, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		cause := err
		if cause == nil {
			cause = fmt.Errorf("%s is not a directory", root)
		}
		return nil, errors.MissingInputError("content root not found").
			WithCause(fmt.Errorf("%w: %w", ErrRootMissing, cause)).
			WithContext("root", root).
			Build()
	}

	var found []Talk
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || entry.Name() != d.opts.Marker {
			return nil
		}
		talk, err := d.describe(root, path)
		if err != nil {
			return err
		}
		slog.Debug("Discovered talk",
			logfields.Talk(talk.Title),
			logfields.Slug(talk.Slug),
			logfields.Category(talk.Category),
			logfields.File(talk.RelPath))
		found = append(found, talk)
		return nil
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.FileSystemError("failed to scan content root").
			WithCause(fmt.Errorf("%w: %w", ErrWalkFailed, err)).
			WithContext("root", root).
			Build()
	}

	slog.Info("Talk discovery completed", logfields.Path(root), logfields.Count(len(found)))
	return found, nil
}

// describe builds the Talk for a marker file at path.
func (d *Discoverer) describe(root, path string) (Talk, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Talk{}, err
	}
	rel = filepath.ToSlash(rel)
	dir := filepath.Dir(path)

	talk := Talk{
		SourcePath: path,
		Dir:        dir,
		RelPath:    rel,
		Title:      filepath.Base(dir),
		Category:   d.categoryFor(rel),
	}

	metaPath := filepath.Join(dir, d.opts.Metadata)
	meta, found, err := readMetadata(metaPath)
	if err != nil {
		return Talk{}, errors.InvalidMetadataError("talk metadata could not be parsed").
			WithCause(err).
			WithContext("file", metaPath).
			Build()
	}
	if found {
		talk.HasMetadata = true
		if meta.Title != "" {
			talk.Title = meta.Title
		}
		talk.Tag = meta.Tag
	}

	talk.Slug = meta.Slug
	if talk.Slug == "" {
		talk.Slug = slug.Slugify(talk.Title)
	}
	if talk.Slug == "" {
		return Talk{}, errors.InvalidMetadataError("talk title produces an empty slug; set \"slug\" in "+d.opts.Metadata).
			WithCause(fmt.Errorf("%w: %q", ErrEmptySlug, talk.Title)).
			WithContext("file", path).
			Build()
	}
	return talk, nil
}

// categoryFor returns the first segment of rel when at least one directory separates the
// talk directory from the root (<category>/<talk>/<marker>), otherwise the fallback.
func (d *Discoverer) categoryFor(rel string) string {
	parts := strings.Split(rel, "/")
	if len(parts) >= 3 {
		return parts[0]
	}
	return d.opts.FallbackCategory
}

// CheckUniqueSlugs fails on the first slug shared by two talks, naming both sources.
func CheckUniqueSlugs(found []Talk) error {
	seen := make(map[string]string, len(found))
	for _, t := range found {
		if prev, ok := seen[t.Slug]; ok {
			return errors.ValidationError("two talks resolve to the same slug").
				WithCause(fmt.Errorf("%w: %q used by %s and %s", ErrSlugCollision, t.Slug, prev, t.RelPath)).
				WithContext("slug", t.Slug).
				WithContext("first", prev).
				WithContext("second", t.RelPath).
				Build()
		}
		seen[t.Slug] = t.RelPath
	}
	return nil
}
