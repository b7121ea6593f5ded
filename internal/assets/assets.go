// Package assets publishes the runtime files every deck shares.
//
// All talks are built with the same converter and theme, so their bundles carry identical
// copies of the reveal.js runtime, plugins and styles. Only the first build's copy is
// published, once, at the output root; per-talk pages reach it through ../ references.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
)

// Deduplicator copies shared asset directories and the favicon from a single build.
type Deduplicator struct {
	SharedDirs []string
	Favicon    string
}

// NewDeduplicator uses the configured shared directories and favicon.
func NewDeduplicator(cfg config.AssetsConfig) *Deduplicator {
	return &Deduplicator{SharedDirs: cfg.SharedDirs, Favicon: cfg.Favicon}
}

// CopyShared copies every shared directory and the favicon that exists in buildDir into
// outRoot and returns the names it published. Missing entries are skipped; an existing
// destination is replaced.
func (d *Deduplicator) CopyShared(buildDir, outRoot string) ([]string, error) {
	var copied []string
	for _, name := range d.SharedDirs {
		src := filepath.Join(buildDir, name)
		fi, err := os.Stat(src)
		if os.IsNotExist(err) {
			slog.Debug("Shared directory absent from build", logfields.Path(src))
			continue
		}
		if err != nil {
			return copied, fsError("stat shared directory", src, err)
		}
		if !fi.IsDir() {
			continue
		}
		dst := filepath.Join(outRoot, name)
		if err := os.RemoveAll(dst); err != nil {
			return copied, fsError("replace shared directory", dst, err)
		}
		if err := CopyDir(src, dst); err != nil {
			return copied, fsError("copy shared directory", src, err)
		}
		copied = append(copied, name)
	}

	if d.Favicon != "" {
		src := filepath.Join(buildDir, d.Favicon)
		if fi, err := os.Stat(src); err == nil && fi.Mode().IsRegular() {
			if err := CopyFile(src, filepath.Join(outRoot, d.Favicon)); err != nil {
				return copied, fsError("copy favicon", src, err)
			}
			copied = append(copied, d.Favicon)
		}
	}

	slog.Info("Published shared assets", logfields.Path(outRoot), logfields.Count(len(copied)))
	return copied, nil
}

func fsError(op, path string, err error) error {
	return errors.FileSystemError(fmt.Sprintf("%s %s", op, path)).
		WithCause(err).
		WithContext("path", path).
		Build()
}

// CopyDir recursively copies src into dst, preserving file modes. Symlinks are skipped.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		switch {
		case entry.IsDir():
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyFile copies a single regular file, creating dst's parent directory as needed.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	info, err := in.Stat()
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode().Perm())
}
