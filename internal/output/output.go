// Package output guards the published output root.
//
// A build replaces the output root wholesale. Root refuses to replace a directory that does
// not look like a previous build and holds an exclusive file lock so two builds never
// write the same root at once. The new publication is assembled in a sibling staging
// directory and promoted only when the build succeeds, so a failed build leaves the
// previous one in place.
package output

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/retry"
)

var (
	// ErrLocked indicates another build holds the output root lock.
	ErrLocked = stderrors.New("output root is locked by another build")
	// ErrUnsafeReset indicates the output root holds content no build produced.
	ErrUnsafeReset = stderrors.New("output root does not look like a previous build")
)

// Root is the directory decks are published into.
type Root struct {
	Dir          string
	ManifestName string
	Force        bool

	// Retry absorbs transient removal failures, such as files held open by a preview server.
	Retry retry.Policy

	lock     *flock.Flock
	stageDir string
}

// rename is swapped in tests to simulate a failing promotion.
var rename = os.Rename

// NewRoot returns a guard for dir whose previous builds are recognised by manifestName.
func NewRoot(dir, manifestName string, force bool) *Root {
	return &Root{Dir: dir, ManifestName: manifestName, Force: force, Retry: retry.DefaultPolicy()}
}

// Name is the final path element, used as the site path of the decks.
func (r *Root) Name() string {
	return filepath.Base(filepath.Clean(r.Dir))
}

// LockPath is the sibling lock file, kept outside Dir so Promote and Clean never delete it.
func (r *Root) LockPath() string {
	return filepath.Clean(r.Dir) + ".lock"
}

// Lock acquires the output root lock without waiting.
func (r *Root) Lock() error {
	if err := os.MkdirAll(filepath.Dir(r.LockPath()), 0o750); err != nil {
		return errors.FileSystemError("create output parent directory").
			WithCause(err).WithContext("path", r.LockPath()).Build()
	}
	if r.lock == nil {
		r.lock = flock.New(r.LockPath())
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return errors.FileSystemError("acquire output lock").
			WithCause(err).WithContext("path", r.LockPath()).Build()
	}
	if !ok {
		return errors.FileSystemError("output root is in use").
			WithCause(ErrLocked).
			WithContext("path", r.LockPath()).
			WithRetry(errors.RetryUserAction).
			Build()
	}
	slog.Debug("Acquired output lock", logfields.Path(r.LockPath()))
	return nil
}

// Unlock releases the lock taken by Lock. It is safe to call when not locked.
func (r *Root) Unlock() error {
	if r.lock == nil {
		return nil
	}
	if err := r.lock.Unlock(); err != nil {
		return errors.FileSystemError("release output lock").
			WithCause(err).WithContext("path", r.LockPath()).Build()
	}
	return nil
}

// StagingPath is the sibling directory a build assembles into.
func (r *Root) StagingPath() string {
	return filepath.Clean(r.Dir) + "_stage"
}

// StageDir returns the active staging directory, or "" outside BeginStaging/Promote.
func (r *Root) StageDir() string {
	return r.stageDir
}

// BeginStaging checks that Dir may be replaced and creates an empty staging directory.
func (r *Root) BeginStaging() error {
	dir := filepath.Clean(r.Dir)
	if err := r.checkResettable(dir); err != nil {
		return err
	}
	stage := r.StagingPath()
	// A stale stage is left behind only by a build that died; the lock keeps live ones out.
	if err := os.RemoveAll(stage); err != nil {
		return errors.FileSystemError("remove stale staging directory").
			WithCause(err).WithContext("path", stage).Build()
	}
	if err := os.MkdirAll(stage, 0o750); err != nil {
		return errors.FileSystemError("create staging directory").
			WithCause(err).WithContext("path", stage).Build()
	}
	r.stageDir = stage
	slog.Debug("Initialized staging directory", "staging", stage, "final", dir)
	return nil
}

// Promote replaces Dir with the staging directory: Dir moves to Dir.prev, staging is
// renamed to Dir, then the backup is removed.
func (r *Root) Promote() error {
	if r.stageDir == "" {
		return errors.InternalError("no staging directory initialized").Build()
	}
	if _, err := os.Stat(r.stageDir); err != nil {
		return errors.FileSystemError("staging directory missing").
			WithCause(err).WithContext("path", r.stageDir).Build()
	}

	dir := filepath.Clean(r.Dir)
	prev := dir + ".prev"
	if err := r.removeWithRetry(prev); err != nil {
		return errors.FileSystemError("remove previous backup").
			WithCause(err).WithContext("path", prev).Build()
	}
	backedUp := false
	if _, err := os.Stat(dir); err == nil {
		if err := rename(dir, prev); err != nil {
			return errors.FileSystemError("backup existing output").
				WithCause(err).WithContext("path", dir).Build()
		}
		backedUp = true
	}
	if err := rename(r.stageDir, dir); err != nil {
		if backedUp {
			if rerr := rename(prev, dir); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return errors.FileSystemError("promote staging directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	r.stageDir = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Info("Published output root", logfields.Path(dir))
	return nil
}

// Abort removes the staging directory after a failed build. Dir is untouched.
func (r *Root) Abort() {
	if r.stageDir == "" {
		return
	}
	stage := r.stageDir
	r.stageDir = ""
	if err := os.RemoveAll(stage); err != nil {
		slog.Warn("Failed to remove staging directory after abort", "staging", stage, logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", "staging", stage)
}

func (r *Root) removeWithRetry(path string) error {
	return r.Retry.Do(context.Background(), func() error { return os.RemoveAll(path) })
}

// Clean removes Dir together with leftover staging and backup directories and returns the
// paths it removed. The same guard as BeginStaging applies. Callers hold the lock.
func (r *Root) Clean() ([]string, error) {
	dir := filepath.Clean(r.Dir)
	if err := r.checkResettable(dir); err != nil {
		return nil, err
	}
	var removed []string
	for _, path := range []string{dir, r.StagingPath(), dir + ".prev"} {
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			continue
		}
		if err := r.removeWithRetry(path); err != nil {
			return removed, errors.FileSystemError("remove output directory").
				WithCause(err).WithContext("path", path).Build()
		}
		removed = append(removed, path)
	}
	slog.Info("Cleaned output root", logfields.Path(dir), logfields.Count(len(removed)))
	return removed, nil
}

func (r *Root) checkResettable(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.FileSystemError("resolve output root").WithCause(err).WithContext("path", dir).Build()
	}
	if r.Dir == "" || abs == filepath.Dir(abs) {
		return errors.ValidationError(fmt.Sprintf("refusing to use %q as output root", r.Dir)).
			WithCause(ErrUnsafeReset).Build()
	}
	if cwd, err := os.Getwd(); err == nil && cwd == abs {
		return errors.ValidationError("refusing to use the working directory as output root").
			WithCause(ErrUnsafeReset).WithContext("path", dir).Build()
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.FileSystemError("stat output root").WithCause(err).WithContext("path", dir).Build()
	}
	if !info.IsDir() {
		return errors.ValidationError("output root exists and is not a directory").
			WithCause(ErrUnsafeReset).WithContext("path", dir).Build()
	}
	if r.Force {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.FileSystemError("read output root").WithCause(err).WithContext("path", dir).Build()
	}
	if len(entries) == 0 {
		return nil
	}
	if fi, err := os.Stat(filepath.Join(dir, r.ManifestName)); err == nil && fi.Mode().IsRegular() {
		return nil
	}
	return errors.ValidationError(fmt.Sprintf("output root %s holds files from elsewhere; pass --force to replace it", dir)).
		WithCause(ErrUnsafeReset).
		WithContext("path", dir).
		UserAction().
		Build()
}
