package output

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

func TestCleanRemovesPreviousBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old-talk"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "talks.json"), []byte("[]\n"), 0o600))
	require.NoError(t, os.MkdirAll(dir+"_stage", 0o750))

	removed, err := NewRoot(dir, "talks.json", false).Clean()
	require.NoError(t, err)
	assert.Equal(t, []string{dir, dir + "_stage"}, removed)
	assert.NoDirExists(t, dir)
	assert.NoDirExists(t, dir+"_stage")
}

func TestCleanMissingRoot(t *testing.T) {
	removed, err := NewRoot(filepath.Join(t.TempDir(), "slides"), "talks.json", false).Clean()
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestCleanRefusesForeignContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("mine"), 0o600))

	_, err := NewRoot(dir, "talks.json", false).Clean()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.True(t, stderrors.Is(err, ErrUnsafeReset))
	assert.FileExists(t, keep)

	_, err = NewRoot(dir, "talks.json", true).Clean()
	require.NoError(t, err)
	assert.NoFileExists(t, keep)
}

func TestGuardRefusesFileAndEmptyPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, err := NewRoot(path, "talks.json", true).Clean()
	assert.True(t, stderrors.Is(err, ErrUnsafeReset))

	err = NewRoot("", "talks.json", true).BeginStaging()
	assert.True(t, stderrors.Is(err, ErrUnsafeReset))
}

func TestLockExcludesSecondBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	first := NewRoot(dir, "talks.json", false)
	require.NoError(t, first.Lock())
	defer func() { _ = first.Unlock() }()

	second := NewRoot(dir, "talks.json", false)
	err := second.Lock()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrLocked))
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))

	require.NoError(t, first.Unlock())
	require.NoError(t, second.Lock())
	require.NoError(t, second.Unlock())
}

func TestLockSurvivesClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	root := NewRoot(dir, "talks.json", false)
	require.NoError(t, root.Lock())
	defer func() { _ = root.Unlock() }()

	_, err := root.Clean()
	require.NoError(t, err)
	assert.FileExists(t, root.LockPath())
}

func TestName(t *testing.T) {
	assert.Equal(t, "slides", NewRoot("public/slides/", "talks.json", false).Name())
}

func TestStagingPromote(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "old"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "talks.json"), []byte("[]\n"), 0o600))

	root := NewRoot(dir, "talks.json", false)
	require.NoError(t, root.BeginStaging())
	stage := root.StageDir()
	assert.Equal(t, dir+"_stage", stage)
	require.NoError(t, os.WriteFile(filepath.Join(stage, "talks.json"), []byte("[{}]\n"), 0o600))

	require.NoError(t, root.Promote())
	assert.Empty(t, root.StageDir())
	assert.NoDirExists(t, stage)
	assert.NoDirExists(t, dir+".prev")
	assert.NoDirExists(t, filepath.Join(dir, "old"))
	got, err := os.ReadFile(filepath.Join(dir, "talks.json"))
	require.NoError(t, err)
	assert.Equal(t, "[{}]\n", string(got))
}

func TestStagingAbortKeepsPreviousOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "talks.json"), []byte("[]\n"), 0o600))

	root := NewRoot(dir, "talks.json", false)
	require.NoError(t, root.BeginStaging())
	stage := root.StageDir()
	root.Abort()

	assert.NoDirExists(t, stage)
	assert.FileExists(t, filepath.Join(dir, "talks.json"))
	root.Abort() // second call is a no-op
}

func TestBeginStagingRefusesForeignContent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("site"), 0o600))

	err := NewRoot(dir, "talks.json", false).BeginStaging()
	assert.True(t, stderrors.Is(err, ErrUnsafeReset))
	assert.NoDirExists(t, dir+"_stage")
}

func TestPromoteWithoutStaging(t *testing.T) {
	err := NewRoot(t.TempDir(), "talks.json", false).Promote()
	assert.True(t, errors.HasCategory(err, errors.CategoryInternal))
}

func TestPromoteFailureRestoresPreviousOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slides")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "talks.json"), []byte("[]\n"), 0o600))

	root := NewRoot(dir, "talks.json", false)
	require.NoError(t, root.BeginStaging())
	stage := root.StageDir()

	t.Cleanup(func() { rename = os.Rename })
	rename = func(from, to string) error {
		if from == stage {
			return stderrors.New("cross-device link")
		}
		return os.Rename(from, to)
	}

	err := root.Promote()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
	assert.FileExists(t, filepath.Join(dir, "talks.json"), "previous publication restored")
	assert.NoDirExists(t, dir+".prev")
}
