package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
)

// Manager handles the per-build scratch directory.
type Manager struct {
	baseDir string
	buildID string
	dir     string
	keep    bool // leave the directory behind on Cleanup for inspection
}

// NewManager creates a workspace manager rooted at baseDir. An empty buildID gets a fresh
// random one.
func NewManager(baseDir, buildID string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if buildID == "" {
		buildID = uuid.NewString()
	}
	return &Manager{baseDir: baseDir, buildID: buildID}
}

// KeepOnCleanup makes Cleanup leave the workspace in place.
func (m *Manager) KeepOnCleanup(keep bool) *Manager {
	m.keep = keep
	return m
}

// BuildID identifies the build owning this workspace.
func (m *Manager) BuildID() string {
	return m.buildID
}

// Create makes the workspace directory.
func (m *Manager) Create() error {
	dir := filepath.Join(m.baseDir, "slidebuilder-"+m.buildID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir), logfields.BuildID(m.buildID))
	return nil
}

// GetPath returns the workspace directory, or "" before Create.
func (m *Manager) GetPath() string {
	return m.dir
}

// TalkDir is the converter destination for the talk with the given slug. It is not created;
// the converter creates it.
func (m *Manager) TalkDir(slug string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	return filepath.Join(m.dir, slug), nil
}

// Cleanup removes the workspace directory, then the base directory if it is left empty.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.keep {
		slog.Info("Keeping workspace", logfields.Path(m.dir))
		return nil
	}

	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""

	// Fails harmlessly when a concurrent build still has its workspace there.
	if entries, err := os.ReadDir(m.baseDir); err == nil && len(entries) == 0 {
		_ = os.Remove(m.baseDir)
	}
	return nil
}
