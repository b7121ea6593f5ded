package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_Lifecycle(t *testing.T) {
	base := filepath.Join(t.TempDir(), ".slides-tmp")
	mgr := NewManager(base, "")

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.GetPath()
	if !strings.HasPrefix(filepath.Base(wsPath), "slidebuilder-") {
		t.Errorf("Expected build scoped directory, got: %s", wsPath)
	}
	if !strings.HasSuffix(wsPath, mgr.BuildID()) {
		t.Errorf("Workspace %s does not carry build id %s", wsPath, mgr.BuildID())
	}
	if _, err := os.Stat(wsPath); os.IsNotExist(err) {
		t.Errorf("Workspace directory does not exist: %s", wsPath)
	}

	talkDir, err := mgr.TalkDir("intro")
	if err != nil {
		t.Fatalf("TalkDir() failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(talkDir, "dist"), 0o750); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Errorf("Empty base directory should be removed: %s", base)
	}
}

func TestManager_CleanupLeavesOtherBuilds(t *testing.T) {
	base := t.TempDir()
	a := NewManager(base, "a")
	b := NewManager(base, "b")
	for _, m := range []*Manager{a, b} {
		if err := m.Create(); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	if err := a.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(b.GetPath()); err != nil {
		t.Errorf("Other build's workspace was removed: %v", err)
	}
}

func TestManager_Keep(t *testing.T) {
	mgr := NewManager(t.TempDir(), "kept").KeepOnCleanup(true)
	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	wsPath := mgr.GetPath()
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); err != nil {
		t.Errorf("Kept workspace was removed: %v", err)
	}
}

func TestManager_NotCreated(t *testing.T) {
	mgr := NewManager(t.TempDir(), "x")
	if _, err := mgr.TalkDir("a"); err == nil {
		t.Error("TalkDir() before Create() should fail")
	}
	if err := mgr.Cleanup(); err != nil {
		t.Errorf("Cleanup() before Create() should be a no-op, got %v", err)
	}
}
