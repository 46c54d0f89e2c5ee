package run_manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFunc_RunManager(t *testing.T) {
	base := t.TempDir()
	m, err := Create(base, "abc", "test-runtime")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(m.RuntimeDir()) != base {
		t.Errorf("runtime dir %q is not under %q", m.RuntimeDir(), base)
	}

	if err := m.Set("nested/file.txt"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := m.Get("nested/file.txt")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != filepath.Join(m.RuntimeDir(), "nested", "file.txt") {
		t.Errorf("Get = %q", got)
	}
	if _, err := m.Get("missing"); err == nil {
		t.Errorf("Get of a missing index succeeded")
	}

	if exist, err := m.Siblings("abc", "test-runtime"); err != nil || exist {
		t.Errorf("Siblings = %v, %v; want false, nil", exist, err)
	}
	other, err := Create(base, "abc", "test-runtime")
	if err != nil {
		t.Fatal(err)
	}
	if exist, _ := m.Siblings("abc", "test-runtime"); !exist {
		t.Errorf("Siblings did not see %q", other.RuntimeDir())
	}

	if err := m.Clean(); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if _, err := os.Stat(m.RuntimeDir()); !os.IsNotExist(err) {
		t.Errorf("runtime dir still exists after Clean")
	}
}

func TestFunc_Lock(t *testing.T) {
	m, err := Create(t.TempDir(), "abc", "test-runtime")
	if err != nil {
		t.Fatal(err)
	}
	started := time.Unix(1700000000, 0)
	want := LockInfo{PID: 4242, Version: "v1.2.3", UUID: "abc", Started: started}
	if err := m.WriteLock("run.lock", want); err != nil {
		t.Fatalf("WriteLock failed: %v", err)
	}

	path, _ := m.Get("run.lock")
	got, err := ReadLock(path)
	if err != nil {
		t.Fatalf("ReadLock failed: %v", err)
	}
	if got.PID != want.PID || got.Version != want.Version || got.UUID != want.UUID || !got.Started.Equal(started) {
		t.Errorf("ReadLock = %+v; want %+v", got, want)
	}
}

func TestFunc_Watch(t *testing.T) {
	m, err := Create(t.TempDir(), "abc", "test-runtime")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Set("run.lock"); err != nil {
		t.Fatal(err)
	}

	f := m.File("run.lock").(*RunFileManager)
	f.WatchInterval = 10 * time.Millisecond
	if _, err := f.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	fired := make(chan struct{})
	cancel, err := f.Watch(context.Background(), func() { close(fired) })
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer cancel()

	path, _ := m.Get("run.lock")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Errorf("Watch did not notice the removed file")
	}

	if _, err := m.File("nope").Open(); err == nil {
		t.Errorf("Open of an unknown index succeeded")
	}
}
