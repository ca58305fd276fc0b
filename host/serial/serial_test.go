//go:build !wasm

package serial

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
)

func TestLockPath(t *testing.T) {
	cfg := &Config{Device: "/dev/ttyACM0", LockDir: "/var/lock"}
	want := filepath.Join("/var/lock", "tivago_dev_ttyACM0.lock")
	if got := LockPath(cfg); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	cfg = &Config{Device: "COM3", LockDir: "/var/lock"}
	if got := LockPath(cfg); got != filepath.Join("/var/lock", "tivagoCOM3.lock") {
		t.Errorf("Unexpected lock path %s", got)
	}
}

func TestOpenRefusesLockedPort(t *testing.T) {
	cfg := DefaultConfig("/dev/tivago-test-port")
	cfg.LockDir = t.TempDir()

	held := flock.New(LockPath(cfg))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("Could not take the lock: %v", err)
	}
	defer held.Unlock()

	if _, err := Open(cfg); !errors.Is(err, ErrPortBusy) {
		t.Errorf("Expected ErrPortBusy, got %v", err)
	}
}

func TestOpenMissingDeviceReleasesLock(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "no-such-tty"))
	cfg.LockDir = t.TempDir()

	if _, err := Open(cfg); err == nil {
		t.Fatal("Expected opening a missing device to fail")
	}

	l := flock.New(LockPath(cfg))
	locked, err := l.TryLock()
	if err != nil || !locked {
		t.Errorf("Expected the lock to be free after a failed open: %v", err)
	}
	l.Unlock()
}

func TestNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected an error for a nil config")
	}
}
