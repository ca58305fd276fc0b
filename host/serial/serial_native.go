//go:build !wasm

package serial

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation and holds an advisory
// lock on the device for as long as it is open
type NativePort struct {
	port *serial.Port
	lock *flock.Flock
	cfg  *Config
}

// LockPath returns the lock file guarding device
func LockPath(cfg *Config) string {
	dir := cfg.LockDir
	if dir == "" {
		dir = os.TempDir()
	}
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(cfg.Device)
	return filepath.Join(dir, "tivago"+name+".lock")
}

// Open locks and opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	lock := flock.New(LockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", cfg.Device, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", cfg.Device, ErrPortBusy)
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		lock: lock,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port and releases the lock
func (p *NativePort) Close() error {
	var err error
	if p.port != nil {
		err = p.port.Close()
	}
	if p.lock != nil {
		if uerr := p.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

// Flush discards unread input
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
