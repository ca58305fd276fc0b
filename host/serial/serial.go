package serial

import (
	"errors"
	"io"
)

var ErrPortBusy = errors.New("serial port is in use by another process")

// Port is a serial link to the board. The bridge client only needs a byte
// stream, so tests substitute an in-memory pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `yaml:"device"`

	// Baud rate of the board's console UART
	Baud int `yaml:"baud"`

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int `yaml:"read_timeout_ms"`

	// LockDir holds the advisory lock files; empty uses os.TempDir
	LockDir string `yaml:"lock_dir"`
}

// DefaultConfig returns the settings the firmware's UART0 uses
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
