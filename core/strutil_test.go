package core

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{itoa(-42), "-42"},
		{utoa(0), "0"},
		{utoa(4294967295), "4294967295"},
		{formatIP([4]byte{192, 168, 1, 50}), "192.168.1.50"},
		{formatMAC([6]byte{0x00, 0x1A, 0xB6, 0x03, 0x2F, 0xC0}), "00:1a:b6:03:2f:c0"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, tt.got)
		}
	}
}
