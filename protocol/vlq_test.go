package protocol

import (
	"bytes"
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 31, -32, 95, 96, 127, -127, 128, -128,
		1000, -1000, 65535, -65535, 1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, expected := range testCases {
		encoded := EncodeVLQ(expected)
		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), expected)
		}
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		v   int32
		enc []byte
	}{
		{0, []byte{0x00}},
		{95, []byte{0x5F}},
		{-32, []byte{0x60}},
		{96, []byte{0x80, 0x60}},
		{1000, []byte{0x87, 0x68}},
	}
	for _, tc := range testCases {
		if got := EncodeVLQ(tc.v); !bytes.Equal(got, tc.enc) {
			t.Errorf("EncodeVLQ(%d) = %x, want %x", tc.v, got, tc.enc)
		}
	}
}

func TestVLQUint(t *testing.T) {
	for _, expected := range []uint32{0, 1, 127, 128, 16383, 16384, 1 << 24, 0xFFFFFFFF} {
		out := NewScratchOutput()
		EncodeVLQUint(out, expected)
		data := out.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil || got != expected {
			t.Errorf("uint round trip %d: got %d, %v", expected, got, err)
		}
	}
}

func TestVLQTruncated(t *testing.T) {
	data := []byte{0x87}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("truncated decode err = %v, want ErrBufferTooSmall", err)
	}
	if len(data) != 1 {
		t.Error("failed decode must not consume input")
	}

	data = []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("overlong decode err = %v, want ErrInvalidVLQ", err)
	}
}

func TestVLQBytesAndString(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQBytes(out, []byte{0xDE, 0xAD})
	EncodeVLQString(out, "tiva")

	data := out.Result()
	p, err := DecodeVLQBytes(&data)
	if err != nil || !bytes.Equal(p, []byte{0xDE, 0xAD}) {
		t.Fatalf("bytes = %x, %v", p, err)
	}
	s, err := DecodeVLQString(&data)
	if err != nil || s != "tiva" {
		t.Fatalf("string = %q, %v", s, err)
	}

	short := []byte{5, 1, 2}
	if _, err := DecodeVLQBytes(&short); err != ErrBufferTooSmall {
		t.Errorf("short string err = %v", err)
	}
}
