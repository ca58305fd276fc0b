package protocol

import "testing"

func TestCRC16CheckValue(t *testing.T) {
	if got := CRC16([]byte("123456789")); got != 0x6F91 {
		t.Errorf("CRC16(check) = 0x%04X, want 0x6F91", got)
	}
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(empty) = 0x%04X, want the initial value 0xFFFF", got)
	}
}

// The bitwise form the frame check has always been computed with on small
// parts without a table
func crc16Bitwise(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

func TestCRC16MatchesBitwise(t *testing.T) {
	inputs := [][]byte{
		{5, MessageDest},
		{0x00},
		{0xFF},
		{0x01, 0x02, 0x03, 0x04, 0x05},
		[]byte("tm4c123gh6pm"),
	}
	for _, in := range inputs {
		if got, want := CRC16(in), crc16Bitwise(in); got != want {
			t.Errorf("CRC16(%v) = 0x%04X, bitwise = 0x%04X", in, got, want)
		}
	}
}

func TestCRC16Different(t *testing.T) {
	if CRC16([]byte{1, 2, 3}) == CRC16([]byte{1, 2, 4}) {
		t.Error("single-bit change not detected")
	}
}
