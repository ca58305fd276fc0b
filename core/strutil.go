package core

// itoa converts an integer to a string without the fmt package
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789abcdef"

// hex8 formats a byte as two hex digits
func hex8(b uint8) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}

// formatIP renders a dotted quad
func formatIP(ip [4]byte) string {
	return utoa(uint32(ip[0])) + "." + utoa(uint32(ip[1])) + "." +
		utoa(uint32(ip[2])) + "." + utoa(uint32(ip[3]))
}

// formatMAC renders a colon separated station address
func formatMAC(mac [6]byte) string {
	s := hex8(mac[0])
	for _, b := range mac[1:] {
		s += ":" + hex8(b)
	}
	return s
}
