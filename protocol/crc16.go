package protocol

import "github.com/sigurn/crc16"

var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC16 is the frame check sequence, CRC-16/MCRF4XX (reflected CCITT, init
// 0xFFFF, no final xor)
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
