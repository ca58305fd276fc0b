// Package protocol implements the bridge wire format shared by the firmware
// and the host tools: VLQ-encoded commands carried in CRC-protected frames.
//
//	[len][seq][payload ...][crc_hi][crc_lo][0x7E]
//
// len counts the whole frame. The host numbers its requests 0x10..0x1F and the
// firmware answers each with a frame carrying the same sequence byte.
package protocol

// Version of the bridge protocol
const Version = "1.0.0"

// Frame layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageValueSync   = 0x7E

	// Request sequence numbers carry MessageDest in the high nibble
	MessageDest     = 0x10
	MessageSeqMask  = 0x0F
	MessageDestMask = 0xF0
)

// Frame is one decoded frame
type Frame struct {
	Seq     uint8
	Payload []byte
}
