package wire

import "errors"

const (
	// MTU is the maximum size of a framed packet, matching the IPv6
	// minimum-MTU budget the payload size is derived from.
	MTU = 1280

	offsetReserved = 0
	offsetFlag     = 1
	offsetBatchID  = 2
	// HeaderSize is the number of bytes preceding the RaptorQ payload:
	// 1 reserved byte, 1 forward-flag byte, BatchIDSize batch-id bytes.
	HeaderSize = offsetBatchID + BatchIDSize

	// MaxPayloadSize is the largest RaptorQ payload that still fits a
	// framed packet within MTU.
	MaxPayloadSize = MTU - HeaderSize

	// MinFrameSize is the smallest length parse accepts: the header plus
	// at least one payload byte.
	MinFrameSize = HeaderSize + 1

	// PayloadSize is the RaptorQ symbol size the encoder is configured
	// with. A framed symbol (HeaderSize + the 4-byte symbol-id envelope +
	// PayloadSize = 1233 bytes) stays within MTU.
	PayloadSize = 1181
)

// ErrPayloadTooLarge is returned by Frame when payload does not fit within
// the MTU budget.
var ErrPayloadTooLarge = errors.New("wire: payload exceeds frame budget")

// ErrShortFrame is returned by Parse when buf is too short to contain a
// valid header and at least one payload byte.
var ErrShortFrame = errors.New("wire: frame shorter than header")

// Frame prepends the reserved byte, forward flag, and batch id to payload.
// The forward flag is always written as 1: a sender stamps every packet
// as eligible for one hop of relay.
func Frame(id BatchID, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, HeaderSize+len(payload))
	buf[offsetReserved] = 0
	buf[offsetFlag] = 1
	copy(buf[offsetBatchID:offsetBatchID+BatchIDSize], id[:])
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// Parse extracts the BatchID, forward flag, and RaptorQ payload from the
// first length bytes of buf. Buffers shorter than MinFrameSize are
// rejected; callers are expected to drop them silently.
func Parse(buf []byte, length int) (id BatchID, forward bool, payload []byte, err error) {
	if length < MinFrameSize || length > len(buf) {
		return id, false, nil, ErrShortFrame
	}
	copy(id[:], buf[offsetBatchID:offsetBatchID+BatchIDSize])
	forward = buf[offsetFlag] != 0
	payload = buf[HeaderSize:length]
	return id, forward, payload, nil
}

// ClearForwardFlag zeroes the forward-flag byte of a previously framed
// packet in place, bounding relay to a single hop. It is safe to call
// concurrently with a decoder reading the same buffer's payload region:
// the flag lives at offset 1, strictly before the payload at HeaderSize.
func ClearForwardFlag(buf []byte) {
	if len(buf) > offsetFlag {
		buf[offsetFlag] = 0
	}
}
