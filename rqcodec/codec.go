// Package rqcodec wraps github.com/xssnick/raptorq into an encoder driven
// by an arbitrary object size and a caller-chosen repair count, and an
// incremental decoder the reassembler can feed one packet at a time
// instead of one batch call.
package rqcodec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xssnick/raptorq"
)

// ErrIncomplete is returned by Decoder.Decode while too few symbols have
// been added to reconstruct the object.
var ErrIncomplete = errors.New("rqcodec: not enough symbols yet")

// OTI is the subset of RaptorQ's Object Transmission Information a
// decoder needs to interpret symbols: the object length and the symbol
// size. Both must be agreed statically and identically by sender and
// receiver ahead of time; nothing on the wire carries them.
type OTI struct {
	ObjectLength uint64
	SymbolSize   uint16
}

// Encoder produces systematic source symbols plus repair symbols for one
// object.
type Encoder struct {
	enc          *raptorq.Encoder
	sourceCount  uint32
	symbolSize   uint16
	objectLength uint64
}

// Symbol is one RaptorQ encoding symbol together with the id it was
// generated for. The underlying library's GenSymbol does not serialize
// an identifier into the returned bytes, so callers must carry id
// alongside the data themselves and feed both back to Decoder.AddSymbol.
type Symbol struct {
	ID   uint32
	Data []byte
}

// EnvelopeSize is the number of bytes Envelope prepends to a symbol's data.
const EnvelopeSize = 4

// Envelope serializes s as its 4-byte big-endian id followed by its data,
// the wire representation a frame payload carries.
func (s Symbol) Envelope() []byte {
	buf := make([]byte, EnvelopeSize+len(s.Data))
	binary.BigEndian.PutUint32(buf, s.ID)
	copy(buf[EnvelopeSize:], s.Data)
	return buf
}

// ErrShortEnvelope is returned by ParseEnvelope when buf is too short to
// contain an id prefix.
var ErrShortEnvelope = errors.New("rqcodec: envelope shorter than id prefix")

// ParseEnvelope splits a previously-enveloped symbol back into its id and
// data.
func ParseEnvelope(buf []byte) (id uint32, data []byte, err error) {
	if len(buf) < EnvelopeSize {
		return 0, nil, ErrShortEnvelope
	}
	return binary.BigEndian.Uint32(buf[:EnvelopeSize]), buf[EnvelopeSize:], nil
}

// NewEncoder builds a RaptorQ encoder over object, passed whole and
// unpadded: RaptorQ's own K = ceil(len(object)/symbolSize) source-symbol
// accounting and last-symbol padding are internal to the library, and
// Decoder.Decode reconstructs exactly len(object) bytes.
func NewEncoder(object []byte, symbolSize uint16) (*Encoder, error) {
	if symbolSize == 0 {
		return nil, errors.New("rqcodec: symbol size must be positive")
	}

	rq := raptorq.NewRaptorQ(uint32(symbolSize))
	enc, err := rq.CreateEncoder(object)
	if err != nil {
		return nil, fmt.Errorf("rqcodec: create encoder: %w", err)
	}

	sourceCount := uint32(len(object)) / uint32(symbolSize)
	if uint32(len(object))%uint32(symbolSize) != 0 {
		sourceCount++
	}

	return &Encoder{
		enc:          enc,
		sourceCount:  sourceCount,
		symbolSize:   symbolSize,
		objectLength: uint64(len(object)),
	}, nil
}

// OTI reports the parameters a matching Decoder must be built with.
func (e *Encoder) OTI() OTI {
	return OTI{ObjectLength: e.objectLength, SymbolSize: e.symbolSize}
}

// SourceSymbolCount is K, the number of systematic source symbols.
func (e *Encoder) SourceSymbolCount() uint32 {
	return e.sourceCount
}

// GenSymbols returns the K source symbols followed by erasureCount repair
// symbols, each paired with the id it must be decoded with. Packet order
// on the wire is irrelevant to the decoder as long as each id travels
// with its data.
func (e *Encoder) GenSymbols(erasureCount int) []Symbol {
	total := int(e.sourceCount) + erasureCount
	out := make([]Symbol, 0, total)
	for i := uint32(0); i < uint32(total); i++ {
		out = append(out, Symbol{ID: i, Data: e.enc.GenSymbol(i)})
	}
	return out
}

// Decoder incrementally reconstructs one object from RaptorQ symbols fed
// in arbitrary order, one at a time.
type Decoder struct {
	dec *raptorq.Decoder
}

// NewDecoder builds a decoder for an object with the given OTI. Sender
// and receiver must agree on oti out of band.
func NewDecoder(oti OTI) (*Decoder, error) {
	rq := raptorq.NewRaptorQ(uint32(oti.SymbolSize))
	dec, err := rq.CreateDecoder(uint32(oti.ObjectLength))
	if err != nil {
		return nil, fmt.Errorf("rqcodec: create decoder: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// AddSymbol feeds one deserialized RaptorQ symbol to the decoder.
// ready reports whether the decoder believes it may now be able to
// reconstruct the object; the caller should follow up with Decode.
func (d *Decoder) AddSymbol(id uint32, data []byte) (ready bool, err error) {
	ready, err = d.dec.AddSymbol(id, data)
	if err != nil {
		return false, fmt.Errorf("rqcodec: add symbol %d: %w", id, err)
	}
	return ready, nil
}

// Decode attempts reconstruction. It returns ErrIncomplete if the
// decoder does not yet have enough symbols; that is not a failure, just
// a signal to keep feeding packets.
func (d *Decoder) Decode() ([]byte, error) {
	ok, data, err := d.dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("rqcodec: decode: %w", err)
	}
	if !ok {
		return nil, ErrIncomplete
	}
	return data, nil
}
