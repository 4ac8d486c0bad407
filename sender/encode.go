package sender

import (
	"fmt"

	"github.com/n-str/raptorcast/rqcodec"
	"github.com/n-str/raptorcast/wire"
)

// Encode RaptorQ-encodes object for one batch, over-producing
// erasureCount repair symbols beyond the systematic source symbols, and
// wraps each resulting symbol in the wire frame.
func Encode(id wire.BatchID, object []byte, erasureCount int) ([][]byte, error) {
	enc, err := rqcodec.NewEncoder(object, wire.PayloadSize)
	if err != nil {
		return nil, fmt.Errorf("sender: encode: %w", err)
	}

	symbols := enc.GenSymbols(erasureCount)
	packets := make([][]byte, 0, len(symbols))
	for _, sym := range symbols {
		framed, err := wire.Frame(id, sym.Envelope())
		if err != nil {
			return nil, fmt.Errorf("sender: frame symbol %d: %w", sym.ID, err)
		}
		packets = append(packets, framed)
	}
	return packets, nil
}
