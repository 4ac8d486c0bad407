package receiver

import (
	"context"

	"github.com/n-str/raptorcast/rqcodec"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/wire"
)

// batchState tracks one in-progress BatchID's decode progress. It is
// created on first packet arrival and removed on successful decode.
type batchState struct {
	receivedCount int
	decoder       *rqcodec.Decoder
}

// Reassembler is the single consumer of the ingest queue. It owns the
// decoder map and the completed set exclusively, so none of its fields
// are synchronized; correctness depends entirely on a single goroutine
// driving Run.
type Reassembler struct {
	oti     rqcodec.OTI
	log     rqlog.Logger
	batches map[wire.BatchID]*batchState
	done    map[wire.BatchID]struct{}

	packetsDropped   int
	decodeErrors     int
	batchesCompleted int
}

// NewReassembler builds a Reassembler that decodes against a statically
// agreed OTI: fixed for a known object size, identical on sender and
// receiver.
func NewReassembler(oti rqcodec.OTI, log rqlog.Logger) *Reassembler {
	return &Reassembler{
		oti:     oti,
		log:     log,
		batches: make(map[wire.BatchID]*batchState),
		done:    make(map[wire.BatchID]struct{}),
	}
}

// Run consumes ingest until it is closed or ctx is cancelled, routing
// each packet through validate -> completed-check -> forward-decision ->
// decode-step.
func (r *Reassembler) Run(ctx context.Context, ingest <-chan ingestItem, forward chan<- []byte, complete chan<- completeItem) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-ingest:
			if !ok {
				return nil
			}
			r.handle(item, forward, complete)
		}
	}
}

func (r *Reassembler) handle(item ingestItem, forward chan<- []byte, complete chan<- completeItem) {
	id, forwardFlag, payload, err := wire.Parse(item.buf, item.length)
	if err != nil {
		r.packetsDropped++
		return
	}

	if _, isDone := r.done[id]; isDone {
		r.packetsDropped++
		return
	}

	if forwardFlag {
		out := make([]byte, item.length)
		copy(out, item.buf[:item.length])
		wire.ClearForwardFlag(out)
		select {
		case forward <- out:
		default:
			// Forward queue full: best-effort drop. The object is
			// still decoded locally below.
		}
	}

	state, exists := r.batches[id]
	if !exists {
		dec, err := rqcodec.NewDecoder(r.oti)
		if err != nil {
			r.log.Errorf("reassembler: batch %s: create decoder: %v", id, err)
			r.decodeErrors++
			return
		}
		state = &batchState{receivedCount: 0, decoder: dec}
		r.batches[id] = state
	}
	state.receivedCount++

	symbolID, symbolData, err := rqcodec.ParseEnvelope(payload)
	if err != nil {
		r.packetsDropped++
		r.log.Debugf("reassembler: batch %s: %v", id, err)
		return
	}

	// Every packet, including the first for a given batch, is fed
	// straight to the decoder rather than only using it to allocate
	// state: this strictly improves reassembly odds at negligible cost.
	ready, err := state.decoder.AddSymbol(symbolID, symbolData)
	if err != nil {
		r.decodeErrors++
		r.log.Debugf("reassembler: batch %s: add symbol: %v", id, err)
		return
	}
	if !ready {
		return
	}

	object, err := state.decoder.Decode()
	if err == rqcodec.ErrIncomplete {
		return
	}
	if err != nil {
		r.decodeErrors++
		r.log.Debugf("reassembler: batch %s: decode attempt failed: %v", id, err)
		return
	}

	r.done[id] = struct{}{}
	delete(r.batches, id)
	r.batchesCompleted++
	r.log.Infof("reassembler: batch %s: reassembled %d bytes from %d packets", id, len(object), state.receivedCount)

	complete <- completeItem{batchID: id, object: object}
}
