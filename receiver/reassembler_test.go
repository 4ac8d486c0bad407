package receiver

import (
	"testing"

	"github.com/n-str/raptorcast/rqcodec"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/wire"
)

func encodeForTest(t *testing.T, object []byte, erasureCount int) (wire.BatchID, [][]byte) {
	t.Helper()
	id, err := wire.NewBatchID()
	if err != nil {
		t.Fatalf("NewBatchID: %v", err)
	}
	enc, err := rqcodec.NewEncoder(object, wire.PayloadSize)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	symbols := enc.GenSymbols(erasureCount)
	packets := make([][]byte, len(symbols))
	for i, sym := range symbols {
		pkt, err := wire.Frame(id, sym.Envelope())
		if err != nil {
			t.Fatalf("Frame: %v", err)
		}
		packets[i] = pkt
	}
	return id, packets
}

func drainNonBlocking(forward <-chan []byte) int {
	n := 0
	for {
		select {
		case <-forward:
			n++
		default:
			return n
		}
	}
}

func TestReassemblerCompletesAndDedups(t *testing.T) {
	object := make([]byte, 3*wire.PayloadSize+13)
	for i := range object {
		object[i] = byte(i)
	}
	id, packets := encodeForTest(t, object, 10)

	oti := rqcodec.OTI{ObjectLength: uint64(len(object)), SymbolSize: wire.PayloadSize}
	log := rqlog.New(rqlog.LevelSilent, "")
	r := NewReassembler(oti, log)

	forward := make(chan []byte, forwardSize)
	complete := make(chan completeItem, completeSize)

	for _, pkt := range packets {
		r.handle(ingestItem{buf: pkt, length: len(pkt)}, forward, complete)
	}

	if r.batchesCompleted != 1 {
		t.Fatalf("batchesCompleted = %d, want 1", r.batchesCompleted)
	}
	if _, stillOpen := r.batches[id]; stillOpen {
		t.Fatalf("decoder map entry for %s was not reclaimed after completion", id)
	}

	select {
	case item := <-complete:
		if item.batchID != id {
			t.Fatalf("complete item batch id mismatch")
		}
		if string(item.object) != string(object) {
			t.Fatalf("reassembled object mismatch")
		}
	default:
		t.Fatalf("expected a completed item on the complete channel")
	}

	// Replaying the same packets after completion must be dropped, not
	// re-decoded or re-emitted (at-most-once completion invariant).
	before := r.packetsDropped
	r.handle(ingestItem{buf: packets[0], length: len(packets[0])}, forward, complete)
	if r.packetsDropped != before+1 {
		t.Fatalf("packetsDropped = %d, want %d after replaying a completed batch's packet", r.packetsDropped, before+1)
	}
	select {
	case <-complete:
		t.Fatalf("replayed packet for a completed batch must not re-emit a completeItem")
	default:
	}
}

func TestReassemblerForwardsUnseenAndStripsFlag(t *testing.T) {
	object := make([]byte, wire.PayloadSize/2)
	_, packets := encodeForTest(t, object, 5)

	oti := rqcodec.OTI{ObjectLength: uint64(len(object)), SymbolSize: wire.PayloadSize}
	log := rqlog.New(rqlog.LevelSilent, "")
	r := NewReassembler(oti, log)

	forward := make(chan []byte, forwardSize)
	complete := make(chan completeItem, completeSize)

	r.handle(ingestItem{buf: packets[0], length: len(packets[0])}, forward, complete)

	select {
	case relayed := <-forward:
		_, forwardFlag, _, err := wire.Parse(relayed, len(relayed))
		if err != nil {
			t.Fatalf("Parse relayed packet: %v", err)
		}
		if forwardFlag {
			t.Fatalf("relayed packet must have its forward flag cleared")
		}
	default:
		t.Fatalf("expected the first packet of an unseen batch to be queued for forwarding")
	}
}

func TestReassemblerIncompleteBatchStaysResident(t *testing.T) {
	// Encode with zero erasure symbols and only feed a subset less than K,
	// then confirm decode never completes and the batch stays tracked:
	// no file is produced, and the decoder state for that batch id
	// remains resident for a later packet to complete.
	object := make([]byte, 20*wire.PayloadSize)
	id, packets := encodeForTest(t, object, 0)
	if len(packets) < 3 {
		t.Fatalf("need at least 3 source packets for this test, got %d", len(packets))
	}

	oti := rqcodec.OTI{ObjectLength: uint64(len(object)), SymbolSize: wire.PayloadSize}
	log := rqlog.New(rqlog.LevelSilent, "")
	r := NewReassembler(oti, log)

	forward := make(chan []byte, forwardSize)
	complete := make(chan completeItem, completeSize)

	for _, pkt := range packets[:len(packets)-2] {
		r.handle(ingestItem{buf: pkt, length: len(pkt)}, forward, complete)
	}

	if _, tracked := r.batches[id]; !tracked {
		t.Fatalf("batch %s should still be tracked while incomplete", id)
	}
	if r.batchesCompleted != 0 {
		t.Fatalf("batchesCompleted = %d, want 0 for an incomplete batch", r.batchesCompleted)
	}
	select {
	case <-complete:
		t.Fatalf("incomplete batch must not emit a completeItem")
	default:
	}

	drainNonBlocking(forward)
}
