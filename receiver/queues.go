package receiver

import "github.com/n-str/raptorcast/wire"

// ingestSize and completeSize are generous buffers the hot path
// practically never fills.
const ingestSize = 1024
const completeSize = 1024

// forwardSize is deliberately small: the forward channel has a
// documented, non-blocking drop policy rather than unbounded buffering.
const forwardSize = 64

// ingestItem is one datagram pulled off the listening socket: a copy of
// its bytes and the valid length within them.
type ingestItem struct {
	buf    []byte
	length int
}

// completeItem is one fully reassembled object, ready for the persister.
type completeItem struct {
	batchID wire.BatchID
	object  []byte
}
