package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
	"github.com/n-str/raptorcast/wire"
)

// RunReader drives batched UDP ingestion from the listening socket,
// pulling up to transport.NumBatchMessages datagrams per ReadBatch call
// into a pool of MTU-sized buffers, and enqueues each (buffer, length)
// pair into ingest. Read errors are tolerated and retried after a fixed
// pause of a third of a second; more than 10 consecutive failures end the
// loop with an error. A closed socket ends the loop cleanly.
func RunReader(ctx context.Context, sock *transport.Socket, ingest chan<- ingestItem, log rqlog.Logger) error {
	msgs := make([]ipv4.Message, transport.NumBatchMessages)
	bufs := make([][]byte, len(msgs))
	for i := range msgs {
		bufs[i] = make([]byte, wire.MTU)
		msgs[i].Buffers = [][]byte{bufs[i]}
	}

	deathSpiral := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := sock.ReadBatch(msgs)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Errorf("reader: batch read failed: %v", err)
			deathSpiral++
			if deathSpiral > 10 {
				return fmt.Errorf("receiver: reader: unrecoverable socket error: %w", err)
			}
			time.Sleep(time.Second / 3)
			continue
		}
		deathSpiral = 0

		for i := 0; i < n; i++ {
			length := msgs[i].N
			if length < wire.MinFrameSize {
				continue
			}
			cp := make([]byte, length)
			copy(cp, bufs[i][:length])

			select {
			case ingest <- ingestItem{buf: cp, length: length}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
