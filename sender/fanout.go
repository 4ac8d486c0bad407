package sender

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/n-str/raptorcast/roster"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
)

// FanOut distributes packets round-robin across receivers over a single
// shared UDP socket, bounding the number of outstanding asynchronous
// sends to numPacketBlast. Destination for packet i is
// receivers[i % len(receivers)]. Every packet is attempted exactly once;
// individual send failures are logged, never fatal.
func FanOut(ctx context.Context, sock *transport.Socket, packets [][]byte, receivers []roster.Node, numPacketBlast int, log rqlog.Logger) error {
	if len(receivers) == 0 {
		return fmt.Errorf("sender: fan out: no receivers in roster")
	}

	sem := semaphore.NewWeighted(int64(numPacketBlast))

	for i, packet := range packets {
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("sender: fan out: %w", err)
		}

		dst := receivers[i%len(receivers)].Addr()
		packet := packet

		go func() {
			defer sem.Release(1)
			if err := sock.Send(packet, dst); err != nil {
				log.Errorf("fan-out: send to %s failed: %v", dst, err)
			}
		}()
	}

	// Drain: acquiring the full weight blocks until every outstanding
	// send has released, the idiomatic semaphore.Weighted pattern for
	// "wait for all in-flight work to finish".
	if err := sem.Acquire(ctx, int64(numPacketBlast)); err != nil {
		return fmt.Errorf("sender: fan out: drain: %w", err)
	}
	sem.Release(int64(numPacketBlast))

	return nil
}
