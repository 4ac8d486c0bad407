package receiver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/n-str/raptorcast/roster"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
)

// RunForwarder relays each packet it receives from forward to every
// other receiver in peers, one hop only: the forward flag has already
// been cleared by the reassembler before the packet reaches this
// channel, so a relayed packet is never relayed again.
func RunForwarder(ctx context.Context, sock *transport.Socket, peers []roster.Node, forward <-chan []byte, log rqlog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-forward:
			if !ok {
				return nil
			}
			if len(peers) == 0 {
				continue
			}
			relayOne(sock, peers, pkt, log)
		}
	}
}

func relayOne(sock *transport.Socket, peers []roster.Node, pkt []byte, log rqlog.Logger) {
	var g errgroup.Group
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			if err := sock.Send(pkt, peer.Addr()); err != nil {
				log.Debugf("forwarder: send to %s: %v", peer.Addr(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
