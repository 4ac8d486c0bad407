// Package receiver implements the listening side of a raptorcast node:
// batched ingestion, RaptorQ reassembly, one-hop forwarding of unseen
// packets, and persistence of completed objects to disk. The pipeline is
// a fixed chain of goroutines joined by buffered channels: read off the
// wire, reassemble, then forward and persist.
package receiver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/n-str/raptorcast/roster"
	"github.com/n-str/raptorcast/rqcodec"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
)

// Config holds everything Run needs beyond the socket and roster: the
// statically agreed OTI and the output directory for completed objects.
type Config struct {
	OTI    rqcodec.OTI
	OutDir string
	SelfIP string
}

// Run binds the listening socket, loads the roster, and drives the full
// reader -> reassembler -> {forwarder, persister} pipeline until ctx is
// cancelled or an unrecoverable error occurs in any stage.
func Run(ctx context.Context, cfg Config, listenPort int, rosterPath string, log rqlog.Logger) error {
	rost, err := roster.Load(rosterPath)
	if err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	sock, err := transport.Listen(listenPort, 0)
	if err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	defer sock.Close()

	// The forwarder relays onto a distinct ephemeral socket rather than
	// reusing the reader's listening socket, so a burst of forwarded
	// sends never contends with or delays the reader's recv loop.
	fwdSock, err := transport.Listen(0, 0)
	if err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	defer fwdSock.Close()

	peers := rost.ExcludingSelf(cfg.SelfIP, uint16(sock.LocalPort()))

	ingest := make(chan ingestItem, ingestSize)
	forward := make(chan []byte, forwardSize)
	complete := make(chan completeItem, completeSize)

	reasm := NewReassembler(cfg.OTI, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := RunReader(gctx, sock, ingest, log)
		close(ingest)
		return err
	})

	g.Go(func() error {
		err := reasm.Run(gctx, ingest, forward, complete)
		close(forward)
		close(complete)
		return err
	})

	g.Go(func() error {
		return RunForwarder(gctx, fwdSock, peers, forward, log)
	})

	g.Go(func() error {
		return RunPersister(cfg.OutDir, complete, log)
	})

	go func() {
		<-gctx.Done()
		sock.Close()
		fwdSock.Close()
	}()

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("receiver: %w", err)
	}
	return nil
}
