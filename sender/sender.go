package sender

import (
	"context"
	"fmt"

	"github.com/n-str/raptorcast/roster"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
)

// Run loads the object, opens one ephemeral-port UDP socket shared by
// every concurrent batch, and drives the batch scheduler to completion.
func Run(ctx context.Context, cfg Config, objectPath, rosterPath string, log rqlog.Logger) error {
	object, err := LoadObject(objectPath)
	if err != nil {
		return err
	}

	r, err := roster.Load(rosterPath)
	if err != nil {
		return err
	}
	receivers := r.Receivers()

	sock, err := transport.Listen(0, 0)
	if err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	defer sock.Close()

	log.Infof("sending %d bytes in %d batch(es), parallelism %d, erasure count %d, blast %d",
		len(object), cfg.NumBatches, cfg.BatchParallelism, cfg.ErasureCount, cfg.NumPacketBlast)

	return RunBatches(ctx, cfg, object, receivers, sock, log)
}
