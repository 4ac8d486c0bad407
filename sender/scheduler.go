package sender

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/n-str/raptorcast/roster"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
	"github.com/n-str/raptorcast/wire"
)

// Config holds the sender-side knobs the CLI flags populate.
type Config struct {
	NumBatches       int
	BatchParallelism int
	ErasureCount     int
	NumPacketBlast   int
}

// RunBatches repeats the broadcast of object NumBatches times, capping
// concurrent batches at BatchParallelism. Each iteration draws a fresh
// BatchID and independently encodes and fans out the object, making
// every batch a statistically independent sample of the RaptorQ repair
// space.
func RunBatches(ctx context.Context, cfg Config, object []byte, receivers []roster.Node, sock *transport.Socket, log rqlog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.BatchParallelism)

	for i := 0; i < cfg.NumBatches; i++ {
		batchNum := i
		g.Go(func() error {
			id, err := wire.NewBatchID()
			if err != nil {
				return fmt.Errorf("sender: batch %d: %w", batchNum, err)
			}

			packets, err := Encode(id, object, cfg.ErasureCount)
			if err != nil {
				return fmt.Errorf("sender: batch %d (%s): %w", batchNum, id, err)
			}

			log.Infof("batch %d (%s): sending %d packets to %d receivers", batchNum, id, len(packets), len(receivers))

			if err := FanOut(ctx, sock, packets, receivers, cfg.NumPacketBlast, log); err != nil {
				return fmt.Errorf("sender: batch %d (%s): %w", batchNum, id, err)
			}

			log.Infof("batch %d (%s): done", batchNum, id)
			return nil
		})
	}

	return g.Wait()
}
