package receiver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/n-str/raptorcast/rqlog"
)

// persistExt is the suffix given to completed objects written to disk.
const persistExt = ".BATCH"

// RunPersister writes each reassembled object to outDir as
// <batch-id>.BATCH, the terminal step of the pipeline. A write failure is
// logged and does not stop the loop: losing one object to a full disk
// should not take down an otherwise-healthy receiver.
func RunPersister(outDir string, complete <-chan completeItem, log rqlog.Logger) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("receiver: persister: create %s: %w", outDir, err)
	}
	for item := range complete {
		path := filepath.Join(outDir, item.batchID.String()+persistExt)
		if err := os.WriteFile(path, item.object, 0o644); err != nil {
			log.Errorf("persister: write %s: %v", path, err)
			continue
		}
		log.Infof("persister: wrote %s (%d bytes)", path, len(item.object))
	}
	return nil
}
