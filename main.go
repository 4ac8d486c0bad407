// Command raptorcast sprays (or receives and relays) a file over UDP
// using RaptorQ fountain coding. A --mode switch picks the sender or
// receiver role, and the rest of the flags are role-specific.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/n-str/raptorcast/receiver"
	"github.com/n-str/raptorcast/rqcodec"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/sender"
	"github.com/n-str/raptorcast/wire"
)

func main() {
	var (
		mode             string
		rosterPath       string
		logLevel         string
		objectPath       string
		numBatches       int
		batchParallelism int
		erasureCount     int
		numPacketBlast   int
		listenPort       int
		selfIP           string
		outDir           string
		objectLength     int64
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --mode=sender|receiver [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.StringVar(&mode, "mode", "", "sender or receiver (required)")
	pflag.StringVar(&rosterPath, "roster", "roster.json", "path to the roster file")
	pflag.StringVar(&logLevel, "log-level", "info", "silent, error, info, or debug")

	pflag.StringVar(&objectPath, "object", "", "sender: path to the file to broadcast")
	pflag.IntVar(&numBatches, "num-batches", 1, "sender: number of independent broadcast rounds")
	pflag.IntVar(&batchParallelism, "batch-parallelism", 1, "sender: max concurrent batches")
	pflag.IntVar(&erasureCount, "erasure-count", 3000, "sender: repair symbols generated beyond the source symbols")
	pflag.IntVar(&numPacketBlast, "num-packet-blast", 32, "sender: max packets in flight at once")

	pflag.IntVar(&listenPort, "listen-port", 19845, "receiver: UDP port to bind")
	pflag.StringVar(&selfIP, "self-ip", "", "receiver: this node's roster IP, for self-exclusion when forwarding")
	pflag.StringVar(&outDir, "out", "received", "receiver: directory completed objects are written to")
	pflag.Int64Var(&objectLength, "object-length", 0, "receiver: exact byte length of the object being broadcast (must match the sender's --object size)")

	pflag.Parse()

	log := rqlog.New(rqlog.LevelFromString(logLevel), "")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch mode {
	case "sender":
		if objectPath == "" {
			fmt.Fprintln(os.Stderr, "--object is required in sender mode")
			pflag.Usage()
			os.Exit(2)
		}
		cfg := sender.Config{
			NumBatches:       numBatches,
			BatchParallelism: batchParallelism,
			ErasureCount:     erasureCount,
			NumPacketBlast:   numPacketBlast,
		}
		err = sender.Run(ctx, cfg, objectPath, rosterPath, log)
	case "receiver":
		if objectLength <= 0 {
			fmt.Fprintln(os.Stderr, "--object-length is required in receiver mode and must match the sender's object size")
			pflag.Usage()
			os.Exit(2)
		}
		cfg := receiver.Config{
			OTI: rqcodec.OTI{
				ObjectLength: uint64(objectLength),
				SymbolSize:   wire.PayloadSize,
			},
			OutDir: outDir,
			SelfIP: selfIP,
		}
		err = receiver.Run(ctx, cfg, listenPort, rosterPath, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown --mode %q: must be sender or receiver\n", mode)
		pflag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
