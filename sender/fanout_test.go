package sender

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/n-str/raptorcast/roster"
	"github.com/n-str/raptorcast/rqlog"
	"github.com/n-str/raptorcast/transport"
)

// countingReceiver is a bare net.UDPConn counting how many datagrams it
// receives, standing in for a roster receiver node in fan-out tests.
type countingReceiver struct {
	conn *net.UDPConn
	node roster.Node
}

func newCountingReceiver(t *testing.T) *countingReceiver {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	addr := conn.LocalAddr().(*net.UDPAddr)
	return &countingReceiver{
		conn: conn,
		node: roster.Node{IP: addr.IP.String(), Port: uint16(addr.Port), Role: roster.RoleReceiver},
	}
}

func (r *countingReceiver) countFor(d time.Duration) int {
	r.conn.SetReadDeadline(time.Now().Add(d))
	buf := make([]byte, 2048)
	count := 0
	for {
		if _, err := r.conn.Read(buf); err != nil {
			return count
		}
		count++
	}
}

func TestFanOutShardingFairness(t *testing.T) {
	const numReceivers = 3
	const numPackets = 10 // not evenly divisible by 3

	receivers := make([]*countingReceiver, numReceivers)
	nodes := make([]roster.Node, numReceivers)
	for i := range receivers {
		receivers[i] = newCountingReceiver(t)
		nodes[i] = receivers[i].node
		defer receivers[i].conn.Close()
	}

	packets := make([][]byte, numPackets)
	for i := range packets {
		packets[i] = []byte{byte(i)}
	}

	sock, err := transport.Listen(0, 0)
	if err != nil {
		t.Fatalf("transport.Listen: %v", err)
	}
	defer sock.Close()

	log := rqlog.New(rqlog.LevelSilent, "")

	var wg sync.WaitGroup
	counts := make([]int, numReceivers)
	wg.Add(numReceivers)
	for i := range receivers {
		i := i
		go func() {
			defer wg.Done()
			counts[i] = receivers[i].countFor(2 * time.Second)
		}()
	}

	if err := FanOut(context.Background(), sock, packets, nodes, 4, log); err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	wg.Wait()

	lo := numPackets / numReceivers
	hi := lo + 1
	total := 0
	for i, c := range counts {
		if c != lo && c != hi {
			t.Errorf("receiver %d: got %d packets, want %d or %d", i, c, lo, hi)
		}
		total += c
	}
	if total != numPackets {
		t.Errorf("total delivered = %d, want %d", total, numPackets)
	}
}
