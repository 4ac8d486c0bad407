// Package transport provides the UDP socket abstraction shared by the
// sender's fan-out and the receiver's ingest reader: a single shared UDP
// socket with batched receive support.
package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// NumBatchMessages is the number of datagrams pulled per ReadBatch call.
const NumBatchMessages = 32

// Socket wraps one UDP connection, shared across all concurrent sends of
// a batch on the sender side or bound once as the receiver's listening
// socket.
type Socket struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
}

// Listen binds a UDP socket on port (0 for an ephemeral port), sizing its
// kernel receive buffer to rcvBufBytes when positive.
func Listen(port int, rcvBufBytes int) (*Socket, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("transport: listen on port %d: %w", port, err)
	}
	if rcvBufBytes > 0 {
		if err := setRcvBuf(conn, rcvBufBytes); err != nil {
			conn.Close()
			return nil, fmt.Errorf("transport: set receive buffer: %w", err)
		}
	}
	return &Socket{conn: conn, pc: ipv4.NewPacketConn(conn)}, nil
}

// setRcvBuf raises SO_RCVBUF on the socket's raw file descriptor.
func setRcvBuf(conn *net.UDPConn, bytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// LocalPort reports the port this socket is bound to.
func (s *Socket) LocalPort() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

// Send writes one datagram to dst.
func (s *Socket) Send(buf []byte, dst *net.UDPAddr) error {
	_, err := s.conn.WriteToUDP(buf, dst)
	return err
}

// ReadBatch fills msgs with up to len(msgs) received datagrams using a
// single batched syscall where the platform supports it (Linux
// recvmmsg, exposed as ipv4.PacketConn.ReadBatch), falling back
// transparently to one ReadFromUDP per message otherwise.
func (s *Socket) ReadBatch(msgs []ipv4.Message) (int, error) {
	n, err := s.pc.ReadBatch(msgs, 0)
	if err == nil {
		return n, nil
	}
	return s.readOneAtATime(msgs)
}

func (s *Socket) readOneAtATime(msgs []ipv4.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	buf := msgs[0].Buffers[0]
	n, addr, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, err
	}
	msgs[0].N = n
	msgs[0].Addr = addr
	return 1, nil
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}
