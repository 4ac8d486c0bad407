// Package roster loads the static list of sender/receiver node addresses
// supplied out-of-band to every node in a broadcast session.
package roster

import (
	"fmt"
	"net"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Role tags a roster entry as a sender or a receiver.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// Node is one entry of the static roster: an address, a port, and a role.
type Node struct {
	IP   string `json:"ip"`
	Port uint16 `json:"port"`
	Role Role   `json:"role"`
}

// Addr returns the UDP address this node listens (or sends from), ready
// for use as a net.Dial/net.ListenUDP target.
func (n Node) Addr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(n.IP), Port: int(n.Port)}
}

// Roster is the full static list of known nodes for one broadcast session.
type Roster struct {
	Nodes []Node `json:"nodes"`
}

// Receivers returns every Node tagged RoleReceiver.
func (r Roster) Receivers() []Node {
	out := make([]Node, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.Role == RoleReceiver {
			out = append(out, n)
		}
	}
	return out
}

// ExcludingSelf returns the receiver subset of the roster with any entry
// matching (ip, port) removed, so a forwarder never relays to itself.
func (r Roster) ExcludingSelf(selfIP string, selfPort uint16) []Node {
	peers := r.Receivers()
	out := make([]Node, 0, len(peers))
	for _, n := range peers {
		if n.IP == selfIP && n.Port == selfPort {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Load reads and decodes a roster file from path.
func Load(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("roster: read %s: %w", path, err)
	}
	var r Roster
	if err := json.Unmarshal(data, &r); err != nil {
		return Roster{}, fmt.Errorf("roster: parse %s: %w", path, err)
	}
	for i, n := range r.Nodes {
		if n.Role != RoleSender && n.Role != RoleReceiver {
			return Roster{}, fmt.Errorf("roster: node %d: unknown role %q", i, n.Role)
		}
	}
	return r, nil
}
