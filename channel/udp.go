package channel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/xaxy55/unitree_sdk2_go/protocol"
)

// DefaultWriteTimeout bounds a single UDP send.
const DefaultWriteTimeout = 5 * time.Millisecond

// recvPoll is how often a blocked Recv checks its context.
const recvPoll = 100 * time.Millisecond

// UDPConfig configures a UDPTransport.
//
// With no ListenAddr and no Peers the transport runs in multicast mode: it binds
// 0.0.0.0:Port, joins Group on Interface and sends every frame to the group. Setting
// ListenAddr or Peers switches to unicast mode: frames go to each peer and nothing
// is joined.
type UDPConfig struct {
	Group        string
	Port         int
	Interface    string
	ListenAddr   string
	Peers        []string
	WriteTimeout time.Duration
}

func (c UDPConfig) unicast() bool {
	return c.ListenAddr != "" || len(c.Peers) > 0
}

// UDPTransport carries frames over UDP multicast or unicast.
type UDPTransport struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
	cfg  UDPConfig
	rbuf []byte

	mu     sync.RWMutex
	dests  []*net.UDPAddr
	closed bool
}

// NewUDPTransport opens the socket described by cfg.
func NewUDPTransport(cfg UDPConfig) (*UDPTransport, error) {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	laddr := cfg.ListenAddr
	if laddr == "" {
		laddr = fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	}
	lc := net.ListenConfig{Control: reuseControl}
	pconn, err := lc.ListenPacket(context.Background(), "udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", laddr, err)
	}
	conn := pconn.(*net.UDPConn)

	t := &UDPTransport{
		conn: conn,
		pc:   ipv4.NewPacketConn(conn),
		cfg:  cfg,
		rbuf: make([]byte, protocol.MaxDatagram),
	}
	if err := t.setup(); err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}

func (t *UDPTransport) setup() error {
	if t.cfg.unicast() {
		for _, p := range t.cfg.Peers {
			if err := t.AddPeer(p); err != nil {
				return err
			}
		}
		return nil
	}

	group := net.ParseIP(t.cfg.Group)
	if group == nil || !group.IsMulticast() {
		return fmt.Errorf("%q is not a multicast group", t.cfg.Group)
	}
	var ifi *net.Interface
	if t.cfg.Interface != "" {
		var err error
		if ifi, err = net.InterfaceByName(t.cfg.Interface); err != nil {
			return fmt.Errorf("interface %s: %w", t.cfg.Interface, err)
		}
		if err := t.pc.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("set multicast interface: %w", err)
		}
	}
	if err := t.pc.JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("join %s: %w", group, err)
	}
	if err := t.pc.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("set multicast loopback: %w", err)
	}
	if err := t.pc.SetMulticastTTL(1); err != nil {
		return fmt.Errorf("set multicast ttl: %w", err)
	}
	t.dests = []*net.UDPAddr{{IP: group, Port: t.cfg.Port}}
	return nil
}

// AddPeer adds a unicast destination.
func (t *UDPTransport) AddPeer(addr string) error {
	ua, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("resolve peer %s: %w", addr, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dests = append(t.dests, ua)
	return nil
}

// LocalAddr returns the bound address.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UDPTransport) Send(frame []byte) error {
	t.mu.RLock()
	closed, dests := t.closed, t.dests
	t.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if len(frame) > protocol.MaxDatagram {
		return protocol.ErrTooLarge
	}

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		return t.mapErr(err)
	}
	for _, d := range dests {
		if _, err := t.conn.WriteToUDP(frame, d); err != nil {
			return t.mapErr(err)
		}
	}
	return nil
}

// Recv reads the next datagram. It must not be called concurrently: the read
// buffer is shared between calls.
func (t *UDPTransport) Recv(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// Wake up periodically to notice ctx cancellation.
		if err := t.conn.SetReadDeadline(time.Now().Add(recvPoll)); err != nil {
			return nil, t.mapErr(err)
		}
		n, _, err := t.conn.ReadFromUDP(t.rbuf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return nil, t.mapErr(err)
		}
		out := make([]byte, n)
		copy(out, t.rbuf[:n])
		return out, nil
	}
}

func (t *UDPTransport) mapErr(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrBackpressure
	}
	return err
}

func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

func (t *UDPTransport) Name() string {
	if t.cfg.unicast() {
		return "udp-unicast"
	}
	return "udp-multicast"
}
