// Package transport moves server reports between the network and the
// perception core: a UDP client for live matches and a capture replayer
// for offline runs.
package transport

import (
	"net"
	"sync"
	"time"
)

// Socket is the UDP socket used by the client. It exists so the client can
// be tested without a network.
type Socket interface {
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddr() net.Addr
}

// SocketFactory creates sockets.
type SocketFactory interface {
	ListenUDP(network string, laddr *net.UDPAddr) (Socket, error)
}

// RealSocketFactory opens real UDP sockets.
type RealSocketFactory struct{}

// ListenUDP creates a new UDP socket.
func (RealSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (Socket, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// MockPacket is one datagram served by a MockSocket.
type MockPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// MockSocket serves queued packets and records writes. Reads past the end
// of the queue time out.
type MockSocket struct {
	mu       sync.Mutex
	packets  []MockPacket
	written  []MockPacket
	closed   bool
	deadline time.Time
	local    *net.UDPAddr
}

// NewMockSocket creates a mock socket that will serve packets in order.
func NewMockSocket(packets ...MockPacket) *MockSocket {
	return &MockSocket{
		packets: packets,
		local:   &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000},
	}
}

// Push queues another packet.
func (m *MockSocket) Push(p MockPacket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packets = append(m.packets, p)
}

// ReadFromUDP returns the next queued packet.
func (m *MockSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, nil, net.ErrClosed
	}
	if len(m.packets) == 0 {
		m.mu.Unlock()
		// Pace the caller the way a read deadline would.
		time.Sleep(time.Millisecond)
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}
	}
	p := m.packets[0]
	m.packets = m.packets[1:]
	m.mu.Unlock()
	return copy(b, p.Data), p.Addr, nil
}

// WriteToUDP records the datagram.
func (m *MockSocket) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	m.written = append(m.written, MockPacket{Data: append([]byte(nil), b...), Addr: addr})
	return len(b), nil
}

// Written returns every datagram written so far.
func (m *MockSocket) Written() []MockPacket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockPacket(nil), m.written...)
}

// SetReadDeadline records the deadline.
func (m *MockSocket) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

// Close marks the socket closed.
func (m *MockSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSocket) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// LocalAddr returns the mock local address.
func (m *MockSocket) LocalAddr() net.Addr { return m.local }

// MockSocketFactory hands out a prepared socket.
type MockSocketFactory struct {
	Socket *MockSocket
	Err    error
	Calls  []string
}

// ListenUDP returns the prepared socket.
func (f *MockSocketFactory) ListenUDP(network string, laddr *net.UDPAddr) (Socket, error) {
	f.Calls = append(f.Calls, network)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Socket, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
