package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/banshee-data/pitchside/internal/monitoring"
)

// DefaultVersion is the protocol version requested in the init command.
const DefaultVersion = 19

// ClientConfig configures a server session.
type ClientConfig struct {
	Host    string
	Port    int
	Team    string
	Version int
	Coach   bool
	Goalie  bool
	Factory SocketFactory // nil means real sockets
}

// InitCommand renders the init command for cfg.
func (cfg ClientConfig) InitCommand() string {
	version := cfg.Version
	if version == 0 {
		version = DefaultVersion
	}
	if cfg.Coach {
		return fmt.Sprintf("(init (version %d))", version)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "(init %s (version %d)", cfg.Team, version)
	if cfg.Goalie {
		b.WriteString(" (goalie)")
	}
	b.WriteString(")")
	return b.String()
}

// Client is one agent's UDP session with the server.
type Client struct {
	sock Socket

	mu      sync.Mutex
	server  *net.UDPAddr
	adopted bool
}

// Dial opens a local socket and sends the init command to the server.
func Dial(cfg ClientConfig) (*Client, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if !cfg.Coach && cfg.Team == "" {
		return nil, errors.New("transport: team name required")
	}
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("transport: resolve server: %w", err)
	}
	factory := cfg.Factory
	if factory == nil {
		factory = RealSocketFactory{}
	}
	sock, err := factory.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("transport: listen: %w", err)
	}
	c := &Client{sock: sock, server: addr}
	if err := c.Send(cfg.InitCommand()); err != nil {
		sock.Close()
		return nil, err
	}
	monitoring.Logf("[Transport] sent init to %s from %s", addr, sock.LocalAddr())
	return c, nil
}

// Send writes one command to the server, NUL terminated.
func (c *Client) Send(cmd string) error {
	c.mu.Lock()
	addr := c.server
	c.mu.Unlock()
	if _, err := c.sock.WriteToUDP(append([]byte(cmd), 0), addr); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Server returns the address commands are currently sent to.
func (c *Client) Server() *net.UDPAddr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server
}

// adopt switches to the port the server answered from. The server replies
// to init from a port dedicated to this agent.
func (c *Client) adopt(from *net.UDPAddr) {
	if from == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adopted {
		return
	}
	c.adopted = true
	if from.Port != c.server.Port {
		monitoring.Logf("[Transport] server moved to port %d", from.Port)
		c.server = from
	}
}

// Reader returns the receive loop for this session.
func (c *Client) Reader() *Reader {
	return &Reader{sock: c.sock, onPacket: c.adopt}
}

// Close closes the socket.
func (c *Client) Close() error { return c.sock.Close() }
