package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/banshee-data/pitchside/internal/monitoring"
)

// readTimeout bounds each read so the loop notices cancellation.
const readTimeout = 100 * time.Millisecond

// maxReport is the largest datagram the server sends.
const maxReport = 8192

// DispatchFunc receives one report. An error stops the loop.
type DispatchFunc func(report string) error

// Reader is a UDP receive loop.
type Reader struct {
	sock     Socket
	onPacket func(*net.UDPAddr)
}

// NewReader wraps a socket that is already bound.
func NewReader(sock Socket) *Reader { return &Reader{sock: sock} }

// Run reads reports and hands them to dispatch until ctx is cancelled, the
// socket is closed, or dispatch fails.
func (r *Reader) Run(ctx context.Context, dispatch DispatchFunc) error {
	buffer := make([]byte, maxReport)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.sock.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("transport: set deadline: %w", err)
		}
		n, addr, err := r.sock.ReadFromUDP(buffer)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			monitoring.Logf("[Transport] read error: %v", err)
			continue
		}
		if r.onPacket != nil {
			r.onPacket(addr)
		}
		report := strings.TrimRight(string(buffer[:n]), "\x00")
		if report == "" {
			continue
		}
		if err := dispatch(report); err != nil {
			return fmt.Errorf("transport: dispatch: %w", err)
		}
	}
}
