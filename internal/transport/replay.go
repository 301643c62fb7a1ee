package transport

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/timeutil"
)

// ReplayPCAP dispatches the UDP payloads sent from serverPort in a pcap
// capture, sleeping on clock for the captured gap between packets. The
// server answers each agent from a dedicated port, so serverPort is that
// port rather than the well-known one; zero replays every UDP packet. It
// returns the number of reports dispatched.
func ReplayPCAP(ctx context.Context, r io.Reader, serverPort int, clock timeutil.Clock, dispatch DispatchFunc) (int, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("transport: open capture: %w", err)
	}

	var (
		count   int
		skipped int
		last    time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		data, ci, err := pr.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("transport: read capture: %w", err)
		}

		packet := gopacket.NewPacket(data, pr.LinkType(), gopacket.NoCopy)
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			skipped++
			continue
		}
		udp := udpLayer.(*layers.UDP)
		if serverPort != 0 && int(udp.SrcPort) != serverPort {
			skipped++
			continue
		}
		report := strings.TrimRight(string(udp.Payload), "\x00")
		if report == "" {
			continue
		}

		if !last.IsZero() {
			if gap := ci.Timestamp.Sub(last); gap > 0 {
				clock.Sleep(gap)
			}
		}
		last = ci.Timestamp

		if err := dispatch(report); err != nil {
			return count, fmt.Errorf("transport: dispatch: %w", err)
		}
		count++
	}
	monitoring.Logf("[Transport] replayed %d reports (%d packets skipped)", count, skipped)
	return count, nil
}
