// Command pitchside runs the perception core against a live soccer server
// or a recorded capture, logging what the agent perceives each cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/pitchside/internal/config"
	"github.com/banshee-data/pitchside/internal/cycledb"
	"github.com/banshee-data/pitchside/internal/monitor"
	"github.com/banshee-data/pitchside/internal/monitoring"
	"github.com/banshee-data/pitchside/internal/perception/demux"
	"github.com/banshee-data/pitchside/internal/timeutil"
	"github.com/banshee-data/pitchside/internal/transport"
	"github.com/banshee-data/pitchside/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a perception config JSON file")
	host        = flag.String("host", "localhost", "Soccer server host")
	port        = flag.Int("port", 6000, "Soccer server port (6002 for an online coach)")
	team        = flag.String("team", "", "Team name (overrides the config)")
	kind        = flag.String("kind", "", "Agent kind: player, goalie, coach or trainer (overrides the config)")
	goalie      = flag.Bool("goalie", false, "Join as the goalie")
	replayPath  = flag.String("replay", "", "Replay server reports from a pcap file instead of connecting")
	serverPort  = flag.Int("server-port", 0, "Source port of the agent's reports in the replay capture (0 for all)")
	recordPath  = flag.String("record", "", "Record cycles to this SQLite database")
	monitorAddr = flag.String("monitor", "", "Serve the live monitor on this address, e.g. :8080")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func loadConfig() (*config.PerceptionConfig, error) {
	cfg := config.DefaultPerceptionConfig()
	if *configPath != "" {
		loaded, err := config.LoadPerceptionConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *team != "" {
		cfg.TeamName = team
	}
	if *goalie {
		k := config.AgentGoalie
		cfg.AgentKind = &k
	}
	if *kind != "" {
		cfg.AgentKind = kind
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	monitoring.SetVerbose(cfg.GetVerbose())
	log.Printf("%s: %s as %s", version.String(), cfg.GetTeamName(), cfg.GetAgentKind())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sinks []demux.Sink
	var recorder *cycledb.Recorder
	if *recordPath != "" {
		recorder, err = cycledb.Open(*recordPath)
		if err != nil {
			log.Fatalf("failed to open cycle database: %v", err)
		}
		defer recorder.Close()
		sinks = append(sinks, recorder)
	}
	var hub *monitor.Hub
	if *monitorAddr != "" {
		hub = monitor.NewHub()
		sinks = append(sinks, hub)
	}

	coord := demux.New(demux.Options{Config: cfg, Sinks: sinks})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := coord.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("coordinator stopped: %v", err)
		}
	}()

	if hub != nil {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:  *monitorAddr,
			Hub:      hub,
			Snapshot: coord.Snapshot,
			Recorder: recorder,
		})
		go hub.Run(ctx)
		go func() {
			if err := ws.Start(ctx); err != nil {
				log.Printf("monitor stopped: %v", err)
			}
		}()
	}

	if *replayPath != "" {
		go replay(ctx, cancel, coord, cfg)
	} else {
		client, err := transport.Dial(transport.ClientConfig{
			Host:   *host,
			Port:   *port,
			Team:   cfg.GetTeamName(),
			Coach:  cfg.IsCoach(),
			Goalie: cfg.GetAgentKind() == config.AgentGoalie,
		})
		if err != nil {
			log.Fatalf("failed to connect: %v", err)
		}
		defer client.Close()
		go func() {
			if err := client.Reader().Run(ctx, coord.Dispatch); err != nil && err != context.Canceled {
				log.Printf("reader stopped: %v", err)
			}
			cancel()
		}()
	}

	for coord.AwaitNextCycle() {
		c := coord.Snapshot()
		if recorder != nil && recorder.Session() == "" && c.Self.Side != "" {
			if _, err := recorder.BeginSession(cfg.GetTeamName(), c.Self.Side); err != nil {
				log.Printf("failed to begin recording: %v", err)
			}
		}
		pose := c.Self.Pose
		log.Printf("cycle %d [%s] pose (%.1f, %.1f) heading %.0f, %d players, ball %s",
			c.Time, c.PlayMode, pose.X, pose.Y, pose.Heading, len(c.World.Players()), c.World.Ball().Status)
	}

	cancel()
	wg.Wait()
	log.Printf("stopped")
}

// replay feeds a capture to the coordinator at its recorded pace and stops
// the run once the last cycle had time to complete.
func replay(ctx context.Context, cancel context.CancelFunc, coord *demux.Coordinator, cfg *config.PerceptionConfig) {
	defer cancel()
	f, err := os.Open(*replayPath)
	if err != nil {
		log.Printf("failed to open capture: %v", err)
		return
	}
	defer f.Close()

	n, err := transport.ReplayPCAP(ctx, f, *serverPort, timeutil.RealClock{}, coord.Dispatch)
	if err != nil {
		log.Printf("replay stopped after %d reports: %v", n, err)
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(2*cfg.GetCycleOffsetMs()) * time.Millisecond):
	}
}
