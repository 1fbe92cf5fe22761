// Command grout-pump runs the hydraulic valve controller: it polls the
// remote-control and sensor inputs, drives the two SSR outputs through
// the control core, and exposes status over HTTP/WebSocket and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/jakepeery/grout-pump/internal/control"
	"github.com/jakepeery/grout-pump/internal/gpio"
	"github.com/jakepeery/grout-pump/internal/mqtt"
	"github.com/jakepeery/grout-pump/internal/settings"
	"github.com/jakepeery/grout-pump/internal/status"
	"github.com/jakepeery/grout-pump/internal/web"
)

const statusInterval = time.Second

func main() {
	poll := flag.Duration("poll", 20*time.Millisecond, "control tick interval")
	debounce := flag.Duration("debounce", 50*time.Millisecond, "input debounce window")
	settle := flag.Duration("settle", 500*time.Millisecond, "dead time after a direction reversal")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	settingsPath := flag.String("settings", settings.DefaultPath, "persisted settings file")
	mdnsName := flag.String("mdns", "grout-pump", "mDNS instance name (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current input state and exit")

	flag.Parse()

	if err := run(*poll, *debounce, *settle, *broker, *httpAddr, *settingsPath, *mdnsName, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll, debounce, settle time.Duration, broker, httpAddr, settingsPath, mdnsName string, printState bool) error {
	io, err := gpio.NewRealIO(gpio.DefaultPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer io.Close()

	if printState {
		in, err := io.ReadInputs()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("A=%v B=%v C=%v D=%v endstopIn=%v endstopOut=%v estop=%v\n",
			in.A, in.B, in.C, in.D, in.EndStopIn, in.EndStopOut, in.Estop)
		return nil
	}

	// Persisted settings: documented defaults when the file is absent.
	store := settings.NewStore(settingsPath)
	persisted, err := store.Load()
	if err != nil {
		log.Printf("load settings: %v (using defaults)", err)
		persisted = settings.Default()
	}
	log.Printf("settings: cycleTimeout=%dms timeoutEnabled=%v",
		persisted.CycleTimeoutMs, persisted.TimeoutEnabled)

	ctrl := control.New(control.Config{
		Debounce:       debounce,
		SettleDelay:    settle,
		CycleTimeout:   time.Duration(persisted.CycleTimeoutMs) * time.Millisecond,
		TimeoutEnabled: persisted.TimeoutEnabled,
	})

	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:     poll.Milliseconds(),
		DebounceMs: debounce.Milliseconds(),
		SettleMs:   settle.Milliseconds(),
		Broker:     broker,
		HTTPAddr:   httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Mutations from the web layer reach the loop through this channel;
	// the tick drains it, so settings take effect on the next pass.
	cmds := make(chan command, 16)
	controls := &loopControls{cmds: cmds, store: store}

	var srv *web.Server
	if httpAddr != "" {
		srv = web.New(httpAddr, tracker, controls)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http interface listening on %s", httpAddr)
	}

	if mdnsName != "" && httpAddr != "" {
		if port, perr := addrPort(httpAddr); perr != nil {
			log.Printf("mdns: %v", perr)
		} else if mdnsSrv, merr := zeroconf.Register(mdnsName, "_http._tcp", "local.", port, []string{"path=/"}, nil); merr != nil {
			log.Printf("mdns register failed: %v", merr)
		} else {
			defer mdnsSrv.Shutdown()
			log.Printf("mdns: advertising %s._http._tcp.local", mdnsName)
		}
	}

	// Publish startup with a full status snapshot.
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatCompact(snap),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	log.Printf("started: poll=%v debounce=%v settle=%v broker=%s", poll, debounce, settle, broker)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var bc broadcaster
	if srv != nil {
		bc = srv
	}
	return runLoop(io, ctrl, publisher, publisher, tracker, bc, cmds, time.Now, ticker.C, sigCh)
}

// command is a deferred mutation applied to the controller between ticks.
type command func(*control.Controller)

// broadcaster pushes status payloads to live listeners.
type broadcaster interface {
	Broadcast(payload []byte)
}

// runLoop is the single thread of control: one tick per ticker fire,
// commands drained first, then inputs, control logic, outputs, events.
// Nothing in here may block on the network.
func runLoop(io gpio.IO, ctrl *control.Controller, publisher mqtt.Publisher, connStatus mqtt.ConnectionStatus, tracker *status.Tracker, bc broadcaster, cmds <-chan command, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var lastBroadcast time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			// Outputs low before anything else.
			if err := io.SetOutputs(false, false); err != nil {
				log.Printf("failed to clear outputs on shutdown: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := now()

			// Apply queued settings/halt commands before control logic,
			// so "takes effect on the next tick" holds.
			for {
				select {
				case cmd := <-cmds:
					cmd(ctrl)
					continue
				default:
				}
				break
			}

			in, err := io.ReadInputs()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			res := ctrl.Tick(control.Input{
				A: in.A, B: in.B, C: in.C, D: in.D,
				EndStopIn:  in.EndStopIn,
				EndStopOut: in.EndStopOut,
				Estop:      in.Estop,
				Time:       t,
			})

			if err := io.SetOutputs(res.Outputs.Gpo1, res.Outputs.Gpo2); err != nil {
				log.Printf("gpio write error: %v", err)
			}

			for _, ev := range res.Events {
				log.Printf("event: %s (mode=%s direction=%s reason=%s)",
					ev.Type, ev.Mode, ev.Direction, ev.Reason)
				if err := publisher.Publish(ev); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			tracker.Update(ctrl.Snapshot(t))
			if connStatus != nil {
				tracker.SetMQTTConnected(connStatus.IsConnected())
			}

			// Push to live listeners on any observable change, or on the
			// fallback interval so slow pollers see liveness.
			if res.Changed || t.Sub(lastBroadcast) >= statusInterval {
				if bc != nil {
					bc.Broadcast(status.FormatCompact(tracker.Snapshot()))
				}
				lastBroadcast = t
			}
		}
	}
}

// loopControls implements web.Controls by persisting through the store
// and queueing controller mutations for the loop.
type loopControls struct {
	cmds  chan<- command
	store *settings.Store
}

// ApplySettings validates, persists, then queues the core update.
// Out-of-range values are rejected here and never reach the core.
func (lc *loopControls) ApplySettings(cycleTimeoutMs int64, timeoutEnabled bool) error {
	cur := lc.store.Current()
	cur.CycleTimeoutMs = cycleTimeoutMs
	cur.TimeoutEnabled = timeoutEnabled
	if err := lc.store.Save(cur); err != nil {
		return err
	}

	timeout := time.Duration(cycleTimeoutMs) * time.Millisecond
	select {
	case lc.cmds <- func(c *control.Controller) {
		c.SetCycleTimeout(timeout)
		c.SetTimeoutEnabled(timeoutEnabled)
	}:
		return nil
	default:
		return fmt.Errorf("control loop not accepting commands")
	}
}

// SetWifi persists the credential pair. The core never sees it; the
// host OS owns the actual network association.
func (lc *loopControls) SetWifi(ssid, password string) error {
	cur := lc.store.Current()
	cur.WifiSSID = ssid
	cur.WifiPassword = password
	return lc.store.Save(cur)
}

// Halt queues the halt and waits for the loop to execute it, so the
// caller knows the outputs are low when Halt returns.
func (lc *loopControls) Halt() error {
	done := make(chan struct{})
	select {
	case lc.cmds <- func(c *control.Controller) {
		c.Halt()
		close(done)
	}:
	default:
		return fmt.Errorf("control loop not accepting commands")
	}

	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		return fmt.Errorf("control loop did not acknowledge halt")
	}
}

// addrPort extracts the TCP port from a listen address like ":80".
func addrPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("parse http addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("parse http port %q: %w", portStr, err)
	}
	return port, nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
