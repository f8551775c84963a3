// Command voicetimer-device runs a voice timer device.
//
// It owns the timer table, ticks it once per second and accepts commands
// from two front ends: the interactive demo console (typed lines stand in
// for recognized speech) and the link listener (framed CBOR requests from
// voicetimer-send or a companion app).
//
// Usage:
//
//	voicetimer-device [flags]
//
// Flags:
//
//	-config string        Configuration file (.yaml, .yml or .toml)
//	-env-file string      .env file (default ".env")
//	-capacity int         Number of timer slots (default 4)
//	-ring int             Seconds an expired timer rings (default 60)
//	-tick duration        Tick interval (default 1s)
//	-link string          Link listen address, empty to disable (default ":7420")
//	-advertise            Advertise the link listener over mDNS
//	-name string          mDNS instance name (default "voicetimer")
//	-metrics string       Serve Prometheus metrics on this address
//	-protocol-log string  Write protocol events to this .vtlog file
//	-log-level string     trace, debug, info, warn, error (default "info")
//	-interactive          Start the demo console
//
// Settings from flags override VOICETIMER_* variables, which override the
// configuration file.
//
// Examples:
//
//	# Demo console only
//	voicetimer-device -interactive -link ""
//
//	# Headless device with discovery and metrics
//	voicetimer-device -advertise -metrics :9100 -protocol-log timers.vtlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/voicetimer/voicetimer-go/cmd/voicetimer-device/interactive"
	"github.com/voicetimer/voicetimer-go/internal/observability"
	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/config"
	"github.com/voicetimer/voicetimer-go/pkg/device"
	"github.com/voicetimer/voicetimer-go/pkg/link"
	"github.com/voicetimer/voicetimer-go/pkg/log"
)

var (
	configFile      string
	envFile         string
	interactiveMode bool
	flagCfg         = config.Defaults()
	historySize     = 64
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file (.yaml, .yml or .toml)")
	flag.StringVar(&envFile, "env-file", ".env", ".env file")
	flag.BoolVar(&interactiveMode, "interactive", false, "Start the demo console")

	flag.IntVar(&flagCfg.Capacity, "capacity", flagCfg.Capacity, "Number of timer slots")
	flag.Func("ring", "Seconds an expired timer rings (default 60)", func(s string) error {
		n, err := strconv.ParseUint(s, 10, 32)
		flagCfg.RingSeconds = uint32(n)
		return err
	})
	flag.DurationVar(&flagCfg.TickInterval, "tick", flagCfg.TickInterval, "Tick interval")
	flag.StringVar(&flagCfg.LinkAddr, "link", flagCfg.LinkAddr, "Link listen address, empty to disable")
	flag.BoolVar(&flagCfg.Advertise, "advertise", flagCfg.Advertise, "Advertise the link listener over mDNS")
	flag.StringVar(&flagCfg.InstanceName, "name", flagCfg.InstanceName, "mDNS instance name")
	flag.StringVar(&flagCfg.MetricsAddr, "metrics", flagCfg.MetricsAddr, "Serve Prometheus metrics on this address")
	flag.StringVar(&flagCfg.ProtocolLog, "protocol-log", flagCfg.ProtocolLog, "Write protocol events to this .vtlog file")
	flag.StringVar(&flagCfg.LogLevel, "log-level", flagCfg.LogLevel, "trace, debug, info, warn, error")
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers the file, .env, environment and explicitly set flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "capacity":
			cfg.Capacity = flagCfg.Capacity
		case "ring":
			cfg.RingSeconds = flagCfg.RingSeconds
		case "tick":
			cfg.TickInterval = flagCfg.TickInterval
		case "link":
			cfg.LinkAddr = flagCfg.LinkAddr
		case "advertise":
			cfg.Advertise = flagCfg.Advertise
		case "name":
			cfg.InstanceName = flagCfg.InstanceName
		case "metrics":
			cfg.MetricsAddr = flagCfg.MetricsAddr
		case "protocol-log":
			cfg.ProtocolLog = flagCfg.ProtocolLog
		case "log-level":
			cfg.LogLevel = flagCfg.LogLevel
		}
	})

	return cfg, cfg.Validate()
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := log.NewRingLogger(historySize)

	// The console owns the terminal, so process logs go through it.
	var (
		console *interactive.Console
		logOut  io.Writer = os.Stderr
	)
	if interactiveMode {
		c, err := interactive.New(history)
		if err != nil {
			return err
		}
		console = c
		logOut = c.Stdout()
	}

	logger, err := observability.InitLogger("voicetimer-device", cfg.LogLevel, logOut)
	if err != nil {
		return err
	}

	loggers := []log.Logger{history, log.NewZerologAdapter(logger)}
	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fl.Close()
		loggers = append(loggers, fl)
		logger.Info().Str("path", fl.Path()).Msg("protocol log enabled")
	}
	protocol := log.NewMultiLogger(loggers...)

	policy := cfg.Policy()
	d := device.New(device.Config{
		Capacity:     cfg.Capacity,
		RingSeconds:  cfg.RingSeconds,
		TickInterval: cfg.TickInterval,
		Policy:       &policy,
		Parser:       command.NewParser(cfg.ParserOptions()...),
		Logger:       protocol,
	})
	if console != nil {
		console.Attach(d)
	}

	logger.Info().
		Int("capacity", cfg.Capacity).
		Uint32("ring_seconds", cfg.RingSeconds).
		Dur("tick", cfg.TickInterval).
		Msg("device starting")

	d.OnEvent(logEvent(logger))

	metrics := observability.NewMetrics()
	metrics.Attach(d)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(metrics), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics enabled")
	}

	if cfg.LinkAddr != "" {
		server := link.NewServer(d, link.ServerConfig{
			Address: cfg.LinkAddr,
			Logger:  protocol,
			OnConnect: func(s *link.Session) {
				metrics.SessionOpened()
				logger.Info().Str("session", s.ID()).Str("remote", s.RemoteAddr()).Msg("link session opened")
			},
			OnDisconnect: func(s *link.Session) {
				metrics.SessionClosed()
				logger.Info().Str("session", s.ID()).Uint64("dropped", s.Dropped()).Msg("link session closed")
			},
			OnError: func(s *link.Session, err error) {
				ev := logger.Warn().Err(err)
				if s != nil {
					ev = ev.Str("session", s.ID())
				}
				ev.Msg("link error")
			},
		})
		if err := server.Start(ctx); err != nil {
			return err
		}
		defer server.Stop()
		logger.Info().Str("addr", server.Addr().String()).Msg("link listening")

		if cfg.Advertise {
			adv := &link.Advertiser{}
			_, port, _ := net.SplitHostPort(server.Addr().String())
			p, _ := strconv.Atoi(port)
			err := adv.Advertise(link.ServiceInfo{
				Instance: cfg.InstanceName,
				Port:     p,
				Capacity: cfg.Capacity,
				Name:     cfg.InstanceName,
			})
			if err != nil {
				logger.Warn().Err(err).Msg("mDNS advertising failed")
			} else {
				defer adv.Stop()
				logger.Info().Str("service", link.ServiceType).Str("instance", cfg.InstanceName).Msg("advertising")
			}
		}
	}

	go func() {
		if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("tick loop stopped")
		}
	}()

	if console != nil {
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	return nil
}

func metricsMux(m *observability.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func logEvent(logger zerolog.Logger) device.EventHandler {
	return func(ev device.Event) {
		switch ev.Kind {
		case device.EventExpired:
			for _, tm := range ev.Timers {
				logger.Info().Str("timer", tm.Name.Display()).Uint32("total", tm.Total).Msg("timer expired")
			}
		case device.EventReaped:
			for _, tm := range ev.Timers {
				logger.Debug().Str("timer", tm.Name.Display()).Msg("timer silenced")
			}
		case device.EventDispatched:
			logger.Debug().
				Str("source", ev.Input.Source.String()).
				Str("cmd", ev.Result.Command.String()).
				Str("status", ev.Result.Status.String()).
				Msg(ev.Result.Message)
		}
	}
}
