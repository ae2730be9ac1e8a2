// Package main provides poolcored, the pool core daemon: the TCP
// client connector and in-memory accounting store wired together.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/poolcore/ckdb/internal/config"
	"github.com/poolcore/ckdb/internal/connector"
	"github.com/poolcore/ckdb/internal/domain"
	"github.com/poolcore/ckdb/internal/hydrate"
	"github.com/poolcore/ckdb/internal/statsfeed"
	"github.com/poolcore/ckdb/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Config file path")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	log := logging.New(&logging.Config{Level: "info", TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("poolcored %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log = logging.New(&logging.Config{Level: cfg.LogLevel, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	poolInstance := uuid.NewString()
	log.Info("starting pool core daemon", "version", version, "pool_instance", poolInstance)

	stores := domain.NewStores()

	if err := hydrate.FromFile(cfg.Store.HydrateDBPath, stores); err != nil {
		log.Fatal("hydration failed", "error", err)
	}

	var statsHub *statsfeed.Hub
	if cfg.StatsFeed.Enabled {
		statsHub = statsfeed.NewHub()
		stop := make(chan struct{})
		go statsHub.Run(stop)

		stores.Blocks.OnChange(func(b *domain.Block) {
			statsHub.Broadcast(statsfeed.EventBlock, b)
		})
		stores.OptionControl.OnChange(func(o *domain.OptionControl) {
			statsHub.Broadcast(statsfeed.EventOption, o)
		})

		mux := http.NewServeMux()
		mux.HandleFunc("/stats/ws", statsHub.ServeWS)
		srv := &http.Server{Addr: cfg.StatsFeed.ListenAddr, Handler: mux}
		go func() {
			log.Info("stats feed listening", "addr", cfg.StatsFeed.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("stats feed server error", "error", err)
			}
		}()
		defer close(stop)
		defer srv.Close()

		reportPoolStats(stores, statsHub, poolInstance)
	}

	sink := connector.NewChannelSink(256)
	conn := connector.New(sink)

	go drainSink(log, sink)

	go func() {
		if err := bindWithRetry(cfg, func() error {
			return conn.ListenAndServe(cfg.Connector.ListenAddr, cfg.Connector.ControlSocket)
		}); err != nil {
			log.Fatal("connector failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	conn.Shutdown()
	log.Info("goodbye")
}

// bindWithRetry implements spec.md §6/§7 stratum 3's bind-retry policy:
// up to cfg.Connector.BindRetries attempts, cfg.Connector.BindRetryDelaySeconds
// apart, before giving up.
func bindWithRetry(cfg *config.Config, listen func() error) error {
	var err error
	for attempt := 1; attempt <= cfg.Connector.BindRetries; attempt++ {
		err = listen()
		if err == nil {
			return nil
		}
		logging.GetDefault().Warn("bind failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(cfg.Connector.BindRetryDelaySeconds) * time.Second)
	}
	return err
}

// drainSink forwards egress traffic to the (out-of-scope) stratifier
// transport. Only logging happens here; the real IPC bridge is a
// Non-goal of this core.
func drainSink(log *logging.Logger, sink *connector.ChannelSink) {
	for e := range sink.Out() {
		if e.Dropped {
			log.Debug("client dropped", "client_id", e.ClientID)
			continue
		}
		log.Debug("message forwarded to stratifier", "bytes", len(e.Line))
	}
}

// reportPoolStats publishes the latest snapshot for poolInstance to the
// admin feed every 10 seconds, whether or not a new one was recorded
// since the last tick — there is no push hook from
// domain.PoolStatsStore, so polling stands in for one.
func reportPoolStats(stores *domain.Stores, hub *statsfeed.Hub, poolInstance string) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if latest, ok := stores.PoolStats.Latest(poolInstance); ok {
				hub.Broadcast(statsfeed.EventPoolStats, latest)
			}
		}
	}()
}
