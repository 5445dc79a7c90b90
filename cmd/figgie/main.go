// Command figgie simulates one Figgie trading round. It loads a round
// configuration (or the built-in demo round), plays it to completion under
// the configured scheduling variant, and prints the finished round as
// Portable Figgie Notation. Optional sinks — a local SQLite store, a
// PostgreSQL archive, a Redis event bus and a spectator WebSocket server —
// are wired in when enabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/spaghetti-software-inc/openfiggie/engine"
	"github.com/spaghetti-software-inc/openfiggie/internal/bus"
	"github.com/spaghetti-software-inc/openfiggie/internal/config"
	"github.com/spaghetti-software-inc/openfiggie/internal/game"
	"github.com/spaghetti-software-inc/openfiggie/internal/pfn"
	"github.com/spaghetti-software-inc/openfiggie/internal/prompt"
	"github.com/spaghetti-software-inc/openfiggie/internal/store"
	"github.com/spaghetti-software-inc/openfiggie/internal/store/postgres"
	"github.com/spaghetti-software-inc/openfiggie/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to round configuration (empty: built-in demo round)")
	outPath := flag.String("out", "", "write PFN output to this file instead of stdout")
	interactive := flag.Bool("interactive", false, "prompt on stdin for human-controlled seats")
	seed := flag.Uint64("seed", 0, "override the configured RNG seed (0: keep configured)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).WithField("path", *configPath).Fatal("failed to load config")
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	round, err := game.NewRound(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build round")
	}
	if *interactive {
		round.SetDecisionProvider(prompt.New(os.Stdin, os.Stdout))
	}

	// Initial hands, captured before any trade moves a card.
	deal := pfn.DealStrings(round.Market.Snapshot())

	var targets []game.BroadcastFn

	if cfg.Server.Enabled {
		hub := ws.NewHub(log)
		defer hub.Shutdown()
		targets = append(targets, hub.Broadcast)

		srv := &http.Server{Addr: cfg.Server.Addr, Handler: hub.Handler()}
		go func() {
			log.WithField("addr", cfg.Server.Addr).Info("spectator server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("spectator server failed")
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	if cfg.Redis.Enabled {
		pub, err := bus.New(ctx, bus.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer pub.Close()
		targets = append(targets, func(ev game.GameEvent) {
			if err := pub.Publish(ctx, ev); err != nil {
				log.WithError(err).Warn("redis publish failed")
			}
		})
	}

	if len(targets) > 0 {
		round.BroadcastFn = func(ev game.GameEvent) {
			for _, fn := range targets {
				fn(ev)
			}
		}
	}

	res := round.Run()

	names := cfg.PlayerNames()
	if cfg.Store.Enabled {
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			log.WithError(err).Fatal("failed to open store")
		}
		defer s.Close()
		err = s.SaveRound(round.ID.String(), cfg.Game.Title, cfg.Game.GameVariant,
			names, cfg.Engine.Pot, round.Market.Trades, res)
		if err != nil {
			log.WithError(err).Error("failed to persist round")
		}
	}

	if cfg.Postgres.Enabled {
		client, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			log.WithError(err).Error("failed to connect to archive")
		} else {
			defer client.Close()
			if err := client.EnsureSchema(ctx); err != nil {
				log.WithError(err).Error("failed to ensure archive schema")
			} else if err := client.ArchiveRound(ctx, round.ID.String(), cfg.Game.Title,
				cfg.Game.GameVariant, names, cfg.Engine.Pot, round.Market.Trades, res); err != nil {
				log.WithError(err).Error("failed to archive round")
			}
		}
	}

	if err := writePFN(cfg, deal, round.Market.Trades, res, *outPath); err != nil {
		log.WithError(err).Fatal("failed to write PFN output")
	}
}

// writePFN renders the finished round as PFN to outPath, or stdout when
// outPath is empty.
func writePFN(cfg *config.Config, deal map[string]string, trades []engine.TradeEvent, res engine.Result, outPath string) error {
	doc := pfn.Build(cfg, deal, trades, res)

	if outPath == "" {
		return doc.Encode(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()
	return doc.Encode(f)
}
