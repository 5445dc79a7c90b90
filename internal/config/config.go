// Package config defines the round and service configuration for the figgie
// simulator and provides validation helpers.
//
// The round definition uses Portable Figgie Notation (PFN) section names
// (FiggieGame, DeckSetup, Deal) so a recorded round file can be replayed as a
// configuration. Operational sections (engine, store, redis, server) are
// service-local and never appear in PFN output.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghetti-software-inc/openfiggie/engine"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FIGGIE_* environment variables.
type Config struct {
	Game     GameConfig        `toml:"FiggieGame"`
	Deck     DeckConfig        `toml:"DeckSetup"`
	Deal     map[string]string `toml:"Deal"`
	Engine   EngineConfig      `toml:"engine"`
	Store    StoreConfig       `toml:"store"`
	Postgres PostgresConfig    `toml:"postgres"`
	Redis    RedisConfig       `toml:"redis"`
	Server   ServerConfig      `toml:"server"`
	LogLevel string            `toml:"log_level"`
}

// GameConfig is the PFN [FiggieGame] section.
type GameConfig struct {
	Title        string  `toml:"Title"`
	GameID       string  `toml:"GameID"`
	Players      int     `toml:"Players"`
	Date         string  `toml:"Date"`
	GameDuration float64 `toml:"GameDuration"` // simulated seconds, continuous variant
	Turns        int     `toml:"Turns"`        // turn budget, turn-based variant
	GameVariant  string  `toml:"GameVariant"`  // "Standard" or "TurnBased"
	Humans       []int   `toml:"Humans"`       // 1-based seats controlled interactively
}

// DeckConfig is the PFN [DeckSetup] section.
type DeckConfig struct {
	GoalSuitColor string         `toml:"GoalSuitColor"`
	GoalSuit      string         `toml:"GoalSuit"`
	Distribution  map[string]int `toml:"Distribution"`
}

// EngineConfig holds the belief and pricing model parameters.
type EngineConfig struct {
	InitialCash     float64 `toml:"initial_cash"`
	Pot             float64 `toml:"pot"`
	MeanGap         float64 `toml:"mean_gap"`
	Sigma           float64 `toml:"sigma"`
	BuyerSteepness  float64 `toml:"buyer_steepness"`
	SellerSteepness float64 `toml:"seller_steepness"`
	NoiseRange      float64 `toml:"noise_range"`
	MinPrice        float64 `toml:"min_price"`
	Belief          string  `toml:"belief"` // "exact" or "particle"
	Particles       int     `toml:"particles"`
	ResampleRatio   float64 `toml:"resample_ratio"`
	Seed            uint64  `toml:"seed"`
}

// StoreConfig holds the local SQLite trade log parameters.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// PostgresConfig holds the optional round archive connection parameters.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds the optional event bus connection parameters.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// ServerConfig holds the optional spectator WebSocket server parameters.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Variant names accepted in [FiggieGame].GameVariant.
const (
	VariantStandard  = "Standard"
	VariantTurnBased = "TurnBased"
)

// Defaults returns a Config populated with the demo round values.
func Defaults() Config {
	p := engine.DefaultParams()
	return Config{
		Game: GameConfig{
			Title:        "Demo Round",
			GameID:       "G12345",
			Players:      4,
			GameDuration: 60.0,
			GameVariant:  VariantStandard,
		},
		Deck: DeckConfig{
			GoalSuitColor: "Black",
			GoalSuit:      "Spades",
			Distribution: map[string]int{
				"Spades": 10, "Clubs": 12, "Hearts": 10, "Diamonds": 8,
			},
		},
		Engine: EngineConfig{
			InitialCash:     350,
			Pot:             100,
			MeanGap:         p.MeanGap,
			Sigma:           p.Sigma,
			BuyerSteepness:  p.BuyerSteepness,
			SellerSteepness: p.SellerSteepness,
			NoiseRange:      p.NoiseRange,
			MinPrice:        p.MinPrice,
			Belief:          "exact",
			Particles:       p.Particles,
			ResampleRatio:   p.ResampleRatio,
			Seed:            42,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "figgie.db",
		},
		Postgres: PostgresConfig{
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "figgie.events",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or inconsistent values and returns a
// combined error describing every problem found. Deck-level invariants (the
// 12/10/10/8 shape, deal-vs-distribution match) are re-checked by the engine
// at round construction; Validate catches what the engine cannot see.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: trace, debug, info, warn, error)", c.LogLevel))
	}

	switch c.Game.GameVariant {
	case VariantStandard:
		if c.Game.GameDuration <= 0 {
			errs = append(errs, "FiggieGame: GameDuration must be positive for the Standard variant")
		}
	case VariantTurnBased:
		if c.Game.Turns <= 0 {
			errs = append(errs, "FiggieGame: Turns must be positive for the TurnBased variant")
		}
	default:
		errs = append(errs, fmt.Sprintf("FiggieGame: unknown GameVariant %q (valid: Standard, TurnBased)", c.Game.GameVariant))
	}
	if c.Game.Players < 2 {
		errs = append(errs, fmt.Sprintf("FiggieGame: Players must be at least 2, got %d", c.Game.Players))
	}
	for _, seat := range c.Game.Humans {
		if seat < 1 || seat > c.Game.Players {
			errs = append(errs, fmt.Sprintf("FiggieGame: human seat %d out of range 1..%d", seat, c.Game.Players))
		}
	}

	goal, ok := engine.ParseSuit(c.Deck.GoalSuit)
	if !ok {
		errs = append(errs, fmt.Sprintf("DeckSetup: unknown GoalSuit %q", c.Deck.GoalSuit))
	} else if c.Deck.GoalSuitColor != "" && goal.Color().String() != c.Deck.GoalSuitColor {
		errs = append(errs, fmt.Sprintf("DeckSetup: GoalSuit %s is %s, not %s", goal, goal.Color(), c.Deck.GoalSuitColor))
	}
	for name := range c.Deck.Distribution {
		if _, ok := engine.ParseSuit(name); !ok {
			errs = append(errs, fmt.Sprintf("DeckSetup: unknown suit %q in Distribution", name))
		}
	}

	if len(c.Deal) > 0 && len(c.Deal) != c.Game.Players {
		errs = append(errs, fmt.Sprintf("Deal: %d hands for %d players", len(c.Deal), c.Game.Players))
	}

	if c.Engine.Belief != "exact" && c.Engine.Belief != "particle" {
		errs = append(errs, fmt.Sprintf("engine: unknown belief %q (valid: exact, particle)", c.Engine.Belief))
	}
	if c.Engine.Sigma <= 0 {
		errs = append(errs, "engine: sigma must be positive")
	}
	if c.Engine.MinPrice <= 0 {
		errs = append(errs, "engine: min_price must be positive")
	}
	if c.Engine.MeanGap <= 0 {
		errs = append(errs, "engine: mean_gap must be positive")
	}

	if c.Store.Enabled && c.Store.Path == "" {
		errs = append(errs, "store: path must not be empty when enabled")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		errs = append(errs, "postgres: dsn must not be empty when enabled")
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.Channel == "" {
			errs = append(errs, "redis: channel must not be empty when enabled")
		}
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// PlayerNames returns the round's player names in deterministic order: the
// sorted Deal keys when a fixed deal is present, otherwise generated
// "P1".."PN" seat names.
func (c *Config) PlayerNames() []string {
	if len(c.Deal) > 0 {
		names := make([]string, 0, len(c.Deal))
		for name := range c.Deal {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	names := make([]string, c.Game.Players)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", i+1)
	}
	return names
}

// ToEngine translates the validated configuration into an engine.Config.
// Card labels in the Deal section are comma-separated PFN labels.
func (c *Config) ToEngine() (engine.Config, error) {
	var dist engine.Distribution
	for name, count := range c.Deck.Distribution {
		s, ok := engine.ParseSuit(name)
		if !ok {
			return engine.Config{}, fmt.Errorf("distribution: unknown suit %q", name)
		}
		dist[s] = count
	}

	goal, ok := engine.ParseSuit(c.Deck.GoalSuit)
	if !ok {
		return engine.Config{}, fmt.Errorf("unknown goal suit %q", c.Deck.GoalSuit)
	}

	names := c.PlayerNames()

	var deal [][]engine.Card
	if len(c.Deal) > 0 {
		deal = make([][]engine.Card, len(names))
		for i, name := range names {
			hand, err := parseHand(c.Deal[name])
			if err != nil {
				return engine.Config{}, fmt.Errorf("deal for %s: %w", name, err)
			}
			deal[i] = hand
		}
	}

	var humans []bool
	if len(c.Game.Humans) > 0 {
		humans = make([]bool, len(names))
		for _, seat := range c.Game.Humans {
			if seat < 1 || seat > len(names) {
				return engine.Config{}, fmt.Errorf("human seat %d out of range", seat)
			}
			humans[seat-1] = true
		}
	}

	belief := engine.BeliefExact
	if c.Engine.Belief == "particle" {
		belief = engine.BeliefParticle
	}

	cfg := engine.Config{
		Distribution: dist,
		GoalSuit:     goal,
		Names:        names,
		Humans:       humans,
		Deal:         deal,
		InitialCash:  c.Engine.InitialCash,
		Pot:          c.Engine.Pot,
		Belief:       belief,
		Seed:         c.Engine.Seed,
		Params: engine.Params{
			Sigma:           c.Engine.Sigma,
			BuyerSteepness:  c.Engine.BuyerSteepness,
			SellerSteepness: c.Engine.SellerSteepness,
			NoiseRange:      c.Engine.NoiseRange,
			MinPrice:        c.Engine.MinPrice,
			MeanGap:         c.Engine.MeanGap,
			Particles:       c.Engine.Particles,
			ResampleRatio:   c.Engine.ResampleRatio,
		},
	}
	if c.Game.GameVariant == VariantTurnBased {
		cfg.Turns = c.Game.Turns
	} else {
		cfg.Duration = c.Game.GameDuration
	}
	return cfg, nil
}

// parseHand splits a comma-separated PFN hand string ("S1,S2,C7") into cards.
func parseHand(s string) ([]engine.Card, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	hand := make([]engine.Card, 0, len(parts))
	for _, p := range parts {
		c, err := engine.ParseCard(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		hand = append(hand, c)
	}
	return hand, nil
}
