// Package postgres implements an optional long-term round archive using
// PostgreSQL via pgx. The local SQLite store is authoritative during a run;
// the archive exists so a fleet of simulators can pool results.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spaghetti-software-inc/openfiggie/engine"
)

// ClientConfig holds connection parameters for the archive client.
type ClientConfig struct {
	DSN      string
	MaxConns int
	MinConns int
}

// Client wraps a pgxpool.Pool and manages the archive schema.
type Client struct {
	pool *pgxpool.Pool
}

// New creates a new Client with a connection pool configured from cfg and
// verifies connectivity.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Close shuts down the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}

// EnsureSchema creates the archive tables when they do not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS figgie_rounds (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		variant TEXT NOT NULL,
		goal_suit TEXT NOT NULL,
		revealed_suit TEXT NOT NULL,
		pot DOUBLE PRECISION NOT NULL,
		share DOUBLE PRECISION NOT NULL,
		winners JSONB NOT NULL,
		banks JSONB NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS figgie_trades (
		round_id TEXT NOT NULL REFERENCES figgie_rounds(id),
		trade_index INTEGER NOT NULL,
		t DOUBLE PRECISION NOT NULL,
		turn INTEGER NOT NULL,
		buyer TEXT NOT NULL,
		seller TEXT NOT NULL,
		suit TEXT NOT NULL,
		card TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (round_id, trade_index)
	);`
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// ArchiveRound writes the round summary and batches the trade log. Re-runs
// are idempotent: an already archived round is left untouched.
func (c *Client) ArchiveRound(ctx context.Context, roundID, title, variant string, names []string, pot float64, trades []engine.TradeEvent, res engine.Result) error {
	banks := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(res.FinalCash) {
			banks[name] = res.FinalCash[i]
		}
	}
	winnersJSON, _ := json.Marshal(res.Winners)
	banksJSON, _ := json.Marshal(banks)

	tag, err := c.pool.Exec(ctx, `INSERT INTO figgie_rounds
		(id, title, variant, goal_suit, revealed_suit, pot, share, winners, banks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		roundID, title, variant,
		res.GoalSuit.String(), res.RevealedTwelveSuit.String(),
		pot, res.Share, winnersJSON, banksJSON,
	)
	if err != nil {
		return fmt.Errorf("postgres: archive round %s: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, ev := range trades {
		batch.Queue(`INSERT INTO figgie_trades
			(round_id, trade_index, t, turn, buyer, seller, suit, card, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (round_id, trade_index) DO NOTHING`,
			roundID, ev.Index, ev.Time, ev.Turn,
			ev.Buyer, ev.Seller, ev.Suit.String(), ev.Card.Label(), ev.Price,
		)
	}
	br := c.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range trades {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: archive trades for %s: %w", roundID, err)
		}
	}
	return nil
}

// TradeCount returns the number of archived trades for a round.
func (c *Client) TradeCount(ctx context.Context, roundID string) (int, error) {
	var n int
	err := c.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM figgie_trades WHERE round_id = $1", roundID,
	).Scan(&n)
	return n, err
}
