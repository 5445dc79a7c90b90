// Package store provides SQLite-based round persistence: every finished
// round is written as one row plus its ordered trade log, so past rounds can
// be inspected or re-exported without keeping the process alive.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/spaghetti-software-inc/openfiggie/engine"
)

// Store wraps a SQLite connection for round persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		variant TEXT NOT NULL,
		goal_suit TEXT NOT NULL,
		revealed_suit TEXT NOT NULL,
		pot REAL NOT NULL,
		share REAL NOT NULL,
		winners_json TEXT NOT NULL,
		banks_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		round_id TEXT NOT NULL,
		trade_index INTEGER NOT NULL,
		t REAL NOT NULL,
		turn INTEGER NOT NULL,
		buyer TEXT NOT NULL,
		seller TEXT NOT NULL,
		suit TEXT NOT NULL,
		card TEXT NOT NULL,
		price REAL NOT NULL,
		PRIMARY KEY (round_id, trade_index)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_round ON trades(round_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// RoundRow is one persisted round summary.
type RoundRow struct {
	ID           string  `db:"id"`
	Title        string  `db:"title"`
	Variant      string  `db:"variant"`
	GoalSuit     string  `db:"goal_suit"`
	RevealedSuit string  `db:"revealed_suit"`
	Pot          float64 `db:"pot"`
	Share        float64 `db:"share"`
	WinnersJSON  string  `db:"winners_json"`
	BanksJSON    string  `db:"banks_json"`
	CreatedAt    string  `db:"created_at"`
}

// Winners decodes the winner list.
func (r RoundRow) Winners() ([]string, error) {
	var w []string
	err := json.Unmarshal([]byte(r.WinnersJSON), &w)
	return w, err
}

// Banks decodes the final bank map.
func (r RoundRow) Banks() (map[string]float64, error) {
	var b map[string]float64
	err := json.Unmarshal([]byte(r.BanksJSON), &b)
	return b, err
}

// TradeRow is one persisted trade.
type TradeRow struct {
	RoundID    string  `db:"round_id"`
	TradeIndex int     `db:"trade_index"`
	T          float64 `db:"t"`
	Turn       int     `db:"turn"`
	Buyer      string  `db:"buyer"`
	Seller     string  `db:"seller"`
	Suit       string  `db:"suit"`
	Card       string  `db:"card"`
	Price      float64 `db:"price"`
}

// SaveRound writes the round summary and its full trade log in one
// transaction.
func (s *Store) SaveRound(roundID, title, variant string, names []string, pot float64, trades []engine.TradeEvent, res engine.Result) error {
	banks := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(res.FinalCash) {
			banks[name] = res.FinalCash[i]
		}
	}
	winnersJSON, _ := json.Marshal(res.Winners)
	banksJSON, _ := json.Marshal(banks)

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO rounds
		(id, title, variant, goal_suit, revealed_suit, pot, share, winners_json, banks_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		roundID, title, variant,
		res.GoalSuit.String(), res.RevealedTwelveSuit.String(),
		pot, res.Share, string(winnersJSON), string(banksJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert round %s: %w", roundID, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO trades
		(round_id, trade_index, t, turn, buyer, seller, suit, card, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range trades {
		_, err := stmt.Exec(
			roundID, ev.Index, ev.Time, ev.Turn,
			ev.Buyer, ev.Seller, ev.Suit.String(), ev.Card.Label(), ev.Price,
		)
		if err != nil {
			return fmt.Errorf("insert trade %d: %w", ev.Index, err)
		}
	}

	return tx.Commit()
}

// Round retrieves one round summary by ID.
func (s *Store) Round(roundID string) (RoundRow, error) {
	var row RoundRow
	err := s.conn.Get(&row, "SELECT * FROM rounds WHERE id = ?", roundID)
	return row, err
}

// Rounds returns the most recent round summaries, newest first.
func (s *Store) Rounds(limit int) ([]RoundRow, error) {
	var rows []RoundRow
	err := s.conn.Select(&rows,
		"SELECT * FROM rounds ORDER BY created_at DESC LIMIT ?", limit)
	return rows, err
}

// Trades returns the ordered trade log of one round.
func (s *Store) Trades(roundID string) ([]TradeRow, error) {
	var rows []TradeRow
	err := s.conn.Select(&rows,
		"SELECT * FROM trades WHERE round_id = ? ORDER BY trade_index", roundID)
	return rows, err
}
