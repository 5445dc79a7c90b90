package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghetti-software-inc/openfiggie/engine"
	"github.com/spaghetti-software-inc/openfiggie/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "figgie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func playDemoRound(t *testing.T) (*engine.Market, []string, engine.Result) {
	t.Helper()
	cfg := config.Defaults()
	ecfg, err := cfg.ToEngine()
	require.NoError(t, err)
	m, err := engine.NewMarket(ecfg)
	require.NoError(t, err)
	m.RunContinuous(cfg.Game.GameDuration)
	return m, cfg.PlayerNames(), m.Finalize()
}

func TestSaveAndLoadRound(t *testing.T) {
	s := openTestStore(t)
	m, names, res := playDemoRound(t)

	require.NoError(t, s.SaveRound("r-1", "Demo Round", "Standard", names, 100, m.Trades, res))

	row, err := s.Round("r-1")
	require.NoError(t, err)
	assert.Equal(t, "Demo Round", row.Title)
	assert.Equal(t, "Spades", row.GoalSuit)
	assert.Equal(t, "Clubs", row.RevealedSuit)
	assert.Equal(t, res.Share, row.Share)

	winners, err := row.Winners()
	require.NoError(t, err)
	assert.Equal(t, res.Winners, winners)

	banks, err := row.Banks()
	require.NoError(t, err)
	require.Len(t, banks, 4)
	for i, name := range names {
		assert.Equal(t, res.FinalCash[i], banks[name])
	}
}

func TestTradeLogRoundTrip(t *testing.T) {
	s := openTestStore(t)
	m, names, res := playDemoRound(t)
	require.NotEmpty(t, m.Trades)

	require.NoError(t, s.SaveRound("r-2", "Demo Round", "Standard", names, 100, m.Trades, res))

	rows, err := s.Trades("r-2")
	require.NoError(t, err)
	require.Equal(t, len(m.Trades), len(rows))
	for i, row := range rows {
		ev := m.Trades[i]
		assert.Equal(t, ev.Index, row.TradeIndex)
		assert.Equal(t, ev.Buyer, row.Buyer)
		assert.Equal(t, ev.Seller, row.Seller)
		assert.Equal(t, ev.Suit.String(), row.Suit)
		assert.Equal(t, ev.Card.Label(), row.Card)
		assert.Equal(t, ev.Price, row.Price)
	}
}

func TestDuplicateRoundIDRejected(t *testing.T) {
	s := openTestStore(t)
	m, names, res := playDemoRound(t)

	require.NoError(t, s.SaveRound("r-3", "Demo Round", "Standard", names, 100, m.Trades, res))
	assert.Error(t, s.SaveRound("r-3", "Demo Round", "Standard", names, 100, m.Trades, res))
}

func TestRoundsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	m, names, res := playDemoRound(t)

	require.NoError(t, s.SaveRound("r-a", "First", "Standard", names, 100, m.Trades, res))
	require.NoError(t, s.SaveRound("r-b", "Second", "Standard", names, 100, m.Trades, res))

	rows, err := s.Rounds(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
