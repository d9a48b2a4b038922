package service

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/db"
	"github.com/AdamBeresnev/badminton-bracket/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err, "Failed to open in-memory DB")
	t.Cleanup(func() { database.Close() })

	return database
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	roster      *store.RosterStore
	brackets    *BracketService
	matches     *MatchService
	rosters     *RosterService
	categoryID  int64
	players     []bracket.Player
}

// newFixture builds a category with n players named "Jogador 1".."Jogador n".
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	ctx := context.Background()

	database := setupTestDB(t)
	log := quietLogger()
	f := &fixture{
		db:          database,
		tournaments: store.NewTournamentStore(database),
		roster:      store.NewRosterStore(database),
	}
	f.brackets = NewBracketService(f.tournaments, WithShuffler(NewShuffler(7)), WithLogger(log))
	f.matches = NewMatchService(database, f.tournaments, log)
	f.rosters = NewRosterService(f.roster, log)

	category, err := f.rosters.CreateCategory(ctx, "Simples Misto")
	require.NoError(t, err)
	f.categoryID = category.ID

	for i := 1; i <= n; i++ {
		p, err := f.rosters.CreatePlayer(ctx, f.categoryID, fmt.Sprintf("Jogador %d", i))
		require.NoError(t, err)
		f.players = append(f.players, *p)
	}
	return f
}

func (f *fixture) phaseMatches(t *testing.T, phase int) []bracket.Match {
	t.Helper()
	matches, err := f.tournaments.GetMatchesByPhase(context.Background(), f.categoryID, phase)
	require.NoError(t, err)
	return matches
}

// finishPhase decides every open match of a phase by walkover for its first opponent.
func (f *fixture) finishPhase(t *testing.T, phase int) {
	t.Helper()
	for _, m := range f.phaseMatches(t, phase) {
		if m.Finished() {
			continue
		}
		f.finishMatch(t, m.ID)
	}
}

func (f *fixture) finishMatch(t *testing.T, matchID int64) {
	t.Helper()
	_, err := f.matches.RecordResult(context.Background(), matchID, ResultInput{Walkover: true, WinnerSlot: 1})
	require.NoError(t, err)
}

func (f *fixture) phase(t *testing.T, number int) *bracket.Phase {
	t.Helper()
	phase, err := f.tournaments.GetPhase(context.Background(), f.categoryID, number)
	require.NoError(t, err)
	return phase
}
