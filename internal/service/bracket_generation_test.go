package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFirstPhase(t *testing.T) {
	for n := 2; n <= 17; n++ {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			participants := make([]bracket.Participant, n)
			for i := range participants {
				participants[i] = bracket.Participant{ID: int64(i + 1), Name: fmt.Sprintf("P%d", i+1), Kind: bracket.KindPlayer}
			}

			pairings, byes := seedFirstPhase(1, bracket.KindPlayer, participants)

			byesNeeded := bracket.BracketSize(n) - n
			assert.Len(t, byes, byesNeeded)
			assert.Len(t, pairings, (n-byesNeeded)/2)

			seen := make(map[int64]int)
			for _, m := range append(pairings, byes...) {
				require.NoError(t, m.Validate())
				assert.Equal(t, 1, m.Phase)
				for _, id := range m.OpponentIDs() {
					seen[id]++
				}
			}
			assert.Len(t, seen, n, "every participant is placed")
			for id, count := range seen {
				assert.Equal(t, 1, count, "participant %d placed once", id)
			}

			for _, m := range byes {
				assert.True(t, m.Finished())
				assert.Equal(t, m.Opponents.First.ID, *m.WinnerID)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	result, err := f.brackets.Generate(ctx, f.categoryID, bracket.GameTypeIndividual)
	require.NoError(t, err)
	assert.False(t, result.AlreadyGenerated)
	assert.Equal(t, 1, result.GamesCreated)
	assert.Equal(t, 3, result.ByesCreated)
	assert.Equal(t, 5, result.TotalParticipants)
	assert.Len(t, result.ParticipantsWithBye, 3)
	assert.Equal(t, 1, result.Phase)

	matches := f.phaseMatches(t, 1)
	require.Len(t, matches, 4)
	byes := 0
	for _, m := range matches {
		assert.False(t, m.IsTeamGame())
		if m.IsBye {
			byes++
			assert.Equal(t, bracket.MatchCompleted, m.Status)
			assert.Contains(t, result.ParticipantsWithBye, m.Opponents.First.Name)
		} else {
			assert.Equal(t, bracket.MatchPending, m.Status)
		}
	}
	assert.Equal(t, 3, byes)

	phase := f.phase(t, 1)
	assert.Equal(t, bracket.FirstPhaseName, phase.Name)
	assert.Equal(t, 5, phase.TotalPlayers)
	assert.True(t, phase.IsActive)

	t.Run("Second call is a no-op", func(t *testing.T) {
		again, err := f.brackets.Generate(ctx, f.categoryID, bracket.GameTypeIndividual)
		require.NoError(t, err)
		assert.True(t, again.AlreadyGenerated)
		assert.Len(t, f.phaseMatches(t, 1), 4)

		body, err := json.Marshal(again)
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"Jogos já foram gerados para esta categoria na primeira fase!"}`, string(body))
	})
}

func TestGeneratePowerOfTwoHasNoByes(t *testing.T) {
	f := newFixture(t, 8)

	result, err := f.brackets.Generate(context.Background(), f.categoryID, bracket.GameTypeIndividual)
	require.NoError(t, err)
	assert.Equal(t, 4, result.GamesCreated)
	assert.Zero(t, result.ByesCreated)
	assert.Empty(t, result.ParticipantsWithBye)
}

func TestGenerateTeams(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	for i := 0; i < 4; i += 2 {
		_, err := f.rosters.CreateTeam(ctx, f.categoryID, "", f.players[i].ID, f.players[i+1].ID)
		require.NoError(t, err)
	}

	result, err := f.brackets.Generate(ctx, f.categoryID, "dupla")
	require.NoError(t, err)
	assert.Equal(t, 1, result.GamesCreated)
	assert.Equal(t, 2, result.TotalParticipants)

	matches := f.phaseMatches(t, 1)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].IsTeamGame())
	assert.Contains(t, []string{"Jogador 1 / Jogador 2", "Jogador 3 / Jogador 4"}, matches[0].Opponents.First.Name)
}

func TestGenerateValidation(t *testing.T) {
	testCases := []struct {
		name       string
		players    int
		categoryID func(f *fixture) int64
		gameType   string
		expected   string
	}{
		{
			name:       "Missing category",
			players:    2,
			categoryID: func(*fixture) int64 { return 0 },
			gameType:   bracket.GameTypeIndividual,
			expected:   "Category ID is required",
		},
		{
			name:       "Single player",
			players:    1,
			categoryID: func(f *fixture) int64 { return f.categoryID },
			gameType:   bracket.GameTypeIndividual,
			expected:   "É necessário pelo menos 2 jogadores na categoria",
		},
		{
			name:       "No teams",
			players:    4,
			categoryID: func(f *fixture) int64 { return f.categoryID },
			gameType:   "dupla",
			expected:   "É necessário pelo menos 2 duplas na categoria",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.players)

			_, err := f.brackets.Generate(context.Background(), tc.categoryID(f), tc.gameType)
			var validation *bracket.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.expected, validation.Msg)

			phases, err := f.tournaments.GetPhases(context.Background(), f.categoryID)
			require.NoError(t, err)
			assert.Empty(t, phases)
		})
	}
}

func TestShufflerDeterministic(t *testing.T) {
	order := func(seed uint64) []int {
		items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		shuffle(NewShuffler(seed), items)
		return items
	}

	first := order(42)
	assert.Equal(t, first, order(42))
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, first)
}
