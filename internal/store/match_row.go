package store

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/utils"
)

// matchRow is the elimination_games layout: opponents live in either the
// player columns or the team columns depending on is_team_game.
type matchRow struct {
	ID           int64   `db:"id"`
	CategoryID   int64   `db:"category_id"`
	Phase        int     `db:"phase"`
	IsTeamGame   bool    `db:"is_team_game"`
	Status       string  `db:"status"`
	IsBye        bool    `db:"is_bye"`
	WinnerID     *int64  `db:"winner_id"`
	Player1ID    *int64  `db:"player1_id"`
	Player2ID    *int64  `db:"player2_id"`
	Team1ID      *int64  `db:"team1_id"`
	Team2ID      *int64  `db:"team2_id"`
	Player1Score *int    `db:"player1_score"`
	Player2Score *int    `db:"player2_score"`
	Set1Player1  *int    `db:"set1_player1"`
	Set1Player2  *int    `db:"set1_player2"`
	Set2Player1  *int    `db:"set2_player1"`
	Set2Player2  *int    `db:"set2_player2"`
	Set3Player1  *int    `db:"set3_player1"`
	Set3Player2  *int    `db:"set3_player2"`
	IsWO         bool    `db:"is_wo"`
	GameDate     *string `db:"game_date"`

	CreatedAt time.Time `db:"created_at"`

	// Resolved from players/teams on reads
	Name1 *string `db:"name1"`
	Name2 *string `db:"name2"`
}

func newMatchRow(m *bracket.Match) matchRow {
	r := matchRow{
		ID:           m.ID,
		CategoryID:   m.CategoryID,
		Phase:        m.Phase,
		IsTeamGame:   m.IsTeamGame(),
		Status:       string(m.Status),
		IsBye:        m.IsBye,
		WinnerID:     m.WinnerID,
		Player1Score: m.Result.SetsWon1,
		Player2Score: m.Result.SetsWon2,
		IsWO:         m.Result.Walkover,
		GameDate:     m.GameDate,
	}

	first := m.Opponents.First.ID
	var second *int64
	if m.Opponents.Second != nil {
		id := m.Opponents.Second.ID
		second = &id
	}
	if r.IsTeamGame {
		r.Team1ID, r.Team2ID = &first, second
	} else {
		r.Player1ID, r.Player2ID = &first, second
	}

	setScores := func(i int) (*int, *int) {
		set := m.Result.Sets[i]
		if set == nil {
			return nil, nil
		}
		return utils.Ptr(set.Side1), utils.Ptr(set.Side2)
	}
	r.Set1Player1, r.Set1Player2 = setScores(0)
	r.Set2Player1, r.Set2Player2 = setScores(1)
	r.Set3Player1, r.Set3Player2 = setScores(2)
	return r
}

func (r *matchRow) toMatch() (bracket.Match, error) {
	kind := bracket.KindPlayer
	first, second := r.Player1ID, r.Player2ID
	if r.IsTeamGame {
		kind = bracket.KindTeam
		first, second = r.Team1ID, r.Team2ID
	}
	if first == nil {
		return bracket.Match{}, fmt.Errorf("match %d has no first opponent", r.ID)
	}

	m := bracket.Match{
		ID:         r.ID,
		CategoryID: r.CategoryID,
		Phase:      r.Phase,
		Opponents: bracket.Opponents{
			Kind:  kind,
			First: bracket.Side{ID: *first, Name: utils.OrZero(r.Name1)},
		},
		Status:    bracket.MatchStatus(r.Status),
		IsBye:     r.IsBye,
		WinnerID:  r.WinnerID,
		GameDate:  r.GameDate,
		CreatedAt: r.CreatedAt,
		Result: bracket.Result{
			SetsWon1: r.Player1Score,
			SetsWon2: r.Player2Score,
			Walkover: r.IsWO,
		},
	}
	if second != nil {
		m.Opponents.Second = &bracket.Side{ID: *second, Name: utils.OrZero(r.Name2)}
	}

	sets := [bracket.MaxSets][2]*int{
		{r.Set1Player1, r.Set1Player2},
		{r.Set2Player1, r.Set2Player2},
		{r.Set3Player1, r.Set3Player2},
	}
	for i, set := range sets {
		if set[0] == nil && set[1] == nil {
			continue
		}
		m.Result.Sets[i] = &bracket.SetScore{Side1: utils.OrZero(set[0]), Side2: utils.OrZero(set[1])}
	}
	return m, nil
}
