package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// TournamentStore persists elimination phases and matches. Every write is its
// own commit unless the caller passes a transaction.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	getPhasesQuery = `
		SELECT * FROM elimination_phases
		WHERE category_id = ?
		ORDER BY phase_number ASC
	`
	getPhaseQuery = `
		SELECT * FROM elimination_phases
		WHERE category_id = ? AND phase_number = ?
	`
	createPhaseQuery = `
		INSERT INTO elimination_phases (category_id, phase_number, phase_name, total_players, is_active)
		VALUES (:category_id, :phase_number, :phase_name, :total_players, :is_active)
		ON CONFLICT (category_id, phase_number) DO NOTHING
	`
	setPhaseActiveQuery = `UPDATE elimination_phases SET is_active = ? WHERE id = ?`

	createMatchesQuery = `INSERT INTO elimination_games (category_id, phase, is_team_game, status, is_bye, winner_id, player1_id, player2_id, team1_id, team2_id, game_date)
		VALUES (:category_id, :phase, :is_team_game, :status, :is_bye, :winner_id, :player1_id, :player2_id, :team1_id, :team2_id, :game_date)`
	updateMatchResultQuery = `
		UPDATE elimination_games SET
			status = :status,
			winner_id = :winner_id,
			player1_score = :player1_score,
			player2_score = :player2_score,
			set1_player1 = :set1_player1,
			set1_player2 = :set1_player2,
			set2_player1 = :set2_player1,
			set2_player2 = :set2_player2,
			set3_player1 = :set3_player1,
			set3_player2 = :set3_player2,
			is_wo = :is_wo,
			game_date = :game_date
		WHERE id = :id
	`
	countMatchesQuery = `SELECT COUNT(*) FROM elimination_games WHERE category_id = ? AND phase = ?`
	opponentIDsQuery  = `
		SELECT player1_id, player2_id, team1_id, team2_id
		FROM elimination_games
		WHERE category_id = ? AND phase = ?
	`
	scheduleMatchesQuery = `UPDATE elimination_games SET game_date = ? WHERE id IN (?)`
	deleteMatchQuery     = `DELETE FROM elimination_games WHERE id = ?`
)

// MatchFilter narrows ListMatches; nil fields are ignored.
type MatchFilter struct {
	CategoryID *int64
	Phase      *int
	GameDate   *string
}

var matchSelect = sq.Select(
	"g.id AS id",
	"g.category_id AS category_id",
	"g.phase AS phase",
	"g.is_team_game AS is_team_game",
	"g.status AS status",
	"g.is_bye AS is_bye",
	"g.winner_id AS winner_id",
	"g.player1_id AS player1_id",
	"g.player2_id AS player2_id",
	"g.team1_id AS team1_id",
	"g.team2_id AS team2_id",
	"g.player1_score AS player1_score",
	"g.player2_score AS player2_score",
	"g.set1_player1 AS set1_player1",
	"g.set1_player2 AS set1_player2",
	"g.set2_player1 AS set2_player1",
	"g.set2_player2 AS set2_player2",
	"g.set3_player1 AS set3_player1",
	"g.set3_player2 AS set3_player2",
	"g.is_wo AS is_wo",
	"g.game_date AS game_date",
	"g.created_at AS created_at",
	"COALESCE(p1.name, t1.name) AS name1",
	"COALESCE(p2.name, t2.name) AS name2",
).
	From("elimination_games g").
	LeftJoin("players p1 ON p1.id = g.player1_id").
	LeftJoin("players p2 ON p2.id = g.player2_id").
	LeftJoin("teams t1 ON t1.id = g.team1_id").
	LeftJoin("teams t2 ON t2.id = g.team2_id")

func (s *TournamentStore) GetParticipants(ctx context.Context, categoryID int64, kind bracket.Kind) ([]bracket.Participant, error) {
	table := "players"
	if kind.IsTeam() {
		table = "teams"
	}

	var participants []bracket.Participant
	query := fmt.Sprintf("SELECT id, name FROM %s WHERE category_id = ? ORDER BY id ASC", table)
	if err := s.db.SelectContext(ctx, &participants, query, categoryID); err != nil {
		return nil, err
	}
	for i := range participants {
		participants[i].Kind = kind
	}
	return participants, nil
}

func (s *TournamentStore) GetPhases(ctx context.Context, categoryID int64) ([]bracket.Phase, error) {
	var phases []bracket.Phase
	err := s.db.SelectContext(ctx, &phases, getPhasesQuery, categoryID)
	return phases, err
}

// GetPhase returns sql.ErrNoRows when the category has no such phase.
func (s *TournamentStore) GetPhase(ctx context.Context, categoryID int64, number int) (*bracket.Phase, error) {
	var phase bracket.Phase
	if err := s.db.GetContext(ctx, &phase, getPhaseQuery, categoryID, number); err != nil {
		return nil, err
	}
	return &phase, nil
}

// CreatePhaseIfAbsent inserts phase unless (category, number) already exists,
// then loads the stored row into phase. created reports whether this call inserted it.
func (s *TournamentStore) CreatePhaseIfAbsent(ctx context.Context, phase *bracket.Phase) (bool, error) {
	res, err := s.db.NamedExecContext(ctx, createPhaseQuery, phase)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := s.db.GetContext(ctx, phase, getPhaseQuery, phase.CategoryID, phase.Number); err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *TournamentStore) SetPhaseActive(ctx context.Context, phaseID int64, active bool) error {
	_, err := s.db.ExecContext(ctx, setPhaseActiveQuery, active, phaseID)
	return err
}

// CreateMatches inserts all matches in a single statement.
func (s *TournamentStore) CreateMatches(ctx context.Context, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	rows := make([]matchRow, 0, len(matches))
	for i := range matches {
		rows = append(rows, newMatchRow(&matches[i]))
	}
	_, err := s.db.NamedExecContext(ctx, createMatchesQuery, rows)
	return err
}

func (s *TournamentStore) CountMatches(ctx context.Context, categoryID int64, phase int) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, countMatchesQuery, categoryID, phase)
	return count, err
}

func (s *TournamentStore) GetMatchesByPhase(ctx context.Context, categoryID int64, phase int) ([]bracket.Match, error) {
	return s.ListMatches(ctx, MatchFilter{CategoryID: &categoryID, Phase: &phase})
}

func (s *TournamentStore) ListMatches(ctx context.Context, filter MatchFilter) ([]bracket.Match, error) {
	q := matchSelect.OrderBy("g.phase ASC", "g.id ASC")
	if filter.CategoryID != nil {
		q = q.Where(sq.Eq{"g.category_id": *filter.CategoryID})
	}
	if filter.Phase != nil {
		q = q.Where(sq.Eq{"g.phase": *filter.Phase})
	}
	if filter.GameDate != nil {
		q = q.Where(sq.Eq{"g.game_date": *filter.GameDate})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toMatches(rows)
}

// GetMatch returns sql.ErrNoRows for an unknown id.
func (s *TournamentStore) GetMatch(ctx context.Context, id int64) (*bracket.Match, error) {
	query, args, err := matchSelect.Where(sq.Eq{"g.id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var row matchRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, err
	}
	m, err := row.toMatch()
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// OpponentIDsInPhase collects every participant id already placed in a phase.
func (s *TournamentStore) OpponentIDsInPhase(ctx context.Context, categoryID int64, phase int) (map[int64]struct{}, error) {
	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, opponentIDsQuery, categoryID, phase); err != nil {
		return nil, err
	}

	ids := make(map[int64]struct{})
	for _, r := range rows {
		for _, id := range []*int64{r.Player1ID, r.Player2ID, r.Team1ID, r.Team2ID} {
			if id != nil {
				ids[*id] = struct{}{}
			}
		}
	}
	return ids, nil
}

func (s *TournamentStore) UpdateMatchResult(ctx context.Context, match *bracket.Match) error {
	row := newMatchRow(match)
	_, err := s.db.NamedExecContext(ctx, updateMatchResultQuery, row)
	return err
}

func (s *TournamentStore) ScheduleMatches(ctx context.Context, ids []int64, date string) (int64, error) {
	query, args, err := sqlx.In(scheduleMatchesQuery, date, ids)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteMatch returns sql.ErrNoRows when nothing was deleted.
func (s *TournamentStore) DeleteMatch(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, deleteMatchQuery, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *TournamentStore) DeleteMatchesByCategoryTx(ctx context.Context, tx *sqlx.Tx, categoryID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM elimination_games WHERE category_id = ?", categoryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *TournamentStore) DeletePhasesByCategoryTx(ctx context.Context, tx *sqlx.Tx, categoryID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM elimination_phases WHERE category_id = ?", categoryID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func toMatches(rows []matchRow) ([]bracket.Match, error) {
	matches := make([]bracket.Match, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toMatch()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}
