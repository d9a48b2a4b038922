package store

import (
	"context"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/jmoiron/sqlx"
)

type RosterStore struct {
	db *sqlx.DB
}

func NewRosterStore(db *sqlx.DB) *RosterStore {
	return &RosterStore{db: db}
}

func (s *RosterStore) CreateCategory(ctx context.Context, name string) (*bracket.Category, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, id)
}

// GetCategory returns sql.ErrNoRows for an unknown id.
func (s *RosterStore) GetCategory(ctx context.Context, id int64) (*bracket.Category, error) {
	var category bracket.Category
	if err := s.db.GetContext(ctx, &category, `SELECT * FROM categories WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *RosterStore) ListCategories(ctx context.Context) ([]bracket.Category, error) {
	var categories []bracket.Category
	err := s.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name ASC, id ASC`)
	return categories, err
}

func (s *RosterStore) CreatePlayer(ctx context.Context, categoryID int64, name string) (*bracket.Player, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO players (category_id, name) VALUES (?, ?)`, categoryID, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, id)
}

// GetPlayer returns sql.ErrNoRows for an unknown id.
func (s *RosterStore) GetPlayer(ctx context.Context, id int64) (*bracket.Player, error) {
	var player bracket.Player
	if err := s.db.GetContext(ctx, &player, `SELECT * FROM players WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *RosterStore) ListPlayers(ctx context.Context, categoryID int64) ([]bracket.Player, error) {
	var players []bracket.Player
	err := s.db.SelectContext(ctx, &players, `SELECT * FROM players WHERE category_id = ? ORDER BY name ASC, id ASC`, categoryID)
	return players, err
}

// CreateTeam inserts team and reloads it so ID and CreatedAt are set.
func (s *RosterStore) CreateTeam(ctx context.Context, team *bracket.Team) error {
	query := `
		INSERT INTO teams (category_id, name, player1_id, player2_id)
		VALUES (:category_id, :name, :player1_id, :player2_id)
	`
	res, err := s.db.NamedExecContext(ctx, query, team)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return s.db.GetContext(ctx, team, `SELECT * FROM teams WHERE id = ?`, id)
}

func (s *RosterStore) ListTeams(ctx context.Context, categoryID int64) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, `SELECT * FROM teams WHERE category_id = ? ORDER BY name ASC, id ASC`, categoryID)
	return teams, err
}
