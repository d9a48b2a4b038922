package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/store"
	"github.com/AdamBeresnev/badminton-bracket/internal/utils"
	"github.com/sirupsen/logrus"
)

type RosterService struct {
	store *store.RosterStore
	log   logrus.FieldLogger
}

func NewRosterService(store *store.RosterStore, log logrus.FieldLogger) *RosterService {
	return &RosterService{store: store, log: log}
}

func requireName(name, what string) (string, error) {
	trimmed := utils.StringOrNil(name)
	if trimmed == nil {
		return "", bracket.Invalid("Nome %s é obrigatório", what)
	}
	return *trimmed, nil
}

func (s *RosterService) CreateCategory(ctx context.Context, name string) (*bracket.Category, error) {
	name, err := requireName(name, "da categoria")
	if err != nil {
		return nil, err
	}
	category, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return nil, bracket.StoreErr("create category", err)
	}
	s.log.WithField("category_id", category.ID).Info("category created")
	return category, nil
}

func (s *RosterService) ListCategories(ctx context.Context) ([]bracket.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, bracket.StoreErr("list categories", err)
	}
	return categories, nil
}

func (s *RosterService) requireCategory(ctx context.Context, categoryID int64) error {
	_, err := s.store.GetCategory(ctx, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return bracket.NotFound("Categoria %d não encontrada", categoryID)
	}
	if err != nil {
		return bracket.StoreErr("load category", err)
	}
	return nil
}

func (s *RosterService) CreatePlayer(ctx context.Context, categoryID int64, name string) (*bracket.Player, error) {
	name, err := requireName(name, "do jogador")
	if err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	player, err := s.store.CreatePlayer(ctx, categoryID, name)
	if err != nil {
		return nil, bracket.StoreErr("create player", err)
	}
	s.log.WithFields(logrus.Fields{"category_id": categoryID, "player_id": player.ID}).Info("player created")
	return player, nil
}

func (s *RosterService) ListPlayers(ctx context.Context, categoryID int64) ([]bracket.Player, error) {
	players, err := s.store.ListPlayers(ctx, categoryID)
	if err != nil {
		return nil, bracket.StoreErr("list players", err)
	}
	return players, nil
}

// CreateTeam pairs two distinct players of the category. An empty name
// defaults to "A / B".
func (s *RosterService) CreateTeam(ctx context.Context, categoryID int64, name string, player1ID, player2ID int64) (*bracket.Team, error) {
	if player1ID == player2ID {
		return nil, bracket.Invalid("Uma dupla precisa de dois jogadores diferentes")
	}
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	var members [2]*bracket.Player
	for i, id := range []int64{player1ID, player2ID} {
		p, err := s.store.GetPlayer(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bracket.NotFound("Jogador %d não encontrado", id)
		}
		if err != nil {
			return nil, bracket.StoreErr("load player", err)
		}
		if p.CategoryID != categoryID {
			return nil, bracket.Invalid("Jogador %s não pertence a esta categoria", p.Name)
		}
		members[i] = p
	}

	if strings.TrimSpace(name) == "" {
		name = members[0].Name + " / " + members[1].Name
	}

	team := &bracket.Team{
		CategoryID: categoryID,
		Name:       strings.TrimSpace(name),
		Player1ID:  player1ID,
		Player2ID:  player2ID,
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, bracket.StoreErr("create team", err)
	}
	s.log.WithFields(logrus.Fields{"category_id": categoryID, "team_id": team.ID}).Info("team created")
	return team, nil
}

func (s *RosterService) ListTeams(ctx context.Context, categoryID int64) ([]bracket.Team, error) {
	teams, err := s.store.ListTeams(ctx, categoryID)
	if err != nil {
		return nil, bracket.StoreErr("list teams", err)
	}
	return teams, nil
}
