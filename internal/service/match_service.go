package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/store"
	"github.com/AdamBeresnev/badminton-bracket/internal/utils"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// MatchService records results on elimination matches and runs the
// maintenance actions around them.
type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	log   logrus.FieldLogger
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, log logrus.FieldLogger) *MatchService {
	return &MatchService{db: db, store: store, log: log}
}

// ResultInput is either a walkover for WinnerSlot or up to three set scores.
type ResultInput struct {
	Walkover   bool
	WinnerSlot int
	Sets       []bracket.SetScore
	GameDate   string
}

type ResetResult struct {
	MatchesDeleted int64 `json:"matchesDeleted"`
	PhasesDeleted  int64 `json:"phasesDeleted"`
}

func (s *MatchService) getMatch(ctx context.Context, id int64) (*bracket.Match, error) {
	match, err := s.store.GetMatch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bracket.NotFound("Jogo %d não encontrado", id)
	}
	if err != nil {
		return nil, bracket.StoreErr("load match", err)
	}
	return match, nil
}

// RecordResult attaches a result to a match. Phase and opponents never change.
func (s *MatchService) RecordResult(ctx context.Context, matchID int64, in ResultInput) (*bracket.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	date, err := utils.DateOrNil(in.GameDate)
	if err != nil {
		return nil, bracket.Invalid("Data inválida: %s", in.GameDate)
	}

	if in.Walkover {
		err = match.RecordWalkover(in.WinnerSlot)
	} else {
		err = match.RecordSets(in.Sets)
	}
	if err != nil {
		return nil, err
	}
	if date != nil {
		match.GameDate = date
	}

	if err := s.store.UpdateMatchResult(ctx, match); err != nil {
		return nil, bracket.StoreErr("update match result", err)
	}

	s.log.WithFields(logrus.Fields{
		"match_id":    match.ID,
		"category_id": match.CategoryID,
		"phase":       match.Phase,
		"walkover":    in.Walkover,
		"finished":    match.Finished(),
	}).Info("match result recorded")

	return match, nil
}

func (s *MatchService) ScheduleMatches(ctx context.Context, matchIDs []int64, date string) (int64, error) {
	if len(matchIDs) == 0 {
		return 0, bracket.Invalid("Nenhum jogo selecionado")
	}
	day, err := utils.DateOrNil(date)
	if err != nil {
		return 0, bracket.Invalid("Data inválida: %s", date)
	}
	if day == nil {
		return 0, bracket.Invalid("Data é obrigatória")
	}

	updated, err := s.store.ScheduleMatches(ctx, matchIDs, *day)
	if err != nil {
		return 0, bracket.StoreErr("schedule matches", err)
	}
	return updated, nil
}

func (s *MatchService) DeleteMatch(ctx context.Context, matchID int64) error {
	err := s.store.DeleteMatch(ctx, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return bracket.NotFound("Jogo %d não encontrado", matchID)
	}
	if err != nil {
		return bracket.StoreErr("delete match", err)
	}
	s.log.WithField("match_id", matchID).Info("match deleted")
	return nil
}

// ResetCategory removes every elimination match and phase of a category at once.
func (s *MatchService) ResetCategory(ctx context.Context, categoryID int64) (*ResetResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, bracket.StoreErr("begin reset", err)
	}
	defer tx.Rollback()

	matches, err := s.store.DeleteMatchesByCategoryTx(ctx, tx, categoryID)
	if err != nil {
		return nil, bracket.StoreErr("delete matches", fmt.Errorf("category %d: %w", categoryID, err))
	}
	phases, err := s.store.DeletePhasesByCategoryTx(ctx, tx, categoryID)
	if err != nil {
		return nil, bracket.StoreErr("delete phases", fmt.Errorf("category %d: %w", categoryID, err))
	}

	if err := tx.Commit(); err != nil {
		return nil, bracket.StoreErr("commit reset", err)
	}

	s.log.WithFields(logrus.Fields{
		"category_id":     categoryID,
		"matches_deleted": matches,
		"phases_deleted":  phases,
	}).Info("elimination reset")

	return &ResetResult{MatchesDeleted: matches, PhasesDeleted: phases}, nil
}

func (s *MatchService) ListPhases(ctx context.Context, categoryID int64) ([]bracket.Phase, error) {
	phases, err := s.store.GetPhases(ctx, categoryID)
	if err != nil {
		return nil, bracket.StoreErr("list phases", err)
	}
	return phases, nil
}

func (s *MatchService) ListMatches(ctx context.Context, filter store.MatchFilter) ([]bracket.Match, error) {
	if filter.GameDate != nil {
		day, err := utils.DateOrNil(*filter.GameDate)
		if err != nil {
			return nil, bracket.Invalid("Data inválida: %s", *filter.GameDate)
		}
		filter.GameDate = day
	}

	matches, err := s.store.ListMatches(ctx, filter)
	if err != nil {
		return nil, bracket.StoreErr("list matches", err)
	}
	return matches, nil
}
