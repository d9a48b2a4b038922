package service

import (
	"context"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/store"
)

// BracketStore is the persistence the seeder and the advancer need.
type BracketStore interface {
	GetParticipants(ctx context.Context, categoryID int64, kind bracket.Kind) ([]bracket.Participant, error)
	GetPhases(ctx context.Context, categoryID int64) ([]bracket.Phase, error)
	CreatePhaseIfAbsent(ctx context.Context, phase *bracket.Phase) (bool, error)
	SetPhaseActive(ctx context.Context, phaseID int64, active bool) error
	CountMatches(ctx context.Context, categoryID int64, phase int) (int, error)
	GetMatchesByPhase(ctx context.Context, categoryID int64, phase int) ([]bracket.Match, error)
	OpponentIDsInPhase(ctx context.Context, categoryID int64, phase int) (map[int64]struct{}, error)
	CreateMatches(ctx context.Context, matches []bracket.Match) error
}

var _ BracketStore = (*store.TournamentStore)(nil)
