package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/metrics"
	"github.com/sirupsen/logrus"
)

const firstPhase = 1

// BracketService seeds the first phase of a category and advances winners
// phase by phase. It takes no locks: callers serialize Advance per category.
type BracketService struct {
	store    BracketStore
	shuffler *Shuffler
	log      logrus.FieldLogger
}

type Option func(*BracketService)

func WithShuffler(shuffler *Shuffler) Option {
	return func(s *BracketService) {
		s.shuffler = shuffler
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *BracketService) {
		s.log = log
	}
}

func NewBracketService(store BracketStore, opts ...Option) *BracketService {
	s := &BracketService{
		store:    store,
		shuffler: NewRandomShuffler(),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type GenerateResult struct {
	Message             string
	AlreadyGenerated    bool
	GamesCreated        int
	ByesCreated         int
	TotalParticipants   int
	ParticipantsWithBye []string
	Phase               int
}

func (r GenerateResult) MarshalJSON() ([]byte, error) {
	if r.AlreadyGenerated {
		return json.Marshal(struct {
			Message string `json:"message"`
		}{r.Message})
	}
	return json.Marshal(struct {
		Message             string   `json:"message"`
		GamesCreated        int      `json:"gamesCreated"`
		ByesCreated         int      `json:"byesCreated"`
		TotalParticipants   int      `json:"totalParticipants"`
		ParticipantsWithBye []string `json:"participantsWithBye"`
		Phase               int      `json:"phase"`
	}{r.Message, r.GamesCreated, r.ByesCreated, r.TotalParticipants, r.ParticipantsWithBye, r.Phase})
}

// seedFirstPhase gives a bye to the first participants until the field fills a
// power-of-two bracket, then pairs the rest in order.
func seedFirstPhase(categoryID int64, kind bracket.Kind, participants []bracket.Participant) (pairings, byes []bracket.Match) {
	byeCount := bracket.BracketSize(len(participants)) - len(participants)

	for _, p := range participants[:byeCount] {
		byes = append(byes, bracket.NewBye(categoryID, firstPhase, kind, p.Side()))
	}

	rest := participants[byeCount:]
	for i := 0; i+1 < len(rest); i += 2 {
		pairings = append(pairings, bracket.NewPairing(categoryID, firstPhase, kind, rest[i].Side(), rest[i+1].Side()))
	}
	return pairings, byes
}

// Generate seeds phase 1 of a category. It is a no-op when phase 1 already has matches.
func (s *BracketService) Generate(ctx context.Context, categoryID int64, gameType string) (*GenerateResult, error) {
	if categoryID <= 0 {
		return nil, bracket.Invalid("Category ID is required")
	}

	kind := bracket.KindForGameType(gameType)
	log := s.log.WithFields(logrus.Fields{"category_id": categoryID, "phase": firstPhase})

	participants, err := s.store.GetParticipants(ctx, categoryID, kind)
	if err != nil {
		return nil, bracket.StoreErr("load participants", err)
	}
	if len(participants) < 2 {
		return nil, bracket.Invalid("É necessário pelo menos 2 %s na categoria", kind.Plural())
	}

	existing, err := s.store.CountMatches(ctx, categoryID, firstPhase)
	if err != nil {
		return nil, bracket.StoreErr("count first phase matches", err)
	}
	if existing > 0 {
		log.WithField("existing_matches", existing).Info("bracket already generated")
		return &GenerateResult{
			Message:          "Jogos já foram gerados para esta categoria na primeira fase!",
			AlreadyGenerated: true,
			Phase:            firstPhase,
		}, nil
	}

	shuffle(s.shuffler, participants)
	pairings, byes := seedFirstPhase(categoryID, kind, participants)

	log.WithFields(logrus.Fields{
		"participants": len(participants),
		"bracket_size": bracket.BracketSize(len(participants)),
		"byes":         len(byes),
	}).Info("seeding bracket")

	matches := append(pairings, byes...)
	for i := range matches {
		if err := matches[i].Validate(); err != nil {
			return nil, fmt.Errorf("seeded match %d: %w", i, err)
		}
	}
	if err := s.store.CreateMatches(ctx, matches); err != nil {
		return nil, bracket.StoreErr("create first phase matches", err)
	}

	phase := &bracket.Phase{
		CategoryID:   categoryID,
		Number:       firstPhase,
		Name:         bracket.FirstPhaseName,
		TotalPlayers: len(participants),
		IsActive:     true,
	}
	if _, err := s.store.CreatePhaseIfAbsent(ctx, phase); err != nil {
		return nil, bracket.StoreErr("create first phase", err)
	}

	metrics.BracketsGenerated.Inc()
	metrics.ObserveMatches(matches)

	withBye := make([]string, 0, len(byes))
	for _, m := range byes {
		withBye = append(withBye, m.Opponents.First.Name)
	}

	return &GenerateResult{
		Message: fmt.Sprintf("Torneio de eliminação criado! %d jogos gerados e %d byes distribuídos para %d participantes.",
			len(pairings), len(byes), len(participants)),
		GamesCreated:        len(pairings),
		ByesCreated:         len(byes),
		TotalParticipants:   len(participants),
		ParticipantsWithBye: withBye,
		Phase:               firstPhase,
	}, nil
}
