package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AdamBeresnev/badminton-bracket/internal/bracket"
	"github.com/AdamBeresnev/badminton-bracket/internal/metrics"
	"github.com/sirupsen/logrus"
)

type AdvanceOutcome string

const (
	OutcomeChampion AdvanceOutcome = "champion"
	OutcomeAdvanced AdvanceOutcome = "advanced"
	OutcomeWaiting  AdvanceOutcome = "waiting"
)

type AdvanceResult struct {
	Outcome AdvanceOutcome
	Message string

	Champion *bracket.Winner

	CurrentPhase            string
	NextPhase               string
	TotalWinners            int
	GamesCreated            int
	AllCurrentPhaseFinished bool
	AdvancedPlayers         []string
	// Set when a lone available winner was moved on with a bye.
	WaitingPlayer string

	ProcessedWinners int
	AvailableWinners int
}

func (r AdvanceResult) MarshalJSON() ([]byte, error) {
	switch r.Outcome {
	case OutcomeChampion:
		return json.Marshal(struct {
			Message            string          `json:"message"`
			Champion           *bracket.Winner `json:"champion"`
			TournamentComplete bool            `json:"tournamentComplete"`
		}{r.Message, r.Champion, true})
	case OutcomeWaiting:
		return json.Marshal(struct {
			Message          string `json:"message"`
			ProcessedWinners int    `json:"processedWinners"`
			AvailableWinners int    `json:"availableWinners"`
		}{r.Message, r.ProcessedWinners, r.AvailableWinners})
	default:
		return json.Marshal(struct {
			Message                 string   `json:"message"`
			CurrentPhase            string   `json:"currentPhase"`
			NextPhase               string   `json:"nextPhase"`
			TotalWinners            int      `json:"totalWinners"`
			GamesCreated            int      `json:"gamesCreated"`
			AllCurrentPhaseFinished bool     `json:"allCurrentPhaseFinished"`
			AdvancedPlayers         []string `json:"advancedPlayers"`
			WaitingPlayer           string   `json:"waitingPlayer,omitempty"`
		}{
			r.Message, r.CurrentPhase, r.NextPhase, r.TotalWinners, r.GamesCreated,
			r.AllCurrentPhaseFinished, r.AdvancedPlayers, r.WaitingPlayer,
		})
	}
}

// collectWinners returns the resolved winners of the finished matches and how
// many matches are finished. A finished match whose winner is not one of its
// opponents yields no winner.
func collectWinners(matches []bracket.Match) ([]bracket.Winner, int) {
	var winners []bracket.Winner
	finished := 0
	for i := range matches {
		if !matches[i].Finished() {
			continue
		}
		finished++
		if w, ok := matches[i].Winner(); ok {
			winners = append(winners, w)
		}
	}
	return winners, finished
}

// pairWinners pairs winners in order; an odd one out gets a bye.
func pairWinners(categoryID int64, phase int, winners []bracket.Winner) ([]bracket.Match, error) {
	var matches []bracket.Match
	for i := 0; i < len(winners); i += 2 {
		a := winners[i]
		if i+1 == len(winners) {
			matches = append(matches, bracket.NewBye(categoryID, phase, a.Kind, a.Side()))
			break
		}
		b := winners[i+1]
		if a.Kind != b.Kind {
			return nil, bracket.Invalid("não é possível parear %s com %s", a.DisplayName, b.DisplayName)
		}
		matches = append(matches, bracket.NewPairing(categoryID, phase, a.Kind, a.Side(), b.Side()))
	}
	return matches, nil
}

func findPhase(phases []bracket.Phase, number int) *bracket.Phase {
	for i := range phases {
		if phases[i].Number == number {
			return &phases[i]
		}
	}
	return nil
}

// Advance carries the winners of currentPhase into the next phase. It only
// pairs winners not already placed there, so calling it again after more
// results arrive adds matches without touching existing ones.
func (s *BracketService) Advance(ctx context.Context, categoryID int64, currentPhase int) (*AdvanceResult, error) {
	if categoryID <= 0 {
		return nil, bracket.Invalid("Category ID is required")
	}
	if currentPhase <= 0 {
		return nil, bracket.Invalid("Current phase is required")
	}

	log := s.log.WithFields(logrus.Fields{"category_id": categoryID, "phase": currentPhase})

	phases, err := s.store.GetPhases(ctx, categoryID)
	if err != nil {
		return nil, bracket.StoreErr("load phases", err)
	}
	if len(phases) == 0 {
		return nil, bracket.NotFound("Nenhuma fase encontrada para esta categoria")
	}
	phase := findPhase(phases, currentPhase)
	if phase == nil {
		return nil, bracket.NotFound("Fase %d não encontrada para esta categoria", currentPhase)
	}

	matches, err := s.store.GetMatchesByPhase(ctx, categoryID, currentPhase)
	if err != nil {
		return nil, bracket.StoreErr("load phase matches", err)
	}
	if len(matches) == 0 {
		return nil, bracket.NotFound("Nenhum jogo encontrado na fase atual")
	}

	winners, finished := collectWinners(matches)
	allFinished := finished == len(matches)
	if finished == 0 {
		return nil, bracket.Invalid("Nenhum jogo finalizado na %s", phase.Name)
	}

	log.WithFields(logrus.Fields{
		"matches":      len(matches),
		"finished":     finished,
		"winners":      len(winners),
		"all_finished": allFinished,
	}).Info("analysing phase")

	if allFinished && len(winners) == 1 {
		if err := s.store.SetPhaseActive(ctx, phase.ID, false); err != nil {
			return nil, bracket.StoreErr("deactivate phase", err)
		}
		champion := winners[0]
		log.WithField("champion", champion.DisplayName).Info("tournament finished")
		metrics.AdvanceOutcomes.WithLabelValues(string(OutcomeChampion)).Inc()
		return &AdvanceResult{
			Outcome:  OutcomeChampion,
			Message:  fmt.Sprintf("Torneio finalizado! Campeão: %s", champion.DisplayName),
			Champion: &champion,
		}, nil
	}

	if len(winners) == 0 {
		return nil, bracket.Invalid("Nenhum vencedor encontrado nos jogos finalizados")
	}

	nextNumber := currentPhase + 1
	next := &bracket.Phase{
		CategoryID:   categoryID,
		Number:       nextNumber,
		Name:         bracket.PhaseName(nextNumber, len(winners)),
		TotalPlayers: len(winners),
	}
	phaseCreated, err := s.store.CreatePhaseIfAbsent(ctx, next)
	if err != nil {
		return nil, bracket.StoreErr("create next phase", err)
	}
	if phaseCreated {
		log.WithField("next_phase", next.Name).Info("next phase created")
	}

	used, err := s.store.OpponentIDsInPhase(ctx, categoryID, nextNumber)
	if err != nil {
		return nil, bracket.StoreErr("load next phase opponents", err)
	}

	available := make([]bracket.Winner, 0, len(winners))
	for _, w := range winners {
		if _, ok := used[w.ParticipantID]; !ok {
			available = append(available, w)
		}
	}

	if len(available) == 0 {
		log.Info("no winners available to advance")
		metrics.AdvanceOutcomes.WithLabelValues(string(OutcomeWaiting)).Inc()
		return &AdvanceResult{
			Outcome:          OutcomeWaiting,
			Message:          "Nenhum vencedor disponível ainda",
			ProcessedWinners: len(winners),
			AvailableWinners: 0,
		}, nil
	}

	if err := s.store.SetPhaseActive(ctx, next.ID, true); err != nil {
		return nil, bracket.StoreErr("activate next phase", err)
	}

	result := &AdvanceResult{
		Outcome:                 OutcomeAdvanced,
		CurrentPhase:            phase.Name,
		NextPhase:               next.Name,
		TotalWinners:            len(winners),
		AllCurrentPhaseFinished: allFinished,
	}

	var newMatches []bracket.Match
	if len(available) == 1 {
		w := available[0]
		newMatches = []bracket.Match{bracket.NewBye(categoryID, nextNumber, w.Kind, w.Side())}
		result.Message = fmt.Sprintf("%s avançou para a %s com BYE", w.DisplayName, next.Name)
		result.WaitingPlayer = w.DisplayName
	} else {
		shuffle(s.shuffler, available)
		newMatches, err = pairWinners(categoryID, nextNumber, available)
		if err != nil {
			return nil, err
		}
		result.Message = fmt.Sprintf("%d jogo(s) criado(s) para a fase %s! Cadastre os resultados para continuar.",
			len(newMatches), next.Name)
	}

	if err := s.store.CreateMatches(ctx, newMatches); err != nil {
		return nil, bracket.StoreErr("create next phase matches", err)
	}
	metrics.ObserveMatches(newMatches)

	if allFinished {
		if err := s.store.SetPhaseActive(ctx, phase.ID, false); err != nil {
			return nil, bracket.StoreErr("deactivate phase", err)
		}
	}

	result.GamesCreated = len(newMatches)
	result.AdvancedPlayers = bracket.WinnerNames(available)

	log.WithFields(logrus.Fields{
		"next_phase":    next.Name,
		"available":     len(available),
		"games_created": len(newMatches),
	}).Info("winners advanced")
	metrics.AdvanceOutcomes.WithLabelValues(string(OutcomeAdvanced)).Inc()

	return result, nil
}
