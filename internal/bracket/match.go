package bracket

import (
	"time"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchCompleted MatchStatus = "completed"
)

// MaxSets is the best-of length of a badminton match.
const MaxSets = 3

type Side struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Opponents is either a pair of players or a pair of teams, never a mix.
// Second is nil only for a bye.
type Opponents struct {
	Kind   Kind  `json:"kind"`
	First  Side  `json:"first"`
	Second *Side `json:"second,omitempty"`
}

type SetScore struct {
	Side1 int `json:"side1"`
	Side2 int `json:"side2"`
}

type Result struct {
	Sets     [MaxSets]*SetScore `json:"sets"`
	SetsWon1 *int               `json:"setsWon1,omitempty"`
	SetsWon2 *int               `json:"setsWon2,omitempty"`
	Walkover bool               `json:"walkover"`
}

type Match struct {
	ID         int64       `json:"id"`
	CategoryID int64       `json:"categoryId"`
	Phase      int         `json:"phase"`
	Opponents  Opponents   `json:"opponents"`
	Status     MatchStatus `json:"status"`
	IsBye      bool        `json:"isBye"`
	WinnerID   *int64      `json:"winnerId,omitempty"`
	Result     Result      `json:"result"`
	GameDate   *string     `json:"gameDate,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// NewPairing builds a pending match between two participants of the same kind.
func NewPairing(categoryID int64, phase int, kind Kind, a, b Side) Match {
	return Match{
		CategoryID: categoryID,
		Phase:      phase,
		Opponents:  Opponents{Kind: kind, First: a, Second: &b},
		Status:     MatchPending,
	}
}

// NewBye builds a match that is already won by its only participant.
func NewBye(categoryID int64, phase int, kind Kind, s Side) Match {
	winner := s.ID
	return Match{
		CategoryID: categoryID,
		Phase:      phase,
		Opponents:  Opponents{Kind: kind, First: s},
		Status:     MatchCompleted,
		IsBye:      true,
		WinnerID:   &winner,
	}
}

func (m *Match) IsTeamGame() bool {
	return m.Opponents.Kind.IsTeam()
}

// Finished means completed with a known winner. A completed draw is not finished.
func (m *Match) Finished() bool {
	return m.Status == MatchCompleted && m.WinnerID != nil
}

func (m *Match) OpponentIDs() []int64 {
	ids := []int64{m.Opponents.First.ID}
	if m.Opponents.Second != nil {
		ids = append(ids, m.Opponents.Second.ID)
	}
	return ids
}

// Slot returns 1 or 2 for the side holding participantID, 0 if it is not in the match.
func (m *Match) Slot(participantID int64) int {
	if m.Opponents.First.ID == participantID {
		return 1
	}
	if m.Opponents.Second != nil && m.Opponents.Second.ID == participantID {
		return 2
	}
	return 0
}

func (m *Match) side(slot int) *Side {
	switch slot {
	case 1:
		return &m.Opponents.First
	case 2:
		return m.Opponents.Second
	}
	return nil
}

// Validate checks the opponent invariants of a match about to be stored.
func (m *Match) Validate() error {
	if m.IsBye {
		if m.Opponents.Second != nil {
			return Invalid("bye match must have a single opponent")
		}
		if m.Status != MatchCompleted || m.WinnerID == nil || *m.WinnerID != m.Opponents.First.ID {
			return Invalid("bye match must be completed and won by its opponent")
		}
		return nil
	}
	if m.Opponents.Second == nil {
		return Invalid("match needs two opponents")
	}
	if m.Opponents.First.ID == m.Opponents.Second.ID {
		return Invalid("match opponents must be distinct")
	}
	return nil
}

// Winner resolves the winner of a finished match against its own opponents.
func (m *Match) Winner() (Winner, bool) {
	if !m.Finished() {
		return Winner{}, false
	}
	s := m.side(m.Slot(*m.WinnerID))
	if s == nil {
		return Winner{}, false
	}
	return Winner{
		ParticipantID: s.ID,
		DisplayName:   s.Name,
		Kind:          m.Opponents.Kind,
		OriginBye:     m.IsBye,
	}, true
}

// RecordWalkover decides the match for slot without play.
func (m *Match) RecordWalkover(slot int) error {
	if err := m.checkResultable(); err != nil {
		return err
	}
	s := m.side(slot)
	if s == nil {
		return Invalid("lado vencedor inválido para WO: %d", slot)
	}

	won1, won2 := 0, 0
	if slot == 1 {
		won1 = 1
	} else {
		won2 = 1
	}
	winner := s.ID

	m.Result = Result{SetsWon1: &won1, SetsWon2: &won2, Walkover: true}
	m.WinnerID = &winner
	m.Status = MatchCompleted
	return nil
}

// RecordSets stores set scores and picks the side with more sets won.
// Sets where neither side scored are ignored. A tie leaves the match without a winner.
func (m *Match) RecordSets(sets []SetScore) error {
	if err := m.checkResultable(); err != nil {
		return err
	}
	if len(sets) > MaxSets {
		return Invalid("no máximo %d sets por jogo", MaxSets)
	}

	var result Result
	won1, won2 := 0, 0
	for i, set := range sets {
		if set.Side1 < 0 || set.Side2 < 0 {
			return Invalid("placar do set %d não pode ser negativo", i+1)
		}
		if set.Side1 == 0 && set.Side2 == 0 {
			continue
		}
		score := set
		result.Sets[i] = &score
		switch {
		case set.Side1 > set.Side2:
			won1++
		case set.Side2 > set.Side1:
			won2++
		}
	}
	result.SetsWon1 = &won1
	result.SetsWon2 = &won2

	m.Result = result
	m.WinnerID = nil
	switch {
	case won1 > won2:
		id := m.Opponents.First.ID
		m.WinnerID = &id
	case won2 > won1:
		id := m.Opponents.Second.ID
		m.WinnerID = &id
	}
	m.Status = MatchCompleted
	return nil
}

func (m *Match) checkResultable() error {
	if m.IsBye {
		return Invalid("jogos BYE não recebem resultado")
	}
	if m.Opponents.Second == nil {
		return Invalid("jogo sem oponente não recebe resultado")
	}
	return nil
}
