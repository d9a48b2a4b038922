package bracket

import "time"

type Kind string

const (
	KindPlayer Kind = "player"
	KindTeam   Kind = "team"
)

// GameTypeIndividual selects players; any other game type selects teams.
const GameTypeIndividual = "individual"

func KindForGameType(gameType string) Kind {
	if gameType == GameTypeIndividual {
		return KindPlayer
	}
	return KindTeam
}

func (k Kind) IsTeam() bool {
	return k == KindTeam
}

// Plural label used in user-facing messages.
func (k Kind) Plural() string {
	if k == KindTeam {
		return "duplas"
	}
	return "jogadores"
}

type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Player struct {
	ID         int64     `db:"id" json:"id"`
	CategoryID int64     `db:"category_id" json:"categoryId"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Team is always exactly two players of the team's category.
type Team struct {
	ID         int64     `db:"id" json:"id"`
	CategoryID int64     `db:"category_id" json:"categoryId"`
	Name       string    `db:"name" json:"name"`
	Player1ID  int64     `db:"player1_id" json:"player1Id"`
	Player2ID  int64     `db:"player2_id" json:"player2Id"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Participant is a player or a team as seen by the bracket engine.
type Participant struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Kind Kind   `db:"-"`
}

func (p Participant) Side() Side {
	return Side{ID: p.ID, Name: p.Name}
}
