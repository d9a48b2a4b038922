package bracket

import (
	"fmt"
	"math"
	"time"
)

const FirstPhaseName = "Primeira Fase"

type Phase struct {
	ID           int64     `db:"id" json:"id"`
	CategoryID   int64     `db:"category_id" json:"categoryId"`
	Number       int       `db:"phase_number" json:"phaseNumber"`
	Name         string    `db:"phase_name" json:"phaseName"`
	TotalPlayers int       `db:"total_players" json:"totalPlayers"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// PhaseName labels a phase by how many participants enter it.
func PhaseName(phaseNumber, entrants int) string {
	switch {
	case entrants <= 2:
		return "Final"
	case entrants <= 4:
		return "Semifinal"
	case entrants <= 8:
		return "Quartas de Final"
	case entrants <= 16:
		return "Oitavas de Final"
	default:
		return fmt.Sprintf("Fase %d", phaseNumber)
	}
}

// BracketSize rounds count up to the nearest power of two, so 5 gives 8 and so on.
func BracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}
