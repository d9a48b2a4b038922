package bracket

import "encoding/json"

// Winner is a participant carried out of a finished match.
type Winner struct {
	ParticipantID int64
	DisplayName   string
	Kind          Kind
	OriginBye     bool
}

func (w Winner) Side() Side {
	return Side{ID: w.ParticipantID, Name: w.DisplayName}
}

func (w Winner) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		IsTeam bool   `json:"isTeam"`
		IsBye  bool   `json:"isBye"`
	}{w.ParticipantID, w.DisplayName, w.Kind.IsTeam(), w.OriginBye})
}

func WinnerNames(winners []Winner) []string {
	names := make([]string, 0, len(winners))
	for _, w := range winners {
		names = append(names, w.DisplayName)
	}
	return names
}
