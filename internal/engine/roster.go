package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Roster is a fixed pool of players grouped under a team label.
type Roster struct {
	Team    string   `yaml:"team" json:"team"`
	Players []string `yaml:"players" json:"players"`
}

func (r Roster) Has(player string) bool {
	return slices.Contains(r.Players, player)
}

// DefaultRosters are the lineups used when no roster file is configured.
func DefaultRosters() []Roster {
	return []Roster{
		{
			Team: "NYM",
			Players: []string{
				"Francisco Lindor (S) SS",
				"Starling Marte (R) DH",
				"Juan Soto (L) RF",
				"Pete Alonso (R) 1B",
				"Brandon Nimmo (L) LF",
				"Tyrone Taylor (R) CF",
				"Ronny Mauricio (S) 3B",
				"Francisco Alvarez (R) C",
				"Jeff McNeil (L) 2B",
			},
		},
		{
			Team: "LAD",
			Players: []string{
				"Shohei Ohtani (L) DH",
				"Mookie Betts (R) SS",
				"Freddie Freeman (L) 1B",
				"Teoscar Hernández (R) RF",
				"Will Smith (R) C",
				"Max Muncy (L) 3B",
				"Andy Pages (R) CF",
				"Michael Conforto (L) LF",
				"Hyeseong Kim (L) 2B",
			},
		},
	}
}

// ValidateRosters checks that team labels are present and unique and that
// every player string appears exactly once across all rosters.
func ValidateRosters(rosters []Roster) error {
	if len(rosters) == 0 {
		return fmt.Errorf("at least one roster is required")
	}
	teams := make(map[string]bool, len(rosters))
	players := make(map[string]string)
	for _, r := range rosters {
		if strings.TrimSpace(r.Team) == "" {
			return fmt.Errorf("roster team name cannot be empty")
		}
		if teams[r.Team] {
			return fmt.Errorf("duplicate roster %q", r.Team)
		}
		teams[r.Team] = true

		for _, p := range r.Players {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("roster %q has an empty player", r.Team)
			}
			if owner, ok := players[p]; ok {
				return fmt.Errorf("player %q listed in both %q and %q", p, owner, r.Team)
			}
			players[p] = r.Team
		}
	}
	return nil
}

func findRoster(rosters []Roster, team string) (Roster, bool) {
	for _, r := range rosters {
		if r.Team == team {
			return r, true
		}
	}
	return Roster{}, false
}

func totalPlayers(rosters []Roster) int {
	n := 0
	for _, r := range rosters {
		n += len(r.Players)
	}
	return n
}
