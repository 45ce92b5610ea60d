package engine

import "fmt"

// Rules fix the shape of a draft for the life of a session.
type Rules struct {
	Slots               int
	PicksPerParticipant int
	// TotalPicks overrides Slots*PicksPerParticipant when positive.
	TotalPicks int
}

func DefaultRules() Rules {
	return Rules{Slots: 4, PicksPerParticipant: 2}
}

// Quota is the total number of picks that ends the draft.
func (r Rules) Quota() int {
	if r.TotalPicks > 0 {
		return r.TotalPicks
	}
	return r.Slots * r.PicksPerParticipant
}

func (r Rules) Validate(rosters []Roster) error {
	if r.Slots < 1 {
		return fmt.Errorf("slots must be at least 1, got %d", r.Slots)
	}
	if r.TotalPicks <= 0 && r.PicksPerParticipant < 1 {
		return fmt.Errorf("picks per participant must be at least 1, got %d", r.PicksPerParticipant)
	}
	if err := ValidateRosters(rosters); err != nil {
		return err
	}
	if q, avail := r.Quota(), totalPlayers(rosters); q > avail {
		return fmt.Errorf("quota of %d picks exceeds the %d players available", q, avail)
	}
	return nil
}
