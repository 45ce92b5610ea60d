package engine

import (
	"errors"
	"maps"
	"math/rand"
	"slices"
)

func NewEmptyState(rules Rules, rosters []Roster) State {
	return State{
		Stage:   StageSetup,
		Slots:   make([]string, rules.Slots),
		Order:   []string{},
		Picks:   map[string][]string{},
		Taken:   emptyTaken(rosters),
		Rules:   rules,
		Rosters: rosters,
	}
}

func emptyTaken(rosters []Roster) map[string]map[string]bool {
	taken := make(map[string]map[string]bool, len(rosters))
	for _, r := range rosters {
		taken[r.Team] = map[string]bool{}
	}
	return taken
}

// clone deep-copies everything Apply may write to. Rosters are static and shared.
func (s State) clone() State {
	c := s
	c.Slots = slices.Clone(s.Slots)
	c.Order = slices.Clone(s.Order)
	c.History = slices.Clone(s.History)

	c.Picks = make(map[string][]string, len(s.Picks))
	for k, v := range s.Picks {
		c.Picks[k] = slices.Clone(v)
	}
	c.Taken = make(map[string]map[string]bool, len(s.Taken))
	for k, v := range s.Taken {
		c.Taken[k] = maps.Clone(v)
	}

	if s.Pending != nil {
		p := *s.Pending
		c.Pending = &p
	}
	if s.LastPick != nil {
		p := *s.LastPick
		c.LastPick = &p
	}
	return c
}

// shuffle returns a uniformly random permutation of names (Fisher-Yates).
// Tests replace it to get a fixed draft order.
var shuffle = func(names []string) []string {
	out := slices.Clone(names)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// OnTheClock returns the participant whose turn it is. It reports false
// outside the draft stage.
func OnTheClock(s State) (string, bool) {
	if s.Stage != StageDraft || len(s.Order) == 0 {
		return "", false
	}
	return s.Order[s.Cursor], true
}

// CurrentRound reports the round of the next pick, or of the final pick once
// the draft is complete.
func CurrentRound(s State) Round {
	if len(s.Order) == 0 {
		return Round{}
	}
	made := s.PicksMade
	if s.Stage == StageComplete && made > 0 {
		made--
	}
	return RoundOf(made, len(s.Order))
}

func IsTaken(s State, team, player string) bool {
	return s.Taken[team][player]
}

// Available lists the players of a roster that can still be picked, in
// roster order.
func Available(s State, team string) []string {
	r, ok := findRoster(s.Rosters, team)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if !s.Taken[team][p] {
			out = append(out, p)
		}
	}
	return out
}

// CanStart reports whether a StartDraft without explicit names would succeed.
func CanStart(s State) bool {
	if s.Stage != StageSetup {
		return false
	}
	_, err := participantNames(s.Slots)
	return err == nil
}

type Result struct {
	Participant string
	Players     []string
}

// Results lists every participant's picks in draft order.
func Results(s State) []Result {
	out := make([]Result, 0, len(s.Order))
	for _, p := range s.Order {
		out = append(out, Result{Participant: p, Players: slices.Clone(s.Picks[p])})
	}
	return out
}

// RejectionReason classifies an error returned by Apply.
func RejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, ErrDraftExhausted):
		return "exhausted"
	case errors.Is(err, ErrUnsupportedCommand):
		return "unsupported"
	default:
		return "unknown"
	}
}
