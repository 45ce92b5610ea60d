package types

import (
	"fmt"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
)

type ClientMessage struct {
	Type   string   `json:"type"`
	Slot   int      `json:"slot,omitempty"`
	Name   string   `json:"name,omitempty"`
	Names  []string `json:"names,omitempty"`
	Roster string   `json:"roster,omitempty"`
	Player string   `json:"player,omitempty"`
}

type ServerMessage struct {
	Type    string    `json:"type"` // "StateSnapshot" | "Error" | "Rejected"
	Version int       `json:"version,omitempty"`
	State   *Snapshot `json:"state,omitempty"`
	Error   string    `json:"error,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

type Selection struct {
	Roster string `json:"roster"`
	Player string `json:"player"`
}

type Pick struct {
	Participant string `json:"participant"`
	Roster      string `json:"roster"`
	Player      string `json:"player"`
	Number      int    `json:"number"`
	Round       int    `json:"round"`
}

type PlayerStatus struct {
	Name  string `json:"name"`
	Taken bool   `json:"taken"`
}

type RosterBoard struct {
	Team    string         `json:"team"`
	Players []PlayerStatus `json:"players"`
}

type Team struct {
	Participant string   `json:"participant"`
	Players     []string `json:"players"`
}

type Snapshot struct {
	Version        int           `json:"version"`
	Stage          string        `json:"stage"`
	Slots          []string      `json:"slots"`
	CanStart       bool          `json:"can_start"`
	DraftOrder     []string      `json:"draft_order"`
	OnTheClock     string        `json:"on_the_clock,omitempty"`
	TurnIndex      int           `json:"turn_index"`
	Round          int           `json:"round,omitempty"`
	RoundDirection string        `json:"round_direction,omitempty"`
	PicksMade      int           `json:"picks_made"`
	PickNumber     int           `json:"pick_number,omitempty"`
	Quota          int           `json:"quota"`
	PickSequence   []string      `json:"pick_sequence"`
	Pending        *Selection    `json:"pending,omitempty"`
	LastPick       *Pick         `json:"last_pick,omitempty"`
	Teams          []Team        `json:"teams"`
	Rosters        []RosterBoard `json:"rosters"`
	History        []Pick        `json:"history"`
	Results        []Team        `json:"results,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewSnapshot flattens an engine state into the view clients render.
func NewSnapshot(version int, s engine.State, updatedAt time.Time) *Snapshot {
	snap := &Snapshot{
		Version:      version,
		Stage:        string(s.Stage),
		Slots:        append([]string{}, s.Slots...),
		CanStart:     engine.CanStart(s),
		DraftOrder:   append([]string{}, s.Order...),
		TurnIndex:    s.Cursor,
		PicksMade:    s.PicksMade,
		Quota:        s.Rules.Quota(),
		PickSequence: append([]string{}, engine.SnakeOrder(s.Order, s.Rules.Quota())...),
		Teams:        []Team{},
		Rosters:      make([]RosterBoard, 0, len(s.Rosters)),
		History:      make([]Pick, 0, len(s.History)),
		UpdatedAt:    updatedAt,
	}

	if name, ok := engine.OnTheClock(s); ok {
		snap.OnTheClock = name
		snap.PickNumber = s.PicksMade + 1
	}
	if s.Stage != engine.StageSetup {
		round := engine.CurrentRound(s)
		snap.Round = round.Number
		snap.RoundDirection = string(round.Direction)
	}
	if s.Pending != nil {
		snap.Pending = &Selection{Roster: s.Pending.Roster, Player: s.Pending.Player}
	}
	if s.LastPick != nil {
		p := toPick(*s.LastPick)
		snap.LastPick = &p
	}
	for _, p := range s.History {
		snap.History = append(snap.History, toPick(p))
	}

	for _, r := range engine.Results(s) {
		snap.Teams = append(snap.Teams, Team{Participant: r.Participant, Players: r.Players})
	}
	if s.Stage == engine.StageComplete {
		snap.Results = snap.Teams
	}

	for _, r := range s.Rosters {
		board := RosterBoard{Team: r.Team, Players: make([]PlayerStatus, 0, len(r.Players))}
		for _, p := range r.Players {
			board.Players = append(board.Players, PlayerStatus{Name: p, Taken: engine.IsTaken(s, r.Team, p)})
		}
		snap.Rosters = append(snap.Rosters, board)
	}
	return snap
}

func toPick(p engine.Pick) Pick {
	return Pick{
		Participant: p.Participant,
		Roster:      p.Roster,
		Player:      p.Player,
		Number:      p.Number,
		Round:       p.Round,
	}
}

// Command converts a client message into an engine command.
func (m ClientMessage) Command() (engine.Command, error) {
	switch engine.CommandType(m.Type) {
	case engine.CmdSetName:
		return engine.Command{Type: engine.CmdSetName, Slot: m.Slot, Name: m.Name}, nil
	case engine.CmdStartDraft:
		return engine.Command{Type: engine.CmdStartDraft, Names: m.Names}, nil
	case engine.CmdSelectPlayer:
		if m.Roster == "" || m.Player == "" {
			return engine.Command{}, fmt.Errorf("roster and player are required")
		}
		return engine.Command{Type: engine.CmdSelectPlayer, Roster: m.Roster, Player: m.Player}, nil
	case engine.CmdConfirmPick:
		return engine.Command{Type: engine.CmdConfirmPick}, nil
	case engine.CmdCancelPick:
		return engine.Command{Type: engine.CmdCancelPick}, nil
	case engine.CmdReset:
		return engine.Command{Type: engine.CmdReset}, nil
	default:
		return engine.Command{}, fmt.Errorf("unknown type %q", m.Type)
	}
}
