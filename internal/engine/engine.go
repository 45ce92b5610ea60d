package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrInvalidSelection = errors.New("invalid selection")
var ErrDraftExhausted = errors.New("draft already completed")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Stage string

const (
	StageSetup    Stage = "setup"
	StageDraft    Stage = "draft"
	StageComplete Stage = "complete"
)

// Selection is a tentative pick awaiting confirmation.
type Selection struct {
	Roster string
	Player string
}

// Pick records one confirmed selection. Number is the 1-based overall pick.
type Pick struct {
	Participant string
	Roster      string
	Player      string
	Number      int
	Round       int
}

// State is one draft session. Apply never mutates a State it is given, so a
// State value can be shared freely once produced.
type State struct {
	Stage     Stage
	Slots     []string
	Order     []string
	Cursor    int
	PicksMade int
	Picks     map[string][]string
	Taken     map[string]map[string]bool
	History   []Pick
	Pending   *Selection
	LastPick  *Pick
	Rules     Rules
	Rosters   []Roster
}

type CommandType string

const (
	CmdSetName      CommandType = "SetName"
	CmdStartDraft   CommandType = "StartDraft"
	CmdSelectPlayer CommandType = "SelectPlayer"
	CmdConfirmPick  CommandType = "ConfirmPick"
	CmdCancelPick   CommandType = "CancelPick"
	CmdReset        CommandType = "Reset"
)

/*
	CmdSetName      -> EvtNameEntered
	CmdStartDraft   -> EvtNameEntered* -> EvtDraftStarted
	CmdSelectPlayer -> EvtPlayerSelected
	CmdCancelPick   -> EvtSelectionCancelled
	CmdConfirmPick  -> EvtPlayerPicked -> EvtTurnAdvanced -> EvtDraftCompleted (on the last pick)
	CmdReset        -> EvtSessionReset
*/

type Command struct {
	Type   CommandType
	Slot   int
	Name   string
	Names  []string
	Roster string
	Player string
}

type EventType string

const (
	EvtNameEntered        EventType = "NameEntered"
	EvtDraftStarted       EventType = "DraftStarted"
	EvtPlayerSelected     EventType = "PlayerSelected"
	EvtSelectionCancelled EventType = "SelectionCancelled"
	EvtPlayerPicked       EventType = "PlayerPicked"
	EvtTurnAdvanced       EventType = "TurnAdvanced"
	EvtDraftCompleted     EventType = "DraftCompleted"
	EvtSessionReset       EventType = "SessionReset"
)

type Event struct {
	Type        EventType `json:"type"`
	Slot        int       `json:"slot"`
	Name        string    `json:"name,omitempty"`
	Names       []string  `json:"names,omitempty"`
	Order       []string  `json:"order,omitempty"`
	Participant string    `json:"participant,omitempty"`
	Roster      string    `json:"roster,omitempty"`
	Player      string    `json:"player,omitempty"`
	Index       int       `json:"index"`
}

// Apply validates cmd against s and returns the events it produces along
// with the resulting state. A rejected command returns a non-nil error, no
// events, and s itself.
func Apply(s State, cmd Command) ([]Event, State, error) {
	var (
		events []Event
		err    error
	)

	switch cmd.Type {
	case CmdSetName:
		events, err = setName(s, cmd)
	case CmdStartDraft:
		events, err = startDraft(s, cmd)
	case CmdSelectPlayer:
		events, err = selectPlayer(s, cmd)
	case CmdConfirmPick:
		events, err = confirmPick(s)
	case CmdCancelPick:
		events, err = cancelPick(s)
	case CmdReset:
		events = []Event{{Type: EvtSessionReset}}
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
	if err != nil {
		return nil, s, err
	}

	next := s.clone()
	for _, e := range events {
		next.apply(e)
	}
	return events, next, nil
}

// Reduce rebuilds a session from the events emitted since its last reset.
func Reduce(rules Rules, rosters []Roster, events []Event) State {
	s := NewEmptyState(rules, rosters)
	for _, e := range events {
		s.apply(e)
	}
	return s
}

func setName(s State, cmd Command) ([]Event, error) {
	if s.Stage != StageSetup {
		return nil, reject(ErrInvalidInput, "names are fixed once the draft starts")
	}
	if cmd.Slot < 0 || cmd.Slot >= len(s.Slots) {
		return nil, reject(ErrInvalidInput, "slot %d out of range [0,%d)", cmd.Slot, len(s.Slots))
	}
	return []Event{{Type: EvtNameEntered, Slot: cmd.Slot, Name: cmd.Name}}, nil
}

func startDraft(s State, cmd Command) ([]Event, error) {
	if s.Stage != StageSetup {
		return nil, reject(ErrInvalidInput, "draft already started")
	}

	var events []Event
	slots := s.Slots
	if cmd.Names != nil {
		if len(cmd.Names) != len(s.Slots) {
			return nil, reject(ErrInvalidInput, "want %d names, got %d", len(s.Slots), len(cmd.Names))
		}
		slots = cmd.Names
		for i, name := range cmd.Names {
			events = append(events, Event{Type: EvtNameEntered, Slot: i, Name: name})
		}
	}

	names, err := participantNames(slots)
	if err != nil {
		return nil, err
	}

	events = append(events, Event{Type: EvtDraftStarted, Names: names, Order: shuffle(names)})
	return events, nil
}

func selectPlayer(s State, cmd Command) ([]Event, error) {
	if err := requireDraft(s); err != nil {
		return nil, err
	}
	if !canSelect(s, cmd.Roster, cmd.Player) {
		return nil, reject(ErrInvalidSelection, "%q is not available in roster %q", cmd.Player, cmd.Roster)
	}
	return []Event{{Type: EvtPlayerSelected, Roster: cmd.Roster, Player: cmd.Player}}, nil
}

func confirmPick(s State) ([]Event, error) {
	if err := requireDraft(s); err != nil {
		return nil, err
	}
	if s.Pending == nil {
		return nil, reject(ErrInvalidSelection, "no pending selection")
	}
	quota := s.Rules.Quota()
	if s.PicksMade >= quota {
		return nil, ErrDraftExhausted
	}
	sel := *s.Pending
	if !canSelect(s, sel.Roster, sel.Player) {
		return nil, reject(ErrInvalidSelection, "%q is no longer available", sel.Player)
	}

	made := s.PicksMade + 1
	events := []Event{
		{Type: EvtPlayerPicked, Participant: s.Order[s.Cursor], Roster: sel.Roster, Player: sel.Player},
		{Type: EvtTurnAdvanced, Index: NextTurnIndex(made, len(s.Order))},
	}
	if made == quota {
		events = append(events, Event{Type: EvtDraftCompleted})
	}
	return events, nil
}

func cancelPick(s State) ([]Event, error) {
	if err := requireDraft(s); err != nil {
		return nil, err
	}
	if s.Pending == nil {
		return nil, reject(ErrInvalidSelection, "no pending selection")
	}
	return []Event{{Type: EvtSelectionCancelled}}, nil
}

func requireDraft(s State) error {
	switch s.Stage {
	case StageDraft:
		return nil
	case StageComplete:
		return ErrDraftExhausted
	default:
		return reject(ErrInvalidSelection, "draft has not started")
	}
}

// participantNames trims the slot values and requires them to be non-empty
// and distinct.
func participantNames(slots []string) ([]string, error) {
	names := make([]string, len(slots))
	seen := make(map[string]bool, len(slots))
	for i, raw := range slots {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, reject(ErrInvalidInput, "slot %d is blank", i)
		}
		if seen[name] {
			return nil, reject(ErrInvalidInput, "duplicate participant %q", name)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}

func canSelect(s State, team, player string) bool {
	r, ok := findRoster(s.Rosters, team)
	if !ok || !r.Has(player) {
		return false
	}
	return !s.Taken[team][player]
}

func (s *State) apply(e Event) {
	switch e.Type {
	case EvtNameEntered:
		s.Slots[e.Slot] = e.Name

	case EvtDraftStarted:
		s.Slots = append([]string(nil), e.Names...)
		s.Order = append([]string(nil), e.Order...)
		s.Picks = make(map[string][]string, len(e.Order))
		for _, p := range e.Order {
			s.Picks[p] = []string{}
		}
		s.Taken = emptyTaken(s.Rosters)
		s.History = nil
		s.Cursor = 0
		s.PicksMade = 0
		s.Pending = nil
		s.LastPick = nil
		s.Stage = StageDraft

	case EvtPlayerSelected:
		s.Pending = &Selection{Roster: e.Roster, Player: e.Player}

	case EvtSelectionCancelled:
		s.Pending = nil

	case EvtPlayerPicked:
		pick := Pick{
			Participant: e.Participant,
			Roster:      e.Roster,
			Player:      e.Player,
			Number:      s.PicksMade + 1,
			Round:       RoundOf(s.PicksMade, len(s.Order)).Number,
		}
		s.Picks[e.Participant] = append(s.Picks[e.Participant], e.Player)
		if s.Taken[e.Roster] == nil {
			s.Taken[e.Roster] = map[string]bool{}
		}
		s.Taken[e.Roster][e.Player] = true
		s.History = append(s.History, pick)
		s.PicksMade++
		s.LastPick = &pick
		s.Pending = nil

	case EvtTurnAdvanced:
		s.Cursor = e.Index

	case EvtDraftCompleted:
		s.Stage = StageComplete

	case EvtSessionReset:
		*s = NewEmptyState(s.Rules, s.Rosters)
	}
}

func reject(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
