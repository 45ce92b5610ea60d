package engine

type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionReversed Direction = "reversed"
)

// Round describes where a pick falls in the snake: Number is 1-based.
type Round struct {
	Number    int
	Direction Direction
}

// NextTurnIndex returns the index into the draft order of the participant
// on the clock once picksMade picks are complete. Even rounds run forward,
// odd rounds run backward: 0,1,2,3,3,2,1,0,0,1,...
// Callers guarantee n >= 1.
func NextTurnIndex(picksMade, n int) int {
	round := picksMade / n
	pos := picksMade % n
	if round%2 == 0 {
		return pos
	}
	return n - 1 - pos
}

// RoundOf reports the round that the pick after picksMade belongs to.
func RoundOf(picksMade, n int) Round {
	round := picksMade / n
	r := Round{Number: round + 1, Direction: DirectionForward}
	if round%2 == 1 {
		r.Direction = DirectionReversed
	}
	return r
}

// SnakeOrder expands a draft order into the full pick sequence for quota picks.
func SnakeOrder(order []string, quota int) []string {
	if len(order) == 0 {
		return nil
	}
	seq := make([]string, 0, quota)
	for i := 0; i < quota; i++ {
		seq = append(seq, order[NextTurnIndex(i, len(order))])
	}
	return seq
}
