package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

// FromClient asks the lobby to apply a command. Reply is optional; when set
// it receives exactly one Result.
type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Export fields
type Snapshot struct {
	Version   int
	State     engine.State
	UpdatedAt time.Time
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
	Events     []engine.Event
	UpdatedAt  time.Time
	LastActive time.Time
}

type Result struct {
	Version   int
	Events    []engine.Event
	State     engine.State
	UpdatedAt time.Time
	Err       error
}

type Lobby struct {
	inbox      chan Msg
	state      engine.State
	version    int
	events     []engine.Event
	clients    map[string]chan Snapshot
	updatedAt  time.Time
	lastActive time.Time
	clock      clockwork.Clock
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

type Option func(*Lobby)

func WithClock(c clockwork.Clock) Option {
	return func(l *Lobby) { l.clock = c }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Lobby) { l.log = log }
}

func NewLobby(parent context.Context, initial engine.State, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		version: 0,
		clients: make(map[string]chan Snapshot),
		clock:   clockwork.NewRealClock(),
		log:     zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.updatedAt = l.clock.Now()
	l.lastActive = l.updatedAt

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = msg.Outbox
				l.lastActive = l.clock.Now()
				l.send(msg.ClientID, msg.Outbox, l.snapshot())

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				l.lastActive = l.clock.Now()
				events, newState, err := engine.Apply(l.state, msg.Cmd)
				if err != nil {
					l.log.Debug("command rejected",
						zap.String("command", string(msg.Cmd.Type)),
						zap.String("reason", engine.RejectionReason(err)),
						zap.Error(err))
					reply(msg.Reply, Result{Version: l.version, State: l.state, UpdatedAt: l.updatedAt, Err: err})
					break
				}

				// Apply never mutates l.state, so snapshots already handed out stay valid.
				l.state = newState
				l.version++
				l.updatedAt = l.lastActive
				if engine.ContainsEvent(events, engine.EvtSessionReset) {
					l.events = nil
				} else {
					l.events = append(l.events, events...)
				}
				if engine.ContainsEvent(events, engine.EvtDraftCompleted) {
					l.log.Info("draft completed", zap.Int("picks", l.state.PicksMade))
				}

				reply(msg.Reply, Result{Version: l.version, Events: events, State: l.state, UpdatedAt: l.updatedAt})
				l.broadcast(l.snapshot())

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state,
					Events:     append([]engine.Event(nil), l.events...),
					UpdatedAt:  l.updatedAt,
					LastActive: l.lastActive,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) snapshot() Snapshot {
	return Snapshot{Version: l.version, State: l.state, UpdatedAt: l.updatedAt}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.send(id, ch, snap)
	}
}

func (l *Lobby) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		//ok
	default:
		// Client is slow/full - drop them.
		l.log.Warn("dropping slow client", zap.String("client_id", id))
		close(ch)
		delete(l.clients, id)
	}
}

func reply(ch chan Result, res Result) {
	if ch == nil {
		return
	}
	select {
	case ch <- res:
	default:
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Submit applies cmd and waits for the outcome. A rejected command is
// reported in Result.Err; the returned error is only for delivery failures.
func (l *Lobby) Submit(ctx context.Context, cmd engine.Command) (Result, error) {
	replyCh := make(chan Result, 1)
	if err := l.post(ctx, FromClient{Cmd: cmd, Reply: replyCh}); err != nil {
		return Result{}, err
	}
	select {
	case res := <-replyCh:
		return res, nil
	case <-l.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Snapshot returns the lobby's current view.
func (l *Lobby) Snapshot(ctx context.Context) (View, error) {
	replyCh := make(chan View, 1)
	if err := l.post(ctx, GetState{Reply: replyCh}); err != nil {
		return View{}, err
	}
	select {
	case v := <-replyCh:
		return v, nil
	case <-l.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) post(ctx context.Context, m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
