package hub

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/DoyleJ11/snake-draft-backend/internal/lobby"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("hub closed")

const (
	DefaultIdleTTL    = 2 * time.Hour
	DefaultSweepEvery = time.Minute
)

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	State engine.State
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type EnsureLobby struct {
	Code  string
	State engine.State // only used if creation happens
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type Hub struct {
	inbox      chan HubMsg
	lobbies    map[string]*lobby.Lobby
	clock      clockwork.Clock
	idleTTL    time.Duration
	sweepEvery time.Duration
	log        *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Option func(*Hub)

func WithClock(c clockwork.Clock) Option {
	return func(h *Hub) { h.clock = c }
}

func WithLogger(log *zap.Logger) Option {
	return func(h *Hub) { h.log = log }
}

// WithIdleTTL sets how long a lobby may go without activity before the sweep
// removes it. Zero disables sweeping.
func WithIdleTTL(ttl time.Duration) Option {
	return func(h *Hub) { h.idleTTL = ttl }
}

func WithSweepEvery(d time.Duration) Option {
	return func(h *Hub) { h.sweepEvery = d }
}

func NewHub(parent context.Context, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:      make(chan HubMsg, 64),
		lobbies:    make(map[string]*lobby.Lobby),
		clock:      clockwork.NewRealClock(),
		idleTTL:    DefaultIdleTTL,
		sweepEvery: DefaultSweepEvery,
		log:        zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}

	var sweeps <-chan time.Time
	if h.idleTTL > 0 && h.sweepEvery > 0 {
		ticker := h.clock.NewTicker(h.sweepEvery)
		sweeps = ticker.Chan()
		go func() {
			<-ctx.Done()
			ticker.Stop()
		}()
	}

	go h.loop(sweeps)
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop(sweeps <-chan time.Time) {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-sweeps:
			h.sweep()

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.newLobby(msg.Code, msg.State)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.newLobby(msg.Code, msg.State)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					stopLobby(lb)
					delete(h.lobbies, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) newLobby(code string, state engine.State) *lobby.Lobby {
	lb := lobby.NewLobby(h.ctx, state,
		lobby.WithClock(h.clock),
		lobby.WithLogger(h.log.With(zap.String("code", code))),
	)
	h.lobbies[code] = lb
	h.log.Info("lobby created", zap.String("code", code), zap.Int("lobbies", len(h.lobbies)))
	return lb
}

// sweep drops lobbies that have shut down or gone idle past the TTL.
func (h *Hub) sweep() {
	now := h.clock.Now()
	for code, lb := range h.lobbies {
		ctx, cancel := context.WithTimeout(h.ctx, time.Second)
		view, err := lb.Snapshot(ctx)
		cancel()

		switch {
		case err != nil:
			h.log.Warn("removing unresponsive lobby", zap.String("code", code), zap.Error(err))
		case now.Sub(view.LastActive) > h.idleTTL:
			h.log.Info("removing idle lobby", zap.String("code", code), zap.Duration("idle", now.Sub(view.LastActive)))
		default:
			continue
		}

		stopLobby(lb)
		delete(h.lobbies, code)
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		stopLobby(lb)
	}
	clear(h.lobbies)
	h.cancel()
}

func stopLobby(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}

// Close shuts the hub and its lobbies down and waits for the hub loop to exit.
func (h *Hub) Close(ctx context.Context) error {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-h.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lookup returns the lobby for code, or nil.
func (h *Hub) Lookup(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	return h.request(ctx, GetLobby{Code: code, Reply: reply}, reply)
}

// Ensure returns the lobby for code, starting one from state if none exists.
func (h *Hub) Ensure(ctx context.Context, code string, state engine.State) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	return h.request(ctx, EnsureLobby{Code: code, State: state, Reply: reply}, reply)
}

func (h *Hub) request(ctx context.Context, m HubMsg, reply <-chan *lobby.Lobby) (*lobby.Lobby, error) {
	select {
	case h.inbox <- m:
	case <-h.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case lb := <-reply:
		return lb, nil
	case <-h.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
