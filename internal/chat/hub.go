package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"courseconnect/internal/logging"
	"courseconnect/internal/presence"

	"github.com/google/uuid"
)

// ErrDeliveryDropped means the receiver is connected but its outbound queue
// is full. The message is still stored.
var ErrDeliveryDropped = errors.New("delivery dropped")

// Relay fans events out across server instances and records which
// connection owns each online user. A nil Relay keeps everything in-process.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, deliver func(Envelope)) error
	// Claim makes owner the user's current connection.
	Claim(ctx context.Context, userID uuid.UUID, owner string) error
	// Release removes the user only while owner is still its connection.
	Release(ctx context.Context, userID uuid.UUID, owner string) (bool, error)
	// Owner returns "" for an offline user.
	Owner(ctx context.Context, userID uuid.UUID) (string, error)
	Online(ctx context.Context) ([]uuid.UUID, error)
}

type registration struct {
	userID uuid.UUID
	handle presence.Handle
}

// Hub owns the connection lifecycle. Run serializes connects and
// disconnects; relay traffic may also drop a user whose connection moved
// to another instance.
type Hub struct {
	registry   *presence.Registry
	register   chan registration
	unregister chan registration
	done       chan struct{}
	relay      Relay
	log        logging.Logger

	instance string
	mu       sync.Mutex
	seq      uint64
	owners   map[uuid.UUID]string // guarded by mu, together with registry writes
}

func NewHub(registry *presence.Registry, relay Relay, log logging.Logger) *Hub {
	return &Hub{
		registry:   registry,
		register:   make(chan registration),
		unregister: make(chan registration),
		done:       make(chan struct{}),
		relay:      relay,
		log:        log.With("component", "hub"),
		instance:   uuid.NewString(),
		owners:     make(map[uuid.UUID]string),
	}
}

// Run processes connects and disconnects until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case reg := <-h.register:
			owner := h.track(reg.userID, reg.handle)
			h.log.Debug(ctx, "connection registered", "user_id", reg.userID, "owner", owner)
			h.claim(ctx, reg.userID, owner)
			// The new connection needs the list even when it only replaced an old one.
			h.broadcastPresence(ctx)

		case reg := <-h.unregister:
			owner, ok := h.untrack(reg.userID, reg.handle)
			if !ok {
				continue
			}
			h.log.Debug(ctx, "connection unregistered", "user_id", reg.userID, "owner", owner)
			if h.release(ctx, reg.userID, owner) {
				h.broadcastPresence(ctx)
			}
		}
	}
}

// Register hands a new connection to the run loop.
func (h *Hub) Register(userID uuid.UUID, handle presence.Handle) {
	select {
	case h.register <- registration{userID: userID, handle: handle}:
	case <-h.done:
	}
}

// Unregister removes handle if it is still the user's current connection.
func (h *Hub) Unregister(userID uuid.UUID, handle presence.Handle) {
	select {
	case h.unregister <- registration{userID: userID, handle: handle}:
	case <-h.done:
	}
}

func (h *Hub) track(userID uuid.UUID, handle presence.Handle) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	owner := h.instance + ":" + strconv.FormatUint(h.seq, 10)
	h.registry.Register(userID, handle)
	h.owners[userID] = owner
	return owner
}

func (h *Hub) untrack(userID uuid.UUID, handle presence.Handle) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.registry.UnregisterHandle(userID, handle) {
		return "", false
	}
	owner := h.owners[userID]
	delete(h.owners, userID)
	return owner, true
}

func (h *Hub) ownerOf(userID uuid.UUID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.owners[userID]
}

func (h *Hub) claim(ctx context.Context, userID uuid.UUID, owner string) {
	if h.relay == nil {
		return
	}
	if err := h.relay.Claim(ctx, userID, owner); err != nil {
		h.log.Warn(ctx, "relay claim failed", "user_id", userID, "error", err)
	}
	if err := h.relay.Publish(ctx, Envelope{Kind: EnvelopeSuperseded, TargetID: userID, Owner: owner}); err != nil {
		h.log.Warn(ctx, "relay superseded notice failed", "user_id", userID, "error", err)
	}
}

// release reports whether the user actually went offline.
func (h *Hub) release(ctx context.Context, userID uuid.UUID, owner string) bool {
	if h.relay == nil {
		return true
	}
	released, err := h.relay.Release(ctx, userID, owner)
	if err != nil {
		h.log.Warn(ctx, "relay release failed", "user_id", userID, "error", err)
		return true
	}
	return released
}

// Dispatch pushes ev to userID's current connection, wherever it lives. It
// is best-effort: an offline receiver is not an error.
func (h *Hub) Dispatch(ctx context.Context, userID uuid.UUID, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if h.relay != nil {
		owner, err := h.relay.Owner(ctx, userID)
		if err != nil {
			return err
		}
		if owner == "" {
			return nil
		}
		return h.relay.Publish(ctx, Envelope{TargetID: userID, Owner: owner, Payload: payload})
	}

	if _, ok := h.registry.Lookup(userID); !ok {
		return nil
	}
	if !h.deliverLocal(userID, payload) {
		return ErrDeliveryDropped
	}
	return nil
}

// Subscribe feeds relay traffic to local connections until ctx is done.
// Without a relay it returns immediately.
func (h *Hub) Subscribe(ctx context.Context) {
	if h.relay == nil {
		return
	}
	deliver := func(env Envelope) { h.deliverEnvelope(ctx, env) }
	if err := h.relay.Subscribe(ctx, deliver); err != nil && !errors.Is(err, context.Canceled) {
		h.log.Error(ctx, "relay subscription ended", "error", err)
	}
}

func (h *Hub) deliverEnvelope(ctx context.Context, env Envelope) {
	switch {
	case env.Kind == EnvelopeSuperseded:
		h.dropSuperseded(ctx, env.TargetID, env.Owner)
	case env.TargetID == uuid.Nil:
		h.broadcastLocal(env.Payload)
	case env.Owner != "" && env.Owner != h.ownerOf(env.TargetID):
		// Addressed to a connection this instance does not own.
	default:
		h.deliverLocal(env.TargetID, env.Payload)
	}
}

// dropSuperseded forgets the local connection of a user who reconnected
// elsewhere. The old socket stays open but receives nothing further.
func (h *Hub) dropSuperseded(ctx context.Context, userID uuid.UUID, owner string) {
	local := h.ownerOf(userID)
	if local == "" || local == owner {
		return
	}
	// Notices can arrive late; Redis has the final word on who is current.
	current, err := h.relay.Owner(ctx, userID)
	if err != nil {
		h.log.Warn(ctx, "relay owner lookup failed", "user_id", userID, "error", err)
	} else if current == local {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.owners[userID] != local {
		return
	}
	delete(h.owners, userID)
	h.registry.Unregister(userID)
	h.log.Debug(ctx, "connection superseded", "user_id", userID, "owner", local, "by", owner)
}

func (h *Hub) deliverLocal(userID uuid.UUID, payload []byte) bool {
	handle, ok := h.registry.Lookup(userID)
	if !ok {
		return false
	}
	return handle.Deliver(payload)
}

func (h *Hub) broadcastLocal(payload []byte) {
	for _, handle := range h.registry.Handles() {
		handle.Deliver(payload)
	}
}

func (h *Hub) broadcastPresence(ctx context.Context) {
	if h.relay == nil {
		h.broadcastOnline(ctx, h.registry.Online())
		return
	}

	ids, err := h.relay.Online(ctx)
	if err != nil {
		h.log.Warn(ctx, "relay online list failed", "error", err)
		ids = h.registry.Online()
	}

	payload, err := json.Marshal(Event{Type: EventOnlineUsers, Payload: ids})
	if err != nil {
		return
	}
	if err := h.relay.Publish(ctx, Envelope{Payload: payload}); err != nil {
		h.log.Warn(ctx, "relay publish failed, broadcasting locally", "error", err)
		h.broadcastLocal(payload)
	}
}

func (h *Hub) broadcastOnline(ctx context.Context, ids []uuid.UUID) {
	payload, err := json.Marshal(Event{Type: EventOnlineUsers, Payload: ids})
	if err != nil {
		h.log.Error(ctx, "encode online users", "error", err)
		return
	}
	h.broadcastLocal(payload)
}
