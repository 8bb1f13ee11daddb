package commands_test

import (
	"context"
	"sync"
	"time"

	"drivethru/internal/core/application/usecases/commands"
	"drivethru/internal/core/domain/model/audit"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/core/domain/services"
	"drivethru/internal/core/ports"
	"drivethru/internal/pkg/errs"
)

// memStore is a shared in-memory backing store for handler tests. The turn
// handler drives stateful multi-step flows, so a stateful fake reads better
// here than per-call expectations.
type memStore struct {
	mu           sync.Mutex
	sessions     map[string]*session.Session
	orders       map[string]*order.Order
	entries      map[string][]audit.Entry
	commits      int
	orderUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*session.Session),
		orders:   make(map[string]*order.Order),
		entries:  make(map[string][]audit.Entry),
	}
}

type memUoW struct{ store *memStore }

func (u *memUoW) Begin(context.Context) error { return nil }
func (u *memUoW) Commit(context.Context) error {
	u.store.mu.Lock()
	u.store.commits++
	u.store.mu.Unlock()
	return nil
}
func (u *memUoW) Rollback(context.Context) error { return nil }

func (u *memUoW) SessionRepository() ports.SessionRepository { return &memSessionRepo{u.store} }
func (u *memUoW) OrderRepository() ports.OrderRepository     { return &memOrderRepo{u.store} }
func (u *memUoW) AuditRepository() ports.AuditRepository     { return &memAuditRepo{u.store} }

type memUoWFactory struct{ store *memStore }

func (f *memUoWFactory) Create() commands.TurnUoW { return &memUoW{f.store} }

type memSessionUoWFactory struct{ store *memStore }

func (f *memSessionUoWFactory) Create() commands.SessionUoW { return &memUoW{f.store} }

type memSessionRepo struct{ store *memStore }

func (r *memSessionRepo) Add(_ context.Context, s *session.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sessions[s.ID().String()] = s
	return nil
}

func (r *memSessionRepo) Update(_ context.Context, s *session.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sessions[s.ID().String()] = s
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id kernel.UUID) (*session.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.sessions[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("session", id)
	}
	return s, nil
}

func (r *memSessionRepo) GetActiveByLane(_ context.Context, restaurantID, laneID string) (*session.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if s.RestaurantID() == restaurantID && s.LaneID() == laneID && !s.IsOver() {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) GetAllExpired(_ context.Context, now time.Time) ([]*session.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*session.Session
	for _, s := range r.store.sessions {
		if !s.IsOver() && s.IsExpired(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

type memOrderRepo struct{ store *memStore }

func (r *memOrderRepo) Add(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[o.ID().String()] = o
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orderUpdates++
	r.store.orders[o.ID().String()] = o
	return nil
}

func (r *memOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id.String()]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return o, nil
}

type memAuditRepo struct{ store *memStore }

func (r *memAuditRepo) AppendEntries(_ context.Context, entries []audit.Entry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range entries {
		key := e.OrderID().String()
		r.store.entries[key] = append(r.store.entries[key], e)
	}
	return nil
}

func (r *memAuditRepo) GetLog(_ context.Context, orderID kernel.UUID) (*audit.Log, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return audit.NewLog(r.store.entries[orderID.String()]), nil
}

// stubMenu returns a fixed catalog for every restaurant.
type stubMenu struct{ catalog services.Catalog }

func (m *stubMenu) Snapshot(context.Context, string) (services.Catalog, error) {
	return m.catalog, nil
}

type stubCatalog map[string]services.MenuItemInfo

func (c stubCatalog) Lookup(menuItemID string) (services.MenuItemInfo, bool) {
	info, ok := c[menuItemID]
	return info, ok
}

// stubProposer replays scripted proposals keyed by utterance text.
type stubProposer struct {
	proposals map[string]ports.Proposal
	err       error
}

func (p *stubProposer) Propose(_ context.Context, req ports.ProposeRequest) (ports.Proposal, error) {
	if p.err != nil {
		return ports.Proposal{}, p.err
	}
	proposal, ok := p.proposals[req.Utterance]
	if !ok {
		return ports.Proposal{Intent: ports.IntentUnclear, Confidence: 1}, nil
	}
	return proposal, nil
}

type stubTranscriber struct {
	transcript ports.Transcript
	err        error
}

func (s *stubTranscriber) Transcribe(context.Context, []byte) (ports.Transcript, error) {
	return s.transcript, s.err
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte(text), nil
}

type recordingKitchen struct {
	mu      sync.Mutex
	tickets []ports.KitchenTicket
}

func (k *recordingKitchen) PublishTicket(_ context.Context, ticket ports.KitchenTicket) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tickets = append(k.tickets, ticket)
	return nil
}
