// Package memory provides the in-memory implementation of the persistence
// contract. It is the authoritative transactional state; durable backends
// embed it and snapshot the committed state after each transaction.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentledger/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain
// persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type state struct {
	rooms    map[string]domain.Room
	tenants  map[string]domain.Tenant
	bills    map[string]domain.Bill
	readings map[string]domain.MeterReading
	// readingSeq records the insertion order of meter readings; ids are
	// opaque, so equal-month readings need the sequence to resolve which
	// one is newest.
	readingSeq map[string]int
	nextSeq    int
	settings   domain.Settings
}

func newState() state {
	return state{
		rooms:      make(map[string]domain.Room),
		tenants:    make(map[string]domain.Tenant),
		bills:      make(map[string]domain.Bill),
		readings:   make(map[string]domain.MeterReading),
		readingSeq: make(map[string]int),
		settings:   domain.DefaultSettings(),
	}
}

func (s state) clone() state {
	cloned := newState()
	cloned.settings = s.settings
	cloned.nextSeq = s.nextSeq
	for k, v := range s.readingSeq {
		cloned.readingSeq[k] = v
	}
	for k, v := range s.rooms {
		cloned.rooms[k] = domain.CloneRoom(v)
	}
	for k, v := range s.tenants {
		cloned.tenants[k] = domain.CloneTenant(v)
	}
	for k, v := range s.bills {
		cloned.bills[k] = domain.CloneBill(v)
	}
	for k, v := range s.readings {
		cloned.readings[k] = v
	}
	return cloned
}

// Store is an in-memory transactional store: each transaction runs against a
// clone of the state and commits only when its mutations pass the rules
// engine.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *domain.RulesEngine
	nowFn  func() time.Time
	idFn   func() string
}

// NewStore constructs an in-memory store backed by the provided rules
// engine. A nil engine gets the default invariant set.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewDefaultRulesEngine()
	}
	return &Store{
		state:  newState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   newID,
	}
}

// newID returns a fresh opaque identifier: a dash-stripped UUIDv4, 32
// case-sensitive alphanumerics from a cryptographic source.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RulesEngine returns the engine evaluating commits.
func (s *Store) RulesEngine() *domain.RulesEngine { return s.engine }

// NowFunc returns the store clock.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

// SetNowFunc replaces the store clock; used for deterministic tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// SetIDFunc replaces the identifier source; used for deterministic seeding
// in tests.
func (s *Store) SetIDFunc(fn func() string) {
	if fn != nil {
		s.idFn = fn
	}
}

// Tx is the transactional mutation scope handed to RunInTransaction
// callbacks.
type Tx struct {
	store   *Store
	state   state
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Tx)(nil)

// view exposes read-only transactional state to rules and callbacks.
type view struct {
	state *state
}

var _ domain.TransactionView = view{}

// ListRooms returns all rooms in the transactional state.
func (v view) ListRooms() []domain.Room {
	out := make([]domain.Room, 0, len(v.state.rooms))
	for _, r := range v.state.rooms {
		out = append(out, domain.CloneRoom(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListTenants returns all tenants in the transactional state.
func (v view) ListTenants() []domain.Tenant {
	out := make([]domain.Tenant, 0, len(v.state.tenants))
	for _, t := range v.state.tenants {
		out = append(out, domain.CloneTenant(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBills returns all bills in the transactional state.
func (v view) ListBills() []domain.Bill {
	out := make([]domain.Bill, 0, len(v.state.bills))
	for _, b := range v.state.bills {
		out = append(out, domain.CloneBill(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListMeterReadings returns all meter readings in the transactional state
// in insertion order, so the last element for a tenant and month is the
// newest reading.
func (v view) ListMeterReadings() []domain.MeterReading {
	out := make([]domain.MeterReading, 0, len(v.state.readings))
	for _, m := range v.state.readings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := v.state.readingSeq[out[i].ID], v.state.readingSeq[out[j].ID]
		if si != sj {
			return si < sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Settings returns the settings value in the transactional state.
func (v view) Settings() domain.Settings { return v.state.settings }

// FindRoom retrieves a room by id.
func (v view) FindRoom(id string) (domain.Room, bool) {
	r, ok := v.state.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return domain.CloneRoom(r), true
}

// FindTenant retrieves a tenant by id.
func (v view) FindTenant(id string) (domain.Tenant, bool) {
	t, ok := v.state.tenants[id]
	if !ok {
		return domain.Tenant{}, false
	}
	return domain.CloneTenant(t), true
}

// RunInTransaction executes fn within a transactional copy of the state.
// The copy commits only if fn succeeds and no registered rule blocks it.
// The returned changes describe the committed mutations in order.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, []domain.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, nil, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return domain.Result{}, nil, err
		}
		result = res
		if res.HasBlocking() {
			return res, nil, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, tx.changes, nil
}

// View executes fn against a read-only snapshot of the committed state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

func (tx *Tx) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state read-only.
func (tx *Tx) Snapshot() domain.TransactionView {
	return view{state: &tx.state}
}

// Now returns the transaction timestamp.
func (tx *Tx) Now() time.Time { return tx.now }

// CreateRoom stores a new room under a fresh id.
func (tx *Tx) CreateRoom(r domain.Room) (domain.Room, error) {
	r.ID = tx.store.idFn()
	tx.state.rooms[r.ID] = domain.CloneRoom(r)
	tx.recordChange(domain.Change{Entity: domain.EntityRoom, Action: domain.ActionCreate, After: domain.CloneRoom(r)})
	return domain.CloneRoom(r), nil
}

// UpdateRoom mutates a room using the provided mutator function.
func (tx *Tx) UpdateRoom(id string, mutator func(*domain.Room) error) (domain.Room, error) {
	stored, ok := tx.state.rooms[id]
	if !ok {
		return domain.Room{}, domain.NotFoundError{Kind: domain.EntityRoom, ID: id}
	}
	// Mutate a detached copy so a failing mutator cannot leak partial writes
	// through shared pointers.
	current := domain.CloneRoom(stored)
	before := domain.CloneRoom(stored)
	if err := mutator(&current); err != nil {
		return domain.Room{}, err
	}
	current.ID = id
	tx.state.rooms[id] = domain.CloneRoom(current)
	tx.recordChange(domain.Change{Entity: domain.EntityRoom, Action: domain.ActionUpdate, Before: before, After: domain.CloneRoom(current)})
	return domain.CloneRoom(current), nil
}

// DeleteRoom removes a room from the transactional state.
func (tx *Tx) DeleteRoom(id string) error {
	current, ok := tx.state.rooms[id]
	if !ok {
		return domain.NotFoundError{Kind: domain.EntityRoom, ID: id}
	}
	delete(tx.state.rooms, id)
	tx.recordChange(domain.Change{Entity: domain.EntityRoom, Action: domain.ActionDelete, Before: domain.CloneRoom(current)})
	return nil
}

// CreateTenant stores a new tenant under a fresh id.
func (tx *Tx) CreateTenant(t domain.Tenant) (domain.Tenant, error) {
	t.ID = tx.store.idFn()
	if t.RoomIDs == nil {
		t.RoomIDs = []string{}
	}
	tx.state.tenants[t.ID] = domain.CloneTenant(t)
	tx.recordChange(domain.Change{Entity: domain.EntityTenant, Action: domain.ActionCreate, After: domain.CloneTenant(t)})
	return domain.CloneTenant(t), nil
}

// UpdateTenant mutates a tenant using the provided mutator function.
func (tx *Tx) UpdateTenant(id string, mutator func(*domain.Tenant) error) (domain.Tenant, error) {
	stored, ok := tx.state.tenants[id]
	if !ok {
		return domain.Tenant{}, domain.NotFoundError{Kind: domain.EntityTenant, ID: id}
	}
	current := domain.CloneTenant(stored)
	before := domain.CloneTenant(stored)
	if err := mutator(&current); err != nil {
		return domain.Tenant{}, err
	}
	current.ID = id
	tx.state.tenants[id] = domain.CloneTenant(current)
	tx.recordChange(domain.Change{Entity: domain.EntityTenant, Action: domain.ActionUpdate, Before: before, After: domain.CloneTenant(current)})
	return domain.CloneTenant(current), nil
}

// DeleteTenant removes a tenant from the transactional state. Callers are
// responsible for releasing the tenant's rooms in the same transaction.
func (tx *Tx) DeleteTenant(id string) error {
	current, ok := tx.state.tenants[id]
	if !ok {
		return domain.NotFoundError{Kind: domain.EntityTenant, ID: id}
	}
	delete(tx.state.tenants, id)
	tx.recordChange(domain.Change{Entity: domain.EntityTenant, Action: domain.ActionDelete, Before: domain.CloneTenant(current)})
	return nil
}

// CreateBill stores a new bill under a fresh id.
func (tx *Tx) CreateBill(b domain.Bill) (domain.Bill, error) {
	b.ID = tx.store.idFn()
	tx.state.bills[b.ID] = domain.CloneBill(b)
	tx.recordChange(domain.Change{Entity: domain.EntityBill, Action: domain.ActionCreate, After: domain.CloneBill(b)})
	return domain.CloneBill(b), nil
}

// UpdateBill mutates a bill using the provided mutator function.
func (tx *Tx) UpdateBill(id string, mutator func(*domain.Bill) error) (domain.Bill, error) {
	stored, ok := tx.state.bills[id]
	if !ok {
		return domain.Bill{}, domain.NotFoundError{Kind: domain.EntityBill, ID: id}
	}
	current := domain.CloneBill(stored)
	before := domain.CloneBill(stored)
	if err := mutator(&current); err != nil {
		return domain.Bill{}, err
	}
	current.ID = id
	tx.state.bills[id] = domain.CloneBill(current)
	tx.recordChange(domain.Change{Entity: domain.EntityBill, Action: domain.ActionUpdate, Before: before, After: domain.CloneBill(current)})
	return domain.CloneBill(current), nil
}

// DeleteBill removes a bill from the transactional state.
func (tx *Tx) DeleteBill(id string) error {
	current, ok := tx.state.bills[id]
	if !ok {
		return domain.NotFoundError{Kind: domain.EntityBill, ID: id}
	}
	delete(tx.state.bills, id)
	tx.recordChange(domain.Change{Entity: domain.EntityBill, Action: domain.ActionDelete, Before: domain.CloneBill(current)})
	return nil
}

// CreateMeterReading stores a new meter reading under a fresh id. Multiple
// readings for the same tenant and month are permitted; the insertion
// sequence marks this one as the newest so consumers pick it on ties.
func (tx *Tx) CreateMeterReading(m domain.MeterReading) (domain.MeterReading, error) {
	m.ID = tx.store.idFn()
	tx.state.readings[m.ID] = m
	tx.state.readingSeq[m.ID] = tx.state.nextSeq
	tx.state.nextSeq++
	tx.recordChange(domain.Change{Entity: domain.EntityMeterReading, Action: domain.ActionCreate, After: m})
	return m, nil
}

// UpdateMeterReading mutates a meter reading using the provided mutator.
func (tx *Tx) UpdateMeterReading(id string, mutator func(*domain.MeterReading) error) (domain.MeterReading, error) {
	current, ok := tx.state.readings[id]
	if !ok {
		return domain.MeterReading{}, domain.NotFoundError{Kind: domain.EntityMeterReading, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.MeterReading{}, err
	}
	current.ID = id
	tx.state.readings[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityMeterReading, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// UpdateSettings mutates the settings value.
func (tx *Tx) UpdateSettings(mutator func(*domain.Settings) error) (domain.Settings, error) {
	current := tx.state.settings
	before := current
	if err := mutator(&current); err != nil {
		return domain.Settings{}, err
	}
	tx.state.settings = current
	tx.recordChange(domain.Change{Entity: domain.EntitySettings, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// FindRoom retrieves a room by id from the transactional state.
func (tx *Tx) FindRoom(id string) (domain.Room, bool) {
	return view{state: &tx.state}.FindRoom(id)
}

// FindTenant retrieves a tenant by id from the transactional state.
func (tx *Tx) FindTenant(id string) (domain.Tenant, bool) {
	return view{state: &tx.state}.FindTenant(id)
}

// FindBill retrieves a bill by id from the transactional state.
func (tx *Tx) FindBill(id string) (domain.Bill, bool) {
	b, ok := tx.state.bills[id]
	if !ok {
		return domain.Bill{}, false
	}
	return domain.CloneBill(b), true
}

// FindMeterReading retrieves a meter reading by id from the transactional
// state.
func (tx *Tx) FindMeterReading(id string) (domain.MeterReading, bool) {
	m, ok := tx.state.readings[id]
	return m, ok
}

// Read helpers against committed state ---------------------------------------

// GetRoom retrieves a room by id from committed state.
func (s *Store) GetRoom(id string) (domain.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return domain.CloneRoom(r), true
}

// ListRooms returns all rooms from committed state, ordered by id.
func (s *Store) ListRooms() []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListRooms()
}

// GetTenant retrieves a tenant by id from committed state.
func (s *Store) GetTenant(id string) (domain.Tenant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tenants[id]
	if !ok {
		return domain.Tenant{}, false
	}
	return domain.CloneTenant(t), true
}

// ListTenants returns all tenants from committed state, ordered by id.
func (s *Store) ListTenants() []domain.Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListTenants()
}

// GetBill retrieves a bill by id from committed state.
func (s *Store) GetBill(id string) (domain.Bill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.bills[id]
	if !ok {
		return domain.Bill{}, false
	}
	return domain.CloneBill(b), true
}

// ListBills returns all bills from committed state, ordered by id.
func (s *Store) ListBills() []domain.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListBills()
}

// GetMeterReading retrieves a meter reading by id from committed state.
func (s *Store) GetMeterReading(id string) (domain.MeterReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.readings[id]
	return m, ok
}

// ListMeterReadings returns all meter readings from committed state in
// insertion order.
func (s *Store) ListMeterReadings() []domain.MeterReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListMeterReadings()
}

// Settings returns the committed settings value.
func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.settings
}

// ExportState returns the committed state as a snapshot document with
// deterministic record ordering.
func (s *Store) ExportState() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := view{state: &s.state}
	return domain.Snapshot{
		Rooms:         v.ListRooms(),
		Tenants:       v.ListTenants(),
		Bills:         v.ListBills(),
		MeterReadings: v.ListMeterReadings(),
		Settings:      s.state.settings,
	}
}

// ImportState replaces the committed state with the snapshot contents.
// Zero-value settings (no currency symbol) hydrate to the defaults so an
// empty or partial document still yields a usable store. The slice order of
// the snapshot's meter readings becomes their insertion order.
func (s *Store) ImportState(snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := newState()
	for _, r := range snapshot.Rooms {
		if r.ID == "" {
			continue
		}
		next.rooms[r.ID] = domain.CloneRoom(r)
	}
	for _, t := range snapshot.Tenants {
		if t.ID == "" {
			continue
		}
		next.tenants[t.ID] = domain.CloneTenant(t)
	}
	for _, b := range snapshot.Bills {
		if b.ID == "" {
			continue
		}
		next.bills[b.ID] = domain.CloneBill(b)
	}
	for _, m := range snapshot.MeterReadings {
		if m.ID == "" {
			continue
		}
		next.readings[m.ID] = m
		next.readingSeq[m.ID] = next.nextSeq
		next.nextSeq++
	}
	if snapshot.Settings.Currency != "" {
		next.settings = snapshot.Settings
	}
	s.state = next
	return nil
}
