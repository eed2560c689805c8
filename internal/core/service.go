// Package core wires the persistence layer, rules engine, and billing
// helpers into the command surface callers interact with.
package core

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rentledger/internal/infra/persistence/memory"
	"rentledger/pkg/billing"
	"rentledger/pkg/domain"
)

// Event describes one committed command: the recorded changes plus a
// non-fatal persistence warning when the durable snapshot write failed.
type Event struct {
	Changes []domain.Change
	Warning error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the service clock used for createdAt and paid dates.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// WithMetricsRecorder attaches a recorder observing every command.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

type subscriber struct {
	id int
	fn func(Event)
}

// Service exposes the transactional command surface over a persistent store.
// All mutations run through the store's rules engine; a blocking violation
// aborts the command.
type Service struct {
	store   domain.PersistentStore
	logger  zerolog.Logger
	nowFn   func() time.Time
	metrics MetricsRecorder

	subMu     sync.Mutex
	subs      []subscriber
	nextSubID int
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zerolog.Nop(),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store, mainly
// for tests and ephemeral runs.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Snapshot exports the committed state for read models and backup.
func (s *Service) Snapshot() domain.Snapshot { return s.store.ExportState() }

// Subscribe registers a callback invoked synchronously after every committed
// command, in registration order. The returned function cancels the
// subscription. Callbacks must not issue commands; the notification runs on
// the command's goroutine.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Service) notify(ev Event) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(ev)
	}
}

// run executes one command transaction, downgrades persistence warnings to a
// successful outcome, and fans the committed changes out to subscribers.
func (s *Service) run(ctx context.Context, operation string, fn func(domain.Transaction) error) error {
	start := time.Now()
	_, changes, err := s.store.RunInTransaction(ctx, fn)

	var warning domain.PersistenceWarning
	var warn error
	if errors.As(err, &warning) {
		warn = warning
		err = nil
		s.logger.Warn().Str("operation", operation).Err(warning.Cause).Msg("state committed but snapshot write failed")
	}

	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Debug().Str("operation", operation).Err(err).Msg("command rejected")
		return err
	}
	s.logger.Info().Str("operation", operation).Int("changes", len(changes)).Msg("command applied")
	s.notify(Event{Changes: changes, Warning: warn})
	return nil
}

func (s *Service) localDate() string {
	return s.nowFn().Format("2006-01-02")
}

// Rooms -----------------------------------------------------------------------

// RoomDraft carries the caller-supplied fields for a new room. Rooms start
// vacant.
type RoomDraft struct {
	Name        string
	MonthlyRent float64
}

// RoomPatch mutates a room; nil fields are left unchanged. Setting
// IsOccupied true requires a tenant id (in the patch or already on the
// room); setting it false releases the link on both sides.
type RoomPatch struct {
	Name        *string
	MonthlyRent *float64
	IsOccupied  *bool
	TenantID    *string
}

// AddRoom creates a vacant room.
func (s *Service) AddRoom(ctx context.Context, draft RoomDraft) (domain.Room, error) {
	if err := domain.ValidateRoomDraft(draft.Name, draft.MonthlyRent); err != nil {
		return domain.Room{}, err
	}
	var created domain.Room
	err := s.run(ctx, "add_room", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateRoom(domain.Room{Name: draft.Name, MonthlyRent: draft.MonthlyRent})
		return err
	})
	return created, err
}

// UpdateRoom applies a patch to a room, keeping the room↔tenant link coherent
// when occupancy changes.
func (s *Service) UpdateRoom(ctx context.Context, id string, patch RoomPatch) (domain.Room, error) {
	var updated domain.Room
	err := s.run(ctx, "update_room", func(tx domain.Transaction) error {
		room, ok := tx.FindRoom(id)
		if !ok {
			return domain.NotFoundError{Kind: domain.EntityRoom, ID: id}
		}
		if patch.Name != nil {
			if strings.TrimSpace(*patch.Name) == "" {
				return domain.InvalidFieldError{Field: "name", Reason: "must not be blank"}
			}
			room.Name = *patch.Name
		}
		if patch.MonthlyRent != nil {
			if !(*patch.MonthlyRent > 0) || math.IsInf(*patch.MonthlyRent, 0) || math.IsNaN(*patch.MonthlyRent) {
				return domain.InvalidFieldError{Field: "monthlyRent", Reason: "must be positive"}
			}
			room.MonthlyRent = *patch.MonthlyRent
		}
		if patch.IsOccupied != nil || patch.TenantID != nil {
			occupied := room.IsOccupied
			if patch.IsOccupied != nil {
				occupied = *patch.IsOccupied
			}
			if occupied {
				tenantID := ""
				if patch.TenantID != nil {
					tenantID = *patch.TenantID
				} else if room.TenantID != nil {
					tenantID = *room.TenantID
				}
				if tenantID == "" {
					return domain.InvalidFieldError{Field: "tenantId", Reason: "required when occupying a room"}
				}
				if err := s.claimRoom(tx, &room, tenantID); err != nil {
					return err
				}
			} else if err := s.releaseRoom(tx, &room); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.UpdateRoom(id, func(r *domain.Room) error {
			*r = room
			r.ID = id
			return nil
		})
		return err
	})
	return updated, err
}

// DeleteRoom removes a vacant room. Deleting an occupied room is rejected;
// release it first by removing it from its tenant.
func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	return s.run(ctx, "delete_room", func(tx domain.Transaction) error {
		room, ok := tx.FindRoom(id)
		if !ok {
			return domain.NotFoundError{Kind: domain.EntityRoom, ID: id}
		}
		if room.IsOccupied {
			return domain.ConflictError{Reason: "room " + room.Name + " is occupied"}
		}
		return tx.DeleteRoom(id)
	})
}

// releaseRoom vacates a room and removes it from its tenant's list. A
// dangling tenant reference is tolerated and simply cleared.
func (s *Service) releaseRoom(tx domain.Transaction, room *domain.Room) error {
	if room.TenantID != nil {
		if err := removeRoomFromTenant(tx, *room.TenantID, room.ID); err != nil {
			return err
		}
	}
	room.IsOccupied = false
	room.TenantID = nil
	return nil
}

// claimRoom assigns a room to a tenant, releasing any previous holder.
func (s *Service) claimRoom(tx domain.Transaction, room *domain.Room, tenantID string) error {
	if _, ok := tx.FindTenant(tenantID); !ok {
		return domain.NotFoundError{Kind: domain.EntityTenant, ID: tenantID}
	}
	if room.TenantID != nil && *room.TenantID != tenantID {
		if err := removeRoomFromTenant(tx, *room.TenantID, room.ID); err != nil {
			return err
		}
	}
	if err := addRoomToTenant(tx, tenantID, room.ID); err != nil {
		return err
	}
	room.IsOccupied = true
	tid := tenantID
	room.TenantID = &tid
	return nil
}

func removeRoomFromTenant(tx domain.Transaction, tenantID, roomID string) error {
	_, err := tx.UpdateTenant(tenantID, func(t *domain.Tenant) error {
		kept := t.RoomIDs[:0]
		for _, rid := range t.RoomIDs {
			if rid != roomID {
				kept = append(kept, rid)
			}
		}
		t.RoomIDs = kept
		return nil
	})
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func addRoomToTenant(tx domain.Transaction, tenantID, roomID string) error {
	_, err := tx.UpdateTenant(tenantID, func(t *domain.Tenant) error {
		for _, rid := range t.RoomIDs {
			if rid == roomID {
				return nil
			}
		}
		t.RoomIDs = append(t.RoomIDs, roomID)
		return nil
	})
	return err
}

// Tenants ---------------------------------------------------------------------

// TenantDraft carries the caller-supplied fields for a new tenant. Requested
// rooms are claimed atomically with the creation; a room already held by
// another tenant fails the whole command.
type TenantDraft struct {
	Name       string
	Phone      string
	Email      string
	MoveInDate string
	RoomIDs    []string
}

// TenantPatch mutates a tenant; nil fields are left unchanged. A non-nil
// RoomIDs replaces the tenant's room set: removed rooms become vacant, added
// rooms must exist and be free.
type TenantPatch struct {
	Name       *string
	Phone      *string
	Email      *string
	MoveInDate *string
	IsActive   *bool
	RoomIDs    *[]string
}

// AddTenant creates a tenant and claims the requested rooms.
func (s *Service) AddTenant(ctx context.Context, draft TenantDraft) (domain.Tenant, error) {
	if err := domain.ValidateTenantDraft(draft.Name, draft.Phone, draft.MoveInDate); err != nil {
		return domain.Tenant{}, err
	}
	var created domain.Tenant
	err := s.run(ctx, "add_tenant", func(tx domain.Transaction) error {
		tenant, err := tx.CreateTenant(domain.Tenant{
			Name:       draft.Name,
			Phone:      draft.Phone,
			Email:      draft.Email,
			MoveInDate: draft.MoveInDate,
			RoomIDs:    []string{},
			IsActive:   true,
		})
		if err != nil {
			return err
		}
		created, err = s.reconcileTenantRooms(tx, tenant.ID, draft.RoomIDs)
		return err
	})
	return created, err
}

// UpdateTenant applies a patch, reconciling room assignments when RoomIDs is
// present.
func (s *Service) UpdateTenant(ctx context.Context, id string, patch TenantPatch) (domain.Tenant, error) {
	var updated domain.Tenant
	err := s.run(ctx, "update_tenant", func(tx domain.Transaction) error {
		if _, ok := tx.FindTenant(id); !ok {
			return domain.NotFoundError{Kind: domain.EntityTenant, ID: id}
		}
		var err error
		updated, err = tx.UpdateTenant(id, func(t *domain.Tenant) error {
			if patch.Name != nil {
				if strings.TrimSpace(*patch.Name) == "" {
					return domain.InvalidFieldError{Field: "name", Reason: "must not be blank"}
				}
				t.Name = *patch.Name
			}
			if patch.Phone != nil {
				if strings.TrimSpace(*patch.Phone) == "" {
					return domain.InvalidFieldError{Field: "phone", Reason: "must not be blank"}
				}
				t.Phone = *patch.Phone
			}
			if patch.Email != nil {
				t.Email = *patch.Email
			}
			if patch.MoveInDate != nil {
				if *patch.MoveInDate != "" && !domain.ValidDate(*patch.MoveInDate) {
					return domain.InvalidFieldError{Field: "moveInDate", Reason: "must be YYYY-MM-DD"}
				}
				t.MoveInDate = *patch.MoveInDate
			}
			if patch.IsActive != nil {
				t.IsActive = *patch.IsActive
			}
			return nil
		})
		if err != nil {
			return err
		}
		if patch.RoomIDs != nil {
			updated, err = s.reconcileTenantRooms(tx, id, *patch.RoomIDs)
		}
		return err
	})
	return updated, err
}

// DeleteTenant removes a tenant and vacates their rooms. Bills and meter
// readings referencing the tenant are kept as historical records.
func (s *Service) DeleteTenant(ctx context.Context, id string) error {
	return s.run(ctx, "delete_tenant", func(tx domain.Transaction) error {
		tenant, ok := tx.FindTenant(id)
		if !ok {
			return domain.NotFoundError{Kind: domain.EntityTenant, ID: id}
		}
		for _, roomID := range tenant.RoomIDs {
			if _, err := tx.UpdateRoom(roomID, func(r *domain.Room) error {
				r.IsOccupied = false
				r.TenantID = nil
				return nil
			}); err != nil {
				var notFound domain.NotFoundError
				if errors.As(err, &notFound) {
					continue
				}
				return err
			}
		}
		return tx.DeleteTenant(id)
	})
}

// reconcileTenantRooms makes the tenant's room set equal to want, adjusting
// both sides of every affected link.
func (s *Service) reconcileTenantRooms(tx domain.Transaction, tenantID string, want []string) (domain.Tenant, error) {
	tenant, ok := tx.FindTenant(tenantID)
	if !ok {
		return domain.Tenant{}, domain.NotFoundError{Kind: domain.EntityTenant, ID: tenantID}
	}

	wanted := make([]string, 0, len(want))
	seen := map[string]bool{}
	for _, rid := range want {
		if rid == "" || seen[rid] {
			continue
		}
		seen[rid] = true
		wanted = append(wanted, rid)
	}

	for _, rid := range tenant.RoomIDs {
		if seen[rid] {
			continue
		}
		if _, err := tx.UpdateRoom(rid, func(r *domain.Room) error {
			r.IsOccupied = false
			r.TenantID = nil
			return nil
		}); err != nil {
			var notFound domain.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return domain.Tenant{}, err
		}
	}

	held := map[string]bool{}
	for _, rid := range tenant.RoomIDs {
		held[rid] = true
	}
	for _, rid := range wanted {
		if held[rid] {
			continue
		}
		room, ok := tx.FindRoom(rid)
		if !ok {
			return domain.Tenant{}, domain.NotFoundError{Kind: domain.EntityRoom, ID: rid}
		}
		if room.IsOccupied && (room.TenantID == nil || *room.TenantID != tenantID) {
			return domain.Tenant{}, domain.ConflictError{Reason: "room " + room.Name + " is already occupied"}
		}
		if _, err := tx.UpdateRoom(rid, func(r *domain.Room) error {
			r.IsOccupied = true
			tid := tenantID
			r.TenantID = &tid
			return nil
		}); err != nil {
			return domain.Tenant{}, err
		}
	}

	return tx.UpdateTenant(tenantID, func(t *domain.Tenant) error {
		t.RoomIDs = wanted
		return nil
	})
}

// Bills -----------------------------------------------------------------------

// BillDraft carries the caller-supplied fields for a new bill. The grand
// total is always computed from the three components; createdAt comes from
// the service clock.
type BillDraft struct {
	TenantID          string
	Month             string
	RoomRentTotal     float64
	ElectricityCharge float64
	WaterCharge       float64
	IsPaid            bool
	PaidDate          *string
}

// BillPatch mutates a bill; nil fields are left unchanged. Patching a charge
// component without an explicit GrandTotal recomputes the total. Setting
// IsPaid stamps or clears the paid date.
type BillPatch struct {
	Month             *string
	RoomRentTotal     *float64
	ElectricityCharge *float64
	WaterCharge       *float64
	GrandTotal        *float64
	IsPaid            *bool
	PaidDate          *string
}

// AddBill creates a bill for an existing tenant.
func (s *Service) AddBill(ctx context.Context, draft BillDraft) (domain.Bill, error) {
	var created domain.Bill
	err := s.run(ctx, "add_bill", func(tx domain.Transaction) error {
		if _, ok := tx.FindTenant(draft.TenantID); !ok {
			return domain.NotFoundError{Kind: domain.EntityTenant, ID: draft.TenantID}
		}
		bill := domain.Bill{
			TenantID:          draft.TenantID,
			Month:             draft.Month,
			RoomRentTotal:     draft.RoomRentTotal,
			ElectricityCharge: draft.ElectricityCharge,
			WaterCharge:       draft.WaterCharge,
			GrandTotal:        billing.GrandTotal(draft.RoomRentTotal, draft.ElectricityCharge, draft.WaterCharge),
			CreatedAt:         s.nowFn().UTC().Format(time.RFC3339),
		}
		switch {
		case draft.PaidDate != nil:
			bill.IsPaid = true
			bill.PaidDate = draft.PaidDate
		case draft.IsPaid:
			bill.IsPaid = true
			pd := s.localDate()
			bill.PaidDate = &pd
		}
		if err := domain.ValidateBillDraft(bill); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateBill(bill)
		return err
	})
	return created, err
}

// UpdateBill applies a patch to a bill.
func (s *Service) UpdateBill(ctx context.Context, id string, patch BillPatch) (domain.Bill, error) {
	var updated domain.Bill
	err := s.run(ctx, "update_bill", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateBill(id, func(b *domain.Bill) error {
			if patch.Month != nil {
				b.Month = *patch.Month
			}
			componentTouched := false
			if patch.RoomRentTotal != nil {
				b.RoomRentTotal = *patch.RoomRentTotal
				componentTouched = true
			}
			if patch.ElectricityCharge != nil {
				b.ElectricityCharge = *patch.ElectricityCharge
				componentTouched = true
			}
			if patch.WaterCharge != nil {
				b.WaterCharge = *patch.WaterCharge
				componentTouched = true
			}
			switch {
			case patch.GrandTotal != nil:
				b.GrandTotal = *patch.GrandTotal
			case componentTouched:
				b.GrandTotal = billing.GrandTotal(b.RoomRentTotal, b.ElectricityCharge, b.WaterCharge)
			}
			if patch.PaidDate != nil {
				b.PaidDate = patch.PaidDate
				b.IsPaid = true
			}
			if patch.IsPaid != nil {
				if *patch.IsPaid {
					b.IsPaid = true
					if b.PaidDate == nil {
						pd := s.localDate()
						b.PaidDate = &pd
					}
				} else {
					b.IsPaid = false
					b.PaidDate = nil
				}
			}
			return domain.ValidateBillDraft(*b)
		})
		return err
	})
	return updated, err
}

// DeleteBill removes a bill.
func (s *Service) DeleteBill(ctx context.Context, id string) error {
	return s.run(ctx, "delete_bill", func(tx domain.Transaction) error {
		return tx.DeleteBill(id)
	})
}

// Meter readings --------------------------------------------------------------

// MeterReadingDraft carries the caller-supplied fields for a new meter
// reading. Units and cost are derived from the meter values and the current
// electricity price.
type MeterReadingDraft struct {
	TenantID        string
	Month           string
	PreviousReading float64
	CurrentReading  float64
}

// MeterReadingPatch mutates a meter reading; nil fields are left unchanged.
// Patching a meter value without an explicit UnitsConsumed recomputes the
// units; the stored cost only changes through an explicit override.
type MeterReadingPatch struct {
	Month           *string
	PreviousReading *float64
	CurrentReading  *float64
	UnitsConsumed   *float64
	ElectricityCost *float64
}

// AddMeterReading records a meter reading for an existing tenant, deriving
// units and cost at record time. The cost snapshot keeps its price even if
// settings change later.
func (s *Service) AddMeterReading(ctx context.Context, draft MeterReadingDraft) (domain.MeterReading, error) {
	var created domain.MeterReading
	err := s.run(ctx, "add_meter_reading", func(tx domain.Transaction) error {
		if _, ok := tx.FindTenant(draft.TenantID); !ok {
			return domain.NotFoundError{Kind: domain.EntityTenant, ID: draft.TenantID}
		}
		units := billing.Units(draft.PreviousReading, draft.CurrentReading)
		reading := domain.MeterReading{
			TenantID:        draft.TenantID,
			Month:           draft.Month,
			PreviousReading: draft.PreviousReading,
			CurrentReading:  draft.CurrentReading,
			UnitsConsumed:   units,
			ElectricityCost: billing.ElectricityCost(units, tx.Snapshot().Settings().ElectricityPricePerUnit),
		}
		if err := domain.ValidateMeterReadingDraft(reading); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateMeterReading(reading)
		return err
	})
	return created, err
}

// UpdateMeterReading applies a patch to a meter reading.
func (s *Service) UpdateMeterReading(ctx context.Context, id string, patch MeterReadingPatch) (domain.MeterReading, error) {
	var updated domain.MeterReading
	err := s.run(ctx, "update_meter_reading", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMeterReading(id, func(m *domain.MeterReading) error {
			if patch.Month != nil {
				m.Month = *patch.Month
			}
			meterTouched := false
			if patch.PreviousReading != nil {
				m.PreviousReading = *patch.PreviousReading
				meterTouched = true
			}
			if patch.CurrentReading != nil {
				m.CurrentReading = *patch.CurrentReading
				meterTouched = true
			}
			switch {
			case patch.UnitsConsumed != nil:
				m.UnitsConsumed = *patch.UnitsConsumed
			case meterTouched:
				m.UnitsConsumed = billing.Units(m.PreviousReading, m.CurrentReading)
			}
			if patch.ElectricityCost != nil {
				m.ElectricityCost = *patch.ElectricityCost
			}
			return domain.ValidateMeterReadingDraft(*m)
		})
		return err
	})
	return updated, err
}

// Settings --------------------------------------------------------------------

// SettingsPatch mutates the settings singleton; nil fields are left
// unchanged. Changes only affect future derivations, never stored records.
type SettingsPatch struct {
	ElectricityPricePerUnit *float64
	WaterMonthlyPrice       *float64
	Currency                *string
}

// UpdateSettings applies a patch to the settings singleton.
func (s *Service) UpdateSettings(ctx context.Context, patch SettingsPatch) (domain.Settings, error) {
	var updated domain.Settings
	err := s.run(ctx, "update_settings", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateSettings(func(st *domain.Settings) error {
			if patch.ElectricityPricePerUnit != nil {
				st.ElectricityPricePerUnit = *patch.ElectricityPricePerUnit
			}
			if patch.WaterMonthlyPrice != nil {
				st.WaterMonthlyPrice = *patch.WaterMonthlyPrice
			}
			if patch.Currency != nil {
				st.Currency = *patch.Currency
			}
			return domain.ValidateSettings(*st)
		})
		return err
	})
	return updated, err
}

// DraftBill -------------------------------------------------------------------

// DraftBill assembles a bill preview for a tenant and month without
// committing anything. When previous is nil, the tenant's latest recorded
// current reading is used; a tenant with no readings starts from zero.
func (s *Service) DraftBill(ctx context.Context, tenantID, month string, current float64, previous *float64) (domain.Bill, domain.MeterReading, error) {
	if !domain.ValidMonth(month) {
		return domain.Bill{}, domain.MeterReading{}, domain.InvalidFieldError{Field: "month", Reason: "must be YYYY-MM"}
	}
	var bill domain.Bill
	var reading domain.MeterReading
	err := s.store.View(ctx, func(v domain.TransactionView) error {
		tenant, ok := v.FindTenant(tenantID)
		if !ok {
			return domain.NotFoundError{Kind: domain.EntityTenant, ID: tenantID}
		}
		prev := 0.0
		if previous != nil {
			prev = *previous
		} else if latest, ok := billing.PreviousReadingFor(tenantID, v.ListMeterReadings()); ok {
			prev = latest
		}
		units := billing.Units(prev, current)
		settings := v.Settings()

		var rooms []domain.Room
		for _, rid := range tenant.RoomIDs {
			if room, ok := v.FindRoom(rid); ok {
				rooms = append(rooms, room)
			}
		}
		bill = billing.Draft(tenant, rooms, units, settings, month, s.nowFn())
		reading = domain.MeterReading{
			TenantID:        tenantID,
			Month:           month,
			PreviousReading: prev,
			CurrentReading:  current,
			UnitsConsumed:   units,
			ElectricityCost: billing.ElectricityCost(units, settings.ElectricityPricePerUnit),
		}
		return nil
	})
	return bill, reading, err
}
