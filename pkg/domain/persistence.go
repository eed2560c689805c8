package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Create methods always assign a fresh
// store-generated id; caller-supplied ids are ignored.
type Transaction interface {
	Snapshot() TransactionView
	CreateRoom(Room) (Room, error)
	UpdateRoom(id string, mutator func(*Room) error) (Room, error)
	DeleteRoom(id string) error
	CreateTenant(Tenant) (Tenant, error)
	UpdateTenant(id string, mutator func(*Tenant) error) (Tenant, error)
	DeleteTenant(id string) error
	CreateBill(Bill) (Bill, error)
	UpdateBill(id string, mutator func(*Bill) error) (Bill, error)
	DeleteBill(id string) error
	CreateMeterReading(MeterReading) (MeterReading, error)
	UpdateMeterReading(id string, mutator func(*MeterReading) error) (MeterReading, error)
	UpdateSettings(mutator func(*Settings) error) (Settings, error)
	FindRoom(id string) (Room, bool)
	FindTenant(id string) (Tenant, bool)
	FindBill(id string) (Bill, bool)
	FindMeterReading(id string) (MeterReading, bool)
}

// TransactionView provides read-only access to transactional state for rules
// and queries.
type TransactionView interface {
	ListRooms() []Room
	ListTenants() []Tenant
	ListBills() []Bill
	ListMeterReadings() []MeterReading
	Settings() Settings
	FindRoom(id string) (Room, bool)
	FindTenant(id string) (Tenant, bool)
}

// PersistentStore is a minimal abstraction over durable backends. Mutations
// run through RunInTransaction; reads go through View, the typed getters, or
// an exported Snapshot.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, []Change, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRoom(id string) (Room, bool)
	ListRooms() []Room
	GetTenant(id string) (Tenant, bool)
	ListTenants() []Tenant
	GetBill(id string) (Bill, bool)
	ListBills() []Bill
	GetMeterReading(id string) (MeterReading, bool)
	ListMeterReadings() []MeterReading
	Settings() Settings
	ExportState() Snapshot
	ImportState(Snapshot) error
}
