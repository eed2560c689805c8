// Package domain defines the persistent entities, value types, error
// taxonomy, and rule evaluation primitives used by rentledger.
package domain

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and the persisted
// snapshot document.
const (
	// EntityRoom identifies a rentable room record.
	EntityRoom EntityType = "room"
	// EntityTenant identifies a tenant record.
	EntityTenant EntityType = "tenant"
	// EntityBill identifies a monthly bill record.
	EntityBill EntityType = "bill"
	// EntityMeterReading identifies an electricity meter reading record.
	EntityMeterReading EntityType = "meter_reading"
	// EntitySettings identifies the process-wide settings record.
	EntitySettings EntityType = "settings"
)

// Room is a rentable unit. TenantID is present iff IsOccupied is true.
type Room struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MonthlyRent float64 `json:"monthlyRent"`
	IsOccupied  bool    `json:"isOccupied"`
	TenantID    *string `json:"tenantId,omitempty"`
}

// Tenant is a renter. RoomIDs lists the rooms currently assigned to the
// tenant; every listed room is occupied by this tenant and no other.
type Tenant struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email,omitempty"`
	RoomIDs    []string `json:"roomIds"`
	MoveInDate string   `json:"moveInDate"`
	IsActive   bool     `json:"isActive"`
}

// MeterReading is a tenant's electricity meter observation for a month.
// UnitsConsumed and ElectricityCost are audited snapshots computed at
// creation time and never recomputed on read.
type MeterReading struct {
	ID              string  `json:"id"`
	TenantID        string  `json:"tenantId"`
	Month           string  `json:"month"`
	PreviousReading float64 `json:"previousReading"`
	CurrentReading  float64 `json:"currentReading"`
	UnitsConsumed   float64 `json:"unitsConsumed"`
	ElectricityCost float64 `json:"electricityCost"`
}

// Bill is a monthly charge document for a tenant. All amounts are snapshots
// taken at creation; later changes to room rents or settings leave issued
// bills untouched. PaidDate is present iff IsPaid is true.
type Bill struct {
	ID                string  `json:"id"`
	TenantID          string  `json:"tenantId"`
	Month             string  `json:"month"`
	RoomRentTotal     float64 `json:"roomRentTotal"`
	ElectricityCharge float64 `json:"electricityCharge"`
	WaterCharge       float64 `json:"waterCharge"`
	GrandTotal        float64 `json:"grandTotal"`
	IsPaid            bool    `json:"isPaid"`
	PaidDate          *string `json:"paidDate,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

// Settings holds process-wide billing configuration. Currency is a display
// symbol only and never affects arithmetic.
type Settings struct {
	ElectricityPricePerUnit float64 `json:"electricityPricePerUnit"`
	WaterMonthlyPrice       float64 `json:"waterMonthlyPrice"`
	Currency                string  `json:"currency"`
}

// DefaultSettings returns the settings seeded into an empty store.
func DefaultSettings() Settings {
	return Settings{
		ElectricityPricePerUnit: 5,
		WaterMonthlyPrice:       300,
		Currency:                "₹",
	}
}

// Snapshot is the complete, self-contained state of the store at a moment,
// sufficient for reload. It is also the persisted document layout: slices of
// records plus the settings value.
type Snapshot struct {
	Rooms         []Room         `json:"rooms"`
	Tenants       []Tenant       `json:"tenants"`
	Bills         []Bill         `json:"bills"`
	MeterReadings []MeterReading `json:"meterReadings"`
	Settings      Settings       `json:"settings"`
}

// Change captures a single entity mutation performed within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured for subscribers.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// CloneRoom returns a deep copy of a room.
func CloneRoom(r Room) Room {
	cp := r
	if r.TenantID != nil {
		id := *r.TenantID
		cp.TenantID = &id
	}
	return cp
}

// CloneTenant returns a deep copy of a tenant.
func CloneTenant(t Tenant) Tenant {
	cp := t
	cp.RoomIDs = append([]string(nil), t.RoomIDs...)
	return cp
}

// CloneBill returns a deep copy of a bill.
func CloneBill(b Bill) Bill {
	cp := b
	if b.PaidDate != nil {
		d := *b.PaidDate
		cp.PaidDate = &d
	}
	return cp
}

// CloneMeterReading returns a copy of a meter reading.
func CloneMeterReading(m MeterReading) MeterReading { return m }

// CloneSnapshot returns a deep copy of a snapshot.
func CloneSnapshot(s Snapshot) Snapshot {
	cp := Snapshot{Settings: s.Settings}
	if s.Rooms != nil {
		cp.Rooms = make([]Room, 0, len(s.Rooms))
		for _, r := range s.Rooms {
			cp.Rooms = append(cp.Rooms, CloneRoom(r))
		}
	}
	if s.Tenants != nil {
		cp.Tenants = make([]Tenant, 0, len(s.Tenants))
		for _, t := range s.Tenants {
			cp.Tenants = append(cp.Tenants, CloneTenant(t))
		}
	}
	if s.Bills != nil {
		cp.Bills = make([]Bill, 0, len(s.Bills))
		for _, b := range s.Bills {
			cp.Bills = append(cp.Bills, CloneBill(b))
		}
	}
	if s.MeterReadings != nil {
		cp.MeterReadings = append([]MeterReading(nil), s.MeterReadings...)
	}
	return cp
}
