package domain

import (
	"context"
	"testing"
)

// fakeView backs rule tests with literal state.
type fakeView struct {
	rooms    []Room
	tenants  []Tenant
	bills    []Bill
	readings []MeterReading
	settings Settings
}

func (v fakeView) ListRooms() []Room                  { return v.rooms }
func (v fakeView) ListTenants() []Tenant              { return v.tenants }
func (v fakeView) ListBills() []Bill                  { return v.bills }
func (v fakeView) ListMeterReadings() []MeterReading  { return v.readings }
func (v fakeView) Settings() Settings                 { return v.settings }
func (v fakeView) FindRoom(id string) (Room, bool) {
	for _, r := range v.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return Room{}, false
}
func (v fakeView) FindTenant(id string) (Tenant, bool) {
	for _, t := range v.tenants {
		if t.ID == id {
			return t, true
		}
	}
	return Tenant{}, false
}

func evaluate(t *testing.T, view fakeView) Result {
	t.Helper()
	res, err := NewDefaultRulesEngine().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

func TestCoherentStatePasses(t *testing.T) {
	tid := "t1"
	paid := "2025-03-05"
	view := fakeView{
		rooms:   []Room{{ID: "r1", Name: "101", IsOccupied: true, TenantID: &tid}},
		tenants: []Tenant{{ID: tid, Name: "Asha", RoomIDs: []string{"r1"}}},
		bills: []Bill{
			{ID: "b1", TenantID: tid, Month: "2025-03", RoomRentTotal: 4500, ElectricityCharge: 500, WaterCharge: 300, GrandTotal: 5300, IsPaid: true, PaidDate: &paid},
		},
		readings: []MeterReading{
			{ID: "m1", TenantID: tid, Month: "2025-03", PreviousReading: 1000, CurrentReading: 1100, UnitsConsumed: 100},
		},
	}
	if res := evaluate(t, view); res.HasBlocking() {
		t.Fatalf("coherent state flagged: %+v", res.Violations)
	}
}

func TestOccupiedRoomWithoutTenantBlocks(t *testing.T) {
	ghost := "ghost"
	view := fakeView{
		rooms: []Room{{ID: "r1", Name: "101", IsOccupied: true, TenantID: &ghost}},
	}
	if res := evaluate(t, view); !res.HasBlocking() {
		t.Fatalf("dangling occupancy not flagged")
	}
}

func TestOneSidedLinkBlocks(t *testing.T) {
	tid := "t1"
	view := fakeView{
		rooms:   []Room{{ID: "r1", Name: "101", IsOccupied: true, TenantID: &tid}},
		tenants: []Tenant{{ID: tid, Name: "Asha", RoomIDs: nil}},
	}
	if res := evaluate(t, view); !res.HasBlocking() {
		t.Fatalf("room not listed by tenant not flagged")
	}
}

func TestDuplicateRoomClaimBlocks(t *testing.T) {
	t1, t2 := "t1", "t2"
	view := fakeView{
		rooms: []Room{{ID: "r1", Name: "101", IsOccupied: true, TenantID: &t1}},
		tenants: []Tenant{
			{ID: t1, Name: "Asha", RoomIDs: []string{"r1"}},
			{ID: t2, Name: "Biju", RoomIDs: []string{"r1"}},
		},
	}
	if res := evaluate(t, view); !res.HasBlocking() {
		t.Fatalf("duplicate claim not flagged")
	}
}

func TestGrandTotalMismatchBlocks(t *testing.T) {
	view := fakeView{
		bills: []Bill{
			{ID: "b1", Month: "2025-03", RoomRentTotal: 4500, ElectricityCharge: 500, WaterCharge: 300, GrandTotal: 9999},
		},
	}
	if res := evaluate(t, view); !res.HasBlocking() {
		t.Fatalf("total mismatch not flagged")
	}
}

func TestPaidFlagWithoutDateBlocks(t *testing.T) {
	view := fakeView{
		bills: []Bill{
			{ID: "b1", Month: "2025-03", GrandTotal: 0, IsPaid: true},
		},
	}
	if res := evaluate(t, view); !res.HasBlocking() {
		t.Fatalf("paid flag without date not flagged")
	}
}

func TestNegativeUnitsBlock(t *testing.T) {
	view := fakeView{
		readings: []MeterReading{
			{ID: "m1", Month: "2025-03", PreviousReading: 1000, CurrentReading: 900, UnitsConsumed: -100},
		},
	}
	if res := evaluate(t, view); !res.HasBlocking() {
		t.Fatalf("negative units not flagged")
	}
}

func TestHistoricalRecordsForMissingTenantAllowed(t *testing.T) {
	view := fakeView{
		bills: []Bill{
			{ID: "b1", TenantID: "gone", Month: "2025-02", GrandTotal: 0},
		},
		readings: []MeterReading{
			{ID: "m1", TenantID: "gone", Month: "2025-02", PreviousReading: 100, CurrentReading: 100, UnitsConsumed: 0},
		},
	}
	if res := evaluate(t, view); res.HasBlocking() {
		t.Fatalf("historical records flagged: %+v", res.Violations)
	}
}
