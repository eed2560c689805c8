package query

import (
	"testing"

	"rentledger/pkg/domain"
)

func fixtureSnapshot() domain.Snapshot {
	t1, t2 := "t1", "t2"
	feb5 := "2025-02-05"
	mar5 := "2025-03-05"
	return domain.Snapshot{
		Rooms: []domain.Room{
			{ID: "r1", Name: "Room 101", MonthlyRent: 5000, IsOccupied: true, TenantID: &t1},
			{ID: "r2", Name: "Room 102", MonthlyRent: 5500, IsOccupied: true, TenantID: &t1},
			{ID: "r3", Name: "Room 201", MonthlyRent: 6000, IsOccupied: true, TenantID: &t2},
			{ID: "r4", Name: "Annex A", MonthlyRent: 4500},
		},
		Tenants: []domain.Tenant{
			{ID: t1, Name: "Rahul Sharma", Phone: "+91 98765 43210", RoomIDs: []string{"r1", "r2"}, IsActive: true},
			{ID: t2, Name: "Priya Patel", Phone: "+91 87654 32109", RoomIDs: []string{"r3"}, IsActive: false},
		},
		Bills: []domain.Bill{
			{ID: "b1", TenantID: t1, Month: "2025-02", GrandTotal: 12050, ElectricityCharge: 1250, WaterCharge: 300, RoomRentTotal: 10500, IsPaid: true, PaidDate: &feb5, CreatedAt: "2025-02-01T09:00:00Z"},
			{ID: "b2", TenantID: t1, Month: "2025-03", GrandTotal: 11800, ElectricityCharge: 1000, WaterCharge: 300, RoomRentTotal: 10500, IsPaid: true, PaidDate: &mar5, CreatedAt: "2025-03-01T09:00:00Z"},
			{ID: "b3", TenantID: t2, Month: "2025-03", GrandTotal: 7080, ElectricityCharge: 780, WaterCharge: 300, RoomRentTotal: 6000, CreatedAt: "2025-03-02T09:00:00Z"},
			{ID: "b4", TenantID: "gone", Month: "2025-01", GrandTotal: 5000, RoomRentTotal: 5000, CreatedAt: "2025-01-01T09:00:00Z"},
		},
		MeterReadings: []domain.MeterReading{
			{ID: "m1", TenantID: t1, Month: "2025-03", PreviousReading: 1200, CurrentReading: 1450, UnitsConsumed: 250, ElectricityCost: 1250},
		},
		Settings: domain.DefaultSettings(),
	}
}

func TestActiveTenantsAndOccupancy(t *testing.T) {
	s := fixtureSnapshot()
	if got := ActiveTenantsCount(s); got != 1 {
		t.Fatalf("active tenants = %d, want 1", got)
	}
	occ := Occupancy(s)
	if occ.Occupied != 3 || occ.Total != 4 {
		t.Fatalf("occupancy = %+v, want 3/4", occ)
	}
}

func TestMonthAggregates(t *testing.T) {
	agg := MonthAggregates(fixtureSnapshot(), "2025-03")
	if agg.Collected != 11800 {
		t.Fatalf("collected = %v, want 11800", agg.Collected)
	}
	if agg.Pending != 7080 {
		t.Fatalf("pending = %v, want 7080", agg.Pending)
	}
	if agg.ElectricityTotal != 1780 || agg.WaterTotal != 600 {
		t.Fatalf("utility totals = %+v", agg)
	}

	empty := MonthAggregates(fixtureSnapshot(), "2030-01")
	if empty != (MonthSummary{}) {
		t.Fatalf("month without bills should aggregate to zero: %+v", empty)
	}
}

func TestMonthlyIncomeSeries(t *testing.T) {
	points := MonthlyIncomeSeries(fixtureSnapshot(), 6)
	if len(points) != 3 {
		t.Fatalf("expected 3 months with bills, got %d", len(points))
	}
	if points[0].Month != "2025-01" || points[2].Month != "2025-03" {
		t.Fatalf("series not ascending: %+v", points)
	}
	if points[2].Collected != 11800 || points[2].Pending != 7080 {
		t.Fatalf("march point wrong: %+v", points[2])
	}

	trimmed := MonthlyIncomeSeries(fixtureSnapshot(), 2)
	if len(trimmed) != 2 || trimmed[0].Month != "2025-02" {
		t.Fatalf("trim should keep the latest months: %+v", trimmed)
	}
}

func TestRecentBills(t *testing.T) {
	bills := RecentBills(fixtureSnapshot(), 2)
	if len(bills) != 2 {
		t.Fatalf("expected 2 bills, got %d", len(bills))
	}
	if bills[0].ID != "b3" || bills[1].ID != "b2" {
		t.Fatalf("unexpected ordering: %s, %s", bills[0].ID, bills[1].ID)
	}
}

func TestTenantBillHistory(t *testing.T) {
	bills := TenantBillHistory(fixtureSnapshot(), "t1")
	if len(bills) != 2 {
		t.Fatalf("expected 2 bills for t1, got %d", len(bills))
	}
	if bills[0].Month != "2025-03" || bills[1].Month != "2025-02" {
		t.Fatalf("history not month-descending: %+v", bills)
	}
}

func TestBillsFiltered(t *testing.T) {
	s := fixtureSnapshot()
	if got := len(BillsFiltered(s, BillStatusAll)); got != 4 {
		t.Fatalf("all = %d, want 4", got)
	}
	if got := len(BillsFiltered(s, BillStatusPaid)); got != 2 {
		t.Fatalf("paid = %d, want 2", got)
	}
	if got := len(BillsFiltered(s, BillStatusPending)); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
}

func TestRoomsFiltered(t *testing.T) {
	s := fixtureSnapshot()
	if got := len(RoomsFiltered(s, "room")); got != 3 {
		t.Fatalf("case-insensitive name filter = %d, want 3", got)
	}
	if got := len(RoomsFiltered(s, "")); got != 4 {
		t.Fatalf("empty query should match all, got %d", got)
	}
	if got := len(RoomsFiltered(s, "annex")); got != 1 {
		t.Fatalf("annex filter = %d, want 1", got)
	}
}

func TestTenantsFiltered(t *testing.T) {
	s := fixtureSnapshot()
	if got := len(TenantsFiltered(s, "priya")); got != 1 {
		t.Fatalf("name filter = %d, want 1", got)
	}
	if got := len(TenantsFiltered(s, "98765")); got != 1 {
		t.Fatalf("phone filter = %d, want 1", got)
	}
	if got := len(TenantsFiltered(s, "")); got != 2 {
		t.Fatalf("empty query should match all, got %d", got)
	}
}

func TestTenantNameDegradesToUnknown(t *testing.T) {
	s := fixtureSnapshot()
	if got := TenantName(s, "t1"); got != "Rahul Sharma" {
		t.Fatalf("name = %q", got)
	}
	if got := TenantName(s, "gone"); got != UnknownTenantName {
		t.Fatalf("deleted tenant name = %q, want %q", got, UnknownTenantName)
	}
}

func TestRoomsForTenant(t *testing.T) {
	rooms := RoomsForTenant(fixtureSnapshot(), "t1")
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].ID != "r1" || rooms[1].ID != "r2" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestTenantTotals(t *testing.T) {
	totals := TenantTotals(fixtureSnapshot(), "t1")
	if totals.Paid != 23850 || totals.Pending != 0 {
		t.Fatalf("t1 totals = %+v", totals)
	}
	totals = TenantTotals(fixtureSnapshot(), "t2")
	if totals.Paid != 0 || totals.Pending != 7080 {
		t.Fatalf("t2 totals = %+v", totals)
	}
}
