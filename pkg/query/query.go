// Package query provides the read models: pure projections over a store
// snapshot. Functions never mutate their input and degrade gracefully when
// bills or readings reference tenants that no longer exist.
package query

import (
	"sort"
	"strings"

	"rentledger/pkg/domain"
)

// UnknownTenantName is reported for historical records whose tenant was
// deleted.
const UnknownTenantName = "Unknown"

// OccupancyCount summarizes room occupancy.
type OccupancyCount struct {
	Occupied int
	Total    int
}

// MonthSummary aggregates bill amounts for a single month.
type MonthSummary struct {
	Collected        float64
	Pending          float64
	ElectricityTotal float64
	WaterTotal       float64
}

// IncomePoint is one month of the income series.
type IncomePoint struct {
	Month     string
	Collected float64
	Pending   float64
}

// TenantTotalsSummary aggregates a tenant's lifetime bill amounts.
type TenantTotalsSummary struct {
	Paid    float64
	Pending float64
}

// BillStatus filters bill listings.
type BillStatus string

// Bill listing filters.
const (
	BillStatusAll     BillStatus = "all"
	BillStatusPaid    BillStatus = "paid"
	BillStatusPending BillStatus = "pending"
)

// ActiveTenantsCount counts tenants with the active flag set.
func ActiveTenantsCount(s domain.Snapshot) int {
	n := 0
	for _, t := range s.Tenants {
		if t.IsActive {
			n++
		}
	}
	return n
}

// Occupancy reports occupied and total room counts.
func Occupancy(s domain.Snapshot) OccupancyCount {
	out := OccupancyCount{Total: len(s.Rooms)}
	for _, r := range s.Rooms {
		if r.IsOccupied {
			out.Occupied++
		}
	}
	return out
}

// MonthAggregates sums bills for the given month: collected (paid), pending
// (unpaid), and the utility components.
func MonthAggregates(s domain.Snapshot, month string) MonthSummary {
	var out MonthSummary
	for _, b := range s.Bills {
		if b.Month != month {
			continue
		}
		if b.IsPaid {
			out.Collected += b.GrandTotal
		} else {
			out.Pending += b.GrandTotal
		}
		out.ElectricityTotal += b.ElectricityCharge
		out.WaterTotal += b.WaterCharge
	}
	return out
}

// MonthlyIncomeSeries emits collected/pending totals for the most recent n
// months that have bills, in ascending month order. Months without bills are
// omitted, not zero-filled.
func MonthlyIncomeSeries(s domain.Snapshot, n int) []IncomePoint {
	byMonth := make(map[string]*IncomePoint)
	for _, b := range s.Bills {
		p, ok := byMonth[b.Month]
		if !ok {
			p = &IncomePoint{Month: b.Month}
			byMonth[b.Month] = p
		}
		if b.IsPaid {
			p.Collected += b.GrandTotal
		} else {
			p.Pending += b.GrandTotal
		}
	}
	points := make([]IncomePoint, 0, len(byMonth))
	for _, p := range byMonth {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	if n > 0 && len(points) > n {
		points = points[len(points)-n:]
	}
	return points
}

// RecentBills returns the k most recently created bills, newest first.
func RecentBills(s domain.Snapshot, k int) []domain.Bill {
	bills := append([]domain.Bill(nil), s.Bills...)
	sort.SliceStable(bills, func(i, j int) bool { return bills[i].CreatedAt > bills[j].CreatedAt })
	if k > 0 && len(bills) > k {
		bills = bills[:k]
	}
	return bills
}

// TenantBillHistory returns the tenant's bills sorted by month descending.
func TenantBillHistory(s domain.Snapshot, tenantID string) []domain.Bill {
	var bills []domain.Bill
	for _, b := range s.Bills {
		if b.TenantID == tenantID {
			bills = append(bills, b)
		}
	}
	sort.SliceStable(bills, func(i, j int) bool { return bills[i].Month > bills[j].Month })
	return bills
}

// BillsFiltered returns bills matching the status filter.
func BillsFiltered(s domain.Snapshot, status BillStatus) []domain.Bill {
	var bills []domain.Bill
	for _, b := range s.Bills {
		switch status {
		case BillStatusPaid:
			if !b.IsPaid {
				continue
			}
		case BillStatusPending:
			if b.IsPaid {
				continue
			}
		}
		bills = append(bills, b)
	}
	return bills
}

// RoomsFiltered returns rooms whose name contains the query,
// case-insensitively. An empty query matches everything.
func RoomsFiltered(s domain.Snapshot, query string) []domain.Room {
	q := strings.ToLower(query)
	var rooms []domain.Room
	for _, r := range s.Rooms {
		if strings.Contains(strings.ToLower(r.Name), q) {
			rooms = append(rooms, r)
		}
	}
	return rooms
}

// TenantsFiltered returns tenants whose name contains the query
// case-insensitively, or whose phone contains it exactly.
func TenantsFiltered(s domain.Snapshot, query string) []domain.Tenant {
	q := strings.ToLower(query)
	var tenants []domain.Tenant
	for _, t := range s.Tenants {
		if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(t.Phone, query) {
			tenants = append(tenants, t)
		}
	}
	return tenants
}

// TenantName resolves a tenant id to its display name, or UnknownTenantName
// for tenants that were deleted.
func TenantName(s domain.Snapshot, tenantID string) string {
	for _, t := range s.Tenants {
		if t.ID == tenantID {
			return t.Name
		}
	}
	return UnknownTenantName
}

// RoomsForTenant returns the rooms currently assigned to the tenant.
func RoomsForTenant(s domain.Snapshot, tenantID string) []domain.Room {
	var ids []string
	for _, t := range s.Tenants {
		if t.ID == tenantID {
			ids = t.RoomIDs
			break
		}
	}
	var rooms []domain.Room
	for _, r := range s.Rooms {
		for _, id := range ids {
			if r.ID == id {
				rooms = append(rooms, r)
				break
			}
		}
	}
	return rooms
}

// TenantTotals sums the tenant's lifetime paid and pending bill amounts.
func TenantTotals(s domain.Snapshot, tenantID string) TenantTotalsSummary {
	var out TenantTotalsSummary
	for _, b := range s.Bills {
		if b.TenantID != tenantID {
			continue
		}
		if b.IsPaid {
			out.Paid += b.GrandTotal
		} else {
			out.Pending += b.GrandTotal
		}
	}
	return out
}
