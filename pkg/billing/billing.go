// Package billing implements the pure billing arithmetic: unit consumption,
// charge derivation, and bill drafting. Functions read nothing but their
// arguments; the amounts they produce are persisted verbatim as audited
// snapshots and never recomputed afterwards.
package billing

import (
	"math"
	"time"

	"rentledger/pkg/domain"
)

// Units returns the units consumed between two meter readings, floored at
// zero so a meter rollover or correction never yields a negative charge.
// Non-finite or negative inputs yield 0.
func Units(previous, current float64) float64 {
	if !domain.FiniteNonNegative(previous) || !domain.FiniteNonNegative(current) {
		return 0
	}
	return math.Max(0, current-previous)
}

// ElectricityCost prices consumed units at the given per-unit rate.
func ElectricityCost(units, pricePerUnit float64) float64 {
	return units * pricePerUnit
}

// RoomRentTotal sums the monthly rent of the supplied rooms.
func RoomRentTotal(rooms []domain.Room) float64 {
	var total float64
	for _, r := range rooms {
		total += r.MonthlyRent
	}
	return total
}

// GrandTotal sums the three bill components.
func GrandTotal(rent, electricity, water float64) float64 {
	return rent + electricity + water
}

// PreviousReadingFor returns the current meter value of the tenant's most
// recent reading, resolving "most recent" by lexicographic month order
// (which coincides with chronological order for YYYY-MM keys). Among equal
// months the later-inserted reading wins. The boolean is false when the
// tenant has no readings.
func PreviousReadingFor(tenantID string, readings []domain.MeterReading) (float64, bool) {
	var (
		latest string
		value  float64
		found  bool
	)
	for _, m := range readings {
		if m.TenantID != tenantID {
			continue
		}
		if !found || m.Month >= latest {
			latest = m.Month
			value = m.CurrentReading
			found = true
		}
	}
	return value, found
}

// Draft assembles an unpaid bill for the tenant from the supplied rooms,
// consumed units, and settings. All amounts are snapshots of the inputs;
// drafting the same inputs twice yields bills equal in everything but id
// and creation time.
func Draft(tenant domain.Tenant, rooms []domain.Room, units float64, settings domain.Settings, month string, now time.Time) domain.Bill {
	rent := RoomRentTotal(rooms)
	electricity := ElectricityCost(units, settings.ElectricityPricePerUnit)
	water := settings.WaterMonthlyPrice
	return domain.Bill{
		TenantID:          tenant.ID,
		Month:             month,
		RoomRentTotal:     rent,
		ElectricityCharge: electricity,
		WaterCharge:       water,
		GrandTotal:        GrandTotal(rent, electricity, water),
		IsPaid:            false,
		CreatedAt:         now.UTC().Format(time.RFC3339),
	}
}
