package domain

import (
	"math"
	"strings"
	"time"
)

// ValidMonth reports whether s is a well-formed YYYY-MM month key.
func ValidMonth(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// FiniteNonNegative reports whether v is a finite number >= 0.
func FiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ValidateRoomDraft checks the fields a room must carry before insertion.
func ValidateRoomDraft(name string, monthlyRent float64) error {
	if strings.TrimSpace(name) == "" {
		return InvalidFieldError{Field: "name", Reason: "must not be blank"}
	}
	if !(monthlyRent > 0) || math.IsInf(monthlyRent, 0) || math.IsNaN(monthlyRent) {
		return InvalidFieldError{Field: "monthlyRent", Reason: "must be positive"}
	}
	return nil
}

// ValidateTenantDraft checks the fields a tenant must carry before insertion.
func ValidateTenantDraft(name, phone, moveInDate string) error {
	if strings.TrimSpace(name) == "" {
		return InvalidFieldError{Field: "name", Reason: "must not be blank"}
	}
	if strings.TrimSpace(phone) == "" {
		return InvalidFieldError{Field: "phone", Reason: "must not be blank"}
	}
	if moveInDate != "" && !ValidDate(moveInDate) {
		return InvalidFieldError{Field: "moveInDate", Reason: "must be YYYY-MM-DD"}
	}
	return nil
}

// ValidateBillDraft checks a bill's month key and amount signs.
func ValidateBillDraft(b Bill) error {
	if !ValidMonth(b.Month) {
		return InvalidFieldError{Field: "month", Reason: "must be YYYY-MM"}
	}
	for field, amount := range map[string]float64{
		"roomRentTotal":     b.RoomRentTotal,
		"electricityCharge": b.ElectricityCharge,
		"waterCharge":       b.WaterCharge,
		"grandTotal":        b.GrandTotal,
	} {
		if !FiniteNonNegative(amount) {
			return InvalidFieldError{Field: field, Reason: "must be a non-negative number"}
		}
	}
	if b.PaidDate != nil && !ValidDate(*b.PaidDate) {
		return InvalidFieldError{Field: "paidDate", Reason: "must be YYYY-MM-DD"}
	}
	return nil
}

// ValidateMeterReadingDraft checks a meter reading's month key and values.
func ValidateMeterReadingDraft(m MeterReading) error {
	if !ValidMonth(m.Month) {
		return InvalidFieldError{Field: "month", Reason: "must be YYYY-MM"}
	}
	if !FiniteNonNegative(m.PreviousReading) {
		return InvalidFieldError{Field: "previousReading", Reason: "must be a non-negative number"}
	}
	if !FiniteNonNegative(m.CurrentReading) {
		return InvalidFieldError{Field: "currentReading", Reason: "must be a non-negative number"}
	}
	return nil
}

// ValidateSettings checks settings bounds: non-negative prices and a 1-3
// character display currency.
func ValidateSettings(s Settings) error {
	if !FiniteNonNegative(s.ElectricityPricePerUnit) {
		return InvalidFieldError{Field: "electricityPricePerUnit", Reason: "must be a non-negative number"}
	}
	if !FiniteNonNegative(s.WaterMonthlyPrice) {
		return InvalidFieldError{Field: "waterMonthlyPrice", Reason: "must be a non-negative number"}
	}
	if n := len([]rune(s.Currency)); n < 1 || n > 3 {
		return InvalidFieldError{Field: "currency", Reason: "must be 1-3 characters"}
	}
	return nil
}
