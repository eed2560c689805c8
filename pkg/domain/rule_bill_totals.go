package domain

import (
	"context"
	"fmt"
	"math"
)

// amountTolerance absorbs float64 rounding when comparing summed charges.
const amountTolerance = 1e-9

// BillTotalsRule enforces bill arithmetic and the paid-state coupling: the
// grand total equals the sum of its components, and a paid date is present
// exactly when the bill is marked paid.
type BillTotalsRule struct{}

// NewBillTotalsRule constructs the rule.
func NewBillTotalsRule() BillTotalsRule { return BillTotalsRule{} }

// Name identifies the rule in violations.
func (BillTotalsRule) Name() string { return "bill_totals" }

// Evaluate checks every bill in the transactional state. Bills referencing
// tenants that no longer exist are historical records and are not flagged.
func (r BillTotalsRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result
	for _, b := range view.ListBills() {
		sum := b.RoomRentTotal + b.ElectricityCharge + b.WaterCharge
		if math.Abs(sum-b.GrandTotal) > amountTolerance {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("grand total %v does not equal component sum %v", b.GrandTotal, sum),
				Entity:   EntityBill,
				EntityID: b.ID,
			})
		}
		if b.IsPaid != (b.PaidDate != nil) {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  "paid flag and paid date disagree",
				Entity:   EntityBill,
				EntityID: b.ID,
			})
		}
	}
	return result, nil
}
