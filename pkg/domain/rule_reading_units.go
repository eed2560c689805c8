package domain

import (
	"context"
	"fmt"
	"math"
)

// ReadingUnitsRule enforces meter arithmetic: units consumed equal the
// current reading minus the previous one, floored at zero for meter
// rollovers or corrections.
type ReadingUnitsRule struct{}

// NewReadingUnitsRule constructs the rule.
func NewReadingUnitsRule() ReadingUnitsRule { return ReadingUnitsRule{} }

// Name identifies the rule in violations.
func (ReadingUnitsRule) Name() string { return "reading_units" }

// Evaluate checks every reading in the transactional state.
func (r ReadingUnitsRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result
	for _, m := range view.ListMeterReadings() {
		expected := math.Max(0, m.CurrentReading-m.PreviousReading)
		if math.Abs(expected-m.UnitsConsumed) > amountTolerance {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("units consumed %v does not match readings (expected %v)", m.UnitsConsumed, expected),
				Entity:   EntityMeterReading,
				EntityID: m.ID,
			})
		}
	}
	return result, nil
}
