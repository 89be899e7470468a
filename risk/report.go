package risk

import (
	"fmt"
	"math"
)

// InsuranceCoefficient scales financial risk into an insurance premium.
const InsuranceCoefficient = 1.5

// Report is the result of one risk calculation. Count is the number of
// objects in the shell or the number of detected conjunctions, depending on
// the model that produced it.
type Report struct {
	CollisionProbability float64
	FinancialRisk        float64
	InsurancePremium     float64
	Class                Class
	Count                int
}

// Description is the explanation of the report's risk class.
func (r Report) Description() string { return r.Class.Description() }

func newReport(p, costAtRisk float64, count int) Report {
	p = math.Max(0, math.Min(1, p))
	financial := p * costAtRisk
	return Report{
		CollisionProbability: p,
		FinancialRisk:        financial,
		InsurancePremium:     financial * InsuranceCoefficient,
		Class:                Classify(p),
		Count:                count,
	}
}

func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func checkFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}
