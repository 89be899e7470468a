// Package risk turns object densities and conjunction counts into collision
// probabilities, financial exposure and a discrete risk class.
package risk

// Class is a discrete severity label for a collision probability.
type Class string

// Risk classes from worst to best.
const (
	ClassF     Class = "F (Extremely High)"
	ClassE     Class = "E (Very High)"
	ClassD     Class = "D (High)"
	ClassC     Class = "C (Moderate)"
	ClassB     Class = "B (Low)"
	ClassA     Class = "A (Very Low)"
	ClassAPlus Class = "A+ (Minimal)"
)

type threshold struct {
	above float64
	class Class
}

// thresholds are checked in order; a probability must strictly exceed the
// bound, so a value sitting exactly on a bound lands in the better class.
var thresholds = []threshold{
	{1e-2, ClassF},
	{1e-3, ClassE},
	{1e-4, ClassD},
	{1e-5, ClassC},
	{1e-6, ClassB},
	{1e-7, ClassA},
}

var descriptions = map[Class]string{
	ClassF:     "Collision probability is extremely high (>1%). Urgent risk mitigation or a mission redesign is required.",
	ClassE:     "Very high collision probability (>0.1%). The mission is exposed to significant risk.",
	ClassD:     "High collision probability (>0.01%). Detailed analysis and a possible orbit adjustment are recommended.",
	ClassC:     "Moderate collision probability (>0.001%). A standard risk level for many orbits that requires monitoring.",
	ClassB:     "Low collision probability (>0.0001%). Considered acceptable for most missions.",
	ClassA:     "Very low collision probability (>0.00001%). The orbit is considered safe.",
	ClassAPlus: "Minimal collision probability. The risk is practically nonexistent.",
}

// Classify maps a collision probability to its risk class.
func Classify(p float64) Class {
	for _, t := range thresholds {
		if p > t.above {
			return t.class
		}
	}
	return ClassAPlus
}

// Description returns the human-readable explanation of c.
func (c Class) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return "Description not found."
}

// Classes lists every class from worst to best.
func Classes() []Class {
	out := make([]Class, 0, len(thresholds)+1)
	for _, t := range thresholds {
		out = append(out, t.class)
	}
	return append(out, ClassAPlus)
}
