package engram

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Phase represents which retention regime governs an item.
type Phase int

const (
	New       Phase = iota + 1 // Never reviewed.
	Learning                   // Minutes-scale exponential curve governs.
	Graduated                  // Days-scale power-law curve governs.
)

var (
	phaseNames  = [...]string{New: "New", Learning: "Learning", Graduated: "Graduated"}
	phaseByName = map[string]Phase{
		"New":       New,
		"Learning":  Learning,
		"Graduated": Graduated,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Phase(0)
	_ json.Marshaler           = Phase(0)
	_ json.Unmarshaler         = (*Phase)(nil)
	_ encoding.TextMarshaler   = Phase(0)
	_ encoding.TextUnmarshaler = (*Phase)(nil)
)

func (p Phase) isValid() bool {
	return p >= New && p <= Graduated
}

// String returns the name of the phase ("New", "Learning", "Graduated").
// For invalid values it returns "Phase(n)".
func (p Phase) String() string {
	if p.isValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.isValid() {
		return nil, fmt.Errorf("engram: invalid phase: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("engram: invalid phase: %q", text)
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler. Phase serializes as a JSON string.
func (p Phase) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("engram: invalid phase: %s", data)
	}
	return p.UnmarshalText([]byte(s))
}

// RelapsePolicy controls whether a Graduated item failing a review re-enters
// the Learning phase.
type RelapsePolicy int

const (
	RelapseAlways       RelapsePolicy = iota + 1 // Every lapse re-enters Learning.
	RelapseWithinWindow                          // Only lapses reviewed within the recency window.
	RelapseNever                                 // Lapses stay Graduated.
)

var relapsePolicyNames = [...]string{
	RelapseAlways:       "always",
	RelapseWithinWindow: "within_window",
	RelapseNever:        "never",
}

// String returns the policy name ("always", "within_window", "never").
func (p RelapsePolicy) String() string {
	if p >= RelapseAlways && p <= RelapseNever {
		return relapsePolicyNames[p]
	}
	return fmt.Sprintf("RelapsePolicy(%d)", int(p))
}
