package profile

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Measure is a non-negative integer reading that may be unknown.
// The zero value is unknown.
type Measure struct {
	value int
	known bool
}

// Known returns a measure holding v. Negative values yield an unknown measure.
func Known(v int) Measure {
	if v < 0 {
		return Measure{}
	}

	return Measure{value: v, known: true}
}

// Unknown returns a measure with no value.
func Unknown() Measure {
	return Measure{}
}

// FromPtr converts an optional config value; nil is unknown.
func FromPtr(v *int) Measure {
	if v == nil {
		return Measure{}
	}

	return Known(*v)
}

// Value returns the reading and whether it is known.
func (m Measure) Value() (int, bool) {
	return m.value, m.known
}

// IsKnown reports whether the measure holds a value.
func (m Measure) IsKnown() bool {
	return m.known
}

// Ptr returns a pointer to the value, or nil when unknown.
func (m Measure) Ptr() *int {
	if !m.known {
		return nil
	}
	v := m.value

	return &v
}

func (m Measure) String() string {
	if !m.known {
		return "unknown"
	}

	return strconv.Itoa(m.value)
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.known {
		return []byte("null"), nil
	}

	return []byte(strconv.Itoa(m.value)), nil
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Measure{}
		return nil
	}

	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Known(v)

	return nil
}

// MarshalYAML renders unknown measures as null.
func (m Measure) MarshalYAML() (interface{}, error) {
	if !m.known {
		return nil, nil
	}

	return m.value, nil
}
