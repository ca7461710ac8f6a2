package lifetime

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON writes scalars as a bare number and intervals as [start, end]
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsScalar() {
		return json.Marshal(v.Start)
	}
	return json.Marshal([2]float64{v.Start, v.End})
}

// UnmarshalJSON accepts either a number or a two-element array
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("interval lifetime needs exactly 2 bounds, got %d", len(pair))
		}
		*v = Bounds(pair[0], pair[1])
		return nil
	}
	var x float64
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	*v = Scalar(x)
	return nil
}
