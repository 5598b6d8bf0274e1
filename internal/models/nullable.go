package models

import "encoding/json"

// Nullable distinguishes an omitted JSON field from an explicit null.
// Set reports whether the field appeared in the payload at all; Valid reports
// whether it carried a non-null value. Partial updates use this to tell
// "leave untouched" apart from "clear".
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		var zero T
		n.Value = zero
		n.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
