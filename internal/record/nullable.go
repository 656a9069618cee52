package record

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Nullable is a value that serializes as JSON null when unset.
type Nullable[T any] struct {
	Value T
	Valid bool
}

// Of returns a set Nullable holding v.
func Of[T any](v T) Nullable[T] { return Nullable[T]{Value: v, Valid: true} }

// Null returns an unset Nullable.
func Null[T any]() Nullable[T] { return Nullable[T]{} }

// Get returns the value and whether it is set.
func (n Nullable[T]) Get() (T, bool) { return n.Value, n.Valid }

// Ptr returns nil when unset.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), jsonNull) {
		*n = Nullable[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = v
	n.Valid = true
	return nil
}
