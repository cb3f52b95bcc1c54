package event

import "encoding/json"

// Nullable tells an absent JSON field apart from an explicit null.
//
//	{}                  -> Set=false
//	{"price": null}     -> Set=true, Valid=false
//	{"price": 120}      -> Set=true, Valid=true, Value=120
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Valid: true, Value: v} }

func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		var zero T
		n.Valid, n.Value = false, zero
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr is nil for null, which is how the store writes NULL.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
