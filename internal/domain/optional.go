package domain

import "encoding/json"

// Optional is a three-state field used in patch and upsert payloads:
// a field that is absent from the JSON document stays in the unset state,
// an explicit null becomes a defined-but-null value, and anything else is a
// defined value. The distinction drives both the partial-update semantics
// (unset = keep, null = clear, value = set) and the value-equality check of
// the bulk upsert.
type Optional[T any] struct {
	Defined bool // field was present in the payload
	Valid   bool // value is non-null
	Value   T
}

// Set returns a defined, non-null Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{Defined: true, Valid: true, Value: v}
}

// Null returns a defined Optional holding an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Defined: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Defined = true
	if string(data) == "null" {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns the value as a pointer, nil when the field is null or unset.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
