// Package patch implements partial-update payloads: only fields present in the request body
// are applied, an explicit null clears a nullable field, and an empty object is rejected.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/media-rota/backend/internal/apperr"
)

// Field is one optional member of a patch payload.
// Set reports whether the key was present; Null reports an explicit JSON null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON is called for present keys only, including explicit nulls.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Of returns a set, non-null field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a set field carrying an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Apply assigns the value to dst when the field is present and non-null.
// It fails when the field is an explicit null, since dst cannot hold one.
func (f Field[T]) Apply(name string, dst *T) error {
	if !f.Set {
		return nil
	}
	if f.Null {
		return apperr.Invalid("%s cannot be null", name)
	}
	*dst = f.Value
	return nil
}

// ApplyNullable assigns the value, or nil on explicit null, when the field is present.
func (f Field[T]) ApplyNullable(dst **T) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	v := f.Value
	*dst = &v
}

// MaxBodyBytes caps the size of a patch payload.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON object from r into dst. It rejects an empty object with
// apperr.ErrEmptyUpdatePayload before touching dst, and rejects keys dst does not declare,
// which is how immutable fields are refused.
func Decode(r io.Reader, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return apperr.Invalid("request body exceeds %d bytes", MaxBodyBytes)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return apperr.Invalid("request body must be a JSON object")
	}
	if keys == nil {
		return apperr.Invalid("request body must be a JSON object")
	}
	if len(keys) == 0 {
		return apperr.ErrEmptyUpdatePayload
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Invalid("invalid value for %s", typeErr.Field)
		}
		return apperr.Invalid("invalid request: %v", err)
	}
	return nil
}
