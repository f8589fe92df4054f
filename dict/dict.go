// Package dict provides loosely typed access to configuration values.
// Provider configuration arrives as decoded TOML (map[string]interface{});
// providers read it through the Dicter interface so they never depend on the
// config package directly.
package dict

import (
	"fmt"
)

// Dicter is the read interface handed to providers.
type Dicter interface {
	// String returns the value for key. If def is nil the key is required
	// and a missing key returns ErrKeyRequired.
	String(key string, def *string) (string, error)
	Int(key string, def *int) (int, error)
	Uint(key string, def *uint) (uint, error)
	Bool(key string, def *bool) (bool, error)
	Float64(key string, def *float64) (float64, error)
	// StringSlice returns the string values for key. A missing key returns
	// an empty slice, not an error.
	StringSlice(key string) ([]string, error)
}

// ErrKeyRequired is returned when a required key is absent.
type ErrKeyRequired string

func (e ErrKeyRequired) Error() string {
	return fmt.Sprintf("dict: required key %q is missing", string(e))
}

// ErrKeyType is returned when a key holds a value of an unexpected type.
type ErrKeyType struct {
	Key      string
	Value    interface{}
	Expected string
}

func (e ErrKeyType) Error() string {
	return fmt.Sprintf("dict: key %q has type %T, expected %v", e.Key, e.Value, e.Expected)
}

// Dict is the map-backed Dicter implementation.
type Dict map[string]interface{}

// Dicter is satisfied by Dict.
var _ Dicter = Dict{}

func (d Dict) String(key string, def *string) (string, error) {
	v, ok := d[key]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return "", ErrKeyRequired(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrKeyType{Key: key, Value: v, Expected: "string"}
	}
	return s, nil
}

func (d Dict) Int(key string, def *int) (int, error) {
	v, ok := d[key]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return 0, ErrKeyRequired(key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, ErrKeyType{Key: key, Value: v, Expected: "int"}
	}
}

func (d Dict) Uint(key string, def *uint) (uint, error) {
	v, ok := d[key]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return 0, ErrKeyRequired(key)
	}
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, ErrKeyType{Key: key, Value: v, Expected: "uint"}
		}
		return uint(n), nil
	case int64:
		if n < 0 {
			return 0, ErrKeyType{Key: key, Value: v, Expected: "uint"}
		}
		return uint(n), nil
	case uint:
		return n, nil
	case float64:
		if n < 0 {
			return 0, ErrKeyType{Key: key, Value: v, Expected: "uint"}
		}
		return uint(n), nil
	default:
		return 0, ErrKeyType{Key: key, Value: v, Expected: "uint"}
	}
}

func (d Dict) Bool(key string, def *bool) (bool, error) {
	v, ok := d[key]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return false, ErrKeyRequired(key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, ErrKeyType{Key: key, Value: v, Expected: "bool"}
	}
	return b, nil
}

func (d Dict) Float64(key string, def *float64) (float64, error) {
	v, ok := d[key]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return 0, ErrKeyRequired(key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, ErrKeyType{Key: key, Value: v, Expected: "float64"}
	}
}

func (d Dict) StringSlice(key string) ([]string, error) {
	v, ok := d[key]
	if !ok {
		return nil, nil
	}
	switch vs := v.(type) {
	case []string:
		return vs, nil
	case []interface{}:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			s, ok := e.(string)
			if !ok {
				return nil, ErrKeyType{Key: key, Value: e, Expected: "string"}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, ErrKeyType{Key: key, Value: v, Expected: "[]string"}
	}
}
