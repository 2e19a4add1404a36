package guppi

import (
	"fmt"
	"strings"
)

type ValueType uint8

const (
	TypeInt ValueType = iota + 1
	TypeFloat
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Value is a typed card value. Value holds an int64, float64 or string
// matching Type.
type Value struct {
	Type  ValueType
	Value any
}

func Int(v int64) Value     { return Value{Type: TypeInt, Value: v} }
func Float(v float64) Value { return Value{Type: TypeFloat, Value: v} }
func Str(v string) Value    { return Value{Type: TypeString, Value: v} }

func (v Value) String() string { return formatValue(v) }

// Record is an ordered key/value view of a header block. Keys are stored
// upper-cased; Set on an existing key keeps its position.
type Record struct {
	keys []string
	kv   map[string]Value
}

func NewRecord() *Record {
	return &Record{kv: make(map[string]Value)}
}

func (r *Record) Len() int { return len(r.keys) }

// Keys returns the keys in card order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.kv[strings.ToUpper(key)]
	return v, ok
}

func (r *Record) Set(key string, v Value) {
	key = strings.ToUpper(key)
	if _, ok := r.kv[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.kv[key] = v
}

func (r *Record) Delete(key string) {
	key = strings.ToUpper(key)
	if _, ok := r.kv[key]; !ok {
		return
	}
	delete(r.kv, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

func (r *Record) Clone() *Record {
	out := &Record{
		keys: make([]string, len(r.keys)),
		kv:   make(map[string]Value, len(r.kv)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.kv {
		out.kv[k] = v
	}
	return out
}

func (r *Record) GetString(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.Value.(string)
	return s, ok
}

// GetInt64 accepts integer values and floats with no fractional part.
func (r *Record) GetInt64(key string) (int64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.Value.(type) {
	case int64:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	}
	return 0, false
}

func (r *Record) GetFloat64(key string) (float64, bool) {
	v, ok := r.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.Value.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// GetBool reads the integer flag convention used by DIRECTIO and friends.
// String values T/F and true/false are accepted as well.
func (r *Record) GetBool(key string) (bool, bool) {
	v, ok := r.Get(key)
	if !ok {
		return false, false
	}
	switch t := v.Value.(type) {
	case int64:
		return t != 0, true
	case float64:
		return t != 0, true
	case string:
		switch strings.ToLower(t) {
		case "t", "true", "1":
			return true, true
		case "f", "false", "0":
			return false, true
		}
	}
	return false, false
}
