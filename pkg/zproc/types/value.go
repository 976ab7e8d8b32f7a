package types

import (
	"fmt"
	"sort"
)

// Kind tags the dynamic type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
)

// Value is an opaque, serializable payload. The server never inspects its
// structure beyond the structural equality needed to decide whether a
// watcher's predicate now holds; see Equal.
type Value struct {
	Kind Kind

	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	bytesVal []byte
	listVal  []Value
	mapVal   map[string]Value
}

func Null() Value                     { return Value{Kind: KindNull} }
func NewBool(b bool) Value            { return Value{Kind: KindBool, boolVal: b} }
func NewInt(i int64) Value            { return Value{Kind: KindInt, intVal: i} }
func NewFloat(f float64) Value        { return Value{Kind: KindFloat, floatVal: f} }
func NewString(s string) Value        { return Value{Kind: KindString, strVal: s} }
func NewBytes(b []byte) Value         { return Value{Kind: KindBytes, bytesVal: append([]byte(nil), b...)} }
func NewList(items []Value) Value     { return Value{Kind: KindList, listVal: append([]Value(nil), items...)} }
func NewMap(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{Kind: KindMap, mapVal: cp}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) Bool() bool            { return v.boolVal }
func (v Value) Int() int64            { return v.intVal }
func (v Value) Float() float64        { return v.floatVal }
func (v Value) String() string        { return v.strVal }
func (v Value) Bytes() []byte         { return v.bytesVal }
func (v Value) List() []Value         { return v.listVal }
func (v Value) Map() map[string]Value { return v.mapVal }

// Equal implements the deep/structural equality that the resolver relies on
// to decide "changed".
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == other.boolVal
	case KindInt:
		return v.intVal == other.intVal
	case KindFloat:
		return v.floatVal == other.floatVal
	case KindString:
		return v.strVal == other.strVal
	case KindBytes:
		return bytesEqual(v.bytesVal, other.bytesVal)
	case KindList:
		if len(v.listVal) != len(other.listVal) {
			return false
		}
		for i := range v.listVal {
			if !v.listVal[i].Equal(other.listVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.mapVal) != len(other.mapVal) {
			return false
		}
		for k, val := range v.mapVal {
			ov, ok := other.mapVal[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare orders two values of the same kind when that kind is int, float
// or string, used by the condition predicate DSL for Lt/Lte/Gt/Gte
// comparisons. Any other kind (null, bool, bytes, list, map) and mismatched
// kinds are not orderable: Compare reports ok=false and never panics.
func (v Value) Compare(other Value) (int, bool) {
	if v.Kind != other.Kind {
		return 0, false
	}
	switch v.Kind {
	case KindInt:
		return compareOrdered(v.intVal, other.intVal), true
	case KindFloat:
		return compareOrdered(v.floatVal, other.floatVal), true
	case KindString:
		return compareOrdered(v.strVal, other.strVal), true
	default:
		return 0, false
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (v Value) String_() string { return fmt.Sprintf("%+v", v.Debug()) }

// Debug renders a Go-native representation, useful for log lines.
func (v Value) Debug() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.floatVal
	case KindString:
		return v.strVal
	case KindBytes:
		return v.bytesVal
	case KindList:
		out := make([]interface{}, len(v.listVal))
		for i, item := range v.listVal {
			out[i] = item.Debug()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.mapVal))
		for k, item := range v.mapVal {
			out[k] = item.Debug()
		}
		return out
	default:
		return nil
	}
}

// SortedKeys is a small helper used by the state store's "keys"/"items"
// read-only operations to produce deterministic output for callers and
// tests, even though the underlying map has no ordering of its own.
func SortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
