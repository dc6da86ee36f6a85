package databind

import "reflect"

// ShallowEqual compares two keys one level deep.
//
// Maps are equal when they hold the same keys with identical values and structs when their fields
// are identical. Values that cannot be compared with == (slices, maps, funcs) are identical only
// when they are the same reference.
func ShallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map:
		if va.Len() != vb.Len() {
			return false
		}
		if va.UnsafePointer() == vb.UnsafePointer() {
			return true
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !identical(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range va.NumField() {
			if !identical(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	}

	return identical(va, vb)
}

func identical(a, b reflect.Value) bool {
	if a.Kind() == reflect.Interface {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		a, b = a.Elem(), b.Elem()
		if a.Type() != b.Type() {
			return false
		}
	}

	switch a.Kind() {
	case reflect.Slice:
		return a.Len() == b.Len() && a.UnsafePointer() == b.UnsafePointer()
	case reflect.Map, reflect.Func:
		return a.UnsafePointer() == b.UnsafePointer()
	}

	if !a.Comparable() || !b.Comparable() {
		return false
	}
	return a.Equal(b)
}
