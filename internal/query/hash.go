package query

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"reflect"
	"sort"
)

// Equal reports whether two filters are of the same type and agree on every
// declared field. Pointer fields compare by pointee.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// Hash returns a hash over every declared field of f, consistent with Equal.
func Hash(f any) uint64 {
	h := fnv.New64a()
	v := reflect.ValueOf(f)
	if v.IsValid() {
		fmt.Fprint(h, v.Type().String())
	}
	hashValue(h, v)
	return h.Sum64()
}

type writer interface {
	Write(p []byte) (int, error)
}

func hashValue(h writer, v reflect.Value) {
	var buf [8]byte
	writeUint := func(n uint64) {
		binary.LittleEndian.PutUint64(buf[:], n)
		h.Write(buf[:]) //nolint:errcheck
	}

	if !v.IsValid() {
		h.Write([]byte{0}) //nolint:errcheck
		return
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			h.Write([]byte{0}) //nolint:errcheck
			return
		}
		h.Write([]byte{1}) //nolint:errcheck
		hashValue(h, v.Elem())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			hashValue(h, v.Field(i))
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			h.Write([]byte{0}) //nolint:errcheck
			return
		}
		writeUint(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			hashValue(h, v.Index(i))
		}
	case reflect.Map:
		if v.IsNil() {
			h.Write([]byte{0}) //nolint:errcheck
			return
		}
		// Order-independent: sort the per-entry hashes.
		entries := make([]uint64, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			eh := fnv.New64a()
			hashValue(eh, iter.Key())
			hashValue(eh, iter.Value())
			entries = append(entries, eh.Sum64())
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i] < entries[j] })
		writeUint(uint64(len(entries)))
		for _, e := range entries {
			writeUint(e)
		}
	case reflect.String:
		writeUint(uint64(v.Len()))
		h.Write([]byte(v.String())) //nolint:errcheck
	case reflect.Bool:
		if v.Bool() {
			writeUint(1)
		} else {
			writeUint(0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeUint(uint64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		writeUint(v.Uint())
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f == 0 {
			f = 0 // -0 == 0
		}
		writeUint(math.Float64bits(f))
	default:
		fmt.Fprint(h, v.Kind())
	}
}
