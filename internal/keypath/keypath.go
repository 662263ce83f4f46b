// Package keypath resolves nested keys inside decoded JSON-like trees.
package keypath

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Key is a single path step: a string or an integer index.
type Key = any

// Path is an ordered list of keys. An empty path addresses the root.
type Path []Key

// ParsePath normalizes a raw argument into a Path.
// nil and "" yield an empty path, a scalar yields a one-element path and
// a list is taken step by step.
func ParsePath(raw any) Path {
	switch v := raw.(type) {
	case nil:
		return nil
	case Path:
		return v
	case string:
		if v == "" {
			return nil
		}
		return Path{v}
	case []any:
		return Path(v)
	case []string:
		p := make(Path, len(v))
		for i, s := range v {
			p[i] = s
		}
		return p
	case []int:
		p := make(Path, len(v))
		for i, n := range v {
			p[i] = n
		}
		return p
	default:
		return Path{v}
	}
}

// Resolve walks tree along path. Mappings are matched by the key's text form,
// sequences by the key's integer form. Negative indices count from the end.
// Any miss reports false.
func Resolve(tree any, path Path) (any, bool) {
	cur := tree
	for _, k := range path {
		next, ok := step(cur, k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(node any, key Key) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		name, ok := keyText(key)
		if !ok {
			return nil, false
		}
		v, ok := n[name]
		return v, ok
	case []any:
		idx, ok := keyIndex(key, len(n))
		if !ok {
			return nil, false
		}
		return n[idx], true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		name, ok := keyText(key)
		if !ok {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		idx, ok := keyIndex(key, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	default:
		return nil, false
	}
}

func keyText(key Key) (string, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case json.Number:
		return k.String(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(k), true
	case float64:
		if k != math.Trunc(k) {
			return "", false
		}
		return strconv.FormatInt(int64(k), 10), true
	default:
		return "", false
	}
}

func keyIndex(key Key, length int) (int, bool) {
	var idx int
	switch k := key.(type) {
	case int:
		idx = k
	case int8:
		idx = int(k)
	case int16:
		idx = int(k)
	case int32:
		idx = int(k)
	case int64:
		if k > math.MaxInt || k < math.MinInt {
			return 0, false
		}
		idx = int(k)
	case uint:
		if k > math.MaxInt {
			return 0, false
		}
		idx = int(k)
	case uint8:
		idx = int(k)
	case uint16:
		idx = int(k)
	case uint32:
		if uint64(k) > math.MaxInt {
			return 0, false
		}
		idx = int(k)
	case uint64:
		if k > math.MaxInt {
			return 0, false
		}
		idx = int(k)
	case float64:
		if k != math.Trunc(k) || math.Abs(k) > 1<<53 {
			return 0, false
		}
		idx = int(k)
	case json.Number:
		n, err := strconv.Atoi(k.String())
		if err != nil {
			return 0, false
		}
		idx = n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return 0, false
		}
		idx = n
	default:
		return 0, false
	}
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}
