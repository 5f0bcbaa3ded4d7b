package scope

import "reflect"

// WatchCollection watches the shallow contents of a slice, array or map:
// its length and the identity of each element or entry. The listener fires
// once per detected change, and on the first digest, with the current
// collection as both arguments. Other values are compared by identity.
func (s *Scope) WatchCollection(watchFn WatchFn, listenerFn ListenerFn) (deregister func()) {
	var (
		changes int
		seeded  bool
		prev    shallow
		current any
	)

	counter := func(s *Scope) (any, error) {
		v, err := watchFn(s)
		if err != nil {
			return nil, err
		}
		current = v
		if !seeded || prev.differs(v) {
			seeded = true
			prev = takeShallow(v)
			changes++
		}
		return changes, nil
	}

	react := func(_, _ any, s *Scope) error {
		if listenerFn == nil {
			return nil
		}
		return listenerFn(current, current, s)
	}

	return s.Watch(counter, react, false)
}

// shallow is a one level copy of a watched value.
type shallow struct {
	typ     reflect.Type
	kind    reflect.Kind
	items   []any
	entries map[any]any
	value   any
}

func collectionValue(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		switch rv.Elem().Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			rv = rv.Elem()
		}
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv, true
	}
	return rv, false
}

func takeShallow(v any) shallow {
	rv, ok := collectionValue(v)
	if !ok {
		return shallow{value: v}
	}

	sh := shallow{typ: rv.Type(), kind: rv.Kind()}
	if sh.kind == reflect.Map {
		sh.entries = make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			sh.entries[iter.Key().Interface()] = iter.Value().Interface()
		}
		return sh
	}

	sh.items = make([]any, rv.Len())
	for i := range sh.items {
		sh.items[i] = rv.Index(i).Interface()
	}
	return sh
}

func (sh shallow) differs(v any) bool {
	rv, ok := collectionValue(v)
	if !ok {
		return sh.typ != nil || !Identical(sh.value, v)
	}
	if rv.Type() != sh.typ || rv.Len() != sh.length() {
		return true
	}

	if sh.kind == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			old, found := sh.entries[iter.Key().Interface()]
			if !found || !Identical(iter.Value().Interface(), old) {
				return true
			}
		}
		return false
	}

	for i, old := range sh.items {
		if !Identical(rv.Index(i).Interface(), old) {
			return true
		}
	}
	return false
}

func (sh shallow) length() int {
	if sh.kind == reflect.Map {
		return len(sh.entries)
	}
	return len(sh.items)
}
