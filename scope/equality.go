package scope

import (
	"go/token"
	"math"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mohae/deepcopy"
)

// Equaler reports whether two values are deeply equal.
type Equaler func(a, b any) bool

// Copier returns a deep copy of v.
type Copier func(v any) any

var ignoreUnexported = cmp.FilterPath(func(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	return ok && !token.IsExported(sf.Name())
}, cmp.Ignore())

// DeepEqual is the default structural comparison. NaNs compare equal and
// unexported struct fields are skipped, matching what DeepCopy preserves.
func DeepEqual(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateNaNs(), ignoreUnexported)
}

func DeepCopy(v any) any {
	return deepcopy.Copy(v)
}

// Identical is the default watcher comparison. Comparable values use ==,
// maps, funcs and channels compare by reference, slices by backing array
// and length. NaN is identical to NaN so it never reads as a change.
// Non-comparable arrays and structs have no identity and compare by value.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func (t *tree) areEqual(newValue, oldValue any, structural bool) bool {
	if structural {
		return t.equal(newValue, oldValue)
	}
	return Identical(newValue, oldValue)
}
