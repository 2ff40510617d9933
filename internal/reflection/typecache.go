package reflection

import (
	"reflect"
	"sync"
)

// typeCache is a thread-safe cache of function type information, so
// repeated calls to the same constructor or method type skip the
// reflection walk.
type typeCache struct {
	cache sync.Map // map[reflect.Type]*funcInfo
}

// funcInfo holds pre-computed reflection information about a function type.
type funcInfo struct {
	Type reflect.Type

	// InTypes lists every parameter type; for a variadic function the last
	// entry is the slice type.
	InTypes []reflect.Type

	// Fixed counts the parameters bound by position or keyword: every
	// parameter except a variadic tail or a trailing Kwargs collector.
	Fixed int

	IsVariadic bool
	HasKwargs  bool

	// VariadicElem is the element type of the variadic tail.
	VariadicElem reflect.Type

	ValidReturns   bool
	HasErrorReturn bool
}

// globalTypeCache is the cache shared by every Callable.
var globalTypeCache = &typeCache{}

// funcInfo returns cached information for the function type t, computing
// it on first use.
func (tc *typeCache) funcInfo(t reflect.Type) *funcInfo {
	if cached, ok := tc.cache.Load(t); ok {
		return cached.(*funcInfo)
	}
	info, _ := tc.cache.LoadOrStore(t, newFuncInfo(t))
	return info.(*funcInfo)
}

func (tc *typeCache) len() int {
	n := 0
	tc.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (tc *typeCache) clear() {
	tc.cache.Range(func(key, _ any) bool {
		tc.cache.Delete(key)
		return true
	})
}

func newFuncInfo(t reflect.Type) *funcInfo {
	numIn := t.NumIn()
	info := &funcInfo{
		Type:       t,
		InTypes:    make([]reflect.Type, numIn),
		IsVariadic: t.IsVariadic(),
	}
	for i := range numIn {
		info.InTypes[i] = t.In(i)
	}

	info.HasKwargs = numIn > 0 && !info.IsVariadic && info.InTypes[numIn-1] == kwargsType
	info.Fixed = numIn
	if info.IsVariadic || info.HasKwargs {
		info.Fixed--
	}
	if info.IsVariadic {
		info.VariadicElem = info.InTypes[numIn-1].Elem()
	}

	switch t.NumOut() {
	case 0:
		info.ValidReturns = true
	case 1:
		info.ValidReturns = true
		info.HasErrorReturn = t.Out(0) == errType
	case 2:
		info.ValidReturns = t.Out(1) == errType
		info.HasErrorReturn = info.ValidReturns
	}
	return info
}
