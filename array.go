package koto

import (
	"math"
	"strconv"
)

// arrayObject is a dense array exotic object. The meta-object core only
// needs it as the carrier for trap argument lists, ownKeys trap results
// and key enumerations, so there is no sparse representation.
type arrayObject struct {
	baseObject
	values []Value
}

func toIndex(name string) (int64, bool) {
	if name == "" || len(name) > 10 {
		return -1, false
	}
	if name == "0" {
		return 0, true
	}
	if name[0] < '1' || name[0] > '9' {
		return -1, false
	}
	i, err := strconv.ParseInt(name, 10, 64)
	if err != nil || i >= math.MaxUint32 {
		return -1, false
	}
	return i, true
}

func (a *arrayObject) className() string {
	return classArray
}

func (a *arrayObject) getIdx(idx int64, receiver Value) Value {
	if idx >= 0 && idx < int64(len(a.values)) {
		if v := a.values[idx]; v != nil {
			return v
		}
	}
	if a.prototype != nil {
		if receiver == nil {
			receiver = a.val
		}
		return a.prototype.self.getStr(strconv.FormatInt(idx, 10), receiver)
	}
	return nil
}

func (a *arrayObject) getStr(name string, receiver Value) Value {
	if idx, ok := toIndex(name); ok {
		return a.getIdx(idx, receiver)
	}
	if name == "length" {
		return intToValue(int64(len(a.values)))
	}
	return a.baseObject.getStr(name, receiver)
}

func (a *arrayObject) get(p Value, receiver Value) Value {
	if s, ok := p.(*valueSymbol); ok {
		return a.getSym(s, receiver)
	}
	return a.getStr(p.String(), receiver)
}

func (a *arrayObject) getOwnPropStr(name string) Value {
	if idx, ok := toIndex(name); ok {
		if idx < int64(len(a.values)) {
			return a.values[idx]
		}
		return nil
	}
	if name == "length" {
		return &valueProperty{
			value:    intToValue(int64(len(a.values))),
			writable: true,
		}
	}
	return a.baseObject.getOwnPropStr(name)
}

func (a *arrayObject) hasOwnPropertyStr(name string) bool {
	if idx, ok := toIndex(name); ok {
		return idx < int64(len(a.values)) && a.values[idx] != nil
	}
	if name == "length" {
		return true
	}
	return a.baseObject.hasOwnPropertyStr(name)
}

func (a *arrayObject) setOwnStr(name string, val Value, throw bool) {
	if idx, ok := toIndex(name); ok {
		a.setIdx(idx, val, throw)
		return
	}
	if name == "length" {
		a.setLength(val.ToInteger(), throw)
		return
	}
	a.baseObject.setOwnStr(name, val, throw)
}

func (a *arrayObject) setIdx(idx int64, val Value, throw bool) {
	if !a.extensible && idx >= int64(len(a.values)) {
		a.val.runtime.typeErrorResult(throw, "Cannot add property %d, object is not extensible", idx)
		return
	}
	for int64(len(a.values)) <= idx {
		a.values = append(a.values, nil)
	}
	a.values[idx] = val
	a.touch()
}

func (a *arrayObject) setLength(l int64, throw bool) {
	if l < 0 || l >= math.MaxUint32 {
		panic(a.val.runtime.NewRangeError("Invalid array length"))
	}
	for int64(len(a.values)) > l {
		a.values = a.values[:len(a.values)-1]
	}
	for int64(len(a.values)) < l {
		a.values = append(a.values, nil)
	}
	a.touch()
}

func (a *arrayObject) deleteStr(name string, throw bool) bool {
	if idx, ok := toIndex(name); ok {
		if idx < int64(len(a.values)) {
			a.values[idx] = nil
			a.touch()
		}
		return true
	}
	if name == "length" {
		a.val.runtime.typeErrorResult(throw, "Cannot delete property 'length'")
		return false
	}
	return a.baseObject.deleteStr(name, throw)
}

func (a *arrayObject) defineOwnProperty(n Value, descr PropertyDescriptor, throw bool) bool {
	if s, ok := n.(*valueSymbol); ok {
		return a.baseObject.defineOwnPropertySym(s, descr, throw)
	}
	name := n.String()
	if idx, ok := toIndex(name); ok {
		// dense arrays keep index properties as default data properties
		if descr.IsAccessor() || descr.Writable == FLAG_FALSE || descr.Configurable == FLAG_FALSE || descr.Enumerable == FLAG_FALSE {
			a.val.runtime.typeErrorResult(throw, "Cannot redefine array index %d with non-default attributes", idx)
			return false
		}
		a.setIdx(idx, nilSafe(descr.Value), throw)
		return true
	}
	return a.baseObject.defineOwnPropertyStr(name, descr, throw)
}

func (a *arrayObject) ownKeys(all bool, accum []Value) []Value {
	for i, v := range a.values {
		if v != nil {
			accum = append(accum, newStringValue(strconv.Itoa(i)))
		}
	}
	return a.baseObject.ownKeys(all, accum)
}

func (a *arrayObject) export() interface{} {
	arr := make([]interface{}, len(a.values))
	for i, v := range a.values {
		if v != nil {
			arr[i] = v.Export()
		}
	}
	return arr
}

type arrayPropIter struct {
	a   *arrayObject
	idx int
}

func (i *arrayPropIter) next() (propIterItem, iterNextFunc) {
	for i.idx < len(i.a.values) {
		name := strconv.Itoa(i.idx)
		i.idx++
		if i.a.values[i.idx-1] != nil {
			return propIterItem{name: name, enumerable: _ENUM_TRUE}, i.next
		}
	}
	return i.a.baseObject.ownIter()()
}

func (a *arrayObject) enumerateUnfiltered() iterNextFunc {
	return (&recursiveIter{
		o:       &a.baseObject,
		wrapped: (&arrayPropIter{a: a}).next,
	}).next
}

func (r *Runtime) newArrayObject(values []Value) *arrayObject {
	v := &Object{runtime: r}
	a := &arrayObject{}
	a.class = classArray
	a.val = v
	a.prototype = r.global.ArrayPrototype
	a.extensible = true
	v.self = a
	a.init()
	a.values = values
	return a
}

// newArrayValues wraps values in a fresh array object without copying.
func (r *Runtime) newArrayValues(values []Value) *Object {
	return r.newArrayObject(values).val
}

// NewArray creates an array object from Go values.
func (r *Runtime) NewArray(items ...interface{}) *Object {
	values := make([]Value, len(items))
	for i, item := range items {
		values[i] = r.ToValue(item)
	}
	return r.newArrayValues(values)
}
