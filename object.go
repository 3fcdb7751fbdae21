package koto

import (
	"fmt"
	"reflect"
)

const (
	classObject   = "Object"
	classArray    = "Array"
	classFunction = "Function"
	classNumber   = "Number"
	classString   = "String"
	classBoolean  = "Boolean"
	classSymbol   = "Symbol"
	classError    = "Error"
	classProxy    = "Proxy"
)

const __proto__ = "__proto__"

// Object is the engine-visible handle to any object. The actual behavior
// lives in self: ordinary objects, arrays, native functions and proxies
// are objectImpl variants, so every internal method of the language is a
// polymorphic call through this table.
type Object struct {
	runtime *Runtime
	self    objectImpl
}

type iterNextFunc func() (propIterItem, iterNextFunc)

// PropertyDescriptor is the optional-field record form of a property.
// jsDescriptor retains the object a user trap or caller originally
// supplied so subsequent traps observe the same object; fromProxy marks
// descriptors produced by a proxy trap, which must never populate the
// property cache.
type PropertyDescriptor struct {
	jsDescriptor *Object
	fromProxy    bool

	Value Value

	Writable, Configurable, Enumerable Flag

	Getter, Setter Value
}

func (p *PropertyDescriptor) Empty() bool {
	return p.Value == nil &&
		p.Getter == nil &&
		p.Setter == nil &&
		p.Writable == FLAG_NOT_SET &&
		p.Configurable == FLAG_NOT_SET &&
		p.Enumerable == FLAG_NOT_SET
}

func (p *PropertyDescriptor) IsAccessor() bool {
	return p.Getter != nil || p.Setter != nil
}

func (p *PropertyDescriptor) IsData() bool {
	return p.Value != nil || p.Writable != FLAG_NOT_SET
}

func (p *PropertyDescriptor) IsGeneric() bool {
	return !p.IsAccessor() && !p.IsData()
}

// complete is CompletePropertyDescriptor: absent fields default to
// undefined/false, and a generic descriptor completes as a data one.
func (p *PropertyDescriptor) complete() {
	if p.IsGeneric() || p.IsData() {
		if p.Value == nil {
			p.Value = _undefined
		}
		if p.Writable == FLAG_NOT_SET {
			p.Writable = FLAG_FALSE
		}
	} else {
		if p.Getter == nil {
			p.Getter = _undefined
		}
		if p.Setter == nil {
			p.Setter = _undefined
		}
	}
	if p.Enumerable == FLAG_NOT_SET {
		p.Enumerable = FLAG_FALSE
	}
	if p.Configurable == FLAG_NOT_SET {
		p.Configurable = FLAG_FALSE
	}
}

// toValue is FromPropertyDescriptor. When the descriptor was parsed from
// a user-supplied object, that same object is re-presented.
func (p *PropertyDescriptor) toValue(r *Runtime) Value {
	if p.jsDescriptor != nil {
		return p.jsDescriptor
	}

	o := r.NewObject()
	s := o.self

	if p.Value != nil {
		s._putProp("value", p.Value, true, true, true)
	}
	if p.Writable != FLAG_NOT_SET {
		s._putProp("writable", valueBool(p.Writable.Bool()), true, true, true)
	}
	if p.Enumerable != FLAG_NOT_SET {
		s._putProp("enumerable", valueBool(p.Enumerable.Bool()), true, true, true)
	}
	if p.Configurable != FLAG_NOT_SET {
		s._putProp("configurable", valueBool(p.Configurable.Bool()), true, true, true)
	}
	if p.Getter != nil {
		s._putProp("get", p.Getter, true, true, true)
	}
	if p.Setter != nil {
		s._putProp("set", p.Setter, true, true, true)
	}

	return o
}

// toValueProperty converts a completed descriptor to the stored form.
func (p *PropertyDescriptor) toValueProperty() *valueProperty {
	if p.IsAccessor() {
		prop := &valueProperty{
			accessor:     true,
			configurable: p.Configurable.Bool(),
			enumerable:   p.Enumerable.Bool(),
			fromProxy:    p.fromProxy,
		}
		if p.Getter != nil && p.Getter != _undefined {
			prop.getterFunc = p.Getter.(*Object)
		}
		if p.Setter != nil && p.Setter != _undefined {
			prop.setterFunc = p.Setter.(*Object)
		}
		return prop
	}
	return &valueProperty{
		value:        nilSafe(p.Value),
		writable:     p.Writable.Bool(),
		configurable: p.Configurable.Bool(),
		enumerable:   p.Enumerable.Bool(),
		fromProxy:    p.fromProxy,
	}
}

// objectImpl is the polymorphic object capability table: one method per
// internal method of the language, plus the engine-internal plumbing
// (iteration, caching, raw property installation).
type objectImpl interface {
	className() string
	typeOf() string
	get(p, receiver Value) Value
	getStr(name string, receiver Value) Value
	getOwnProp(Value) Value
	getOwnPropStr(string) Value
	setOwn(p, v Value, throw bool)
	setForeign(p Value, v, receiver Value, throw bool) bool
	setOwnStr(name string, v Value, throw bool)
	setForeignStr(name string, v, receiver Value, throw bool) bool
	setForeignSym(s *valueSymbol, val, receiver Value, throw bool) bool
	hasProperty(Value) bool
	hasPropertyStr(string) bool
	hasOwnProperty(Value) bool
	hasOwnPropertyStr(string) bool
	defineOwnProperty(name Value, descr PropertyDescriptor, throw bool) bool
	delete(name Value, throw bool) bool
	deleteStr(name string, throw bool) bool
	proto() *Object
	setProto(proto *Object, throw bool) bool
	isExtensible() bool
	preventExtensions(throw bool) bool
	ownKeys(all bool, accum []Value) []Value
	ownSymbols() []Value
	ownPropertyKeys(all bool, accum []Value) []Value
	enumerate() iterNextFunc
	enumerateUnfiltered() iterNextFunc
	assertCallable() (call func(FunctionCall) Value, ok bool)
	assertConstructor() func(args []Value, newTarget *Object) *Object
	hasInstance(v Value) bool
	equal(objectImpl) bool
	export() interface{}
	cacheGen() (gen uint64, cacheable bool)
	_putProp(name string, value Value, writable, enumerable, configurable bool) Value
	_putSym(s *valueSymbol, prop Value)
}

type baseObject struct {
	class      string
	val        *Object
	prototype  *Object
	extensible bool

	// gen invalidates property cache entries on any shape change
	gen uint64

	values    map[string]Value
	propNames []string

	symValues map[*valueSymbol]Value
}

type primitiveValueObject struct {
	baseObject
	pValue Value
}

func (o *primitiveValueObject) export() interface{} {
	return o.pValue.Export()
}

type FunctionCall struct {
	This      Value
	Arguments []Value
}

func (f FunctionCall) Argument(idx int) Value {
	if idx < len(f.Arguments) {
		return f.Arguments[idx]
	}
	return _undefined
}

func (o *baseObject) init() {
	o.values = make(map[string]Value)
}

func (o *baseObject) touch() {
	o.gen++
}

func (o *baseObject) cacheGen() (uint64, bool) {
	return o.gen, true
}

func (o *baseObject) className() string {
	return o.class
}

func (o *baseObject) typeOf() string {
	return "object"
}

func (o *baseObject) hasProperty(n Value) bool {
	if o.val.self.hasOwnProperty(n) {
		return true
	}
	if o.prototype != nil {
		return o.prototype.self.hasProperty(n)
	}
	return false
}

func (o *baseObject) hasPropertyStr(name string) bool {
	if o.val.self.hasOwnPropertyStr(name) {
		return true
	}
	if o.prototype != nil {
		return o.prototype.self.hasPropertyStr(name)
	}
	return false
}

func (o *baseObject) get(p Value, receiver Value) Value {
	if s, ok := p.(*valueSymbol); ok {
		return o.getSym(s, receiver)
	}
	return o.val.self.getStr(p.String(), receiver)
}

func (o *baseObject) getSym(s *valueSymbol, receiver Value) Value {
	prop := o.symValues[s]
	if prop == nil && o.prototype != nil {
		if receiver == nil {
			return o.prototype.self.get(s, o.val)
		}
		return o.prototype.self.get(s, receiver)
	}
	if prop, ok := prop.(*valueProperty); ok {
		if receiver == nil {
			return prop.get(o.val)
		}
		return prop.get(receiver)
	}
	return prop
}

func (o *baseObject) getStr(name string, receiver Value) Value {
	prop := o.values[name]
	if prop == nil {
		if name == __proto__ {
			if o.prototype == nil {
				return _null
			}
			return o.prototype
		}
		if o.prototype != nil {
			if receiver == nil {
				return o.prototype.self.getStr(name, o.val)
			}
			return o.prototype.self.getStr(name, receiver)
		}
	}
	if prop, ok := prop.(*valueProperty); ok {
		if receiver == nil {
			return prop.get(o.val)
		}
		return prop.get(receiver)
	}
	return prop
}

func (o *baseObject) getOwnPropStr(name string) Value {
	return o.values[name]
}

func (o *baseObject) getOwnProp(name Value) Value {
	if s, ok := name.(*valueSymbol); ok {
		return o.symValues[s]
	}
	return o.val.self.getOwnPropStr(name.String())
}

func (o *baseObject) checkDelete(name string, val Value, throw bool) bool {
	if prop, ok := val.(*valueProperty); ok && !prop.configurable {
		o.val.runtime.typeErrorResult(throw, "Cannot delete property '%s' of %s", name, o.val.String())
		return false
	}
	return true
}

func (o *baseObject) _delete(name string) {
	delete(o.values, name)
	for i, n := range o.propNames {
		if n == name {
			copy(o.propNames[i:], o.propNames[i+1:])
			o.propNames = o.propNames[:len(o.propNames)-1]
			break
		}
	}
	o.touch()
}

func (o *baseObject) deleteStr(name string, throw bool) bool {
	if val, exists := o.values[name]; exists {
		if !o.checkDelete(name, val, throw) {
			return false
		}
		o._delete(name)
	}
	return true
}

func (o *baseObject) deleteSym(s *valueSymbol, throw bool) bool {
	if val, exists := o.symValues[s]; exists {
		if !o.checkDelete(s.String(), val, throw) {
			return false
		}
		delete(o.symValues, s)
		o.touch()
	}
	return true
}

func (o *baseObject) delete(n Value, throw bool) bool {
	if s, ok := n.(*valueSymbol); ok {
		return o.deleteSym(s, throw)
	}
	return o.val.self.deleteStr(n.String(), throw)
}

func (o *baseObject) setProto(proto *Object, throw bool) bool {
	current := o.prototype
	if current == proto {
		return true
	}
	if !o.extensible {
		o.val.runtime.typeErrorResult(throw, "%s is not extensible", o.val)
		return false
	}
	for p := proto; p != nil; {
		if p == o.val {
			o.val.runtime.typeErrorResult(throw, "Cyclic __proto__ value")
			return false
		}
		p = p.self.proto()
	}
	o.prototype = proto
	o.touch()
	return true
}

func (o *baseObject) setOwn(name Value, val Value, throw bool) {
	if s, ok := name.(*valueSymbol); ok {
		o.setOwnSym(s, val, throw)
		return
	}
	o.val.self.setOwnStr(name.String(), val, throw)
}

func (o *baseObject) setForeign(name Value, val, receiver Value, throw bool) bool {
	if s, ok := name.(*valueSymbol); ok {
		return o.setForeignSym(s, val, receiver, throw)
	}
	return o.val.self.setForeignStr(name.String(), val, receiver, throw)
}

func (o *baseObject) _setProto(val Value, throw bool) {
	var proto *Object
	if val != _null {
		obj, ok := val.(*Object)
		if !ok {
			return
		}
		proto = obj
	}
	o.val.self.setProto(proto, throw)
}

func (o *baseObject) setOwnStr(name string, val Value, throw bool) {
	ownDesc := o.values[name]
	if ownDesc == nil {
		if name == __proto__ {
			o._setProto(val, throw)
			return
		}
		if proto := o.prototype; proto != nil {
			// the receiver is known: prototype loops are rejected in setProto
			if proto.self.setForeignStr(name, val, o.val, throw) {
				return
			}
		}
		if !o.extensible {
			o.val.runtime.typeErrorResult(throw, "Cannot add property %s, object is not extensible", name)
			return
		}
		o._put(name, val)
		return
	}
	if prop, ok := ownDesc.(*valueProperty); ok {
		if !prop.isWritable() {
			o.val.runtime.typeErrorResult(throw, "Cannot assign to read only property '%s'", name)
			return
		}
		prop.set(o.val, val)
		o.touch()
		return
	}
	o.values[name] = val
	o.touch()
}

func (o *baseObject) setOwnSym(name *valueSymbol, val Value, throw bool) {
	ownDesc := o.symValues[name]
	if ownDesc == nil {
		if proto := o.prototype; proto != nil {
			if proto.self.setForeignSym(name, val, o.val, throw) {
				return
			}
		}
		if !o.extensible {
			o.val.runtime.typeErrorResult(throw, "Cannot add property %s, object is not extensible", name)
			return
		}
		if o.symValues == nil {
			o.symValues = make(map[*valueSymbol]Value, 1)
		}
		o.symValues[name] = val
		o.touch()
		return
	}
	if prop, ok := ownDesc.(*valueProperty); ok {
		if !prop.isWritable() {
			o.val.runtime.typeErrorResult(throw, "Cannot assign to read only property '%s'", name)
			return
		}
		prop.set(o.val, val)
		o.touch()
		return
	}
	o.symValues[name] = val
	o.touch()
}

func (o *baseObject) _setForeign(name string, prop, val, receiver Value, throw bool) bool {
	if prop != nil {
		if prop, ok := prop.(*valueProperty); ok {
			if !prop.isWritable() {
				o.val.runtime.typeErrorResult(throw, "Cannot assign to read only property '%s'", name)
				return true
			}
			if prop.accessor {
				prop.set(receiver, val)
				return true
			}
		}
		return false
	}
	if proto := o.prototype; proto != nil {
		return proto.self.setForeignStr(name, val, receiver, throw)
	}
	return false
}

func (o *baseObject) setForeignStr(name string, val, receiver Value, throw bool) bool {
	return o._setForeign(name, o.values[name], val, receiver, throw)
}

func (o *baseObject) setForeignSym(s *valueSymbol, val, receiver Value, throw bool) bool {
	prop := o.symValues[s]
	if prop != nil {
		if prop, ok := prop.(*valueProperty); ok {
			if !prop.isWritable() {
				o.val.runtime.typeErrorResult(throw, "Cannot assign to read only property '%s'", s)
				return true
			}
			if prop.accessor {
				prop.set(receiver, val)
				return true
			}
		}
		return false
	}
	if proto := o.prototype; proto != nil {
		return proto.self.setForeignSym(s, val, receiver, throw)
	}
	return false
}

// setStr performs [[Set]] with an explicit receiver. When the receiver is
// not the holder the write lands on the receiver: the existing data
// property is updated, or a fresh enumerable/writable/configurable data
// property is defined. Accessor and read-only receiver properties reject.
func (o *Object) setStr(name string, val, receiver Value, throw bool) {
	if receiver == o || receiver == nil {
		o.self.setOwnStr(name, val, throw)
		return
	}
	if !o.self.setForeignStr(name, val, receiver, throw) {
		robj, ok := receiver.(*Object)
		if !ok {
			o.runtime.typeErrorResult(throw, "Receiver is not an object: %v", receiver)
			return
		}
		if prop := robj.self.getOwnPropStr(name); prop != nil {
			if desc, ok := prop.(*valueProperty); ok {
				if desc.accessor {
					o.runtime.typeErrorResult(throw, "Receiver property %s is an accessor", name)
					return
				}
				if !desc.writable {
					o.runtime.typeErrorResult(throw, "Cannot assign to read only property '%s'", name)
					return
				}
			}
			robj.self.defineOwnProperty(newStringValue(name), PropertyDescriptor{Value: val}, throw)
		} else {
			robj.self.defineOwnProperty(newStringValue(name), PropertyDescriptor{
				Value:        val,
				Writable:     FLAG_TRUE,
				Configurable: FLAG_TRUE,
				Enumerable:   FLAG_TRUE,
			}, throw)
		}
	}
}

func (o *Object) set(name Value, val, receiver Value, throw bool) {
	if s, ok := name.(*valueSymbol); ok {
		if receiver == o || receiver == nil {
			o.self.setOwn(s, val, throw)
			return
		}
		if !o.self.setForeign(s, val, receiver, throw) {
			robj, ok := receiver.(*Object)
			if !ok {
				o.runtime.typeErrorResult(throw, "Receiver is not an object: %v", receiver)
				return
			}
			robj.self.defineOwnProperty(s, PropertyDescriptor{
				Value:        val,
				Writable:     FLAG_TRUE,
				Configurable: FLAG_TRUE,
				Enumerable:   FLAG_TRUE,
			}, throw)
		}
		return
	}
	o.setStr(name.String(), val, receiver, throw)
}

func (o *baseObject) hasOwnProperty(n Value) bool {
	if s, ok := n.(*valueSymbol); ok {
		_, exists := o.symValues[s]
		return exists
	}
	return o.val.self.hasOwnPropertyStr(n.String())
}

func (o *baseObject) hasOwnPropertyStr(name string) bool {
	return o.values[name] != nil
}

func (o *baseObject) _defineOwnProperty(name string, existingValue Value, descr PropertyDescriptor, throw bool) (val Value, ok bool) {
	getterObj, _ := descr.Getter.(*Object)
	setterObj, _ := descr.Setter.(*Object)

	var existing *valueProperty

	if existingValue == nil {
		if !o.extensible {
			o.val.runtime.typeErrorResult(throw, "Cannot define property %s, object is not extensible", name)
			return nil, false
		}
		existing = &valueProperty{}
	} else {
		if existing, ok = existingValue.(*valueProperty); !ok {
			existing = &valueProperty{
				writable:     true,
				enumerable:   true,
				configurable: true,
				value:        existingValue,
			}
		} else {
			ec := *existing
			existing = &ec
		}

		if !existing.configurable {
			if descr.Configurable == FLAG_TRUE {
				goto Reject
			}
			if descr.Enumerable != FLAG_NOT_SET && descr.Enumerable.Bool() != existing.enumerable {
				goto Reject
			}
		}
		if existing.accessor && descr.IsData() || !existing.accessor && descr.IsAccessor() {
			if !existing.configurable {
				goto Reject
			}
		} else if !existing.accessor {
			if !existing.configurable && !existing.writable {
				if descr.Writable == FLAG_TRUE {
					goto Reject
				}
				if descr.Value != nil && !descr.Value.SameAs(existing.value) {
					goto Reject
				}
			}
		} else {
			if !existing.configurable {
				if descr.Getter != nil && existing.getterFunc != getterObj || descr.Setter != nil && existing.setterFunc != setterObj {
					goto Reject
				}
			}
		}
	}

	if descr.Writable == FLAG_TRUE && descr.Enumerable == FLAG_TRUE && descr.Configurable == FLAG_TRUE && descr.Value != nil {
		return descr.Value, true
	}

	if descr.Writable != FLAG_NOT_SET {
		existing.writable = descr.Writable.Bool()
	}
	if descr.Enumerable != FLAG_NOT_SET {
		existing.enumerable = descr.Enumerable.Bool()
	}
	if descr.Configurable != FLAG_NOT_SET {
		existing.configurable = descr.Configurable.Bool()
	}

	if descr.Value != nil {
		existing.value = descr.Value
		existing.getterFunc = nil
		existing.setterFunc = nil
	}

	if descr.Value != nil || descr.Writable != FLAG_NOT_SET {
		existing.accessor = false
	}

	if descr.Getter != nil {
		existing.getterFunc = propGetter(descr.Getter, o.val.runtime)
		existing.value = nil
		existing.accessor = true
	}

	if descr.Setter != nil {
		existing.setterFunc = propSetter(descr.Setter, o.val.runtime)
		existing.value = nil
		existing.accessor = true
	}

	if !existing.accessor && existing.value == nil {
		existing.value = _undefined
	}

	return existing, true

Reject:
	o.val.runtime.typeErrorResult(throw, "Cannot redefine property: %s", name)
	return nil, false
}

func (o *baseObject) defineOwnPropertyStr(name string, descr PropertyDescriptor, throw bool) bool {
	existingVal := o.values[name]
	if v, ok := o._defineOwnProperty(name, existingVal, descr, throw); ok {
		o.values[name] = v
		if existingVal == nil {
			o.propNames = append(o.propNames, name)
		}
		o.touch()
		return true
	}
	return false
}

func (o *baseObject) defineOwnPropertySym(s *valueSymbol, descr PropertyDescriptor, throw bool) bool {
	existingVal := o.symValues[s]
	if v, ok := o._defineOwnProperty(s.String(), existingVal, descr, throw); ok {
		if o.symValues == nil {
			o.symValues = make(map[*valueSymbol]Value, 1)
		}
		o.symValues[s] = v
		o.touch()
		return true
	}
	return false
}

func (o *baseObject) defineOwnProperty(n Value, descr PropertyDescriptor, throw bool) bool {
	if s, ok := n.(*valueSymbol); ok {
		return o.defineOwnPropertySym(s, descr, throw)
	}
	return o.defineOwnPropertyStr(n.String(), descr, throw)
}

func (o *baseObject) _put(name string, v Value) {
	if _, exists := o.values[name]; !exists {
		o.propNames = append(o.propNames, name)
	}
	o.values[name] = v
	o.touch()
}

func valueProp(value Value, writable, enumerable, configurable bool) Value {
	if writable && enumerable && configurable {
		return value
	}
	return &valueProperty{
		value:        value,
		writable:     writable,
		enumerable:   enumerable,
		configurable: configurable,
	}
}

func (o *baseObject) _putProp(name string, value Value, writable, enumerable, configurable bool) Value {
	prop := valueProp(value, writable, enumerable, configurable)
	o._put(name, prop)
	return prop
}

func (o *baseObject) _putSym(s *valueSymbol, prop Value) {
	if o.symValues == nil {
		o.symValues = make(map[*valueSymbol]Value, 1)
	}
	o.symValues[s] = prop
	o.touch()
}

func (o *baseObject) tryPrimitive(methodName string) Value {
	if method, ok := o.val.self.getStr(methodName, nil).(*Object); ok {
		if call, ok := method.self.assertCallable(); ok {
			v := call(FunctionCall{This: o.val})
			if _, fail := v.(*Object); !fail {
				return v
			}
		}
	}
	return nil
}

func (o *baseObject) toPrimitiveNumber() Value {
	if v := o.tryPrimitive("valueOf"); v != nil {
		return v
	}
	if v := o.tryPrimitive("toString"); v != nil {
		return v
	}
	panic(o.val.runtime.NewTypeError("Could not convert %v to primitive", o.val))
}

func (o *baseObject) toPrimitiveString() Value {
	if v := o.tryPrimitive("toString"); v != nil {
		return v
	}
	if v := o.tryPrimitive("valueOf"); v != nil {
		return v
	}
	panic(o.val.runtime.NewTypeError("Could not convert %v to primitive", o.val))
}

func (o *baseObject) assertCallable() (func(FunctionCall) Value, bool) {
	return nil, false
}

func (o *baseObject) assertConstructor() func(args []Value, newTarget *Object) *Object {
	return nil
}

func (o *baseObject) proto() *Object {
	return o.prototype
}

func (o *baseObject) isExtensible() bool {
	return o.extensible
}

func (o *baseObject) preventExtensions(bool) bool {
	o.extensible = false
	o.touch()
	return true
}

func (o *baseObject) export() interface{} {
	m := make(map[string]interface{})
	for _, itemName := range o.val.self.ownKeys(false, nil) {
		itemNameStr := itemName.String()
		v := o.val.self.getStr(itemNameStr, nil)
		if v != nil {
			m[itemNameStr] = v.Export()
		} else {
			m[itemNameStr] = nil
		}
	}
	return m
}

func (o *baseObject) equal(objectImpl) bool {
	// the Object handles were already compared by reference
	return false
}

func (o *baseObject) ownKeys(all bool, keys []Value) []Value {
	if all {
		for _, k := range o.propNames {
			keys = append(keys, newStringValue(k))
		}
		return keys
	}
	for _, k := range o.propNames {
		if prop, ok := o.values[k].(*valueProperty); ok && !prop.enumerable {
			continue
		}
		keys = append(keys, newStringValue(k))
	}
	return keys
}

func (o *baseObject) ownSymbols() (res []Value) {
	for s := range o.symValues {
		res = append(res, s)
	}
	return
}

func (o *baseObject) ownPropertyKeys(all bool, accum []Value) []Value {
	return append(o.val.self.ownKeys(all, accum), o.val.self.ownSymbols()...)
}

func (o *baseObject) hasInstance(Value) bool {
	panic(o.val.runtime.NewTypeError("Expecting a function in instanceof check, but got %s", o.val.String()))
}

type enumerableFlag int

const (
	_ENUM_UNKNOWN enumerableFlag = iota
	_ENUM_FALSE
	_ENUM_TRUE
)

type propIterItem struct {
	name       string
	value      Value // set only when enumerable == _ENUM_UNKNOWN
	enumerable enumerableFlag
}

type objectPropIter struct {
	o         *baseObject
	propNames []string
	idx       int
}

func (i *objectPropIter) next() (propIterItem, iterNextFunc) {
	for i.idx < len(i.propNames) {
		name := i.propNames[i.idx]
		i.idx++
		if prop := i.o.values[name]; prop != nil {
			return propIterItem{name: name, value: prop}, i.next
		}
	}
	return propIterItem{}, nil
}

// propFilterIter deduplicates names across the prototype chain and drops
// non-enumerable items unless all is set.
type propFilterIter struct {
	wrapped iterNextFunc
	all     bool
	seen    map[string]bool
}

func (i *propFilterIter) next() (propIterItem, iterNextFunc) {
	for {
		var item propIterItem
		item, i.wrapped = i.wrapped()
		if i.wrapped == nil {
			return propIterItem{}, nil
		}

		if i.seen[item.name] {
			continue
		}
		i.seen[item.name] = true
		if !i.all {
			if item.enumerable == _ENUM_FALSE {
				continue
			}
			if item.enumerable == _ENUM_UNKNOWN {
				if prop, ok := item.value.(*valueProperty); ok && !prop.enumerable {
					continue
				}
			}
		}
		return item, i.next
	}
}

type recursiveIter struct {
	o       *baseObject
	wrapped iterNextFunc
}

func (iter *recursiveIter) next() (propIterItem, iterNextFunc) {
	item, next := iter.wrapped()
	if next != nil {
		iter.wrapped = next
		return item, iter.next
	}
	if proto := iter.o.prototype; proto != nil {
		return proto.self.enumerateUnfiltered()()
	}
	return propIterItem{}, nil
}

func (o *baseObject) enumerate() iterNextFunc {
	return (&propFilterIter{
		wrapped: o.val.self.enumerateUnfiltered(),
		seen:    make(map[string]bool),
	}).next
}

func (o *baseObject) ownIter() iterNextFunc {
	propNames := make([]string, len(o.propNames))
	copy(propNames, o.propNames)
	return (&objectPropIter{
		o:         o,
		propNames: propNames,
	}).next
}

func (o *baseObject) enumerateUnfiltered() iterNextFunc {
	return (&recursiveIter{
		o:       o,
		wrapped: o.ownIter(),
	}).next
}

func instanceOfOperator(o Value, c *Object) bool {
	return c.self.hasInstance(o)
}

func (o *Object) toPrimitive() Value {
	if p, ok := o.self.(interface{ toPrimitiveNumber() Value }); ok {
		return p.toPrimitiveNumber()
	}
	return newStringValue(o.String())
}

// Value interface on *Object.

func (o *Object) ToInteger() int64 {
	return o.toPrimitive().ToInteger()
}

func (o *Object) String() string {
	return fmt.Sprintf("[object %s]", o.self.className())
}

func (o *Object) ToFloat() float64 {
	return o.toPrimitive().ToFloat()
}

func (o *Object) ToNumber() Value {
	return o.toPrimitive().ToNumber()
}

func (o *Object) ToBoolean() bool {
	return true
}

func (o *Object) ToObject(*Runtime) *Object {
	return o
}

func (o *Object) SameAs(other Value) bool {
	if other, ok := other.(*Object); ok {
		return o == other
	}
	return false
}

func (o *Object) Equals(other Value) bool {
	if other, ok := other.(*Object); ok {
		return o == other || o.self.equal(other.self)
	}
	switch other.(type) {
	case valueInt, valueFloat, valueString, valueBool:
		return o.toPrimitive().Equals(other)
	}
	return false
}

func (o *Object) StrictEquals(other Value) bool {
	if other, ok := other.(*Object); ok {
		return o == other || o.self.equal(other.self)
	}
	return false
}

func (o *Object) Export() interface{} {
	return o.self.export()
}

func (o *Object) ExportType() reflect.Type {
	return reflectTypeMap
}

// Host conveniences.

// Get reads property name through the object's [[Get]], consulting the
// runtime property cache first.
func (o *Object) Get(name string) Value {
	return o.runtime.getStrCached(o, name)
}

// Set performs [[Set]] of name on the object, converting value with
// Runtime.ToValue. The thrown TypeError, if any, is returned as error.
func (o *Object) Set(name string, value interface{}) error {
	return o.runtime.Try(func() {
		o.self.setOwnStr(name, o.runtime.ToValue(value), true)
	})
}

// DefineDataProperty is a Go-friendly Object.defineProperty.
func (o *Object) DefineDataProperty(name string, value Value, writable, configurable, enumerable Flag) error {
	return o.runtime.Try(func() {
		o.self.defineOwnProperty(newStringValue(name), PropertyDescriptor{
			Value:        value,
			Writable:     writable,
			Configurable: configurable,
			Enumerable:   enumerable,
		}, true)
	})
}

// DefineAccessorProperty is a Go-friendly Object.defineProperty for
// accessors.
func (o *Object) DefineAccessorProperty(name string, getter, setter Value, configurable, enumerable Flag) error {
	return o.runtime.Try(func() {
		o.self.defineOwnProperty(newStringValue(name), PropertyDescriptor{
			Getter:       getter,
			Setter:       setter,
			Configurable: configurable,
			Enumerable:   enumerable,
		}, true)
	})
}

// Keys returns the object's own enumerable string keys.
func (o *Object) Keys() (keys []string) {
	for _, v := range o.self.ownKeys(false, nil) {
		keys = append(keys, v.String())
	}
	return
}
