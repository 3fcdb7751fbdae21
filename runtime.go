package koto

import (
	"fmt"
)

// implicitCallFlags records engine-initiated script execution that
// happened during what the caller believed was a plain property
// operation. Optimized hosts inspect the mask to decide whether a
// result is still trustworthy.
type implicitCallFlags uint8

const (
	implicitCallNone     implicitCallFlags = 0
	implicitCallExternal implicitCallFlags = 1 << 0
	implicitCallAccessor implicitCallFlags = 1 << 1
)

type propCacheKey struct {
	obj  *Object
	name string
}

type propCacheEntry struct {
	gen  uint64
	prop Value
}

type global struct {
	ObjectPrototype     *Object
	FunctionPrototype   *Object
	ArrayPrototype      *Object
	ErrorPrototype      *Object
	TypeErrorPrototype  *Object
	RangeErrorPrototype *Object

	Object  *Object
	Reflect *Object
	Proxy   *Object
}

// Runtime is a single realm of the meta-object core. It is not safe for
// concurrent use: the execution model is single-threaded and
// cooperative, trap re-entrancy included.
type Runtime struct {
	global       global
	globalObject *Object

	hook       RuntimeHook
	marshaller func(Value) Value

	implicitCallFlags     implicitCallFlags
	implicitCallsDisabled bool
	heapEnumInProgress    bool

	propCache map[propCacheKey]propCacheEntry
}

// Option configures a Runtime at construction.
type Option func(*Runtime)

// WithHook installs a RuntimeHook observing trap dispatch and
// revocation.
func WithHook(h RuntimeHook) Option {
	return func(r *Runtime) {
		r.hook = h
	}
}

// WithMarshaller installs the cross-realm marshalling primitive applied
// to trap callables and trap results. Single-realm hosts do not need
// one.
func WithMarshaller(m func(Value) Value) Option {
	return func(r *Runtime) {
		r.marshaller = m
	}
}

// New creates a Runtime realm with its globals initialized.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		propCache: make(map[propCacheKey]propCacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.init()
	return r
}

func (r *Runtime) init() {
	r.global.ObjectPrototype = r.newBaseObject(nil, classObject).val
	r.global.FunctionPrototype = r.newBaseObject(r.global.ObjectPrototype, classFunction).val
	r.global.ArrayPrototype = r.newBaseObject(r.global.ObjectPrototype, classArray).val

	r.global.ErrorPrototype = r.newErrorProto("Error", r.global.ObjectPrototype)
	r.global.TypeErrorPrototype = r.newErrorProto("TypeError", r.global.ErrorPrototype)
	r.global.RangeErrorPrototype = r.newErrorProto("RangeError", r.global.ErrorPrototype)

	r.globalObject = r.NewObject()

	r.initObject()
	r.initReflect()
	r.initProxy()
}

func (r *Runtime) newErrorProto(name string, proto *Object) *Object {
	o := r.newBaseObject(proto, classError)
	o._putProp("name", newStringValue(name), true, false, true)
	o._putProp("message", newStringValue(""), true, false, true)
	return o.val
}

func (r *Runtime) addToGlobal(name string, value Value) {
	r.globalObject.self._putProp(name, value, true, false, true)
}

// GlobalObject returns the realm's global object.
func (r *Runtime) GlobalObject() *Object {
	return r.globalObject
}

// Get reads a global by name.
func (r *Runtime) Get(name string) Value {
	return nilSafe(r.globalObject.self.getStr(name, nil))
}

// Set installs a global by name, converting value with ToValue.
func (r *Runtime) Set(name string, value interface{}) {
	r.globalObject.self.setOwnStr(name, r.ToValue(value), true)
}

// Exception wraps a thrown value on its way out to Go.
type Exception struct {
	val Value
}

func (e *Exception) Value() Value {
	return e.val
}

func (e *Exception) Error() string {
	if o, ok := e.val.(*Object); ok {
		name := nilSafe(o.self.getStr("name", nil)).String()
		msg := nilSafe(o.self.getStr("message", nil)).String()
		if msg != "" {
			return name + ": " + msg
		}
		return name
	}
	return e.val.String()
}

// Try runs f and converts a thrown language value into an *Exception
// error. Go panics that are not language values propagate.
func (r *Runtime) Try(f func()) (err error) {
	defer func() {
		if x := recover(); x != nil {
			switch x1 := x.(type) {
			case *Exception:
				err = x1
			case *Object:
				err = &Exception{val: x1}
			case Value:
				err = &Exception{val: x1}
			case typeError:
				err = &Exception{val: r.newError(r.global.TypeErrorPrototype, string(x1))}
			default:
				panic(x)
			}
		}
	}()
	f()
	return nil
}

func (r *Runtime) newError(proto *Object, msg string) *Object {
	o := r.newBaseObject(proto, classError)
	o._putProp("message", newStringValue(msg), true, false, true)
	return o.val
}

// NewTypeError creates (but does not throw) a TypeError object.
func (r *Runtime) NewTypeError(format string, args ...interface{}) *Object {
	return r.newError(r.global.TypeErrorPrototype, fmt.Sprintf(format, args...))
}

// NewRangeError creates (but does not throw) a RangeError object.
func (r *Runtime) NewRangeError(format string, args ...interface{}) *Object {
	return r.newError(r.global.RangeErrorPrototype, fmt.Sprintf(format, args...))
}

// typeErrorResult throws when throw is set, otherwise reports rejection
// to the caller. Every internal method uses this convention.
func (r *Runtime) typeErrorResult(throw bool, format string, args ...interface{}) {
	if throw {
		panic(r.NewTypeError(format, args...))
	}
}

func (r *Runtime) newBaseObject(proto *Object, class string) *baseObject {
	v := &Object{runtime: r}
	o := &baseObject{
		class:      class,
		val:        v,
		extensible: true,
		prototype:  proto,
	}
	v.self = o
	o.init()
	return o
}

// NewObject creates an empty ordinary object.
func (r *Runtime) NewObject() *Object {
	return r.newBaseObject(r.global.ObjectPrototype, classObject).val
}

func (r *Runtime) newPrimitiveObject(value Value, proto *Object, class string) *Object {
	v := &Object{runtime: r}
	o := &primitiveValueObject{}
	o.class = class
	o.val = v
	o.prototype = proto
	o.extensible = true
	v.self = o
	o.init()
	o.pValue = value
	return v
}

// ToValue converts a Go value into a language value.
func (r *Runtime) ToValue(i interface{}) Value {
	switch i := i.(type) {
	case nil:
		return _null
	case Value:
		return i
	case bool:
		if i {
			return valueTrue
		}
		return valueFalse
	case string:
		return newStringValue(i)
	case int:
		return intToValue(int64(i))
	case int32:
		return intToValue(int64(i))
	case int64:
		return intToValue(i)
	case float64:
		return floatToValue(i)
	case func(FunctionCall) Value:
		return r.newNativeFunc(i, "", 0)
	case []Value:
		return r.newArrayValues(i)
	case []interface{}:
		values := make([]Value, len(i))
		for idx, item := range i {
			values[idx] = r.ToValue(item)
		}
		return r.newArrayValues(values)
	}
	panic(typeError(fmt.Sprintf("Could not convert %v (%T) to a value", i, i)))
}

func (r *Runtime) toObject(v Value) *Object {
	if obj, ok := v.(*Object); ok {
		return obj
	}
	panic(r.NewTypeError("Value is not an object: %s", nilSafe(v).String()))
}

func (r *Runtime) toCallable(v Value) func(FunctionCall) Value {
	if obj, ok := v.(*Object); ok {
		if call, ok := obj.self.assertCallable(); ok {
			return call
		}
	}
	panic(r.NewTypeError("Value is not a function: %s", nilSafe(v).String()))
}

func (r *Runtime) toConstructor(v Value) func(args []Value, newTarget *Object) *Object {
	if obj, ok := v.(*Object); ok {
		if ctor := obj.self.assertConstructor(); ctor != nil {
			return ctor
		}
	}
	panic(r.NewTypeError("Value is not a constructor"))
}

// toPropertyKey canonicalizes a value into a string or symbol key.
func toPropertyKey(v Value) Value {
	if s, ok := v.(*valueSymbol); ok {
		return s
	}
	return newStringValue(v.String())
}

func toLength(v Value) int64 {
	if v == nil {
		return 0
	}
	l := v.ToInteger()
	if l < 0 {
		return 0
	}
	return l
}

// createListFromArrayLike reads an array-like object into a slice.
func (r *Runtime) createListFromArrayLike(v Value) []Value {
	obj := r.toObject(v)
	if a, ok := obj.self.(*arrayObject); ok {
		values := make([]Value, len(a.values))
		for i, item := range a.values {
			values[i] = nilSafe(item)
		}
		return values
	}
	l := toLength(obj.self.getStr("length", nil))
	res := make([]Value, 0, l)
	for k := int64(0); k < l; k++ {
		res = append(res, nilSafe(obj.self.get(intToValue(k), nil)))
	}
	return res
}

// toPropertyDescriptor is ToPropertyDescriptor: the object form becomes
// the record form, retaining the object as jsDescriptor.
func (r *Runtime) toPropertyDescriptor(v Value) (ret PropertyDescriptor) {
	obj, ok := v.(*Object)
	if !ok {
		panic(r.NewTypeError("Property description must be an object: %s", nilSafe(v).String()))
	}
	self := obj.self
	if self.hasPropertyStr("enumerable") {
		ret.Enumerable = ToFlag(nilSafe(self.getStr("enumerable", nil)).ToBoolean())
	}
	if self.hasPropertyStr("configurable") {
		ret.Configurable = ToFlag(nilSafe(self.getStr("configurable", nil)).ToBoolean())
	}
	if self.hasPropertyStr("value") {
		ret.Value = nilSafe(self.getStr("value", nil))
	}
	if self.hasPropertyStr("writable") {
		ret.Writable = ToFlag(nilSafe(self.getStr("writable", nil)).ToBoolean())
	}
	if self.hasPropertyStr("get") {
		ret.Getter = nilSafe(self.getStr("get", nil))
		if ret.Getter != _undefined {
			propGetter(ret.Getter, r)
		}
	}
	if self.hasPropertyStr("set") {
		ret.Setter = nilSafe(self.getStr("set", nil))
		if ret.Setter != _undefined {
			propSetter(ret.Setter, r)
		}
	}
	if ret.IsAccessor() && ret.IsData() {
		panic(r.NewTypeError("Invalid property descriptor. Cannot both specify accessors and a value or writable attribute"))
	}
	ret.jsDescriptor = obj
	return
}

// getVStr reads a property off an object the way a trap lookup does: an
// ordinary [[Get]] through the object's own dispatch.
func (r *Runtime) getVStr(o *Object, name string) Value {
	return nilSafe(o.self.getStr(name, nil))
}

// TypeOf implements the typeof operator.
func (r *Runtime) TypeOf(v Value) string {
	switch o := v.(type) {
	case valueUndefined:
		return "undefined"
	case valueNull:
		return "object"
	case valueBool:
		return "boolean"
	case valueInt, valueFloat:
		return "number"
	case valueString:
		return "string"
	case *valueSymbol:
		return "symbol"
	case *Object:
		return o.self.typeOf()
	}
	return "object"
}

// InstanceOf implements the instanceof operator.
func (r *Runtime) InstanceOf(v Value, c *Object) bool {
	return instanceOfOperator(v, c)
}

// Implicit-call discipline.

// SetImplicitCallsDisabled toggles the optimizer safepoint mode: while
// set, trap dispatch declines instead of running user code.
func (r *Runtime) SetImplicitCallsDisabled(disabled bool) {
	r.implicitCallsDisabled = disabled
}

func (r *Runtime) ImplicitCallsDisabled() bool {
	return r.implicitCallsDisabled
}

func (r *Runtime) addImplicitCallFlags(f implicitCallFlags) {
	r.implicitCallFlags |= f
}

// ImplicitCallFlags returns the accumulated mask.
func (r *Runtime) ImplicitCallFlags() uint8 {
	return uint8(r.implicitCallFlags)
}

// ClearImplicitCallFlags resets the mask.
func (r *Runtime) ClearImplicitCallFlags() {
	r.implicitCallFlags = implicitCallNone
}

// HasImplicitCallExternal reports whether an operation was declined
// because implicit calls were disabled; the caller should retry on the
// unoptimized path.
func (r *Runtime) HasImplicitCallExternal() bool {
	return r.implicitCallFlags&implicitCallExternal != 0
}

// SetHeapEnumInProgress marks a heap enumeration: proxies forward
// getOwnPropertyDescriptor/get/has straight to their targets so the
// snapshotter never runs user code.
func (r *Runtime) SetHeapEnumInProgress(b bool) {
	r.heapEnumInProgress = b
}

func (r *Runtime) marshal(v Value) Value {
	if r.marshaller != nil {
		return r.marshaller(v)
	}
	return v
}

// getStrCached is [[Get]] with own-property caching. Entries are keyed
// by object identity and validated against the object's mutation
// generation; proxies and from-proxy descriptors are never cached.
func (r *Runtime) getStrCached(o *Object, name string) Value {
	gen, cacheable := o.self.cacheGen()
	if !cacheable {
		return nilSafe(o.self.getStr(name, nil))
	}
	key := propCacheKey{obj: o, name: name}
	if e, hit := r.propCache[key]; hit && e.gen == gen {
		if prop, ok := e.prop.(*valueProperty); ok {
			return prop.get(o)
		}
		return e.prop
	}
	if prop := o.self.getOwnPropStr(name); prop != nil {
		if vp, ok := prop.(*valueProperty); ok {
			if !vp.fromProxy {
				r.propCache[key] = propCacheEntry{gen: gen, prop: prop}
			}
			return vp.get(o)
		}
		r.propCache[key] = propCacheEntry{gen: gen, prop: prop}
		return prop
	}
	return nilSafe(o.self.getStr(name, nil))
}

func (r *Runtime) cacheSize() int {
	return len(r.propCache)
}

// ForIn collects the for-in keys of o: own and inherited enumerable
// string keys, deduplicated, in enumeration order. On a proxy the key
// set derives from the ownKeys dispatch filtered per key through
// getOwnPropertyDescriptor.
func (r *Runtime) ForIn(o *Object) (keys []string) {
	iter := o.self.enumerate()
	for {
		item, next := iter()
		if next == nil {
			return
		}
		keys = append(keys, item.name)
		iter = next
	}
}
