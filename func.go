package koto

// maxCallArgs caps the argument list of any trap-driven call or
// construct; longer lists raise a RangeError.
const maxCallArgs = 65535

// nativeFuncObject is a function object backed by Go code. construct is
// nil for non-constructors.
type nativeFuncObject struct {
	baseObject
	f         func(FunctionCall) Value
	construct func(args []Value, newTarget *Object) *Object
}

func (f *nativeFuncObject) typeOf() string {
	return "function"
}

func (f *nativeFuncObject) assertCallable() (func(FunctionCall) Value, bool) {
	if f.f != nil {
		return f.f, true
	}
	return nil, false
}

func (f *nativeFuncObject) assertConstructor() func(args []Value, newTarget *Object) *Object {
	return f.construct
}

func (f *nativeFuncObject) hasInstance(v Value) bool {
	return ordinaryHasInstance(f.val, v)
}

// ordinaryHasInstance walks the prototype chain of v looking for the
// constructor's "prototype" object.
func ordinaryHasInstance(c *Object, v Value) bool {
	o, ok := v.(*Object)
	if !ok {
		return false
	}
	proto, ok := c.self.getStr("prototype", nil).(*Object)
	if !ok {
		panic(c.runtime.NewTypeError("Function has non-object prototype in instanceof check"))
	}
	for {
		o = o.self.proto()
		if o == nil {
			return false
		}
		if o == proto {
			return true
		}
	}
}

func (f *nativeFuncObject) export() interface{} {
	return f.f
}

func (r *Runtime) newNativeFuncObj(v *Object, call func(FunctionCall) Value, construct func(args []Value, newTarget *Object) *Object, name string, proto *Object, length int) *nativeFuncObject {
	f := &nativeFuncObject{
		baseObject: baseObject{
			class:      classFunction,
			val:        v,
			extensible: true,
			prototype:  r.global.FunctionPrototype,
		},
		f:         call,
		construct: construct,
	}
	v.self = f
	f.init()
	f._putProp("name", newStringValue(name), false, false, true)
	f._putProp("length", intToValue(int64(length)), false, false, true)
	if proto != nil {
		f._putProp("prototype", proto, false, false, false)
	}
	return f
}

func (r *Runtime) newNativeFunc(call func(FunctionCall) Value, name string, length int) *Object {
	v := &Object{runtime: r}
	r.newNativeFuncObj(v, call, nil, name, nil, length)
	return v
}

func (r *Runtime) newNativeFuncConstruct(call func(FunctionCall) Value, construct func(args []Value, newTarget *Object) *Object, name string, proto *Object, length int) *Object {
	v := &Object{runtime: r}
	r.newNativeFuncObj(v, call, construct, name, proto, length)
	return v
}

// newObjectFromCtor allocates the `this` for a construct call before the
// constructor body runs: prototype comes from the constructor's
// "prototype" property when it is an object.
func (r *Runtime) newObjectFromCtor(ctor *Object) *Object {
	proto := r.global.ObjectPrototype
	if p, ok := ctor.self.getStr("prototype", nil).(*Object); ok {
		proto = p
	}
	obj := r.NewObject()
	obj.self.(*baseObject).prototype = proto
	return obj
}

// defaultConstruct drives a construct operation on a callable that has
// no construct behavior of its own: synthesize this, call, and keep the
// synthesized object unless the call returned one.
func (r *Runtime) defaultConstruct(f func(FunctionCall) Value, ctor *Object, args []Value) *Object {
	obj := r.newObjectFromCtor(ctor)
	ret := f(FunctionCall{This: obj, Arguments: args})
	if robj, ok := ret.(*Object); ok {
		return robj
	}
	return obj
}
