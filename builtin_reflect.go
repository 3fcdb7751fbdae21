package koto

func (r *Runtime) builtin_reflect_apply(call FunctionCall) Value {
	return r.toCallable(call.Argument(0))(FunctionCall{
		This:      call.Argument(1),
		Arguments: r.createListFromArrayLike(call.Argument(2))})
}

func (r *Runtime) builtin_reflect_construct(call FunctionCall) Value {
	target := call.Argument(0)
	ctor := r.toConstructor(target)
	var newTarget *Object
	if len(call.Arguments) > 2 {
		newTarget = r.toObject(call.Argument(2))
		r.toConstructor(newTarget)
	}
	return ctor(r.createListFromArrayLike(call.Argument(1)), newTarget)
}

func (r *Runtime) builtin_reflect_defineProperty(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	descr := r.toPropertyDescriptor(call.Argument(2))
	return r.ToValue(target.self.defineOwnProperty(toPropertyKey(call.Argument(1)), descr, false))
}

func (r *Runtime) builtin_reflect_deleteProperty(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	return r.ToValue(target.self.delete(toPropertyKey(call.Argument(1)), false))
}

func (r *Runtime) builtin_reflect_get(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	var receiver Value
	if len(call.Arguments) > 2 {
		receiver = call.Argument(2)
	}
	return nilSafe(target.self.get(toPropertyKey(call.Argument(1)), receiver))
}

func (r *Runtime) builtin_reflect_getOwnPropertyDescriptor(call FunctionCall) Value {
	return r.builtin_object_getOwnPropertyDescriptor(call)
}

func (r *Runtime) builtin_reflect_getPrototypeOf(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	if proto := target.self.proto(); proto != nil {
		return proto
	}
	return _null
}

func (r *Runtime) builtin_reflect_has(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	return r.ToValue(target.self.hasProperty(toPropertyKey(call.Argument(1))))
}

func (r *Runtime) builtin_reflect_isExtensible(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	return r.ToValue(target.self.isExtensible())
}

func (r *Runtime) builtin_reflect_ownKeys(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	return r.newArrayValues(target.self.ownPropertyKeys(true, nil))
}

func (r *Runtime) builtin_reflect_preventExtensions(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	return r.ToValue(target.self.preventExtensions(false))
}

func (r *Runtime) builtin_reflect_set(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	receiver := Value(target)
	if len(call.Arguments) > 3 {
		receiver = call.Argument(3)
	}
	return r.ToValue(r.setWithResult(target, toPropertyKey(call.Argument(1)), call.Argument(2), receiver))
}

func (r *Runtime) builtin_reflect_setPrototypeOf(call FunctionCall) Value {
	target := r.toObject(call.Argument(0))
	var proto *Object
	switch arg := call.Argument(1).(type) {
	case valueNull:
		proto = nil
	case *Object:
		proto = arg
	default:
		panic(r.NewTypeError("Object prototype may only be an Object or null: %s", arg))
	}
	return r.ToValue(target.self.setProto(proto, false))
}

// setWithResult is OrdinarySet with a boolean outcome, as Reflect.set
// observes it: trap and attribute rejections report false, invariant
// violations and user exceptions still throw.
func (r *Runtime) setWithResult(o *Object, name Value, val, receiver Value) bool {
	if p, ok := o.self.(*proxyObject); ok {
		res, st := p.proxySet(proxyProp(name), val, nilSafe(receiver))
		switch st {
		case trapDeclined:
			return false
		case trapInvoked:
			return res
		}
		return r.setWithResult(p.checkTarget(proxy_trap_set), name, val, receiver)
	}
	prop := o.self.getOwnProp(name)
	if prop == nil {
		if proto := o.self.proto(); proto != nil {
			return r.setWithResult(proto, name, val, receiver)
		}
	}
	if vp, ok := prop.(*valueProperty); ok {
		if vp.accessor {
			if vp.setterFunc == nil {
				return false
			}
			vp.set(receiver, val)
			return true
		}
		if !vp.writable {
			return false
		}
	}
	robj, ok := receiver.(*Object)
	if !ok {
		return false
	}
	existing := robj.self.getOwnProp(name)
	if evp, ok := existing.(*valueProperty); ok {
		if evp.accessor || !evp.writable {
			return false
		}
	}
	if existing != nil {
		return robj.self.defineOwnProperty(name, PropertyDescriptor{Value: val}, false)
	}
	return robj.self.defineOwnProperty(name, PropertyDescriptor{
		Value:        val,
		Writable:     FLAG_TRUE,
		Configurable: FLAG_TRUE,
		Enumerable:   FLAG_TRUE,
	}, false)
}

func (r *Runtime) initReflect() {
	o := r.newBaseObject(r.global.ObjectPrototype, classObject)

	o._putProp("apply", r.newNativeFunc(r.builtin_reflect_apply, "apply", 3), true, false, true)
	o._putProp("construct", r.newNativeFunc(r.builtin_reflect_construct, "construct", 2), true, false, true)
	o._putProp("defineProperty", r.newNativeFunc(r.builtin_reflect_defineProperty, "defineProperty", 3), true, false, true)
	o._putProp("deleteProperty", r.newNativeFunc(r.builtin_reflect_deleteProperty, "deleteProperty", 2), true, false, true)
	o._putProp("get", r.newNativeFunc(r.builtin_reflect_get, "get", 2), true, false, true)
	o._putProp("getOwnPropertyDescriptor", r.newNativeFunc(r.builtin_reflect_getOwnPropertyDescriptor, "getOwnPropertyDescriptor", 2), true, false, true)
	o._putProp("getPrototypeOf", r.newNativeFunc(r.builtin_reflect_getPrototypeOf, "getPrototypeOf", 1), true, false, true)
	o._putProp("has", r.newNativeFunc(r.builtin_reflect_has, "has", 2), true, false, true)
	o._putProp("isExtensible", r.newNativeFunc(r.builtin_reflect_isExtensible, "isExtensible", 1), true, false, true)
	o._putProp("ownKeys", r.newNativeFunc(r.builtin_reflect_ownKeys, "ownKeys", 1), true, false, true)
	o._putProp("preventExtensions", r.newNativeFunc(r.builtin_reflect_preventExtensions, "preventExtensions", 1), true, false, true)
	o._putProp("set", r.newNativeFunc(r.builtin_reflect_set, "set", 3), true, false, true)
	o._putProp("setPrototypeOf", r.newNativeFunc(r.builtin_reflect_setPrototypeOf, "setPrototypeOf", 2), true, false, true)

	r.global.Reflect = o.val
	r.addToGlobal("Reflect", o.val)
}
