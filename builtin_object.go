package koto

type integrityLevel int

const (
	integritySealed integrityLevel = iota
	integrityFrozen
)

// setObjectIntegrityLevel is SetIntegrityLevel: prevent extensions, then
// clamp every own property. On a proxy every step runs through the trap
// dispatchers.
func (r *Runtime) setObjectIntegrityLevel(o *Object, level integrityLevel, throw bool) bool {
	if !o.self.preventExtensions(false) {
		r.typeErrorResult(throw, "Cannot prevent extensions of %s", o)
		return false
	}
	for _, key := range o.self.ownPropertyKeys(true, nil) {
		if level == integritySealed {
			o.self.defineOwnProperty(key, PropertyDescriptor{Configurable: FLAG_FALSE}, true)
			continue
		}
		prop := o.self.getOwnProp(key)
		if prop == nil {
			continue
		}
		desc := PropertyDescriptor{Configurable: FLAG_FALSE}
		if vp, ok := prop.(*valueProperty); !ok || !vp.accessor {
			desc.Writable = FLAG_FALSE
		}
		o.self.defineOwnProperty(key, desc, true)
	}
	return true
}

// testObjectIntegrityLevel is TestIntegrityLevel.
func (r *Runtime) testObjectIntegrityLevel(o *Object, level integrityLevel) bool {
	if o.self.isExtensible() {
		return false
	}
	for _, key := range o.self.ownPropertyKeys(true, nil) {
		prop := o.self.getOwnProp(key)
		if prop == nil {
			continue
		}
		vp, ok := prop.(*valueProperty)
		if !ok {
			// default data property: writable and configurable
			return false
		}
		if vp.configurable {
			return false
		}
		if level == integrityFrozen && !vp.accessor && vp.writable {
			return false
		}
	}
	return true
}

// propToDescriptor converts the stored form of an own property back to
// the record form.
func propToDescriptor(prop Value) PropertyDescriptor {
	if vp, ok := prop.(*valueProperty); ok {
		if vp.accessor {
			d := PropertyDescriptor{
				Getter:       Value(_undefined),
				Setter:       Value(_undefined),
				Enumerable:   ToFlag(vp.enumerable),
				Configurable: ToFlag(vp.configurable),
			}
			if vp.getterFunc != nil {
				d.Getter = vp.getterFunc
			}
			if vp.setterFunc != nil {
				d.Setter = vp.setterFunc
			}
			return d
		}
		return PropertyDescriptor{
			Value:        nilSafe(vp.value),
			Writable:     ToFlag(vp.writable),
			Enumerable:   ToFlag(vp.enumerable),
			Configurable: ToFlag(vp.configurable),
		}
	}
	return PropertyDescriptor{
		Value:        prop,
		Writable:     FLAG_TRUE,
		Enumerable:   FLAG_TRUE,
		Configurable: FLAG_TRUE,
	}
}

func (r *Runtime) builtin_object_getOwnPropertyDescriptor(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	prop := obj.self.getOwnProp(toPropertyKey(call.Argument(1)))
	if prop == nil {
		return _undefined
	}
	desc := propToDescriptor(prop)
	return desc.toValue(r)
}

func (r *Runtime) builtin_object_getOwnPropertyNames(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	return r.newArrayValues(obj.self.ownKeys(true, nil))
}

func (r *Runtime) builtin_object_getOwnPropertySymbols(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	return r.newArrayValues(obj.self.ownSymbols())
}

func (r *Runtime) builtin_object_keys(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	return r.newArrayValues(obj.self.ownKeys(false, nil))
}

func (r *Runtime) builtin_object_defineProperty(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	descr := r.toPropertyDescriptor(call.Argument(2))
	obj.self.defineOwnProperty(toPropertyKey(call.Argument(1)), descr, true)
	return obj
}

func (r *Runtime) builtin_object_getPrototypeOf(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	if proto := obj.self.proto(); proto != nil {
		return proto
	}
	return _null
}

func (r *Runtime) builtin_object_setPrototypeOf(call FunctionCall) Value {
	obj := r.toObject(call.Argument(0))
	proto := call.Argument(1)
	switch proto := proto.(type) {
	case valueNull:
		obj.self.setProto(nil, true)
	case *Object:
		obj.self.setProto(proto, true)
	default:
		panic(r.NewTypeError("Object prototype may only be an Object or null: %s", proto))
	}
	return obj
}

func (r *Runtime) builtin_object_preventExtensions(call FunctionCall) Value {
	obj, ok := call.Argument(0).(*Object)
	if !ok {
		return call.Argument(0)
	}
	obj.self.preventExtensions(true)
	return obj
}

func (r *Runtime) builtin_object_isExtensible(call FunctionCall) Value {
	obj, ok := call.Argument(0).(*Object)
	if !ok {
		return valueFalse
	}
	return r.ToValue(obj.self.isExtensible())
}

func (r *Runtime) builtin_object_seal(call FunctionCall) Value {
	obj, ok := call.Argument(0).(*Object)
	if !ok {
		return call.Argument(0)
	}
	if !r.setObjectIntegrityLevel(obj, integritySealed, false) {
		panic(r.NewTypeError("Cannot seal %s", obj))
	}
	return obj
}

func (r *Runtime) builtin_object_freeze(call FunctionCall) Value {
	obj, ok := call.Argument(0).(*Object)
	if !ok {
		return call.Argument(0)
	}
	if !r.setObjectIntegrityLevel(obj, integrityFrozen, false) {
		panic(r.NewTypeError("Cannot freeze %s", obj))
	}
	return obj
}

func (r *Runtime) builtin_object_isSealed(call FunctionCall) Value {
	obj, ok := call.Argument(0).(*Object)
	if !ok {
		return valueTrue
	}
	return r.ToValue(r.testObjectIntegrityLevel(obj, integritySealed))
}

func (r *Runtime) builtin_object_isFrozen(call FunctionCall) Value {
	obj, ok := call.Argument(0).(*Object)
	if !ok {
		return valueTrue
	}
	return r.ToValue(r.testObjectIntegrityLevel(obj, integrityFrozen))
}

func (r *Runtime) builtin_Object(call FunctionCall) Value {
	arg := call.Argument(0)
	if arg == _undefined || arg == _null {
		return r.NewObject()
	}
	return arg.ToObject(r)
}

func (r *Runtime) initObject() {
	o := r.newNativeFuncConstruct(r.builtin_Object, func(args []Value, newTarget *Object) *Object {
		if len(args) > 0 {
			if obj, ok := args[0].(*Object); ok {
				return obj
			}
		}
		return r.NewObject()
	}, "Object", r.global.ObjectPrototype, 1)
	r.global.Object = o

	s := o.self
	s._putProp("getOwnPropertyDescriptor", r.newNativeFunc(r.builtin_object_getOwnPropertyDescriptor, "getOwnPropertyDescriptor", 2), true, false, true)
	s._putProp("getOwnPropertyNames", r.newNativeFunc(r.builtin_object_getOwnPropertyNames, "getOwnPropertyNames", 1), true, false, true)
	s._putProp("getOwnPropertySymbols", r.newNativeFunc(r.builtin_object_getOwnPropertySymbols, "getOwnPropertySymbols", 1), true, false, true)
	s._putProp("keys", r.newNativeFunc(r.builtin_object_keys, "keys", 1), true, false, true)
	s._putProp("defineProperty", r.newNativeFunc(r.builtin_object_defineProperty, "defineProperty", 3), true, false, true)
	s._putProp("getPrototypeOf", r.newNativeFunc(r.builtin_object_getPrototypeOf, "getPrototypeOf", 1), true, false, true)
	s._putProp("setPrototypeOf", r.newNativeFunc(r.builtin_object_setPrototypeOf, "setPrototypeOf", 2), true, false, true)
	s._putProp("preventExtensions", r.newNativeFunc(r.builtin_object_preventExtensions, "preventExtensions", 1), true, false, true)
	s._putProp("isExtensible", r.newNativeFunc(r.builtin_object_isExtensible, "isExtensible", 1), true, false, true)
	s._putProp("seal", r.newNativeFunc(r.builtin_object_seal, "seal", 1), true, false, true)
	s._putProp("freeze", r.newNativeFunc(r.builtin_object_freeze, "freeze", 1), true, false, true)
	s._putProp("isSealed", r.newNativeFunc(r.builtin_object_isSealed, "isSealed", 1), true, false, true)
	s._putProp("isFrozen", r.newNativeFunc(r.builtin_object_isFrozen, "isFrozen", 1), true, false, true)

	r.addToGlobal("Object", o)
}

// Seal, Freeze, IsSealed and IsFrozen expose the integrity protocol to
// Go hosts.
func (r *Runtime) Seal(o *Object) error {
	return r.Try(func() {
		r.setObjectIntegrityLevel(o, integritySealed, true)
	})
}

func (r *Runtime) Freeze(o *Object) error {
	return r.Try(func() {
		r.setObjectIntegrityLevel(o, integrityFrozen, true)
	})
}

func (r *Runtime) IsSealed(o *Object) bool {
	return r.testObjectIntegrityLevel(o, integritySealed)
}

func (r *Runtime) IsFrozen(o *Object) bool {
	return r.testObjectIntegrityLevel(o, integrityFrozen)
}
