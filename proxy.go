package koto

// Proxy is the host handle to a proxy created with a native trap
// configuration.
type Proxy struct {
	proxy *proxyObject
}

// Revoke severs the proxy from its target and handler. Idempotent.
func (p Proxy) Revoke() {
	p.proxy.revoke()
}

// NewProxy creates a proxy around target whose traps are implemented by
// Go functions.
func (r *Runtime) NewProxy(target *Object, nativeHandler *ProxyTrapConfig) Proxy {
	handler := r.newNativeProxyHandler(nativeHandler)
	return Proxy{proxy: r.newProxyObject(target, handler)}
}

// NewProxyObject creates a proxy around target with a handler object,
// the `new Proxy(target, handler)` equivalent for hosts.
func (r *Runtime) NewProxyObject(target, handler *Object) *Object {
	return r.newProxyObject(target, handler).val
}

// ProxyTrapConfig is the native handler: each non-nil field becomes the
// correspondingly named trap.
type ProxyTrapConfig struct {
	// A trap for Object.getPrototypeOf, Reflect.getPrototypeOf, instanceof
	GetPrototypeOf func(target *Object) (prototype *Object)

	// A trap for Object.setPrototypeOf, Reflect.setPrototypeOf
	SetPrototypeOf func(target *Object, prototype *Object) (success bool)

	// A trap for Object.isExtensible, Reflect.isExtensible
	IsExtensible func(target *Object) (success bool)

	// A trap for Object.preventExtensions, Reflect.preventExtensions
	PreventExtensions func(target *Object) (success bool)

	// A trap for Object.getOwnPropertyDescriptor, Reflect.getOwnPropertyDescriptor
	GetOwnPropertyDescriptor func(target *Object, prop string) (propertyDescriptor PropertyDescriptor)

	// A trap for Object.defineProperty, Reflect.defineProperty
	DefineProperty func(target *Object, key string, propertyDescriptor PropertyDescriptor) (success bool)

	// A trap for the in operator, Reflect.has
	Has func(target *Object, property string) (available bool)

	// A trap for getting property values, Reflect.get
	Get func(target *Object, property string, receiver Value) (value Value)

	// A trap for setting property values, Reflect.set
	Set func(target *Object, property string, value Value, receiver Value) (success bool)

	// A trap for the delete operator, Reflect.deleteProperty
	DeleteProperty func(target *Object, property string) (success bool)

	// A trap for Object.getOwnPropertyNames, Object.keys, Reflect.ownKeys
	OwnKeys func(target *Object) (object *Object)

	// A trap for a function call, Reflect.apply
	Apply func(target *Object, this Value, argumentsList []Value) (value Value)

	// A trap for the new operator, Reflect.construct
	Construct func(target *Object, argumentsList []Value, newTarget *Object) (value *Object)
}

func (r *Runtime) newNativeProxyHandler(nativeHandler *ProxyTrapConfig) *Object {
	handler := r.NewObject()
	r.proxyproto_nativehandler_getPrototypeOf(nativeHandler.GetPrototypeOf, handler)
	r.proxyproto_nativehandler_setPrototypeOf(nativeHandler.SetPrototypeOf, handler)
	r.proxyproto_nativehandler_isExtensible(nativeHandler.IsExtensible, handler)
	r.proxyproto_nativehandler_preventExtensions(nativeHandler.PreventExtensions, handler)
	r.proxyproto_nativehandler_getOwnPropertyDescriptor(nativeHandler.GetOwnPropertyDescriptor, handler)
	r.proxyproto_nativehandler_defineProperty(nativeHandler.DefineProperty, handler)
	r.proxyproto_nativehandler_has(nativeHandler.Has, handler)
	r.proxyproto_nativehandler_get(nativeHandler.Get, handler)
	r.proxyproto_nativehandler_set(nativeHandler.Set, handler)
	r.proxyproto_nativehandler_deleteProperty(nativeHandler.DeleteProperty, handler)
	r.proxyproto_nativehandler_ownKeys(nativeHandler.OwnKeys, handler)
	r.proxyproto_nativehandler_apply(nativeHandler.Apply, handler)
	r.proxyproto_nativehandler_construct(nativeHandler.Construct, handler)
	return handler
}

func (r *Runtime) proxyHandlerArgErr(trap, expect string) {
	panic(r.NewTypeError("%s needs to be called with %s", trap, expect))
}

func (r *Runtime) proxyproto_nativehandler_getPrototypeOf(native func(*Object) *Object, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("getPrototypeOf", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if proto := native(t); proto != nil {
				return proto
			}
			return _null
		}
		r.proxyHandlerArgErr("getPrototypeOf", "target as Object")
		return nil
	}, "[native getPrototypeOf]", 1), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_setPrototypeOf(native func(*Object, *Object) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("setPrototypeOf", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			var proto *Object
			if p, ok := call.Argument(1).(*Object); ok {
				proto = p
			} else if call.Argument(1) != _null {
				r.proxyHandlerArgErr("setPrototypeOf", "prototype as Object or null")
			}
			return r.ToValue(native(t, proto))
		}
		r.proxyHandlerArgErr("setPrototypeOf", "target as Object")
		return nil
	}, "[native setPrototypeOf]", 2), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_isExtensible(native func(*Object) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("isExtensible", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			return r.ToValue(native(t))
		}
		r.proxyHandlerArgErr("isExtensible", "target as Object")
		return nil
	}, "[native isExtensible]", 1), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_preventExtensions(native func(*Object) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("preventExtensions", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			return r.ToValue(native(t))
		}
		r.proxyHandlerArgErr("preventExtensions", "target as Object")
		return nil
	}, "[native preventExtensions]", 1), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_getOwnPropertyDescriptor(native func(*Object, string) PropertyDescriptor, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("getOwnPropertyDescriptor", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if p, ok := assertString(call.Argument(1)); ok {
				desc := native(t, p.String())
				if desc.Empty() {
					return _undefined
				}
				return desc.toValue(r)
			}
		}
		r.proxyHandlerArgErr("getOwnPropertyDescriptor", "target as Object and prop as string")
		return nil
	}, "[native getOwnPropertyDescriptor]", 2), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_defineProperty(native func(*Object, string, PropertyDescriptor) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("defineProperty", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if k, ok := assertString(call.Argument(1)); ok {
				return r.ToValue(native(t, k.String(), r.toPropertyDescriptor(call.Argument(2))))
			}
		}
		r.proxyHandlerArgErr("defineProperty", "target as Object, key as string and descriptor as object")
		return nil
	}, "[native defineProperty]", 3), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_has(native func(*Object, string) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("has", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if p, ok := assertString(call.Argument(1)); ok {
				return r.ToValue(native(t, p.String()))
			}
		}
		r.proxyHandlerArgErr("has", "target as Object and property as string")
		return nil
	}, "[native has]", 2), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_get(native func(*Object, string, Value) Value, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("get", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if p, ok := assertString(call.Argument(1)); ok {
				return nilSafe(native(t, p.String(), call.Argument(2)))
			}
		}
		r.proxyHandlerArgErr("get", "target as Object and property as string")
		return nil
	}, "[native get]", 3), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_set(native func(*Object, string, Value, Value) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("set", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if p, ok := assertString(call.Argument(1)); ok {
				return r.ToValue(native(t, p.String(), call.Argument(2), call.Argument(3)))
			}
		}
		r.proxyHandlerArgErr("set", "target as Object, property as string and a value")
		return nil
	}, "[native set]", 4), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_deleteProperty(native func(*Object, string) bool, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("deleteProperty", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if p, ok := assertString(call.Argument(1)); ok {
				return r.ToValue(native(t, p.String()))
			}
		}
		r.proxyHandlerArgErr("deleteProperty", "target as Object and property as string")
		return nil
	}, "[native deleteProperty]", 2), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_ownKeys(native func(*Object) *Object, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("ownKeys", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			return native(t)
		}
		r.proxyHandlerArgErr("ownKeys", "target as Object")
		return nil
	}, "[native ownKeys]", 1), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_apply(native func(*Object, Value, []Value) Value, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("apply", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if v, ok := call.Argument(2).(*Object); ok {
				if a, ok := v.self.(*arrayObject); ok {
					return nilSafe(native(t, call.Argument(1), a.values))
				}
			}
		}
		r.proxyHandlerArgErr("apply", "target as Object and argumentsList as an array")
		return nil
	}, "[native apply]", 3), true, true, true)
}

func (r *Runtime) proxyproto_nativehandler_construct(native func(*Object, []Value, *Object) *Object, handler *Object) {
	if native == nil {
		return
	}
	handler.self._putProp("construct", r.newNativeFunc(func(call FunctionCall) Value {
		if t, ok := call.Argument(0).(*Object); ok {
			if v, ok := call.Argument(1).(*Object); ok {
				if newTarget, ok := call.Argument(2).(*Object); ok {
					if a, ok := v.self.(*arrayObject); ok {
						return native(t, a.values, newTarget)
					}
				}
			}
		}
		r.proxyHandlerArgErr("construct", "target and newTarget as Object and argumentsList as an array")
		return nil
	}, "[native construct]", 3), true, true, true)
}

type proxyTrap string

const (
	proxy_trap_getPrototypeOf           proxyTrap = "getPrototypeOf"
	proxy_trap_setPrototypeOf           proxyTrap = "setPrototypeOf"
	proxy_trap_isExtensible             proxyTrap = "isExtensible"
	proxy_trap_preventExtensions        proxyTrap = "preventExtensions"
	proxy_trap_getOwnPropertyDescriptor proxyTrap = "getOwnPropertyDescriptor"
	proxy_trap_defineProperty           proxyTrap = "defineProperty"
	proxy_trap_has                      proxyTrap = "has"
	proxy_trap_get                      proxyTrap = "get"
	proxy_trap_set                      proxyTrap = "set"
	proxy_trap_deleteProperty           proxyTrap = "deleteProperty"
	proxy_trap_ownKeys                  proxyTrap = "ownKeys"
	proxy_trap_apply                    proxyTrap = "apply"
	proxy_trap_construct                proxyTrap = "construct"
)

func (p proxyTrap) String() string {
	return string(p)
}

// trapStatus is the outcome of resolving a trap: missing (forward to
// target), invoked, or declined because implicit calls are disabled.
type trapStatus int

const (
	trapMissing trapStatus = iota
	trapInvoked
	trapDeclined
)

// proxyObject is the Proxy exotic object. target and handler are both
// non-nil until revocation and both nil after; callable is frozen at
// construction time.
type proxyObject struct {
	baseObject
	target   *Object
	handler  *Object
	callable bool
}

func (r *Runtime) newProxyObject(target, handler *Object) *proxyObject {
	if target == nil || handler == nil {
		panic(r.NewTypeError("Cannot create proxy with a non-object as target or handler"))
	}
	if pt, ok := target.self.(*proxyObject); ok && pt.target == nil {
		panic(r.NewTypeError("Cannot create proxy with a revoked proxy as target"))
	}
	if ph, ok := handler.self.(*proxyObject); ok && ph.target == nil {
		panic(r.NewTypeError("Cannot create proxy with a revoked proxy as handler"))
	}
	v := &Object{runtime: r}
	p := &proxyObject{}
	v.self = p
	p.val = v
	p.class = classProxy
	p.extensible = false
	p.init()
	p.target = target
	p.handler = handler
	if _, ok := target.self.assertCallable(); ok {
		p.callable = true
	}
	return p
}

func (p *proxyObject) revoke() {
	if p.target == nil {
		return
	}
	if h := p.val.runtime.hook; h != nil {
		h.OnRevoke(p.val.runtime, p.val)
	}
	p.handler = nil
	p.target = nil
}

// cacheGen: a proxy never allows property caching; both the target and
// the handler can change underneath any cached shape.
func (p *proxyObject) cacheGen() (uint64, bool) {
	return 0, false
}

// proxyCall resolves and invokes a trap. Revocation is re-checked on
// every resolution; the resolved callable is marshalled into the current
// realm; the implicit-call gate declines before the trap is invoked; the
// accessor implicit-call bit is folded into the saved mask after the
// trap returns.
func (p *proxyObject) proxyCall(trap proxyTrap, args ...Value) (Value, trapStatus) {
	r := p.val.runtime
	if p.handler == nil || p.target == nil {
		panic(r.NewTypeError("Cannot perform '%s' on a proxy that has been revoked", trap))
	}

	tv := r.getVStr(p.handler, trap.String())
	if tv == nil || IsUndefined(tv) || IsNull(tv) {
		return nil, trapMissing
	}
	var m func(FunctionCall) Value
	if obj, ok := r.marshal(tv).(*Object); ok {
		m, _ = obj.self.assertCallable()
	}
	if m == nil {
		panic(r.NewTypeError("'%s' trap must be a function: %s", trap, tv.String()))
	}

	if r.implicitCallsDisabled {
		r.addImplicitCallFlags(implicitCallExternal)
		return nil, trapDeclined
	}

	if h := r.hook; h != nil {
		h.OnTrapEnter(r, p.val, trap.String(), args)
	}
	saved := r.implicitCallFlags
	v := r.marshal(m(FunctionCall{This: p.handler, Arguments: args}))
	r.implicitCallFlags = saved | implicitCallAccessor
	if h := r.hook; h != nil {
		h.OnTrapExit(r, p.val, trap.String(), v)
	}
	return v, trapInvoked
}

// checkTarget returns the proxy's current target, raising the revoked
// error once the proxy has been revoked. The dispatchers validate a trap
// result against the target they read before invoking the trap, so a
// trap that revokes its own proxy still completes; the revocation
// surfaces on the next trap resolution.
func (p *proxyObject) checkTarget(trap proxyTrap) *Object {
	if t := p.target; t != nil {
		return t
	}
	panic(p.val.runtime.NewTypeError("Cannot perform '%s' on a proxy that has been revoked", trap))
}

func propToValueProp(v Value) *valueProperty {
	if v == nil {
		return nil
	}
	if v, ok := v.(*valueProperty); ok {
		return v
	}
	return &valueProperty{
		value:        v,
		writable:     true,
		configurable: true,
		enumerable:   true,
	}
}

func (p *proxyObject) className() string {
	if p.target == nil {
		panic(p.val.runtime.NewTypeError("proxy has been revoked"))
	}
	if p.callable {
		return classFunction
	}
	return classObject
}

func (p *proxyObject) typeOf() string {
	if p.target == nil {
		return "object"
	}
	if p.callable {
		return "function"
	}
	return "object"
}

func (p *proxyObject) proto() *Object {
	target := p.target
	v, st := p.proxyCall(proxy_trap_getPrototypeOf, target)
	switch st {
	case trapDeclined:
		return nil
	case trapInvoked:
		var handlerProto *Object
		if v != _null {
			obj, ok := v.(*Object)
			if !ok {
				panic(p.val.runtime.NewTypeError("'getPrototypeOf' on proxy: trap returned neither object nor null"))
			}
			handlerProto = obj
		}
		if !target.self.isExtensible() && handlerProto != target.self.proto() {
			panic(p.val.runtime.NewTypeError("'getPrototypeOf' on proxy: proxy target is non-extensible but the trap did not return its actual prototype"))
		}
		return handlerProto
	}
	return target.self.proto()
}

func (p *proxyObject) setProto(proto *Object, throw bool) bool {
	target := p.target
	v, st := p.proxyCall(proxy_trap_setPrototypeOf, target, protoOrNull(proto))
	switch st {
	case trapDeclined:
		return false
	case trapInvoked:
		if v.ToBoolean() {
			if !target.self.isExtensible() && proto != target.self.proto() {
				panic(p.val.runtime.NewTypeError("'setPrototypeOf' on proxy: trap returned truish for setting a new prototype on the non-extensible proxy target"))
			}
			return true
		}
		p.val.runtime.typeErrorResult(throw, "'setPrototypeOf' on proxy: trap returned falsish")
		return false
	}
	return target.self.setProto(proto, throw)
}

func protoOrNull(proto *Object) Value {
	if proto == nil {
		return _null
	}
	return proto
}

func (p *proxyObject) isExtensible() bool {
	target := p.target
	v, st := p.proxyCall(proxy_trap_isExtensible, target)
	switch st {
	case trapDeclined:
		return false
	case trapInvoked:
		booleanTrapResult := v.ToBoolean()
		if te := target.self.isExtensible(); booleanTrapResult != te {
			panic(p.val.runtime.NewTypeError("'isExtensible' on proxy: trap result does not reflect extensibility of proxy target (which is '%v')", te))
		}
		return booleanTrapResult
	}
	return target.self.isExtensible()
}

func (p *proxyObject) preventExtensions(throw bool) bool {
	target := p.target
	v, st := p.proxyCall(proxy_trap_preventExtensions, target)
	switch st {
	case trapDeclined:
		return false
	case trapInvoked:
		if !v.ToBoolean() {
			p.val.runtime.typeErrorResult(throw, "'preventExtensions' on proxy: trap returned falsish")
			return false
		}
		if target.self.isExtensible() {
			panic(p.val.runtime.NewTypeError("'preventExtensions' on proxy: trap returned truish but the proxy target is extensible"))
		}
		return true
	}
	return target.self.preventExtensions(throw)
}

func (p *proxyObject) defineOwnProperty(name Value, descr PropertyDescriptor, throw bool) bool {
	target := p.target
	v, st := p.proxyCall(proxy_trap_defineProperty, target, proxyProp(name), descr.toValue(p.val.runtime))
	switch st {
	case trapDeclined:
		return false
	case trapInvoked:
		if !v.ToBoolean() {
			// the original implementation does not raise here even
			// under a throwing caller
			return false
		}
		r := p.val.runtime
		targetDesc := propToValueProp(target.self.getOwnProp(name))
		extensibleTarget := target.self.isExtensible()
		settingConfigFalse := descr.Configurable == FLAG_FALSE
		if targetDesc == nil {
			if !extensibleTarget {
				panic(r.NewTypeError("'defineProperty' on proxy: trap returned truish for adding property '%s' to the non-extensible proxy target", name.String()))
			}
			if settingConfigFalse {
				panic(r.NewTypeError("'defineProperty' on proxy: trap returned truish for defining non-configurable property '%s' which is non-existent in the proxy target", name.String()))
			}
		} else {
			if !isCompatibleDescriptor(extensibleTarget, descr, targetDesc) {
				panic(r.NewTypeError("'defineProperty' on proxy: trap returned truish for adding property '%s' that is incompatible with the existing property in the proxy target", name.String()))
			}
			if settingConfigFalse && targetDesc.configurable {
				panic(r.NewTypeError("'defineProperty' on proxy: trap returned truish for defining non-configurable property '%s' which is configurable in the proxy target", name.String()))
			}
		}
		return true
	}
	return target.self.defineOwnProperty(name, descr, throw)
}

func (p *proxyObject) proxyHas(name Value) (bool, trapStatus) {
	target := p.target
	v, st := p.proxyCall(proxy_trap_has, target, name)
	if st != trapInvoked {
		return false, st
	}
	booleanTrapResult := v.ToBoolean()
	if !booleanTrapResult {
		if targetDesc := propToValueProp(target.self.getOwnProp(name)); targetDesc != nil {
			if !targetDesc.configurable {
				panic(p.val.runtime.NewTypeError("'has' on proxy: trap returned falsish for property '%s' which exists in the proxy target as non-configurable", name.String()))
			}
			if !target.self.isExtensible() {
				panic(p.val.runtime.NewTypeError("'has' on proxy: trap returned falsish for property '%s' but the proxy target is not extensible", name.String()))
			}
		}
	}
	return booleanTrapResult, trapInvoked
}

func (p *proxyObject) hasProperty(n Value) bool {
	if p.val.runtime.heapEnumInProgress {
		return p.forwardTarget().self.hasProperty(n)
	}
	if b, st := p.proxyHas(proxyProp(n)); st != trapMissing {
		return b
	}
	return p.target.self.hasProperty(n)
}

func (p *proxyObject) hasPropertyStr(name string) bool {
	if p.val.runtime.heapEnumInProgress {
		return p.forwardTarget().self.hasPropertyStr(name)
	}
	if b, st := p.proxyHas(newStringValue(name)); st != trapMissing {
		return b
	}
	return p.target.self.hasPropertyStr(name)
}

// Own-property checks always redirect through the
// getOwnPropertyDescriptor dispatcher; there is no direct has path.
func (p *proxyObject) hasOwnProperty(n Value) bool {
	return p.getOwnProp(n) != nil
}

func (p *proxyObject) hasOwnPropertyStr(name string) bool {
	return p.getOwnPropStr(name) != nil
}

// forwardTarget is the trap-bypass target used while a heap enumeration
// is in progress.
func (p *proxyObject) forwardTarget() *Object {
	if t := p.target; t != nil {
		return t
	}
	panic(p.val.runtime.NewTypeError("proxy has been revoked"))
}

func (p *proxyObject) proxyGetOwnPropertyDescriptor(name Value) (Value, trapStatus) {
	target := p.target
	v, st := p.proxyCall(proxy_trap_getOwnPropertyDescriptor, target, name)
	if st != trapInvoked {
		return nil, st
	}
	r := p.val.runtime
	targetDesc := propToValueProp(target.self.getOwnProp(name))
	extensible := target.self.isExtensible()

	if v == nil || v == _undefined {
		if targetDesc != nil && !targetDesc.configurable {
			panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported non-configurable property '%s' as non-existing", name.String()))
		}
		if targetDesc != nil && !extensible {
			panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported existing property '%s' on the non-extensible proxy target as non-existing", name.String()))
		}
		return nil, trapInvoked
	}

	if _, ok := v.(*Object); !ok {
		panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap returned neither object nor undefined for property '%s'", name.String()))
	}

	if targetDesc == nil && !extensible {
		panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported a new property '%s' on the non-extensible proxy target", name.String()))
	}

	current := r.toPropertyDescriptor(v)
	current.complete()
	if !isCompatibleDescriptor(extensible, current, targetDesc) {
		panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported incompatible descriptor for property '%s'", name.String()))
	}

	if current.Configurable == FLAG_FALSE {
		if targetDesc == nil {
			panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported non-configurable descriptor for non-existing property '%s'", name.String()))
		}
		if targetDesc.configurable {
			panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported non-configurable descriptor for configurable property '%s'", name.String()))
		}
		if current.Writable == FLAG_FALSE && targetDesc.writable {
			panic(r.NewTypeError("'getOwnPropertyDescriptor' on proxy: trap reported non-configurable, non-writable descriptor for non-configurable, writable property '%s'", name.String()))
		}
	}

	current.fromProxy = true
	return current.toValueProperty(), trapInvoked
}

func (p *proxyObject) getOwnPropStr(name string) Value {
	if p.val.runtime.heapEnumInProgress {
		return p.forwardTarget().self.getOwnPropStr(name)
	}
	if v, st := p.proxyGetOwnPropertyDescriptor(newStringValue(name)); st != trapMissing {
		return v
	}
	return p.target.self.getOwnPropStr(name)
}

func proxyProp(v Value) Value {
	if _, ok := v.(*valueSymbol); ok {
		return v
	}
	return newStringValue(v.String())
}

func (p *proxyObject) getOwnProp(name Value) Value {
	if p.val.runtime.heapEnumInProgress {
		return p.forwardTarget().self.getOwnProp(name)
	}
	if v, st := p.proxyGetOwnPropertyDescriptor(proxyProp(name)); st != trapMissing {
		return v
	}
	return p.target.self.getOwnProp(name)
}

func (p *proxyObject) proxyGet(name, receiver Value) (Value, trapStatus) {
	target := p.target
	v, st := p.proxyCall(proxy_trap_get, target, name, receiver)
	if st != trapInvoked {
		if st == trapDeclined {
			return _undefined, trapDeclined
		}
		return nil, st
	}
	if targetDesc, ok := target.self.getOwnProp(name).(*valueProperty); ok {
		if !targetDesc.accessor {
			if !targetDesc.writable && !targetDesc.configurable && !v.SameAs(nilSafe(targetDesc.value)) {
				panic(p.val.runtime.NewTypeError("'get' on proxy: property '%s' is a read-only and non-configurable data property on the proxy target but the proxy did not return its actual value (expected '%s' but got '%s')", name.String(), nilSafe(targetDesc.value), v))
			}
		} else {
			if !targetDesc.configurable && targetDesc.getterFunc == nil && v != _undefined {
				panic(p.val.runtime.NewTypeError("'get' on proxy: property '%s' is a non-configurable accessor property on the proxy target and does not have a getter function, but the trap did not return 'undefined' (got '%s')", name.String(), v))
			}
		}
	}
	return v, trapInvoked
}

func (p *proxyObject) get(name Value, receiver Value) Value {
	if p.val.runtime.heapEnumInProgress {
		return p.forwardTarget().self.get(name, receiver)
	}
	if receiver == nil {
		receiver = p.val
	}
	if v, st := p.proxyGet(proxyProp(name), receiver); st != trapMissing {
		return v
	}
	return p.target.self.get(name, receiver)
}

func (p *proxyObject) getStr(name string, receiver Value) Value {
	if p.val.runtime.heapEnumInProgress {
		return p.forwardTarget().self.getStr(name, receiver)
	}
	if receiver == nil {
		receiver = p.val
	}
	if v, st := p.proxyGet(newStringValue(name), receiver); st != trapMissing {
		return v
	}
	return p.target.self.getStr(name, receiver)
}

func (p *proxyObject) proxySet(name, value, receiver Value) (bool, trapStatus) {
	target := p.target
	v, st := p.proxyCall(proxy_trap_set, target, name, value, receiver)
	if st != trapInvoked {
		return false, st
	}
	if !v.ToBoolean() {
		return false, trapInvoked
	}
	if prop, ok := target.self.getOwnProp(name).(*valueProperty); ok {
		if prop.accessor {
			if !prop.configurable && prop.setterFunc == nil {
				panic(p.val.runtime.NewTypeError("'set' on proxy: trap returned truish for property '%s' which exists in the proxy target as a non-configurable accessor property without a setter", name.String()))
			}
		} else if !prop.configurable && !prop.writable && !nilSafe(prop.value).SameAs(value) {
			panic(p.val.runtime.NewTypeError("'set' on proxy: trap returned truish for property '%s' which exists in the proxy target as a non-writable, non-configurable data property with a different value", name.String()))
		}
	}
	return true, trapInvoked
}

func (p *proxyObject) setOwn(n Value, v Value, throw bool) {
	name := proxyProp(n)
	res, st := p.proxySet(name, v, p.val)
	switch st {
	case trapDeclined:
		return
	case trapInvoked:
		if !res {
			p.val.runtime.typeErrorResult(throw, "'set' on proxy: trap returned falsish for property '%s'", name.String())
		}
		return
	}
	p.target.set(n, v, p.val, throw)
}

func (p *proxyObject) setForeign(n Value, v, receiver Value, throw bool) bool {
	name := proxyProp(n)
	res, st := p.proxySet(name, v, receiver)
	switch st {
	case trapDeclined:
		return true
	case trapInvoked:
		if !res {
			p.val.runtime.typeErrorResult(throw, "'set' on proxy: trap returned falsish for property '%s'", name.String())
		}
		return true
	}
	p.target.set(n, v, receiver, throw)
	return true
}

func (p *proxyObject) setOwnStr(name string, v Value, throw bool) {
	res, st := p.proxySet(newStringValue(name), v, p.val)
	switch st {
	case trapDeclined:
		return
	case trapInvoked:
		if !res {
			p.val.runtime.typeErrorResult(throw, "'set' on proxy: trap returned falsish for property '%s'", name)
		}
		return
	}
	p.target.setStr(name, v, p.val, throw)
}

func (p *proxyObject) setForeignStr(name string, v, receiver Value, throw bool) bool {
	res, st := p.proxySet(newStringValue(name), v, receiver)
	switch st {
	case trapDeclined:
		return true
	case trapInvoked:
		if !res {
			p.val.runtime.typeErrorResult(throw, "'set' on proxy: trap returned falsish for property '%s'", name)
		}
		return true
	}
	p.target.setStr(name, v, receiver, throw)
	return true
}

func (p *proxyObject) proxyDelete(n Value) (bool, trapStatus) {
	target := p.target
	v, st := p.proxyCall(proxy_trap_deleteProperty, target, n)
	if st != trapInvoked {
		return false, st
	}
	if !v.ToBoolean() {
		return false, trapInvoked
	}
	if targetDesc, ok := target.self.getOwnProp(n).(*valueProperty); ok {
		if !targetDesc.configurable {
			panic(p.val.runtime.NewTypeError("'deleteProperty' on proxy: property '%s' is a non-configurable property but the trap returned truish", n.String()))
		}
	}
	return true, trapInvoked
}

func (p *proxyObject) deleteStr(name string, throw bool) bool {
	ret, st := p.proxyDelete(newStringValue(name))
	switch st {
	case trapDeclined:
		return false
	case trapInvoked:
		if !ret {
			p.val.runtime.typeErrorResult(throw, "'deleteProperty' on proxy: trap returned falsish for property '%s'", name)
		}
		return ret
	}
	return p.target.self.deleteStr(name, throw)
}

func (p *proxyObject) delete(n Value, throw bool) bool {
	name := proxyProp(n)
	ret, st := p.proxyDelete(name)
	switch st {
	case trapDeclined:
		return false
	case trapInvoked:
		if !ret {
			p.val.runtime.typeErrorResult(throw, "'deleteProperty' on proxy: trap returned falsish for property '%s'", name.String())
		}
		return ret
	}
	return p.target.self.delete(n, throw)
}

// proxyOwnKeys runs the ownKeys trap and reconciles the returned key
// list against the target's own keys: every key appears at most once,
// every non-configurable target key must be present, and a
// non-extensible target pins the result to exactly its own key set.
func (p *proxyObject) proxyOwnKeys() ([]Value, trapStatus) {
	target := p.target
	v, st := p.proxyCall(proxy_trap_ownKeys, target)
	if st != trapInvoked {
		return nil, st
	}
	r := p.val.runtime
	keys := r.toObject(v)
	var keyList []Value
	keySet := make(map[Value]struct{})
	l := toLength(keys.self.getStr("length", nil))
	for k := int64(0); k < l; k++ {
		item := nilSafe(keys.self.get(intToValue(k), nil))
		if _, ok := assertString(item); !ok {
			if _, ok := item.(*valueSymbol); !ok {
				panic(r.NewTypeError("%s is not a valid property name", item.String()))
			}
		}
		if _, exists := keySet[item]; exists {
			panic(r.NewTypeError("'ownKeys' on proxy: trap returned duplicate entries for property '%s'", item.String()))
		}
		keyList = append(keyList, item)
		keySet[item] = struct{}{}
	}

	extensible := target.self.isExtensible()

	var anyNonconfigurable bool
	var nonconfigurableMissing, configurableMissing Value
	for _, itemName := range target.self.ownPropertyKeys(true, nil) {
		nonconfigurable := false
		if prop, ok := target.self.getOwnProp(itemName).(*valueProperty); ok && !prop.configurable {
			nonconfigurable = true
			anyNonconfigurable = true
		}
		if _, exists := keySet[itemName]; exists {
			delete(keySet, itemName)
			continue
		}
		if nonconfigurable {
			if nonconfigurableMissing == nil {
				nonconfigurableMissing = itemName
			}
		} else if configurableMissing == nil {
			configurableMissing = itemName
		}
	}

	switch {
	case extensible && !anyNonconfigurable:
	case nonconfigurableMissing != nil:
		panic(r.NewTypeError("'ownKeys' on proxy: trap result did not include non-configurable '%s'", nonconfigurableMissing.String()))
	case extensible:
	case configurableMissing != nil:
		panic(r.NewTypeError("'ownKeys' on proxy: trap result did not include '%s'", configurableMissing.String()))
	case len(keySet) > 0:
		panic(r.NewTypeError("'ownKeys' on proxy: trap returned extra keys but proxy target is non-extensible"))
	}

	return keyList, trapInvoked
}

// filterKeys selects keys of one kind from a trap result, optionally
// dropping the non-enumerable ones (which requires a
// getOwnPropertyDescriptor dispatch per key).
func (p *proxyObject) filterKeys(vals []Value, enumerableOnly, symbols bool) []Value {
	k := 0
	for _, val := range vals {
		if _, isSym := val.(*valueSymbol); isSym != symbols {
			continue
		}
		if enumerableOnly {
			prop := p.getOwnProp(val)
			if prop == nil {
				continue
			}
			if prop, ok := prop.(*valueProperty); ok && !prop.enumerable {
				continue
			}
		}
		vals[k] = val
		k++
	}
	return vals[:k]
}

func (p *proxyObject) ownKeys(all bool, _ []Value) []Value {
	vals, st := p.proxyOwnKeys()
	switch st {
	case trapDeclined:
		return nil
	case trapInvoked:
		return p.filterKeys(vals, !all, false)
	}
	return p.target.self.ownKeys(all, nil)
}

func (p *proxyObject) ownSymbols() []Value {
	vals, st := p.proxyOwnKeys()
	switch st {
	case trapDeclined:
		return nil
	case trapInvoked:
		return p.filterKeys(vals, false, true)
	}
	return p.target.self.ownSymbols()
}

func (p *proxyObject) ownPropertyKeys(all bool, accum []Value) []Value {
	vals, st := p.proxyOwnKeys()
	switch st {
	case trapDeclined:
		return accum
	case trapInvoked:
		if !all {
			strs := p.filterKeys(append([]Value(nil), vals...), true, false)
			return append(accum, strs...)
		}
		return append(accum, vals...)
	}
	return p.target.self.ownPropertyKeys(all, accum)
}

// proxyPropIter drives for-in over a proxy: the trap-provided string
// keys, each filtered through the getOwnPropertyDescriptor dispatcher
// for existence and enumerability, then the prototype chain.
type proxyPropIter struct {
	p     *proxyObject
	names []Value
	idx   int
}

func (i *proxyPropIter) next() (propIterItem, iterNextFunc) {
	for i.idx < len(i.names) {
		name := i.names[i.idx]
		i.idx++
		prop := i.p.getOwnProp(name)
		if prop == nil {
			continue
		}
		enumerable := _ENUM_TRUE
		if prop, ok := prop.(*valueProperty); ok && !prop.enumerable {
			enumerable = _ENUM_FALSE
		}
		return propIterItem{name: name.String(), enumerable: enumerable}, i.next
	}
	if proto := i.p.proto(); proto != nil {
		return proto.self.enumerateUnfiltered()()
	}
	return propIterItem{}, nil
}

func (p *proxyObject) enumerateUnfiltered() iterNextFunc {
	return (&proxyPropIter{p: p, names: p.ownKeys(true, nil)}).next
}

func (p *proxyObject) enumerate() iterNextFunc {
	return (&propFilterIter{
		wrapped: p.enumerateUnfiltered(),
		seen:    make(map[string]bool),
	}).next
}

func (p *proxyObject) assertCallable() (func(FunctionCall) Value, bool) {
	if !p.callable {
		return nil, false
	}
	return func(call FunctionCall) Value {
		return p.apply(call)
	}, true
}

func (p *proxyObject) assertConstructor() func(args []Value, newTarget *Object) *Object {
	if !p.callable {
		return nil
	}
	return p.construct
}

func (p *proxyObject) apply(call FunctionCall) Value {
	r := p.val.runtime
	if !p.callable {
		panic(r.NewTypeError("proxy target is not a function"))
	}
	if len(call.Arguments) > maxCallArgs {
		panic(r.NewRangeError("Too many arguments in function call (only %d allowed)", maxCallArgs))
	}
	v, st := p.proxyCall(proxy_trap_apply, p.target, nilSafe(call.This), r.newArrayValues(call.Arguments))
	switch st {
	case trapDeclined:
		return _undefined
	case trapInvoked:
		return v
	}
	target := p.target
	f, ok := target.self.assertCallable()
	if !ok {
		panic(r.NewTypeError("proxy target is not a function"))
	}
	return f(call)
}

func (p *proxyObject) construct(args []Value, newTarget *Object) *Object {
	r := p.val.runtime
	if !p.callable {
		panic(r.NewTypeError("proxy target is not a constructor"))
	}
	if len(args) > maxCallArgs {
		panic(r.NewRangeError("Too many arguments in function call (only %d allowed)", maxCallArgs))
	}
	nt := newTarget
	if nt == nil {
		nt = p.val
	}
	v, st := p.proxyCall(proxy_trap_construct, p.target, r.newArrayValues(args), nt)
	switch st {
	case trapDeclined:
		// neutral result; the host must inspect the implicit-call
		// flags and retry on the unoptimized path
		return r.newObjectFromCtor(p.checkTarget(proxy_trap_construct))
	case trapInvoked:
		obj, ok := v.(*Object)
		if !ok {
			panic(r.NewTypeError("'construct' on proxy: trap returned non-object ('%s')", nilSafe(v).String()))
		}
		return obj
	}
	target := p.target
	if ctor := target.self.assertConstructor(); ctor != nil {
		return ctor(args, nt)
	}
	f, ok := target.self.assertCallable()
	if !ok {
		panic(r.NewTypeError("proxy target is not a constructor"))
	}
	return r.defaultConstruct(f, target, args)
}

func (p *proxyObject) hasInstance(v Value) bool {
	if !p.callable {
		return p.baseObject.hasInstance(v)
	}
	return ordinaryHasInstance(p.val, v)
}

// isCompatibleDescriptor is IsCompatiblePropertyDescriptor: whether
// desc could be applied over current on an object with the given
// extensibility.
func isCompatibleDescriptor(extensible bool, desc PropertyDescriptor, current *valueProperty) bool {
	if current == nil {
		return extensible
	}
	if desc.Empty() {
		return true
	}
	if isEquivalentDescriptor(desc, current) {
		return true
	}
	if !current.configurable {
		if desc.Configurable == FLAG_TRUE {
			return false
		}
		if desc.Enumerable != FLAG_NOT_SET && desc.Enumerable.Bool() != current.enumerable {
			return false
		}
		if desc.IsGeneric() {
			return true
		}
		if desc.IsData() == current.accessor {
			return false
		}
		if desc.IsData() {
			if !current.writable {
				if desc.Writable == FLAG_TRUE {
					return false
				}
				if desc.Value != nil && !desc.Value.SameAs(nilSafe(current.value)) {
					return false
				}
			}
		} else {
			if desc.Getter != nil && !sameValueObj(desc.Getter, current.getterFunc) {
				return false
			}
			if desc.Setter != nil && !sameValueObj(desc.Setter, current.setterFunc) {
				return false
			}
		}
	}
	return true
}

func isEquivalentDescriptor(desc PropertyDescriptor, current *valueProperty) bool {
	if desc.Configurable != ToFlag(current.configurable) || desc.Enumerable != ToFlag(current.enumerable) {
		return false
	}
	if current.accessor {
		return desc.Value == nil && desc.Writable == FLAG_NOT_SET &&
			sameValueObj(desc.Getter, current.getterFunc) &&
			sameValueObj(desc.Setter, current.setterFunc)
	}
	return desc.Getter == nil && desc.Setter == nil &&
		desc.Writable == ToFlag(current.writable) &&
		desc.Value != nil && desc.Value.SameAs(nilSafe(current.value))
}

// sameValueObj compares a descriptor accessor field (possibly
// undefined) with a stored accessor function (possibly nil).
func sameValueObj(v Value, o *Object) bool {
	if v == nil || v == _undefined {
		return o == nil
	}
	if o == nil {
		return false
	}
	return v.SameAs(o)
}
