package koto

func (r *Runtime) builtin_newProxy(args []Value, newTarget *Object) *Object {
	if len(args) < 2 {
		panic(r.NewTypeError("Proxy requires a target and a handler object"))
	}
	target, ok := args[0].(*Object)
	if !ok {
		panic(r.NewTypeError("Cannot create proxy with a non-object as target or handler"))
	}
	handler, ok := args[1].(*Object)
	if !ok {
		panic(r.NewTypeError("Cannot create proxy with a non-object as target or handler"))
	}
	proxy := r.newProxyObject(target, handler)
	if newTarget != nil && newTarget != r.global.Proxy {
		// OrdinaryCreateFromConstructor threading for super-constructor
		// calls; a proxy's observable prototype still comes from its
		// target via the getPrototypeOf dispatch
		if proto, ok := newTarget.self.getStr("prototype", nil).(*Object); ok {
			proxy.prototype = proto
		}
	}
	return proxy.val
}

// proxy_revocable returns { proxy, revoke }. The revoker holds the proxy
// in a single slot which is nulled on the first call; later calls are
// no-ops.
func (r *Runtime) proxy_revocable(call FunctionCall) Value {
	if len(call.Arguments) >= 2 {
		if target, ok := call.Argument(0).(*Object); ok {
			if handler, ok := call.Argument(1).(*Object); ok {
				proxy := r.newProxyObject(target, handler)
				ret := r.NewObject()
				ret.self._putProp("proxy", proxy.val, true, true, true)
				ret.self._putProp("revoke", r.newRevoker(proxy), true, true, true)
				return ret
			}
		}
	}
	panic(r.NewTypeError("Cannot create proxy with a non-object as target or handler"))
}

func (r *Runtime) newRevoker(proxy *proxyObject) *Object {
	revocableProxy := proxy
	return r.newNativeFunc(func(FunctionCall) Value {
		if revocableProxy != nil {
			revocableProxy.revoke()
			revocableProxy = nil
		}
		return _undefined
	}, "revoke", 0)
}

func (r *Runtime) initProxy() {
	r.global.Proxy = r.newNativeFuncConstruct(func(call FunctionCall) Value {
		panic(r.NewTypeError("Constructor Proxy requires 'new'"))
	}, r.builtin_newProxy, "Proxy", nil, 2)
	r.global.Proxy.self._putProp("revocable", r.newNativeFunc(r.proxy_revocable, "revocable", 2), true, false, true)
	r.addToGlobal("Proxy", r.global.Proxy)
}

// Revocable is the host-facing Proxy.revocable: it returns the proxy
// object and a Go revoke function.
func (r *Runtime) Revocable(target, handler *Object) (*Object, func()) {
	proxy := r.newProxyObject(target, handler)
	revoked := false
	return proxy.val, func() {
		if !revoked {
			proxy.revoke()
			revoked = true
		}
	}
}
