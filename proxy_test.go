package koto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertTypeError(t *testing.T, err error, substr string) {
	t.Helper()
	require.Error(t, err)
	ex, ok := err.(*Exception)
	require.True(t, ok, "expected *Exception, got %T", err)
	assert.Contains(t, ex.Error(), "TypeError")
	if substr != "" {
		assert.Contains(t, ex.Error(), substr)
	}
}

func TestProxy_transparent_forwarding(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	p := r.NewProxyObject(target, r.NewObject())

	assert.Equal(t, int64(1), p.Get("a").Export())
	assert.True(t, p.self.hasPropertyStr("a"))
	assert.Equal(t, []string{"a"}, p.Keys())
}

func TestProxy_get_trap(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("foo", "bar"))
	handler := r.NewObject()
	require.NoError(t, handler.Set("get", func(call FunctionCall) Value {
		assert.Same(t, target, call.Argument(0))
		assert.Equal(t, "foo", call.Argument(1).String())
		return newStringValue("intercepted")
	}))
	p := r.NewProxyObject(target, handler)

	assert.Equal(t, "intercepted", p.Get("foo").String())
}

func TestProxy_get_receiver(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	var receiver Value
	require.NoError(t, handler.Set("get", func(call FunctionCall) Value {
		receiver = call.Argument(2)
		return _undefined
	}))
	p := r.NewProxyObject(target, handler)

	p.Get("x")
	assert.Same(t, p, receiver)
}

func TestProxy_get_invariant_nonwritable(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.DefineDataProperty("x", intToValue(1), FLAG_FALSE, FLAG_FALSE, FLAG_TRUE))
	handler := r.NewObject()
	require.NoError(t, handler.Set("get", func(call FunctionCall) Value {
		return intToValue(2)
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.Get("x")
	})
	assertTypeError(t, err, "read-only and non-configurable")

	// returning the stored value satisfies the invariant
	require.NoError(t, handler.Set("get", func(call FunctionCall) Value {
		return intToValue(1)
	}))
	assert.Equal(t, int64(1), p.Get("x").Export())
}

func TestProxy_get_invariant_getterless_accessor(t *testing.T) {
	r := New()
	target := r.NewObject()
	setter := r.newNativeFunc(func(FunctionCall) Value { return _undefined }, "set", 1)
	require.NoError(t, target.DefineAccessorProperty("x", _undefined, setter, FLAG_FALSE, FLAG_TRUE))
	handler := r.NewObject()
	require.NoError(t, handler.Set("get", func(call FunctionCall) Value {
		return intToValue(5)
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.Get("x")
	})
	assertTypeError(t, err, "does not have a getter")
}

func TestProxy_has_invariants(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.DefineDataProperty("k", intToValue(1), FLAG_TRUE, FLAG_FALSE, FLAG_TRUE))
	handler := r.NewObject()
	require.NoError(t, handler.Set("has", func(call FunctionCall) Value {
		return valueFalse
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.hasPropertyStr("k")
	})
	assertTypeError(t, err, "non-configurable")

	// configurable property on a non-extensible target
	target2 := r.NewObject()
	require.NoError(t, target2.Set("k", 1))
	target2.self.preventExtensions(true)
	p2 := r.NewProxyObject(target2, handler)
	err = r.Try(func() {
		p2.self.hasPropertyStr("k")
	})
	assertTypeError(t, err, "not extensible")

	// hiding an absent key is fine
	assert.False(t, p.self.hasPropertyStr("missing"))
}

func TestProxy_set_trap(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("set", func(call FunctionCall) Value {
		call.Argument(0).(*Object).self.setOwnStr(call.Argument(1).String(), call.Argument(2), true)
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	p.self.setOwnStr("a", intToValue(42), true)
	assert.Equal(t, int64(42), target.Get("a").Export())
}

func TestProxy_set_trap_falsish_throws(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("set", func(call FunctionCall) Value {
		return valueFalse
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.setOwnStr("a", intToValue(1), true)
	})
	assertTypeError(t, err, "trap returned falsish")

	// non-throwing callers swallow the rejection
	require.NoError(t, r.Try(func() {
		p.self.setOwnStr("a", intToValue(1), false)
	}))
	assert.False(t, target.self.hasOwnPropertyStr("a"))
}

func TestProxy_set_invariant_nonwritable(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.DefineDataProperty("x", intToValue(1), FLAG_FALSE, FLAG_FALSE, FLAG_TRUE))
	handler := r.NewObject()
	require.NoError(t, handler.Set("set", func(call FunctionCall) Value {
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.setOwnStr("x", intToValue(2), true)
	})
	assertTypeError(t, err, "non-writable, non-configurable")

	// pretending to have stored the same value is allowed
	require.NoError(t, r.Try(func() {
		p.self.setOwnStr("x", intToValue(1), true)
	}))
}

func TestProxy_delete_invariant(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.DefineDataProperty("k", intToValue(1), FLAG_TRUE, FLAG_FALSE, FLAG_TRUE))
	handler := r.NewObject()
	require.NoError(t, handler.Set("deleteProperty", func(call FunctionCall) Value {
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.deleteStr("k", true)
	})
	assertTypeError(t, err, "non-configurable")
}

func TestProxy_delete_forward(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("k", 1))
	p := r.NewProxyObject(target, r.NewObject())

	assert.True(t, p.self.deleteStr("k", true))
	assert.False(t, target.self.hasOwnPropertyStr("k"))
}

func TestProxy_defineProperty_trap(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	var sawKey string
	require.NoError(t, handler.Set("defineProperty", func(call FunctionCall) Value {
		sawKey = call.Argument(1).String()
		desc := r.toPropertyDescriptor(call.Argument(2))
		call.Argument(0).(*Object).self.defineOwnProperty(call.Argument(1), desc, true)
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	p.self.defineOwnProperty(newStringValue("a"), PropertyDescriptor{
		Value:        intToValue(7),
		Writable:     FLAG_TRUE,
		Enumerable:   FLAG_TRUE,
		Configurable: FLAG_TRUE,
	}, true)
	assert.Equal(t, "a", sawKey)
	assert.Equal(t, int64(7), target.Get("a").Export())
}

func TestProxy_defineProperty_false_no_throw(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("defineProperty", func(call FunctionCall) Value {
		return valueFalse
	}))
	p := r.NewProxyObject(target, handler)

	// a false trap result reports rejection without raising, even for a
	// throwing caller
	var res bool
	require.NoError(t, r.Try(func() {
		res = p.self.defineOwnProperty(newStringValue("a"), PropertyDescriptor{Value: intToValue(1)}, true)
	}))
	assert.False(t, res)
}

func TestProxy_defineProperty_invariants(t *testing.T) {
	r := New()
	handler := r.NewObject()
	require.NoError(t, handler.Set("defineProperty", func(call FunctionCall) Value {
		return valueTrue
	}))

	// new property on a non-extensible target
	target := r.NewObject()
	target.self.preventExtensions(true)
	p := r.NewProxyObject(target, handler)
	err := r.Try(func() {
		p.self.defineOwnProperty(newStringValue("a"), PropertyDescriptor{Value: intToValue(1)}, true)
	})
	assertTypeError(t, err, "non-extensible")

	// non-configurable define over a missing target property
	target2 := r.NewObject()
	p2 := r.NewProxyObject(target2, handler)
	err = r.Try(func() {
		p2.self.defineOwnProperty(newStringValue("a"), PropertyDescriptor{
			Value:        intToValue(1),
			Configurable: FLAG_FALSE,
		}, true)
	})
	assertTypeError(t, err, "non-existent")

	// incompatible with the existing target property
	target3 := r.NewObject()
	require.NoError(t, target3.DefineDataProperty("a", intToValue(1), FLAG_FALSE, FLAG_FALSE, FLAG_TRUE))
	p3 := r.NewProxyObject(target3, handler)
	err = r.Try(func() {
		p3.self.defineOwnProperty(newStringValue("a"), PropertyDescriptor{
			Value:    intToValue(2),
			Writable: FLAG_TRUE,
		}, true)
	})
	assertTypeError(t, err, "incompatible")
}

func TestProxy_getOwnPropertyDescriptor_trap(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	handler := r.NewObject()
	require.NoError(t, handler.Set("getOwnPropertyDescriptor", func(call FunctionCall) Value {
		desc := r.NewObject()
		require.NoError(t, desc.Set("value", 99))
		require.NoError(t, desc.Set("writable", true))
		require.NoError(t, desc.Set("enumerable", true))
		require.NoError(t, desc.Set("configurable", true))
		return desc
	}))
	p := r.NewProxyObject(target, handler)

	prop := p.self.getOwnPropStr("a")
	require.NotNil(t, prop)
	vp, ok := prop.(*valueProperty)
	require.True(t, ok)
	assert.Equal(t, int64(99), vp.value.Export())
	assert.True(t, vp.fromProxy)
}

func TestProxy_getOwnPropertyDescriptor_invariants(t *testing.T) {
	r := New()

	undefHandler := r.NewObject()
	require.NoError(t, undefHandler.Set("getOwnPropertyDescriptor", func(call FunctionCall) Value {
		return _undefined
	}))

	// hiding a non-configurable property
	target := r.NewObject()
	require.NoError(t, target.DefineDataProperty("k", intToValue(1), FLAG_TRUE, FLAG_FALSE, FLAG_TRUE))
	p := r.NewProxyObject(target, undefHandler)
	err := r.Try(func() {
		p.self.getOwnPropStr("k")
	})
	assertTypeError(t, err, "non-configurable")

	// hiding any property of a non-extensible target
	target2 := r.NewObject()
	require.NoError(t, target2.Set("k", 1))
	target2.self.preventExtensions(true)
	p2 := r.NewProxyObject(target2, undefHandler)
	err = r.Try(func() {
		p2.self.getOwnPropStr("k")
	})
	assertTypeError(t, err, "non-extensible")

	// trap result of a forbidden type
	badHandler := r.NewObject()
	require.NoError(t, badHandler.Set("getOwnPropertyDescriptor", func(call FunctionCall) Value {
		return intToValue(42)
	}))
	p3 := r.NewProxyObject(r.NewObject(), badHandler)
	err = r.Try(func() {
		p3.self.getOwnPropStr("k")
	})
	assertTypeError(t, err, "neither object nor undefined")

	// reporting a non-configurable descriptor for a configurable property
	confHandler := r.NewObject()
	require.NoError(t, confHandler.Set("getOwnPropertyDescriptor", func(call FunctionCall) Value {
		desc := r.NewObject()
		require.NoError(t, desc.Set("value", 1))
		require.NoError(t, desc.Set("configurable", false))
		return desc
	}))
	target4 := r.NewObject()
	require.NoError(t, target4.Set("k", 1))
	p4 := r.NewProxyObject(target4, confHandler)
	err = r.Try(func() {
		p4.self.getOwnPropStr("k")
	})
	assertTypeError(t, err, "non-configurable descriptor for configurable property")
}

func TestProxy_hasOwnProperty_redirects_through_gopd(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	handler := r.NewObject()
	calls := 0
	require.NoError(t, handler.Set("getOwnPropertyDescriptor", func(call FunctionCall) Value {
		calls++
		return _undefined
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		assert.False(t, p.self.hasOwnPropertyStr("missing"))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestProxy_getPrototypeOf_trap(t *testing.T) {
	r := New()
	proto := r.NewObject()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("getPrototypeOf", func(call FunctionCall) Value {
		return proto
	}))
	p := r.NewProxyObject(target, handler)

	assert.Same(t, proto, p.self.proto())
}

func TestProxy_getPrototypeOf_invariant(t *testing.T) {
	r := New()
	proto := r.NewObject()
	target := r.NewObject()
	target.self.preventExtensions(true)
	handler := r.NewObject()
	require.NoError(t, handler.Set("getPrototypeOf", func(call FunctionCall) Value {
		return proto
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.proto()
	})
	assertTypeError(t, err, "non-extensible")
}

func TestProxy_setPrototypeOf_trap(t *testing.T) {
	r := New()
	proto := r.NewObject()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("setPrototypeOf", func(call FunctionCall) Value {
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	assert.True(t, p.self.setProto(proto, true))
	// the trap lied: the target's prototype is unchanged, which is
	// legal while the target stays extensible
	assert.NotSame(t, proto, target.self.proto())
}

func TestProxy_setPrototypeOf_falsish(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("setPrototypeOf", func(call FunctionCall) Value {
		return valueFalse
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.setProto(r.NewObject(), true)
	})
	assertTypeError(t, err, "falsish")

	assert.False(t, p.self.setProto(r.NewObject(), false))
}

func TestProxy_setPrototypeOf_nonextensible_invariant(t *testing.T) {
	r := New()
	target := r.NewObject()
	target.self.preventExtensions(true)
	handler := r.NewObject()
	require.NoError(t, handler.Set("setPrototypeOf", func(call FunctionCall) Value {
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.setProto(r.NewObject(), true)
	})
	assertTypeError(t, err, "non-extensible")

	// same prototype is permitted
	assert.True(t, p.self.setProto(target.self.proto(), true))
}

func TestProxy_isExtensible_invariant(t *testing.T) {
	r := New()
	target := r.NewObject()
	target.self.preventExtensions(true)
	handler := r.NewObject()
	require.NoError(t, handler.Set("isExtensible", func(call FunctionCall) Value {
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.isExtensible()
	})
	assertTypeError(t, err, "")
}

func TestProxy_preventExtensions_invariants(t *testing.T) {
	r := New()

	// trap claims success while the target is still extensible
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("preventExtensions", func(call FunctionCall) Value {
		return valueTrue
	}))
	p := r.NewProxyObject(target, handler)
	err := r.Try(func() {
		p.self.preventExtensions(true)
	})
	assertTypeError(t, err, "extensible")

	// truthful trap
	target.self.preventExtensions(true)
	assert.True(t, p.self.preventExtensions(true))
}

func TestProxy_ownKeys_trap(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	handler := r.NewObject()
	require.NoError(t, handler.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray("a", "b")
	}))
	p := r.NewProxyObject(target, handler)

	keys := p.self.ownKeys(true, nil)
	require.Len(t, keys, 2)
	assert.Equal(t, "a", keys[0].String())
	assert.Equal(t, "b", keys[1].String())
}

func TestProxy_ownKeys_missing_nonconfigurable(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.DefineDataProperty("k", intToValue(1), FLAG_TRUE, FLAG_FALSE, FLAG_TRUE))
	handler := r.NewObject()
	require.NoError(t, handler.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray()
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.ownKeys(true, nil)
	})
	assertTypeError(t, err, "did not include non-configurable 'k'")
}

func TestProxy_ownKeys_nonextensible_closure(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	target.self.preventExtensions(true)

	// dropping a configurable key of a non-extensible target
	handler := r.NewObject()
	require.NoError(t, handler.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray()
	}))
	p := r.NewProxyObject(target, handler)
	err := r.Try(func() {
		p.self.ownKeys(true, nil)
	})
	assertTypeError(t, err, "did not include 'a'")

	// inventing keys on a non-extensible target
	handler2 := r.NewObject()
	require.NoError(t, handler2.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray("a", "phantom")
	}))
	p2 := r.NewProxyObject(target, handler2)
	err = r.Try(func() {
		p2.self.ownKeys(true, nil)
	})
	assertTypeError(t, err, "extra keys")

	// the exact key set is fine, in any order
	handler3 := r.NewObject()
	require.NoError(t, handler3.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray("a")
	}))
	p3 := r.NewProxyObject(target, handler3)
	keys := p3.self.ownKeys(true, nil)
	require.Len(t, keys, 1)
	assert.Equal(t, "a", keys[0].String())
}

func TestProxy_ownKeys_duplicates(t *testing.T) {
	r := New()
	target := r.NewObject()
	handler := r.NewObject()
	require.NoError(t, handler.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray("a", "a")
	}))
	p := r.NewProxyObject(target, handler)

	err := r.Try(func() {
		p.self.ownKeys(true, nil)
	})
	assertTypeError(t, err, "duplicate")
}

func TestProxy_ownKeys_invalid_key_type(t *testing.T) {
	r := New()
	handler := r.NewObject()
	require.NoError(t, handler.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray(42)
	}))
	p := r.NewProxyObject(r.NewObject(), handler)

	err := r.Try(func() {
		p.self.ownKeys(true, nil)
	})
	assertTypeError(t, err, "not a valid property name")
}

func TestProxy_ownKeys_enumerable_filter(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	require.NoError(t, target.DefineDataProperty("hidden", intToValue(2), FLAG_TRUE, FLAG_TRUE, FLAG_FALSE))
	p := r.NewProxyObject(target, r.NewObject())

	// Object.keys semantics drop the non-enumerable key
	assert.Equal(t, []string{"a"}, p.Keys())
}

func TestProxy_apply_trap(t *testing.T) {
	r := New()
	fn := r.newNativeFunc(func(call FunctionCall) Value {
		return intToValue(call.Argument(0).ToInteger() + 1)
	}, "inc", 1)
	handler := r.NewObject()
	require.NoError(t, handler.Set("apply", func(call FunctionCall) Value {
		args := r.createListFromArrayLike(call.Argument(2))
		return intToValue(args[0].ToInteger() * 10)
	}))
	p := r.NewProxyObject(fn, handler)

	call, ok := p.self.assertCallable()
	require.True(t, ok)
	assert.Equal(t, int64(70), call(FunctionCall{Arguments: []Value{intToValue(7)}}).Export())
}

func TestProxy_apply_forward(t *testing.T) {
	r := New()
	fn := r.newNativeFunc(func(call FunctionCall) Value {
		return intToValue(call.Argument(0).ToInteger() + 1)
	}, "inc", 1)
	p := r.NewProxyObject(fn, r.NewObject())

	call, ok := p.self.assertCallable()
	require.True(t, ok)
	assert.Equal(t, int64(8), call(FunctionCall{Arguments: []Value{intToValue(7)}}).Export())
}

func TestProxy_not_callable_without_callable_target(t *testing.T) {
	r := New()
	p := r.NewProxyObject(r.NewObject(), r.NewObject())
	_, ok := p.self.assertCallable()
	assert.False(t, ok)
	assert.Nil(t, p.self.assertConstructor())
}

func TestProxy_construct_trap(t *testing.T) {
	r := New()
	fn := r.newNativeFunc(func(call FunctionCall) Value { return _undefined }, "F", 0)
	handler := r.NewObject()
	var sawNewTarget Value
	made := r.NewObject()
	require.NoError(t, handler.Set("construct", func(call FunctionCall) Value {
		sawNewTarget = call.Argument(2)
		return made
	}))
	pobj := r.NewProxyObject(fn, handler)
	p := pobj.self.(*proxyObject)

	res := p.construct(nil, nil)
	assert.Same(t, made, res)
	// without an override, newTarget is the proxy itself
	assert.Same(t, pobj, sawNewTarget)

	nt := r.newNativeFunc(func(FunctionCall) Value { return _undefined }, "NT", 0)
	p.construct(nil, nt)
	assert.Same(t, nt, sawNewTarget)
}

func TestProxy_construct_trap_nonobject(t *testing.T) {
	r := New()
	fn := r.newNativeFunc(func(call FunctionCall) Value { return _undefined }, "F", 0)
	handler := r.NewObject()
	require.NoError(t, handler.Set("construct", func(call FunctionCall) Value {
		return intToValue(42)
	}))
	p := r.NewProxyObject(fn, handler).self.(*proxyObject)

	err := r.Try(func() {
		p.construct(nil, nil)
	})
	assertTypeError(t, err, "non-object")
}

func TestProxy_construct_fallback_synthesizes_this(t *testing.T) {
	r := New()
	proto := r.NewObject()
	fn := r.newNativeFunc(func(call FunctionCall) Value {
		this := call.This.(*Object)
		require.NoError(t, this.Set("marked", true))
		return _undefined
	}, "F", 0)
	require.NoError(t, fn.Set("prototype", proto))
	p := r.NewProxyObject(fn, r.NewObject()).self.(*proxyObject)

	obj := p.construct(nil, nil)
	assert.Same(t, proto, obj.self.proto())
	assert.True(t, obj.Get("marked").ToBoolean())
}

func TestProxy_call_arg_ceiling(t *testing.T) {
	r := New()
	fn := r.newNativeFunc(func(call FunctionCall) Value { return _undefined }, "F", 0)
	p := r.NewProxyObject(fn, r.NewObject()).self.(*proxyObject)

	args := make([]Value, maxCallArgs+1)
	for i := range args {
		args[i] = _undefined
	}
	err := r.Try(func() {
		p.apply(FunctionCall{Arguments: args})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RangeError")

	err = r.Try(func() {
		p.construct(args, nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RangeError")
}

func TestProxy_revocation(t *testing.T) {
	r := New()
	p, revoke := r.Revocable(r.NewObject(), r.NewObject())

	require.NoError(t, r.Try(func() {
		p.Get("a")
	}))

	revoke()
	err := r.Try(func() {
		p.Get("a")
	})
	assertTypeError(t, err, "revoked")

	// idempotent
	revoke()
	err = r.Try(func() {
		p.self.hasPropertyStr("a")
	})
	assertTypeError(t, err, "revoked")

	// identity survives revocation
	assert.True(t, p.StrictEquals(p))
	assert.Equal(t, "object", r.TypeOf(p))
}

func TestProxy_revocable_builtin(t *testing.T) {
	r := New()
	revocable := r.toCallable(r.Get("Proxy").(*Object).self.getStr("revocable", nil))
	ret := revocable(FunctionCall{Arguments: []Value{r.NewObject(), r.NewObject()}}).(*Object)

	proxy := ret.Get("proxy").(*Object)
	revoke := r.toCallable(ret.Get("revoke"))

	require.NoError(t, r.Try(func() {
		proxy.Get("a")
	}))
	assert.Equal(t, Value(_undefined), revoke(FunctionCall{}))
	err := r.Try(func() {
		proxy.Get("a")
	})
	assertTypeError(t, err, "revoked")
	// second revoke is a no-op
	assert.Equal(t, Value(_undefined), revoke(FunctionCall{}))
}

func TestProxy_revoked_mid_trap(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	handler := r.NewObject()
	var revoke func()
	require.NoError(t, handler.Set("get", func(call FunctionCall) Value {
		revoke()
		return intToValue(1)
	}))
	var p *Object
	p, revoke = r.Revocable(target, handler)

	// the trap itself completes; the next trap resolution reports the
	// revocation
	require.NoError(t, r.Try(func() {
		p.Get("a")
	}))
	err := r.Try(func() {
		p.Get("a")
	})
	assertTypeError(t, err, "revoked")
}

func TestProxy_constructor_argument_checks(t *testing.T) {
	r := New()
	ctor := r.Get("Proxy").(*Object).self.assertConstructor()
	require.NotNil(t, ctor)

	err := r.Try(func() {
		ctor([]Value{r.NewObject()}, nil)
	})
	assertTypeError(t, err, "target and a handler")

	err = r.Try(func() {
		ctor([]Value{intToValue(1), r.NewObject()}, nil)
	})
	assertTypeError(t, err, "non-object")

	err = r.Try(func() {
		ctor([]Value{r.NewObject(), _null}, nil)
	})
	assertTypeError(t, err, "non-object")

	// call without new is forbidden
	call, ok := r.Get("Proxy").(*Object).self.assertCallable()
	require.True(t, ok)
	err = r.Try(func() {
		call(FunctionCall{Arguments: []Value{r.NewObject(), r.NewObject()}})
	})
	assertTypeError(t, err, "requires 'new'")

	// revoked proxies are invalid construction arguments
	revoked, revoke := r.Revocable(r.NewObject(), r.NewObject())
	revoke()
	err = r.Try(func() {
		ctor([]Value{revoked, r.NewObject()}, nil)
	})
	assertTypeError(t, err, "revoked")
	err = r.Try(func() {
		ctor([]Value{r.NewObject(), revoked}, nil)
	})
	assertTypeError(t, err, "revoked")
}

func TestProxy_typeof_and_identity(t *testing.T) {
	r := New()
	target := r.NewObject()
	p := r.NewProxyObject(target, r.NewObject())

	assert.Equal(t, "object", r.TypeOf(p))
	assert.True(t, p.StrictEquals(p))
	assert.False(t, p.StrictEquals(target))
	assert.False(t, p.Equals(target))

	fn := r.newNativeFunc(func(FunctionCall) Value { return _undefined }, "f", 0)
	pf := r.NewProxyObject(fn, r.NewObject())
	assert.Equal(t, "function", r.TypeOf(pf))

	// callability is captured at construction and reported as "object"
	// only after revocation
	pr, revoke := r.Revocable(fn, r.NewObject())
	assert.Equal(t, "function", r.TypeOf(pr))
	revoke()
	assert.Equal(t, "object", r.TypeOf(pr))
}

func TestProxy_nontrapped_handler_props_ignored(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	handler := r.NewObject()
	require.NoError(t, handler.Set("unknownTrap", func(call FunctionCall) Value {
		t.Fatal("must never be called")
		return nil
	}))
	p := r.NewProxyObject(target, handler)

	assert.Equal(t, int64(1), p.Get("a").Export())
}

func TestProxy_noncallable_trap(t *testing.T) {
	r := New()
	handler := r.NewObject()
	require.NoError(t, handler.Set("get", 42))
	p := r.NewProxyObject(r.NewObject(), handler)

	err := r.Try(func() {
		p.Get("a")
	})
	assertTypeError(t, err, "must be a function")
}

func TestProxy_null_trap_forwards(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	handler := r.NewObject()
	require.NoError(t, handler.Set("get", nil))
	p := r.NewProxyObject(target, handler)

	assert.Equal(t, int64(1), p.Get("a").Export())
}

func TestProxy_chain(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))
	inner := r.NewProxyObject(target, r.NewObject())
	outer := r.NewProxyObject(inner, r.NewObject())

	assert.Equal(t, int64(1), outer.Get("a").Export())
	assert.True(t, outer.self.hasPropertyStr("a"))
	keys := outer.self.ownKeys(true, nil)
	require.Len(t, keys, 1)
	assert.Equal(t, "a", keys[0].String())
}

func TestProxy_handler_is_proxy(t *testing.T) {
	r := New()
	target := r.NewObject()
	require.NoError(t, target.Set("a", 1))

	// trap lookup on the handler goes through the handler's own proxy
	// dispatch
	rawHandler := r.NewObject()
	metaHandler := r.NewObject()
	gets := 0
	require.NoError(t, metaHandler.Set("get", func(call FunctionCall) Value {
		gets++
		return _undefined
	}))
	handlerProxy := r.NewProxyObject(rawHandler, metaHandler)
	p := r.NewProxyObject(target, handlerProxy)

	assert.Equal(t, int64(1), p.Get("a").Export())
	assert.Greater(t, gets, 0)
}

func TestProxy_forin_enumeration(t *testing.T) {
	r := New()
	proto := r.NewObject()
	require.NoError(t, proto.Set("inherited", 1))
	target := r.NewObject()
	target.self.setProto(proto, true)
	require.NoError(t, target.Set("own", 2))

	handler := r.NewObject()
	require.NoError(t, handler.Set("ownKeys", func(call FunctionCall) Value {
		return r.NewArray("own", "ghost", "hidden")
	}))
	require.NoError(t, handler.Set("getOwnPropertyDescriptor", func(call FunctionCall) Value {
		name := call.Argument(1).String()
		desc := r.NewObject()
		require.NoError(t, desc.Set("configurable", true))
		switch name {
		case "own", "ghost":
			require.NoError(t, desc.Set("value", 1))
			require.NoError(t, desc.Set("enumerable", true))
		case "hidden":
			require.NoError(t, desc.Set("value", 1))
			require.NoError(t, desc.Set("enumerable", false))
		default:
			return _undefined
		}
		return desc
	}))
	p := r.NewProxyObject(target, handler)

	keys := r.ForIn(p)
	assert.Equal(t, []string{"own", "ghost", "inherited"}, keys)
}

func TestProxy_instanceof(t *testing.T) {
	r := New()
	proto := r.NewObject()
	ctor := r.newNativeFuncConstruct(func(FunctionCall) Value { return _undefined }, func(args []Value, newTarget *Object) *Object {
		obj := r.NewObject()
		obj.self.setProto(proto, true)
		return obj
	}, "C", proto, 0)
	p := r.NewProxyObject(ctor, r.NewObject())

	inst := ctor.self.assertConstructor()(nil, nil)
	assert.True(t, r.InstanceOf(inst, p))
	assert.False(t, r.InstanceOf(r.NewObject(), p))
}

func TestProxy_native_trap_config(t *testing.T) {
	r := New()
	prototype := r.NewObject()
	target := r.NewObject()
	proxy := r.NewProxy(target, &ProxyTrapConfig{
		GetPrototypeOf: func(target *Object) *Object {
			return prototype
		},
		Get: func(target *Object, property string, receiver Value) Value {
			return newStringValue("native:" + property)
		},
	})
	r.Set("proxy", proxy.proxy.val)

	p := r.Get("proxy").(*Object)
	assert.Same(t, prototype, p.self.proto())
	assert.Equal(t, "native:x", p.Get("x").String())

	proxy.Revoke()
	err := r.Try(func() {
		p.Get("x")
	})
	assertTypeError(t, err, "revoked")
}

func TestProxy_native_trap_config_ownKeys(t *testing.T) {
	r := New()
	target := r.NewObject()
	proxy := r.NewProxy(target, &ProxyTrapConfig{
		OwnKeys: func(target *Object) *Object {
			return r.NewArray("x", "y")
		},
		GetOwnPropertyDescriptor: func(target *Object, prop string) PropertyDescriptor {
			return PropertyDescriptor{
				Value:        intToValue(1),
				Writable:     FLAG_TRUE,
				Enumerable:   FLAG_TRUE,
				Configurable: FLAG_TRUE,
			}
		},
	})

	keys := proxy.proxy.val.Keys()
	assert.Equal(t, []string{"x", "y"}, keys)
}

func TestProxy_set_foreign_receiver_fallback(t *testing.T) {
	r := New()
	protoTarget := r.NewObject()
	proxyProto := r.NewProxyObject(protoTarget, r.NewObject())

	obj := r.NewObject()
	obj.self.setProto(proxyProto, true)

	// no set trap: the write walks the chain and lands on the receiver
	obj.self.setOwnStr("a", intToValue(5), true)
	assert.Equal(t, int64(5), obj.Get("a").Export())
	assert.False(t, protoTarget.self.hasOwnPropertyStr("a"))
}
