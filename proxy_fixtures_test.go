package koto

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// The invariant matrix lives in testdata/proxy_invariants.yaml: one
// entry per (trap result, target state) combination with the expected
// outcome. Each case builds a fresh target, installs a single trap
// returning the fixture literal, performs the matching operation on
// property "x" and checks whether the dispatcher raised.

type fixtureProp struct {
	Name         string `yaml:"name"`
	Value        int    `yaml:"value"`
	Writable     bool   `yaml:"writable"`
	Configurable bool   `yaml:"configurable"`
	Enumerable   bool   `yaml:"enumerable"`
}

type fixtureTarget struct {
	Extensible bool          `yaml:"extensible"`
	Props      []fixtureProp `yaml:"props"`
}

type proxyFixture struct {
	Name    string        `yaml:"name"`
	Trap    string        `yaml:"trap"`
	Target  fixtureTarget `yaml:"target"`
	Return  interface{}   `yaml:"return"`
	WantErr bool          `yaml:"wantErr"`
	ErrLike string        `yaml:"errLike"`
}

// fixtureValue maps a YAML literal onto a language value. The sentinels
// "<null>", "<undefined>" and "<object>" cover values YAML cannot
// express directly.
func fixtureValue(r *Runtime, v interface{}) Value {
	switch v := v.(type) {
	case nil:
		return _undefined
	case bool:
		return r.ToValue(v)
	case int:
		return intToValue(int64(v))
	case string:
		switch v {
		case "<null>":
			return _null
		case "<undefined>":
			return _undefined
		case "<object>":
			return r.NewObject()
		}
		return newStringValue(v)
	case []interface{}:
		values := make([]Value, len(v))
		for i, item := range v {
			values[i] = fixtureValue(r, item)
		}
		return r.newArrayValues(values)
	case map[string]interface{}:
		obj := r.NewObject()
		for k, item := range v {
			obj.self.setOwnStr(k, fixtureValue(r, item), true)
		}
		return obj
	}
	panic("unsupported fixture value")
}

func (f *proxyFixture) buildTarget(t *testing.T, r *Runtime) *Object {
	target := r.NewObject()
	for _, prop := range f.Target.Props {
		require.NoError(t, target.DefineDataProperty(prop.Name, intToValue(int64(prop.Value)),
			ToFlag(prop.Writable), ToFlag(prop.Configurable), ToFlag(prop.Enumerable)))
	}
	if !f.Target.Extensible {
		target.self.preventExtensions(true)
	}
	return target
}

func (f *proxyFixture) run(t *testing.T, r *Runtime, p *Object) {
	switch f.Trap {
	case "get":
		p.self.getStr("x", nil)
	case "set":
		p.self.setOwnStr("x", intToValue(9), true)
	case "has":
		p.self.hasPropertyStr("x")
	case "deleteProperty":
		p.self.deleteStr("x", true)
	case "getOwnPropertyDescriptor":
		p.self.getOwnPropStr("x")
	case "defineProperty":
		p.self.defineOwnProperty(newStringValue("x"), PropertyDescriptor{
			Value:        intToValue(9),
			Writable:     FLAG_TRUE,
			Enumerable:   FLAG_TRUE,
			Configurable: FLAG_TRUE,
		}, true)
	case "ownKeys":
		p.self.ownKeys(true, nil)
	case "getPrototypeOf":
		p.self.proto()
	case "setPrototypeOf":
		p.self.setProto(nil, true)
	case "isExtensible":
		p.self.isExtensible()
	case "preventExtensions":
		p.self.preventExtensions(true)
	default:
		t.Fatalf("unknown trap %q", f.Trap)
	}
}

func TestProxy_invariant_fixtures(t *testing.T) {
	data, err := os.ReadFile("testdata/proxy_invariants.yaml")
	require.NoError(t, err)

	var fixtures []proxyFixture
	require.NoError(t, yaml.Unmarshal(data, &fixtures))
	require.NotEmpty(t, fixtures)

	for _, f := range fixtures {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			r := New()
			target := f.buildTarget(t, r)
			handler := r.NewObject()
			require.NoError(t, handler.Set(f.Trap, func(call FunctionCall) Value {
				return fixtureValue(r, f.Return)
			}))
			p := r.NewProxyObject(target, handler)

			err := r.Try(func() {
				f.run(t, r, p)
			})
			if f.WantErr {
				require.Error(t, err, "expected an invariant violation")
				assert.Contains(t, err.Error(), "TypeError")
				if f.ErrLike != "" {
					assert.Contains(t, err.Error(), f.ErrLike)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}
