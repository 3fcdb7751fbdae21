package koto

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

var (
	valueFalse    Value = valueBool(false)
	valueTrue     Value = valueBool(true)
	_null         Value = valueNull{}
	_undefined    Value = valueUndefined{}
	_NaN          Value = valueFloat(math.NaN())
	_positiveZero Value = valueInt(0)

	negativeZero        = math.Float64frombits(1 << 63)
	_negativeZero Value = valueFloat(negativeZero)
)

var (
	reflectTypeInt    = reflect.TypeOf(int64(0))
	reflectTypeBool   = reflect.TypeOf(false)
	reflectTypeNil    = reflect.TypeOf(nil)
	reflectTypeFloat  = reflect.TypeOf(float64(0))
	reflectTypeMap    = reflect.TypeOf(map[string]interface{}{})
	reflectTypeString = reflect.TypeOf("")
)

// Value is any ECMAScript language value the meta-object protocol
// dispatches on: primitives, symbols and object references.
type Value interface {
	ToInteger() int64
	String() string
	ToFloat() float64
	ToNumber() Value
	ToBoolean() bool
	ToObject(r *Runtime) *Object
	SameAs(Value) bool
	Equals(Value) bool
	StrictEquals(Value) bool
	Export() interface{}
	ExportType() reflect.Type
}

type valueInt int64
type valueFloat float64
type valueBool bool
type valueString string
type valueNull struct{}
type valueUndefined struct {
	valueNull
}

// valueSymbol values compare by pointer identity, exactly like the
// symbols they represent.
type valueSymbol struct {
	desc string
}

// Flag is the tri-state of an optional boolean descriptor field.
type Flag int

const (
	FLAG_NOT_SET Flag = iota
	FLAG_FALSE
	FLAG_TRUE
)

func (f Flag) Bool() bool {
	return f == FLAG_TRUE
}

func ToFlag(b bool) Flag {
	if b {
		return FLAG_TRUE
	}
	return FLAG_FALSE
}

// valueProperty is the stored form of a non-default property: either a
// data property with attributes or an accessor. A plain Value in an
// object's property table stands for a writable/enumerable/configurable
// data property.
type valueProperty struct {
	value        Value
	writable     bool
	configurable bool
	enumerable   bool
	accessor     bool
	fromProxy    bool
	getterFunc   *Object
	setterFunc   *Object
}

func propGetter(v Value, r *Runtime) *Object {
	if v == nil || v == _undefined {
		return nil
	}
	if obj, ok := v.(*Object); ok {
		if _, ok := obj.self.assertCallable(); ok {
			return obj
		}
	}
	panic(r.NewTypeError("Getter must be a function: %s", v.String()))
}

func propSetter(v Value, r *Runtime) *Object {
	if v == nil || v == _undefined {
		return nil
	}
	if obj, ok := v.(*Object); ok {
		if _, ok := obj.self.assertCallable(); ok {
			return obj
		}
	}
	panic(r.NewTypeError("Setter must be a function: %s", v.String()))
}

func (p *valueProperty) get(this Value) Value {
	if p.accessor {
		if p.getterFunc == nil {
			return _undefined
		}
		call, _ := p.getterFunc.self.assertCallable()
		return call(FunctionCall{This: this})
	}
	if p.value == nil {
		return _undefined
	}
	return p.value
}

func (p *valueProperty) set(this Value, v Value) {
	if p.accessor {
		if p.setterFunc != nil {
			call, _ := p.setterFunc.self.assertCallable()
			call(FunctionCall{This: this, Arguments: []Value{v}})
		}
		return
	}
	p.value = v
}

func (p *valueProperty) isWritable() bool {
	if p.accessor {
		return p.setterFunc != nil
	}
	return p.writable
}

func (p *valueProperty) ToInteger() int64 {
	return 0
}

func (p *valueProperty) String() string {
	return ""
}

func (p *valueProperty) ToFloat() float64 {
	return math.NaN()
}

func (p *valueProperty) ToNumber() Value {
	return nil
}

func (p *valueProperty) ToBoolean() bool {
	return false
}

func (p *valueProperty) ToObject(*Runtime) *Object {
	return nil
}

func (p *valueProperty) SameAs(other Value) bool {
	if otherProp, ok := other.(*valueProperty); ok {
		return p == otherProp
	}
	return false
}

func (p *valueProperty) Equals(Value) bool {
	return false
}

func (p *valueProperty) StrictEquals(Value) bool {
	return false
}

func (p *valueProperty) Export() interface{} {
	panic("Cannot export valueProperty")
}

func (p *valueProperty) ExportType() reflect.Type {
	panic("Cannot export valueProperty")
}

func intToValue(i int64) Value {
	return valueInt(i)
}

func floatToValue(f float64) Value {
	return valueFloat(f)
}

func newStringValue(s string) valueString {
	return valueString(s)
}

func newSymbol(desc string) *valueSymbol {
	return &valueSymbol{desc: desc}
}

func nilSafe(v Value) Value {
	if v == nil {
		return _undefined
	}
	return v
}

func assertString(v Value) (valueString, bool) {
	s, ok := v.(valueString)
	return s, ok
}

func IsUndefined(v Value) bool {
	return v == _undefined
}

func IsNull(v Value) bool {
	return v == _null
}

func sameNumber(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if a == b {
		return a != 0 || math.Signbit(a) == math.Signbit(b)
	}
	return false
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return math.NaN()
}

func (i valueInt) ToInteger() int64 {
	return int64(i)
}

func (i valueInt) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (i valueInt) ToFloat() float64 {
	return float64(i)
}

func (i valueInt) ToNumber() Value {
	return i
}

func (i valueInt) ToBoolean() bool {
	return i != 0
}

func (i valueInt) ToObject(r *Runtime) *Object {
	return r.newPrimitiveObject(i, r.global.ObjectPrototype, classNumber)
}

func (i valueInt) SameAs(other Value) bool {
	switch o := other.(type) {
	case valueInt:
		return i == o
	case valueFloat:
		return sameNumber(float64(i), float64(o))
	}
	return false
}

func (i valueInt) Equals(other Value) bool {
	switch o := other.(type) {
	case valueInt:
		return i == o
	case valueFloat:
		return float64(i) == float64(o)
	case valueString:
		return float64(i) == stringToNumber(string(o))
	case valueBool:
		return int64(i) == o.toInt()
	case *Object:
		return i.Equals(o.toPrimitive())
	}
	return false
}

func (i valueInt) StrictEquals(other Value) bool {
	switch o := other.(type) {
	case valueInt:
		return i == o
	case valueFloat:
		return float64(i) == float64(o)
	}
	return false
}

func (i valueInt) Export() interface{} {
	return int64(i)
}

func (i valueInt) ExportType() reflect.Type {
	return reflectTypeInt
}

func (f valueFloat) ToInteger() int64 {
	switch {
	case math.IsNaN(float64(f)):
		return 0
	case math.IsInf(float64(f), 1):
		return math.MaxInt64
	case math.IsInf(float64(f), -1):
		return math.MinInt64
	}
	return int64(f)
}

func (f valueFloat) String() string {
	if math.IsNaN(float64(f)) {
		return "NaN"
	}
	if math.IsInf(float64(f), 1) {
		return "Infinity"
	}
	if math.IsInf(float64(f), -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 64)
}

func (f valueFloat) ToFloat() float64 {
	return float64(f)
}

func (f valueFloat) ToNumber() Value {
	return f
}

func (f valueFloat) ToBoolean() bool {
	return float64(f) != 0 && !math.IsNaN(float64(f))
}

func (f valueFloat) ToObject(r *Runtime) *Object {
	return r.newPrimitiveObject(f, r.global.ObjectPrototype, classNumber)
}

func (f valueFloat) SameAs(other Value) bool {
	switch o := other.(type) {
	case valueFloat:
		return sameNumber(float64(f), float64(o))
	case valueInt:
		return sameNumber(float64(f), float64(o))
	}
	return false
}

func (f valueFloat) Equals(other Value) bool {
	switch o := other.(type) {
	case valueFloat:
		return float64(f) == float64(o)
	case valueInt:
		return float64(f) == float64(o)
	case valueString:
		return float64(f) == stringToNumber(string(o))
	case valueBool:
		return float64(f) == float64(o.toInt())
	case *Object:
		return f.Equals(o.toPrimitive())
	}
	return false
}

func (f valueFloat) StrictEquals(other Value) bool {
	switch o := other.(type) {
	case valueFloat:
		return float64(f) == float64(o)
	case valueInt:
		return float64(f) == float64(o)
	}
	return false
}

func (f valueFloat) Export() interface{} {
	return float64(f)
}

func (f valueFloat) ExportType() reflect.Type {
	return reflectTypeFloat
}

func (b valueBool) toInt() int64 {
	if b {
		return 1
	}
	return 0
}

func (b valueBool) ToInteger() int64 {
	return b.toInt()
}

func (b valueBool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b valueBool) ToFloat() float64 {
	return float64(b.toInt())
}

func (b valueBool) ToNumber() Value {
	return valueInt(b.toInt())
}

func (b valueBool) ToBoolean() bool {
	return bool(b)
}

func (b valueBool) ToObject(r *Runtime) *Object {
	return r.newPrimitiveObject(b, r.global.ObjectPrototype, classBoolean)
}

func (b valueBool) SameAs(other Value) bool {
	o, ok := other.(valueBool)
	return ok && b == o
}

func (b valueBool) Equals(other Value) bool {
	if o, ok := other.(valueBool); ok {
		return b == o
	}
	return valueInt(b.toInt()).Equals(other)
}

func (b valueBool) StrictEquals(other Value) bool {
	o, ok := other.(valueBool)
	return ok && b == o
}

func (b valueBool) Export() interface{} {
	return bool(b)
}

func (b valueBool) ExportType() reflect.Type {
	return reflectTypeBool
}

func (s valueString) ToInteger() int64 {
	return valueFloat(stringToNumber(string(s))).ToInteger()
}

func (s valueString) String() string {
	return string(s)
}

func (s valueString) ToFloat() float64 {
	return stringToNumber(string(s))
}

func (s valueString) ToNumber() Value {
	return valueFloat(stringToNumber(string(s)))
}

func (s valueString) ToBoolean() bool {
	return len(s) > 0
}

func (s valueString) ToObject(r *Runtime) *Object {
	return r.newPrimitiveObject(s, r.global.ObjectPrototype, classString)
}

func (s valueString) SameAs(other Value) bool {
	o, ok := other.(valueString)
	return ok && s == o
}

func (s valueString) Equals(other Value) bool {
	switch o := other.(type) {
	case valueString:
		return s == o
	case valueInt, valueFloat, valueBool:
		return stringToNumber(string(s)) == o.ToFloat()
	case *Object:
		return s.Equals(o.toPrimitive())
	}
	return false
}

func (s valueString) StrictEquals(other Value) bool {
	o, ok := other.(valueString)
	return ok && s == o
}

func (s valueString) Export() interface{} {
	return string(s)
}

func (s valueString) ExportType() reflect.Type {
	return reflectTypeString
}

func (n valueNull) ToInteger() int64 {
	return 0
}

func (n valueNull) String() string {
	return "null"
}

func (n valueNull) ToFloat() float64 {
	return 0
}

func (n valueNull) ToNumber() Value {
	return _positiveZero
}

func (n valueNull) ToBoolean() bool {
	return false
}

func (n valueNull) ToObject(r *Runtime) *Object {
	panic(r.NewTypeError("Cannot convert undefined or null to object"))
}

func (n valueNull) SameAs(other Value) bool {
	return other == _null
}

func (n valueNull) Equals(other Value) bool {
	switch other.(type) {
	case valueNull, valueUndefined:
		return true
	}
	return false
}

func (n valueNull) StrictEquals(other Value) bool {
	return other == _null
}

func (n valueNull) Export() interface{} {
	return nil
}

func (n valueNull) ExportType() reflect.Type {
	return reflectTypeNil
}

func (u valueUndefined) String() string {
	return "undefined"
}

func (u valueUndefined) ToNumber() Value {
	return _NaN
}

func (u valueUndefined) ToFloat() float64 {
	return math.NaN()
}

func (u valueUndefined) SameAs(other Value) bool {
	return other == _undefined
}

func (u valueUndefined) StrictEquals(other Value) bool {
	return other == _undefined
}

func (s *valueSymbol) ToInteger() int64 {
	panic(typeError("Cannot convert a Symbol value to a number"))
}

func (s *valueSymbol) String() string {
	return fmt.Sprintf("Symbol(%s)", s.desc)
}

func (s *valueSymbol) ToFloat() float64 {
	panic(typeError("Cannot convert a Symbol value to a number"))
}

func (s *valueSymbol) ToNumber() Value {
	panic(typeError("Cannot convert a Symbol value to a number"))
}

func (s *valueSymbol) ToBoolean() bool {
	return true
}

func (s *valueSymbol) ToObject(r *Runtime) *Object {
	return r.newPrimitiveObject(s, r.global.ObjectPrototype, classSymbol)
}

func (s *valueSymbol) SameAs(other Value) bool {
	o, ok := other.(*valueSymbol)
	return ok && s == o
}

func (s *valueSymbol) Equals(other Value) bool {
	return s.SameAs(other)
}

func (s *valueSymbol) StrictEquals(other Value) bool {
	return s.SameAs(other)
}

func (s *valueSymbol) Export() interface{} {
	return s.String()
}

func (s *valueSymbol) ExportType() reflect.Type {
	return reflectTypeString
}

// typeError panics carry a bare message when no Runtime is in reach;
// Runtime.Try converts them into TypeError exceptions.
type typeError string
