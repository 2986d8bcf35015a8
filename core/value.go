package chatlisp

import (
	"fmt"
	"strconv"
	"strings"
)

type ValueKind int

const (
	ValNumber ValueKind = iota
	ValSymbol
	ValText
	ValList
	ValLambda
	ValNative
)

// ErrorPrefix marks a Symbol as a sentinel error value.
const ErrorPrefix = "error: "

// LambdaValue is a user-defined procedure. It captures no environment:
// every application runs in a copy of the caller's Env.
type LambdaValue struct {
	Params []string
	Body   Value
}

// NativeValue is a builtin installed by NewEnv.
type NativeValue struct {
	Name string
	Fn   Builtin
}

type Value struct {
	Kind   ValueKind
	Int    int64
	Str    string
	List   *[]Value
	Lambda *LambdaValue
	Native *NativeValue
}

func NumberVal(n int64) Value  { return Value{Kind: ValNumber, Int: n} }
func SymbolVal(s string) Value { return Value{Kind: ValSymbol, Str: s} }
func TextVal(s string) Value   { return Value{Kind: ValText, Str: s} }
func ListVal(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: ValList, List: &elems}
}
func LambdaVal(params []string, body Value) Value {
	return Value{Kind: ValLambda, Lambda: &LambdaValue{Params: params, Body: body}}
}
func NativeVal(name string, fn Builtin) Value {
	return Value{Kind: ValNative, Native: &NativeValue{Name: name, Fn: fn}}
}

// ErrorVal builds a sentinel error: a Symbol whose text starts with ErrorPrefix.
func ErrorVal(format string, args ...any) Value {
	return SymbolVal(ErrorPrefix + fmt.Sprintf(format, args...))
}

// IsError reports whether v is a sentinel error value.
func (v Value) IsError() bool {
	return v.Kind == ValSymbol && strings.HasPrefix(v.Str, ErrorPrefix)
}

// Elems returns the elements of a List, or nil for any other kind.
func (v Value) Elems() []Value {
	if v.Kind != ValList || v.List == nil {
		return nil
	}
	return *v.List
}

func (v Value) String() string {
	switch v.Kind {
	case ValNumber:
		return strconv.FormatInt(v.Int, 10)
	case ValSymbol:
		return v.Str
	case ValText:
		return fmt.Sprintf("%q", v.Str)
	case ValList:
		elems := v.Elems()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case ValLambda:
		return fmt.Sprintf("<lambda(%s)>", strings.Join(v.Lambda.Params, " "))
	case ValNative:
		return fmt.Sprintf("<builtin %s>", v.Native.Name)
	default:
		return fmt.Sprintf("<unknown:%d>", v.Kind)
	}
}

func (v Value) KindName() string {
	switch v.Kind {
	case ValNumber:
		return "Number"
	case ValSymbol:
		return "Symbol"
	case ValText:
		return "Text"
	case ValList:
		return "List"
	case ValLambda:
		return "Lambda"
	case ValNative:
		return "NativeFunction"
	default:
		return "Unknown"
	}
}

// ValuesEqual compares two Values for deep equality. Lambdas compare by
// structure, natives by name.
func ValuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValNumber:
		return a.Int == b.Int
	case ValSymbol, ValText:
		return a.Str == b.Str
	case ValList:
		as, bs := a.Elems(), b.Elems()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !ValuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	case ValLambda:
		if len(a.Lambda.Params) != len(b.Lambda.Params) {
			return false
		}
		for i := range a.Lambda.Params {
			if a.Lambda.Params[i] != b.Lambda.Params[i] {
				return false
			}
		}
		return ValuesEqual(a.Lambda.Body, b.Lambda.Body)
	case ValNative:
		return a.Native.Name == b.Native.Name
	}
	return false
}
