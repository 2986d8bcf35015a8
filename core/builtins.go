package chatlisp

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Builtins returns the native operations NewEnv installs. The map is built
// fresh on every call, so each session owns its registry.
func Builtins() map[string]Builtin {
	return map[string]Builtin{
		// Arithmetic
		"+":   builtinAdd,
		"-":   builtinSub,
		"*":   builtinMul,
		"/":   builtinDiv,
		"%":   builtinRem,
		"pow": builtinPow,
		// Comparison
		"<":  compareWith("<", func(a, b int64) bool { return a < b }),
		"<=": compareWith("<=", func(a, b int64) bool { return a <= b }),
		">":  compareWith(">", func(a, b int64) bool { return a > b }),
		">=": compareWith(">=", func(a, b int64) bool { return a >= b }),
		// Text
		"print":  builtinPrint,
		"string": builtinString,
		// Binding and control
		"set!":  builtinSet,
		"if":    builtinIf,
		"while": builtinWhile,
		"for":   builtinFor,
		"begin": builtinBegin,
	}
}

// --- Arithmetic ---

func numberArg(name string, v Value) (int64, error) {
	if v.Kind != ValNumber {
		return 0, fatalf(name, "expected Number, got %s", v.KindName())
	}
	return v.Int, nil
}

// twoNumbers checks the exactly-two-Numbers shape shared by most operators.
func twoNumbers(name string, args []Value) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, fatalf(name, "expected 2 args, got %d", len(args))
	}
	a, err := numberArg(name, args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := numberArg(name, args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func builtinAdd(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	var sum int64
	for _, a := range args {
		n, err := numberArg("+", a)
		if err != nil {
			return Value{}, err
		}
		sum += n
	}
	return NumberVal(sum), nil
}

func builtinMul(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	product := int64(1)
	for _, a := range args {
		n, err := numberArg("*", a)
		if err != nil {
			return Value{}, err
		}
		product *= n
	}
	return NumberVal(product), nil
}

func builtinSub(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	a, b, err := twoNumbers("-", args)
	if err != nil {
		return Value{}, err
	}
	return NumberVal(a - b), nil
}

func builtinDiv(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	a, b, err := twoNumbers("/", args)
	if err != nil {
		return Value{}, err
	}
	if b == 0 {
		return Value{}, fatalf("/", "division by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return Value{}, fatalf("/", "integer overflow")
	}
	return NumberVal(a / b), nil
}

func builtinRem(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	a, b, err := twoNumbers("%", args)
	if err != nil {
		return Value{}, err
	}
	if b == 0 {
		return Value{}, fatalf("%", "modulo by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return Value{}, fatalf("%", "integer overflow")
	}
	return NumberVal(a % b), nil
}

func builtinPow(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	base, exp, err := twoNumbers("pow", args)
	if err != nil {
		return Value{}, err
	}
	if exp < 0 {
		return Value{}, fatalf("pow", "negative exponent %d", exp)
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return NumberVal(result), nil
}

// --- Comparison ---

func compareWith(name string, cmp func(a, b int64) bool) Builtin {
	return func(_ *Evaluator, args []Value, _ *Env) (Value, error) {
		a, b, err := twoNumbers(name, args)
		if err != nil {
			return Value{}, err
		}
		if cmp(a, b) {
			return NumberVal(1), nil
		}
		return NumberVal(0), nil
	}
}

// --- Text ---

// render is the textual form print and string use. Sentinel errors render
// as nothing so a failed lookup never leaks into output.
func render(v Value) string {
	switch v.Kind {
	case ValNumber:
		return fmt.Sprint(v.Int)
	case ValText:
		return v.Str
	case ValSymbol:
		if v.IsError() {
			return ""
		}
		return v.Str
	case ValList:
		return v.String()
	case ValLambda:
		return "<lambda>"
	default:
		return ""
	}
}

func renderArgs(args []Value) string {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(render(a))
		sb.WriteByte(' ')
	}
	return sb.String()
}

func builtinPrint(ev *Evaluator, args []Value, _ *Env) (Value, error) {
	out := strings.TrimRightFunc(renderArgs(args), unicode.IsSpace)
	if ev != nil && ev.Out != nil {
		fmt.Fprintln(ev.Out, out)
	}
	return TextVal(out), nil
}

func builtinString(_ *Evaluator, args []Value, _ *Env) (Value, error) {
	return TextVal(renderArgs(args)), nil
}

// --- Binding and control ---

// builtinSet: (set! name value) reached through a non-literal head.
func builtinSet(_ *Evaluator, args []Value, env *Env) (Value, error) {
	if len(args) != 2 {
		return ErrorVal("set! expects 2 arguments"), nil
	}
	if args[0].Kind != ValSymbol {
		return ErrorVal("set! first argument must be a variable name"), nil
	}
	env.Set(args[0].Str, args[1])
	return args[1], nil
}

// builtinIf: (if cond then else). Both branches have already been evaluated
// as arguments; the chosen one is evaluated again and returned.
func builtinIf(ev *Evaluator, args []Value, env *Env) (Value, error) {
	if len(args) != 3 {
		return Value{}, fatalf("if", "expected 3 args (cond then else), got %d", len(args))
	}
	cond, err := numberArg("if", args[0])
	if err != nil {
		return Value{}, err
	}
	if cond != 0 {
		return ev.Eval(args[1], env)
	}
	return ev.Eval(args[2], env)
}

// builtinWhile: (while cond body...) re-evaluates its reduced arguments
// until cond is 0.
func builtinWhile(ev *Evaluator, args []Value, env *Env) (Value, error) {
	if len(args) < 2 {
		return ErrorVal("while expects condition and body"), nil
	}
	last := ListVal(nil)
	for {
		if err := ev.checkContext("while"); err != nil {
			return Value{}, err
		}
		cond, err := ev.Eval(args[0], env)
		if err != nil {
			return Value{}, err
		}
		switch cond.Kind {
		case ValNumber:
		case ValSymbol:
			return ErrorVal("while condition: %s", cond.Str), nil
		default:
			return ErrorVal("while condition must be a Number, got %s", cond.KindName()), nil
		}
		if cond.Int == 0 {
			return last, nil
		}
		for _, body := range args[1:] {
			last, err = ev.Eval(body, env)
			if err != nil {
				return Value{}, err
			}
		}
	}
}

// builtinFor: (for var from to body) over [from, to] ascending.
func builtinFor(ev *Evaluator, args []Value, env *Env) (Value, error) {
	if len(args) != 4 {
		return Value{}, fatalf("for", "expected 4 args (var from to body), got %d", len(args))
	}
	if args[0].Kind != ValSymbol {
		return Value{}, fatalf("for", "var must be a Symbol, got %s", args[0].KindName())
	}
	from, err := numberArg("for", args[1])
	if err != nil {
		return Value{}, err
	}
	to, err := numberArg("for", args[2])
	if err != nil {
		return Value{}, err
	}
	last := NumberVal(0)
	if from > to {
		return last, nil
	}
	for i := from; ; i++ {
		if err := ev.checkContext("for"); err != nil {
			return Value{}, err
		}
		env.Set(args[0].Str, NumberVal(i))
		last, err = ev.Eval(args[3], env)
		if err != nil {
			return Value{}, err
		}
		if i == to {
			return last, nil
		}
	}
}

func builtinBegin(ev *Evaluator, args []Value, env *Env) (Value, error) {
	result := ListVal(nil)
	for _, a := range args {
		var err error
		result, err = ev.Eval(a, env)
		if err != nil {
			return Value{}, err
		}
	}
	return result, nil
}
