package chatlisp

import (
	"context"
	"io"
	"os"
)

// Builtin is a native operation. It is called with eagerly evaluated
// arguments and the live Env of the caller, which it may mutate.
type Builtin func(ev *Evaluator, args []Value, env *Env) (Value, error)

// Evaluator reduces expressions to values.
type Evaluator struct {
	Out      io.Writer // print output, os.Stdout by default
	MaxDepth int       // nesting limit, 0 = unbounded
	ctx      context.Context
	depth    int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(e *Evaluator) { e.Out = w }
}

// WithMaxDepth turns evaluation nested deeper than n into a FatalError.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) { e.MaxDepth = n }
}

// NewEvaluator returns an Evaluator bound to ctx. Loops and lambda
// applications fail with a FatalError once ctx is done.
func NewEvaluator(ctx context.Context, opts ...Option) *Evaluator {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &Evaluator{Out: os.Stdout, ctx: ctx}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) checkContext(op string) error {
	if e.ctx == nil {
		return nil
	}
	if err := e.ctx.Err(); err != nil {
		return fatalf(op, "evaluation stopped: %v", err)
	}
	return nil
}

func (e *Evaluator) Eval(expr Value, env *Env) (Value, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.MaxDepth > 0 && e.depth > e.MaxDepth {
		return Value{}, fatalf("eval", "maximum nesting depth %d exceeded", e.MaxDepth)
	}

	switch expr.Kind {
	case ValNumber, ValText, ValLambda, ValNative:
		return expr, nil
	case ValSymbol:
		if val, ok := env.Get(expr.Str); ok {
			return val, nil
		}
		return ErrorVal("undefined variable: %s", expr.Str), nil
	case ValList:
		return e.evalList(expr.Elems(), env)
	default:
		return Value{}, fatalf("eval", "unknown value kind: %d", expr.Kind)
	}
}

// EvalString parses the first form of input and evaluates it in env. The
// parse is held to the same nesting limit as evaluation.
func (e *Evaluator) EvalString(input string, env *Env) (Value, error) {
	expr, err := ParseLimit(input, e.MaxDepth)
	if err != nil {
		return Value{}, err
	}
	return e.Eval(expr, env)
}

func (e *Evaluator) evalList(list []Value, env *Env) (Value, error) {
	if len(list) == 0 {
		return ListVal(nil), nil
	}

	// Special forms are matched on the literal head symbol, before anything
	// is evaluated.
	head := list[0]
	if head.Kind == ValSymbol {
		switch head.Str {
		case "lambda":
			return e.evalLambda(list)
		case "define":
			return e.evalDefine(list, env)
		case "set!":
			return e.evalSet(list, env)
		}
	}

	callee, err := e.Eval(head, env)
	if err != nil {
		return Value{}, err
	}
	args := make([]Value, len(list)-1)
	for i, argExpr := range list[1:] {
		val, err := e.Eval(argExpr, env)
		if err != nil {
			return Value{}, err
		}
		args[i] = val
	}
	return e.apply(callee, args, env)
}

func (e *Evaluator) apply(callee Value, args []Value, env *Env) (Value, error) {
	switch callee.Kind {
	case ValNative:
		return callee.Native.Fn(e, args, env)
	case ValLambda:
		if err := e.checkContext("lambda"); err != nil {
			return Value{}, err
		}
		local := env.Extend()
		for i, param := range callee.Lambda.Params {
			if i < len(args) {
				local.Set(param, args[i])
			} else {
				local.Set(param, SymbolVal(""))
			}
		}
		return e.Eval(callee.Lambda.Body, local)
	default:
		// A bare value applied to nothing is itself; with arguments the
		// callee is still returned unchanged.
		return callee, nil
	}
}

// evalLambda: (lambda (params...) body)
func (e *Evaluator) evalLambda(list []Value) (Value, error) {
	if len(list) != 3 {
		return Value{}, fatalf("lambda", "expected (lambda (params...) body), got %d elements", len(list))
	}
	if list[1].Kind != ValList {
		return Value{}, fatalf("lambda", "params must be a List, got %s", list[1].KindName())
	}
	paramList := list[1].Elems()
	params := make([]string, len(paramList))
	for i, p := range paramList {
		if p.Kind != ValSymbol {
			return Value{}, fatalf("lambda", "param names must be Symbols, got %s", p.KindName())
		}
		params[i] = p.Str
	}
	return LambdaVal(params, list[2]), nil
}

// evalDefine: (define name [expr]) binds name to expr's value, or 0.
func (e *Evaluator) evalDefine(list []Value, env *Env) (Value, error) {
	if len(list) < 2 {
		return Value{}, fatalf("define", "missing name")
	}
	if list[1].Kind != ValSymbol {
		return Value{}, fatalf("define", "name must be a Symbol, got %s", list[1].KindName())
	}
	val := NumberVal(0)
	if len(list) >= 3 {
		var err error
		val, err = e.Eval(list[2], env)
		if err != nil {
			return Value{}, err
		}
	}
	env.Set(list[1].Str, val)
	return val, nil
}

// evalSet: (set! name expr). Shape errors are sentinels, not fatal.
func (e *Evaluator) evalSet(list []Value, env *Env) (Value, error) {
	if len(list) != 3 {
		return ErrorVal("set! expects 2 arguments"), nil
	}
	if list[1].Kind != ValSymbol {
		return ErrorVal("set! variable name is not valid"), nil
	}
	val, err := e.Eval(list[2], env)
	if err != nil {
		return Value{}, err
	}
	env.Set(list[1].Str, val)
	return val, nil
}
