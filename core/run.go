package chatlisp

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
)

// Run evaluates the first form of code in a fresh environment and returns
// its display text. It never fails: fatal errors become GenericFailure and
// their detail goes to the log only.
func Run(code string) string {
	return RunContext(context.Background(), code)
}

// RunContext is Run bound to ctx; see NewEvaluator for what ctx stops.
func RunContext(ctx context.Context, code string, opts ...Option) string {
	text, err := runFirst(ctx, code, opts...)
	if err != nil {
		log.Printf("run failed: %v", err)
		return GenericFailure
	}
	return text
}

func runFirst(ctx context.Context, code string, opts ...Option) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	ev := NewEvaluator(ctx, opts...)
	expr, err := ParseLimit(code, ev.MaxDepth)
	if err != nil {
		return "", err
	}
	val, err := ev.Eval(expr, NewEnv())
	if err != nil {
		return "", err
	}
	return Render(val), nil
}

// Render turns a result value into the text shown to a user.
func Render(v Value) string {
	switch v.Kind {
	case ValNumber, ValSymbol:
		return v.String()
	case ValText:
		return v.Str
	case ValList:
		elems := v.Elems()
		if len(elems) == 0 {
			return ""
		}
		for _, kind := range []ValueKind{ValText, ValNumber, ValSymbol} {
			for i := len(elems) - 1; i >= 0; i-- {
				if elems[i].Kind == kind {
					return Render(elems[i])
				}
			}
		}
		return v.String()
	default:
		return v.String()
	}
}

// Session keeps one Env across evaluations, so definitions made by one
// call are visible to the next.
type Session struct {
	env  *Env
	opts []Option
}

func NewSession(opts ...Option) *Session {
	return &Session{env: NewEnv(), opts: opts}
}

// Env exposes the session bindings.
func (s *Session) Env() *Env {
	return s.env
}

// Reset drops every user binding.
func (s *Session) Reset() {
	s.env = NewEnv()
}

// Eval evaluates every form of code in order and renders the last result.
// Unlike Run it reports fatal errors to the caller. Bindings made before a
// fatal error are kept.
func (s *Session) Eval(ctx context.Context, code string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FatalError{Op: "panic", Msg: fmt.Sprint(r)}
		}
	}()
	ev := NewEvaluator(ctx, s.opts...)
	forms, err := ParseAllLimit(code, ev.MaxDepth)
	if err != nil {
		return "", err
	}
	last := ListVal(nil)
	for _, form := range forms {
		last, err = ev.Eval(form, s.env)
		if err != nil {
			return "", err
		}
	}
	return Render(last), nil
}
