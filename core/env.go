package chatlisp

import "sort"

// Env maps names to values. There is no parent chain: Extend copies the
// whole mapping, so a callee sees a snapshot of its caller's bindings and
// nothing it binds flows back.
type Env struct {
	vars map[string]Value
}

// NewEnv returns an Env with the builtin library installed.
func NewEnv() *Env {
	env := &Env{vars: make(map[string]Value)}
	for name, fn := range Builtins() {
		env.Set(name, NativeVal(name, fn))
	}
	return env
}

func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Set binds name, replacing any previous binding.
func (e *Env) Set(name string, v Value) {
	e.vars[name] = v
}

// Extend returns a new Env holding a copy of every current binding.
func (e *Env) Extend() *Env {
	vars := make(map[string]Value, len(e.vars))
	for k, v := range e.vars {
		vars[k] = v
	}
	return &Env{vars: vars}
}

// Names returns the bound names in sorted order.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
