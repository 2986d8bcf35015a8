package chatlisp

import "testing"

func TestNewEnvInstallsBuiltins(t *testing.T) {
	env := NewEnv()
	for name := range Builtins() {
		v, ok := env.Get(name)
		if !ok || v.Kind != ValNative || v.Native.Name != name {
			t.Fatalf("builtin %s not installed", name)
		}
	}
}

func TestEnvSetOverwrites(t *testing.T) {
	env := NewEnv()
	env.Set("+", NumberVal(1))
	if v, _ := env.Get("+"); !ValuesEqual(v, NumberVal(1)) {
		t.Fatalf("expected + to be shadowed, got %s", v.String())
	}
}

func TestEnvExtendIsSnapshot(t *testing.T) {
	parent := NewEnv()
	parent.Set("a", NumberVal(1))
	child := parent.Extend()

	child.Set("a", NumberVal(2))
	child.Set("b", NumberVal(3))
	parent.Set("c", NumberVal(4))

	if v, _ := parent.Get("a"); v.Int != 1 {
		t.Fatalf("child write reached parent: a = %s", v.String())
	}
	if _, ok := parent.Get("b"); ok {
		t.Fatalf("child binding reached parent")
	}
	if _, ok := child.Get("c"); ok {
		t.Fatalf("parent binding made after Extend reached child")
	}
}

func TestEnvNamesSorted(t *testing.T) {
	env := &Env{vars: map[string]Value{}}
	env.Set("b", NumberVal(1))
	env.Set("a", NumberVal(2))
	names := env.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names %v", names)
	}
}
