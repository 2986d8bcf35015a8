package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

type fakeCore struct {
	last map[string]any
	resp map[string]any
	err  error
}

func (f *fakeCore) Call(_ context.Context, req map[string]any) (map[string]any, error) {
	f.last = req
	return f.resp, f.err
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestHandleRun(t *testing.T) {
	core := &fakeCore{resp: map[string]any{"ok": true, "value": "5"}}
	tl := &tools{core: core}

	res, err := tl.handleRun(context.Background(), toolRequest(map[string]any{"code": "(+ 2 3)"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %v", res.Content)
	}
	if got := resultText(t, res); got != "5" {
		t.Fatalf("expected 5, got %q", got)
	}
	if core.last["op"] != "run" || core.last["code"] != "(+ 2 3)" {
		t.Fatalf("unexpected request %v", core.last)
	}
}

func TestHandleRunMissingCode(t *testing.T) {
	tl := &tools{core: &fakeCore{}}
	res, err := tl.handleRun(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
}

func TestHandleTracesLimit(t *testing.T) {
	core := &fakeCore{resp: map[string]any{"ok": true, "value": []any{}}}
	tl := &tools{core: core}

	if _, err := tl.handleTraces(context.Background(), toolRequest(map[string]any{})); err != nil {
		t.Fatal(err)
	}
	if _, ok := core.last["n"]; ok {
		t.Fatalf("expected no limit, got %v", core.last)
	}

	if _, err := tl.handleTraces(context.Background(), toolRequest(map[string]any{"n": float64(3)})); err != nil {
		t.Fatal(err)
	}
	if core.last["n"] != 3 {
		t.Fatalf("expected n=3, got %v", core.last["n"])
	}
}

func TestFormatResult(t *testing.T) {
	res, err := formatResult(map[string]any{"ok": false, "error": "history: no history database configured"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "no history") {
		t.Fatalf("expected error result, got %v", res)
	}

	res, err = formatResult(map[string]any{"ok": true, "value": []any{map[string]any{"code": "(+ 1 1)"}}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), `"code": "(+ 1 1)"`) {
		t.Fatalf("unexpected JSON %q", resultText(t, res))
	}
}

func TestSendTransportError(t *testing.T) {
	tl := &tools{core: &fakeCore{err: errors.New("read: EOF")}}
	res, err := tl.handleClear(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
}
