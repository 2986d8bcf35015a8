package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	chatlisp "github.com/rphilander/chatlisp/core"
)

// caller is the part of chatlisp.Client the tools need.
type caller interface {
	Call(ctx context.Context, req map[string]any) (map[string]any, error)
}

type tools struct {
	core caller
}

// formatResult turns a core response into an MCP tool result.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	if text, isText := resp["value"].(string); isText {
		return mcp.NewToolResultText(text), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (t *tools) send(ctx context.Context, req map[string]any) (*mcp.CallToolResult, error) {
	resp, err := t.core.Call(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func (t *tools) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return t.send(ctx, map[string]any{"op": "run", "code": code})
}

func (t *tools) handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if n := request.GetInt("n", -1); n >= 0 {
		req["n"] = n
	}
	return t.send(ctx, req)
}

func (t *tools) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.send(ctx, map[string]any{"op": "history", "n": request.GetInt("n", 20)})
}

func (t *tools) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.send(ctx, map[string]any{"op": "clear"})
}

func (t *tools) register(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("chatlisp_run",
			mcp.WithDescription("Evaluate the first form of a chatlisp program in a fresh environment. Returns the display text."),
			mcp.WithString("code",
				mcp.Required(),
				mcp.Description("Program text, e.g. (+ 2 3)"),
			),
		),
		t.handleRun,
	)

	s.AddTool(
		mcp.NewTool("chatlisp_traces",
			mcp.WithDescription("Recent runs handled by the core process, oldest first."),
			mcp.WithNumber("n",
				mcp.Description("Maximum number of traces to return. Omit for all."),
			),
		),
		t.handleTraces,
	)

	s.AddTool(
		mcp.NewTool("chatlisp_history",
			mcp.WithDescription("Recent runs from the history database, newest first."),
			mcp.WithNumber("n",
				mcp.Description("Maximum number of entries to return (default 20)."),
			),
		),
		t.handleHistory,
	)

	s.AddTool(
		mcp.NewTool("chatlisp_clear",
			mcp.WithDescription("Drop the in-memory traces of the core process."),
		),
		t.handleClear,
	)
}

func main() {
	sockPath := os.Getenv("CHATLISP_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/chatlisp.sock"
	}

	client, err := chatlisp.Dial(sockPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer client.Close()
	log.Printf("connected to chatlisp core: %s", sockPath)

	s := server.NewMCPServer(
		"chatlisp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	t := &tools{core: client}
	t.register(s)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
