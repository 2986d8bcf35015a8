package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	chatlisp "github.com/rphilander/chatlisp/core"
)

// With arguments, they are joined and sent as code to the run op. Without,
// a raw JSON request is read from stdin.
func main() {
	sockPath := os.Getenv("CHATLISP_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/chatlisp.sock"
	}

	var msg map[string]any
	if len(os.Args) > 1 {
		msg = map[string]any{"op": "run", "code": strings.Join(os.Args[1:], " ")}
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			fmt.Fprintf(os.Stderr, "parse JSON: %v\n", err)
			os.Exit(1)
		}
	}

	client, err := chatlisp.Dial(sockPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Call(ctx, msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "call: %v\n", err)
		os.Exit(1)
	}

	// Plain run output prints as-is so it can be piped.
	if msg["op"] == "run" && len(os.Args) > 1 {
		if ok, _ := resp["ok"].(bool); ok {
			fmt.Println(resp["value"])
			return
		}
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
