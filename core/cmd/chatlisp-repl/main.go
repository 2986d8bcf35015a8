package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/peterh/liner"

	chatlisp "github.com/rphilander/chatlisp/core"
)

const (
	banner     = "chatlisp repl. :env lists bindings, :reset clears them, :quit exits."
	promptMain = "> "
	promptCont = ". "
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	os.Exit(repl())
}

func repl() int {
	fmt.Println(banner)

	histPath := os.Getenv("CHATLISP_HISTORY")
	if histPath == "" {
		home, _ := os.UserHomeDir()
		histPath = filepath.Join(home, ".chatlisp_history")
	}
	runTimeout, err := time.ParseDuration(envOr("CHATLISP_RUN_TIMEOUT", "2s"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "CHATLISP_RUN_TIMEOUT: %v\n", err)
		return 1
	}
	maxDepth, err := strconv.Atoi(envOr("CHATLISP_MAX_DEPTH", "10000"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "CHATLISP_MAX_DEPTH: %v\n", err)
		return 1
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	session := chatlisp.NewSession(chatlisp.WithMaxDepth(maxDepth))
	builtins := chatlisp.Builtins()

	for {
		code, ok := readBalanced(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			case ":reset":
				session.Reset()
				fmt.Println("environment cleared")
			case ":env":
				for _, name := range session.Env().Names() {
					if _, builtin := builtins[name]; builtin {
						continue
					}
					v, _ := session.Env().Get(name)
					fmt.Printf("%s = %s\n", name, v.String())
				}
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		out, err := session.Eval(ctx, code)
		cancel()
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s (%v)\n", chatlisp.GenericFailure, err)
			continue
		}
		fmt.Println(out)
	}
}

// readBalanced prompts until the input closes every parenthesis it opens.
// An excess ')' ends the input so the parser can report it.
func readBalanced(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if depth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

func depth(src string) int {
	d := 0
	for _, tok := range chatlisp.Tokenize(src) {
		switch tok {
		case "(":
			d++
		case ")":
			d--
		}
	}
	return d
}
