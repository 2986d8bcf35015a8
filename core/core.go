package chatlisp

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rphilander/chatlisp/history"
)

// Config holds the daemon settings; see cmd/chatlisp for the environment
// variables that fill it.
type Config struct {
	SockPath   string
	RunTimeout time.Duration // 0 = no timeout
	MaxDepth   int           // 0 = unbounded
	MaxTraces  int
	History    *history.Store // nil disables the history op
}

// Core serves run requests on a unix socket. Runs are evaluated on the
// connection goroutine, each in its own Env; traces and history writes are
// owned by the actor goroutine.
type Core struct {
	cfg      Config
	listener net.Listener
	requests chan coreRequest
	done     chan struct{}
	closeMu  sync.Once
	traces   traceRing
}

type coreRequest struct {
	msg      map[string]any
	record   *Trace // set for bookkeeping after a run; msg is nil then
	response chan map[string]any
}

// NewCore listens on cfg.SockPath, replacing a stale socket file.
func NewCore(cfg Config) (*Core, error) {
	if cfg.MaxTraces <= 0 {
		cfg.MaxTraces = 1000
	}
	os.Remove(cfg.SockPath)

	listener, err := net.Listen("unix", cfg.SockPath)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.SockPath, err)
	}
	return &Core{
		cfg:      cfg,
		listener: listener,
		requests: make(chan coreRequest, 64),
		done:     make(chan struct{}),
		traces:   traceRing{max: cfg.MaxTraces},
	}, nil
}

// Run starts the actor goroutine and accepts connections. Blocks until
// Shutdown.
func (c *Core) Run() {
	go c.actorLoop()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			return
		}
		go c.handleClientConnection(conn)
	}
}

// Shutdown stops accepting connections and stops the actor.
func (c *Core) Shutdown() {
	c.closeMu.Do(func() {
		c.listener.Close()
		close(c.done)
		os.Remove(c.cfg.SockPath)
	})
}

// actorLoop is the single goroutine that owns traces and history writes.
func (c *Core) actorLoop() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.requests:
			if req.record != nil {
				c.recordRun(req.record)
				req.response <- nil
				continue
			}
			req.response <- c.handleRequest(req.msg)
		}
	}
}

func (c *Core) sendToActor(req coreRequest) map[string]any {
	req.response = make(chan map[string]any, 1)
	select {
	case c.requests <- req:
	case <-c.done:
		return errorResponse(stringField(req.msg, "id"), "core shutting down")
	}
	select {
	case resp := <-req.response:
		return resp
	case <-c.done:
		return errorResponse(stringField(req.msg, "id"), "core shutting down")
	}
}

func stringField(msg map[string]any, key string) string {
	s, _ := msg[key].(string)
	return s
}

func intField(msg map[string]any, key string, fallback int) int {
	// JSON numbers decode as float64.
	if f, ok := msg[key].(float64); ok {
		return int(f)
	}
	return fallback
}

func (c *Core) handleRequest(msg map[string]any) map[string]any {
	id := stringField(msg, "id")
	switch op := stringField(msg, "op"); op {
	case "":
		return c.coreManual(id)
	case "traces":
		return c.handleTraces(id, msg)
	case "history":
		return c.handleHistory(id, msg)
	case "clear":
		c.traces.clear()
		return map[string]any{"id": id, "ok": true, "value": "cleared"}
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func (c *Core) coreManual(id string) map[string]any {
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    "chatlisp-core",
			"version": "1.0.0",
			"ops": map[string]any{
				"run":     "Evaluate the first form of a program in a fresh environment. Params: code (string)",
				"traces":  "Recent runs handled by this process. Params: n (int, optional)",
				"history": "Recent runs from the history database. Params: n (int, optional, default 20)",
				"clear":   "Drop in-memory traces.",
			},
			"builtins": []any{
				"+", "-", "*", "/", "%", "pow", "<", "<=", ">", ">=",
				"print", "string", "set!", "if", "while", "for", "begin",
			},
			"forms": []any{"lambda", "define", "set!"},
		},
	}
}

// handleRun evaluates on the caller's goroutine, then hands the trace to the
// actor.
func (c *Core) handleRun(id string, msg map[string]any) map[string]any {
	code, ok := msg["code"].(string)
	if !ok {
		return errorResponse(id, "run: missing 'code' string")
	}

	ctx := context.Background()
	if c.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	output := RunContext(ctx, code, WithMaxDepth(c.cfg.MaxDepth))
	trace := &Trace{
		ID:        id,
		Code:      code,
		Output:    output,
		Failed:    output == GenericFailure,
		Duration:  time.Since(start),
		Timestamp: start.UTC().Format(time.RFC3339),
	}
	c.sendToActor(coreRequest{record: trace})

	return map[string]any{"id": id, "ok": true, "value": output}
}

func (c *Core) recordRun(t *Trace) {
	c.traces.append(*t)
	if c.cfg.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.cfg.History.Record(ctx, history.Entry{
		Code:     t.Code,
		Output:   t.Output,
		Failed:   t.Failed,
		Duration: t.Duration,
	})
	if err != nil {
		log.Printf("record run %s: %v", t.ID, err)
	}
}

func (c *Core) handleTraces(id string, msg map[string]any) map[string]any {
	traces := c.traces.last(intField(msg, "n", -1))
	result := make([]any, len(traces))
	for i := range traces {
		result[i] = traces[i].ToMap()
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func (c *Core) handleHistory(id string, msg map[string]any) map[string]any {
	if c.cfg.History == nil {
		return errorResponse(id, "history: no history database configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries, err := c.cfg.History.Recent(ctx, intField(msg, "n", 20))
	if err != nil {
		return errorResponse(id, fmt.Sprintf("history: %s", err))
	}
	result := make([]any, len(entries))
	for i, e := range entries {
		result[i] = map[string]any{
			"id":          e.ID,
			"code":        e.Code,
			"output":      e.Output,
			"failed":      e.Failed,
			"duration_ms": e.Duration.Milliseconds(),
			"at":          e.At.Format(time.RFC3339),
		}
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}

// --- Connection handling ---

func (c *Core) handleClientConnection(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("read client message: %v", err)
			}
			return
		}

		var resp map[string]any
		if stringField(msg, "op") == "run" {
			resp = c.handleRun(stringField(msg, "id"), msg)
		} else {
			resp = c.sendToActor(coreRequest{msg: msg})
		}
		if err := WriteMsg(conn, resp); err != nil {
			log.Printf("write client response: %v", err)
			return
		}
	}
}
