package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chatlisp "github.com/rphilander/chatlisp/core"
	"github.com/rphilander/chatlisp/history"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	sockPath := envOr("CHATLISP_SOCK", "/tmp/chatlisp.sock")

	runTimeout, err := time.ParseDuration(envOr("CHATLISP_RUN_TIMEOUT", "2s"))
	if err != nil {
		log.Fatalf("CHATLISP_RUN_TIMEOUT: %v", err)
	}
	maxDepth, err := strconv.Atoi(envOr("CHATLISP_MAX_DEPTH", "10000"))
	if err != nil {
		log.Fatalf("CHATLISP_MAX_DEPTH: %v", err)
	}

	cfg := chatlisp.Config{
		SockPath:   sockPath,
		RunTimeout: runTimeout,
		MaxDepth:   maxDepth,
	}

	dbPath := os.Getenv("CHATLISP_DB")
	if dbPath != "" {
		store, err := history.Open(dbPath)
		if err != nil {
			log.Fatalf("failed to open history: %v", err)
		}
		defer store.Close()
		cfg.History = store
	}

	core, err := chatlisp.NewCore(cfg)
	if err != nil {
		log.Fatalf("failed to start core: %v", err)
	}

	// Handle shutdown signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		core.Shutdown()
		if cfg.History != nil {
			cfg.History.Close()
		}
		os.Exit(0)
	}()

	log.Printf("chatlisp core listening (socket: %s, run timeout: %s, max depth: %d, history: %q)", sockPath, runTimeout, maxDepth, dbPath)
	core.Run()
}
