package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rphilander/chatlisp/bot"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	addr := envOr("CHATLISP_CHAT_ADDR", ":8080")
	prefix := envOr("CHATLISP_PREFIX", "code")

	runTimeout, err := time.ParseDuration(envOr("CHATLISP_RUN_TIMEOUT", "2s"))
	if err != nil {
		log.Fatalf("CHATLISP_RUN_TIMEOUT: %v", err)
	}
	maxDepth, err := strconv.Atoi(envOr("CHATLISP_MAX_DEPTH", "10000"))
	if err != nil {
		log.Fatalf("CHATLISP_MAX_DEPTH: %v", err)
	}

	// With a core socket configured, runs go to the daemon so they show up in
	// its traces and history.
	var runner bot.Runner = bot.LocalRunner{Timeout: runTimeout, MaxDepth: maxDepth}
	if sock := os.Getenv("CHATLISP_SOCK"); sock != "" {
		remote := &bot.RemoteRunner{SockPath: sock}
		defer remote.Close()
		runner = remote
		log.Printf("running code on core: %s", sock)
	}

	srv := bot.NewServer(addr, &bot.Bot{Prefix: prefix, Runner: runner})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("chat server: %v", err)
	}
}
