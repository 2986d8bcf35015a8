package bot

import (
	"context"
	"sync"
	"time"

	chatlisp "github.com/rphilander/chatlisp/core"
)

// LocalRunner evaluates in process, each run in a fresh environment.
type LocalRunner struct {
	Timeout  time.Duration // 0 = no timeout
	MaxDepth int           // 0 = unbounded
}

func (r LocalRunner) Run(ctx context.Context, code string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return chatlisp.RunContext(ctx, code, chatlisp.WithMaxDepth(r.MaxDepth)), nil
}

// RemoteRunner sends runs to a core daemon, dialing on first use and again
// after a failed call.
type RemoteRunner struct {
	SockPath string

	mu     sync.Mutex
	client *chatlisp.Client
}

func (r *RemoteRunner) Run(ctx context.Context, code string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		client, err := chatlisp.Dial(r.SockPath)
		if err != nil {
			return "", err
		}
		r.client = client
	}
	out, err := r.client.Run(ctx, code)
	if err != nil {
		r.client.Close()
		r.client = nil
		return "", err
	}
	return out, nil
}

func (r *RemoteRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
