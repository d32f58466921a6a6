package service

import (
	"context"
	"log"
)

// postCommitHook is a named side effect run after a ledger write has been
// durably committed. Hooks never influence the response: a failing or
// panicking hook is logged and the remaining hooks still run.
type postCommitHook struct {
	name string
	run  func(ctx context.Context) error
}

func runPostCommitHooks(ctx context.Context, op string, hooks []postCommitHook) {
	for _, h := range hooks {
		runHook(ctx, op, h)
	}
}

func runHook(ctx context.Context, op string, h postCommitHook) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("post-commit hook %q panicked after %s: %v", h.name, op, r)
		}
	}()
	if err := h.run(ctx); err != nil {
		log.Printf("post-commit hook %q failed after %s: %v", h.name, op, err)
	}
}
