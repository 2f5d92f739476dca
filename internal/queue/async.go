package queue

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sink is anything that accepts auth events.  Publisher and Discard are
// sinks.
type Sink interface {
	Publish(ctx context.Context, ev AuthEvent) error
}

// Async hands events to Next on a background goroutine so a slow or
// unreachable broker never delays an auth response.  Each publish gets its
// own timeout detached from the request context.
type Async struct {
	Next    Sink
	Timeout time.Duration

	wg sync.WaitGroup
}

func NewAsync(next Sink) *Async {
	return &Async{Next: next, Timeout: 5 * time.Second}
}

// Publish never blocks and always returns nil.
func (a *Async) Publish(_ context.Context, ev AuthEvent) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
		defer cancel()
		if err := a.Next.Publish(ctx, ev); err != nil {
			log.Printf("queue: async publish %s: %v", ev.Kind, err)
		}
	}()
	return nil
}

// Wait blocks until every in-flight publish has finished.  Called on
// shutdown.
func (a *Async) Wait() { a.wg.Wait() }
