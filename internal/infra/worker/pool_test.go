//go:build !integration

// File: internal/infra/worker/pool_test.go
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain/model"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestPool(t *testing.T) {
	t.Run("executes submitted tasks", func(t *testing.T) {
		p := NewPool(2, testLogger())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)
		defer p.Stop()

		var ran int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			err := p.Submit(func(ctx context.Context) error {
				defer wg.Done()
				atomic.AddInt32(&ran, 1)
				return nil
			})
			if err != nil {
				wg.Done()
				t.Fatalf("Submit() error = %v", err)
			}
		}
		wg.Wait()
		if got := atomic.LoadInt32(&ran); got != 8 {
			t.Fatalf("ran %d tasks, want 8", got)
		}
	})

	t.Run("nil task is refused", func(t *testing.T) {
		p := NewPool(1, testLogger())
		if err := p.Submit(nil); err == nil {
			t.Fatal("Submit(nil) error = nil, want error")
		}
	})

	t.Run("saturated queue drops instead of blocking", func(t *testing.T) {
		// Never started, so nothing drains the queue.
		p := NewPool(1, testLogger())
		blocker := func(ctx context.Context) error { return nil }
		var dropped bool
		for i := 0; i < 16; i++ {
			if err := p.Submit(blocker); err != nil {
				dropped = true
				break
			}
		}
		if !dropped {
			t.Fatal("queue never reported saturation")
		}
	})
}

type stubActivation struct {
	mu    sync.Mutex
	calls []string
	res   *model.ActivationResult
	err   error
}

func (s *stubActivation) Activate(ctx context.Context, transactionID string) (*model.ActivationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, transactionID)
	if s.err != nil {
		return nil, s.err
	}
	res := s.res
	if res == nil {
		res = &model.ActivationResult{TransactionID: transactionID}
	}
	return res, nil
}

func (s *stubActivation) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestActivationDispatcher(t *testing.T) {
	t.Run("dispatch runs the activation", func(t *testing.T) {
		p := NewPool(1, testLogger())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)
		defer p.Stop()

		act := &stubActivation{}
		d := NewActivationDispatcher(p, act, nil, testLogger())
		if err := d.Dispatch("t1"); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}

		deadline := time.After(2 * time.Second)
		for act.callCount() == 0 {
			select {
			case <-deadline:
				t.Fatal("activation never ran")
			case <-time.After(10 * time.Millisecond):
			}
		}
	})

	t.Run("full queue surfaces as a dispatch error", func(t *testing.T) {
		p := NewPool(1, testLogger()) // not started
		d := NewActivationDispatcher(p, &stubActivation{}, nil, testLogger())
		var failed bool
		for i := 0; i < 16; i++ {
			if err := d.Dispatch("t1"); err != nil {
				failed = true
				break
			}
		}
		if !failed {
			t.Fatal("Dispatch never reported a full queue")
		}
	})
}