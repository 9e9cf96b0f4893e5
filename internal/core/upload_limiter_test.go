package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/qartha/idfportal/internal/metrics"
)

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	for i := 0; i < 2; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("Acquire #%d failed: %v", i+1, err)
		}
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release()
	if got := limiter.Available(); got != 1 {
		t.Errorf("after Release, Available = %d, want 1", got)
	}
	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after second Release, ActiveCount = %d, want 0", got)
	}
}

func TestUploadLimiter_RejectsWhenFull(t *testing.T) {
	limiter := NewUploadLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	before := testutil.ToFloat64(metrics.UploadsRejected)
	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("expected ErrTooManyUploads, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("gave up too fast: %v", elapsed)
	}
	if got := testutil.ToFloat64(metrics.UploadsRejected) - before; got != 1 {
		t.Errorf("rejected counter delta = %v, want 1", got)
	}
}

func TestUploadLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	const totalRequests = 10

	limiter := NewUploadLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Do(context.Background(), func() error {
				mu.Lock()
				if c := limiter.ActiveCount(); c > maxObserved {
					maxObserved = c
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("exceeded max concurrent: observed %d, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestUploadLimiter_DoReleasesOnError(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Second)
	boom := errors.New("boom")

	err := limiter.Do(context.Background(), func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("Do() = %v, want %v", err, boom)
	}
	if got := limiter.Available(); got != 1 {
		t.Errorf("Available after failed Do = %d, want 1", got)
	}
}

func TestUploadLimiter_TryAcquire(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}
	limiter.Release()

	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestUploadLimiter_ContextCancellation(t *testing.T) {
	limiter := NewUploadLimiter(1, 5*time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- limiter.Acquire(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	limiter := NewUploadLimiter(2, time.Second)
	ctx := context.Background()
	_ = limiter.Acquire(ctx)
	_ = limiter.Acquire(ctx)

	drainDone := make(chan error, 1)
	go func() { drainDone <- limiter.WaitForDrain(context.Background()) }()

	limiter.Release()
	select {
	case <-drainDone:
		t.Error("WaitForDrain returned with one active")
	case <-time.After(50 * time.Millisecond):
	}

	limiter.Release()
	select {
	case err := <-drainDone:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after all released")
	}
}

func TestUploadLimiter_WaitForDrain_ContextCancelled(t *testing.T) {
	limiter := NewUploadLimiter(1, time.Second)
	_ = limiter.Acquire(context.Background())
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() = %v, want context.DeadlineExceeded", err)
	}
}

func TestUploadLimiter_Status(t *testing.T) {
	limiter := NewUploadLimiter(3, time.Second)
	_ = limiter.Acquire(context.Background())
	defer limiter.Release()

	want := UploadLimiterStatus{Active: 1, Available: 2, MaxConcurrent: 3}
	if got := limiter.Status(); got != want {
		t.Errorf("Status() = %+v, want %+v", got, want)
	}
}

func TestUploadLimiter_DefaultValues(t *testing.T) {
	limiter := NewUploadLimiter(0, 0)

	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentUploads)
	}
}
