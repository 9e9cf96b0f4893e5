package core

// upload_limiter.go bounds how many asset and device CSV uploads are
// processed at once.
//
// Each upload holds a slot for the time it spends reading the body and
// writing files or rows. When all slots are taken a request waits up to
// maxWait and then fails with ErrTooManyUploads. WaitForDrain lets the
// server finish in-flight uploads during shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/qartha/idfportal/internal/metrics"
)

// ErrTooManyUploads is returned when no slot became free within the wait
// time. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	DefaultMaxConcurrentUploads = 5
	DefaultMaxWaitTime          = 30 * time.Second
)

// UploadLimiter is a counting semaphore for upload processing.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewUploadLimiter allows at most maxConcurrent uploads. Non-positive
// arguments fall back to the defaults.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. It returns ctx.Err() if ctx ends first and
// ErrTooManyUploads if the wait time runs out. Every successful Acquire
// must be paired with Release.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		metrics.UploadsRejected.Inc()
		return ErrTooManyUploads
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *UploadLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.track(-1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *UploadLimiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

func (l *UploadLimiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
	metrics.UploadsActive.Add(float64(delta))
}

// ActiveCount returns the number of slots in use.
func (l *UploadLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *UploadLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no upload holds a slot or ctx ends.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// UploadLimiterStatus is a snapshot for the health endpoint.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	return UploadLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
