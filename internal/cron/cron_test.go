package cron

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/posfin/pos-engine/internal/alerts"
	"github.com/posfin/pos-engine/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil, &countingJob{name: "a"})
	registry.Register(nil)
	registry.Register(&countingJob{name: "b"})

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	if jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Fatalf("unexpected order: %s, %s", jobs[0].Name(), jobs[1].Name())
	}
}

func TestRunCycleRunsEveryJobDespiteFailures(t *testing.T) {
	t.Parallel()

	failing := &countingJob{name: "failing", err: errors.New("boom")}
	healthy := &countingJob{name: "healthy"}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(failing, healthy),
		Lock:     NewLocalLock(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if failing.runs != 1 || healthy.runs != 1 {
		t.Fatalf("runs: failing=%d healthy=%d", failing.runs, healthy.runs)
	}
}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return nil }

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	job := &countingJob{name: "job"}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     heldLock{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if job.runs != 0 {
		t.Fatalf("job ran %d times under a held lock", job.runs)
	}
}

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (s *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockExclusivity(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	first, err := NewRedisLock(store, "pos:lock:test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewRedisLock(store, "pos:lock:test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("first acquire failed")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second acquire succeeded while held")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("acquire after release failed")
	}
}

func TestRedisLockReleaseIgnoresStolenLock(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	lock, err := NewRedisLock(store, "pos:lock:test", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}
	// Simulate expiry and re-acquisition by another replica.
	store.mu.Lock()
	store.values["pos:lock:test"] = "someone-else"
	store.mu.Unlock()

	if err := lock.Release(ctx); err != nil {
		t.Fatal(err)
	}
	if value, _ := store.Get(ctx, "pos:lock:test"); value != "someone-else" {
		t.Fatal("release deleted a lock it no longer owned")
	}
}

func TestThrottleSweepJob(t *testing.T) {
	t.Parallel()

	throttle := alerts.NewMemoryThrottle(time.Minute, nil)
	job, err := NewThrottleSweepJob(throttle)
	if err != nil {
		t.Fatal(err)
	}
	if job.Name() != "throttle_sweep" {
		t.Fatalf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}
