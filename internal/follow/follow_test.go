package follow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) add(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	return nil
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func waitFor(t *testing.T, c *collector, n int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if lines := c.snapshot(); len(lines) >= n {
			return lines
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines, got %v", n, c.snapshot())
	return nil
}

func appendTo(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestTailDeliversExistingAndAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- Tail(ctx, path, true, c.add) }()

	waitFor(t, c, 2)
	appendTo(t, path, "thr")
	appendTo(t, path, "ee\nfour\n")

	got := waitFor(t, c, 4)
	if strings.Join(got, ",") != "one,two,three,four" {
		t.Fatalf("unexpected lines %v", got)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTailFromEndSkipsExistingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	done := make(chan error, 1)
	go func() { done <- Tail(ctx, path, false, c.add) }()

	// Give the watcher time to start before appending.
	time.Sleep(100 * time.Millisecond)
	appendTo(t, path, "new\n")

	got := waitFor(t, c, 1)
	if len(got) != 1 || got[0] != "new" {
		t.Fatalf("unexpected lines %v", got)
	}
	cancel()
	<-done
}

func TestTailStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	stop := errors.New("stop")
	err := Tail(context.Background(), path, true, func(string) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestTailMissingFile(t *testing.T) {
	err := Tail(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"), true, func(string) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestTailBatchesReportsInitialBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- TailBatches(ctx, path, true, func(lines []string) error {
			batches <- lines
			return nil
		})
	}()

	select {
	case first := <-batches:
		if len(first) != 0 {
			t.Fatalf("expected empty initial batch, got %v", first)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for initial batch")
	}

	appendTo(t, path, "x\ny\n")
	var got []string
	deadline := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case batch := <-batches:
			if len(batch) == 0 {
				t.Fatalf("later batches must not be empty")
			}
			got = append(got, batch...)
		case <-deadline:
			t.Fatalf("timed out, got %v", got)
		}
	}
	if strings.Join(got, ",") != "x,y" {
		t.Fatalf("unexpected lines %v", got)
	}
	cancel()
	<-done
}
