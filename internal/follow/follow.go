// Package follow tails a growing JSONL log file.
package follow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrRemoved is returned when the followed file is removed or renamed.
var ErrRemoved = errors.New("followed file removed")

// debounceDelay coalesces bursts of writes into one read.
const debounceDelay = 50 * time.Millisecond

// Tail calls fn for each complete line of path, in order. With fromStart it
// first delivers the lines already in the file; otherwise it starts at the
// current end. It then waits for writes and delivers appended lines until
// ctx is done, fn returns an error, or the file goes away. A trailing line
// without its newline is held back until the newline arrives.
func Tail(ctx context.Context, path string, fromStart bool, fn func(line string) error) error {
	return TailBatches(ctx, path, fromStart, func(lines []string) error {
		for _, line := range lines {
			if err := fn(line); err != nil {
				return err
			}
		}
		return nil
	})
}

// TailBatches is Tail delivering every read as one batch. The first call
// always happens, carrying the lines already in the file (none when
// fromStart is false); later calls carry at least one line.
func TailBatches(ctx context.Context, path string, fromStart bool, fn func(lines []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if !fromStart {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("seek %s: %w", path, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Watch before the first read so no write falls between the two.
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	lr := &lineReader{r: bufio.NewReader(f)}
	lines, err := lr.drain()
	if err != nil {
		return err
	}
	if err := fn(lines); err != nil {
		return err
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) {
				debounce.Reset(debounceDelay)
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if err := lr.deliver(fn); err != nil {
					return err
				}
				return fmt.Errorf("%w: %s", ErrRemoved, path)
			}

		case <-debounce.C:
			if err := lr.deliver(fn); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

type lineReader struct {
	r       *bufio.Reader
	partial strings.Builder
}

// drain returns every complete line currently readable.
func (lr *lineReader) drain() ([]string, error) {
	var lines []string
	for {
		chunk, err := lr.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				lr.partial.WriteString(chunk)
				return lines, nil
			}
			return lines, fmt.Errorf("read line: %w", err)
		}

		line := chunk
		if lr.partial.Len() > 0 {
			lr.partial.WriteString(chunk)
			line = lr.partial.String()
			lr.partial.Reset()
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}

func (lr *lineReader) deliver(fn func(lines []string) error) error {
	lines, err := lr.drain()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return fn(lines)
}
