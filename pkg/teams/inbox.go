package teams

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/coderunner/teamcore/pkg/corelog"
)

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// sanitizeName converts an agent name into a filesystem-safe fragment
// for inbox filenames.
func sanitizeName(name string) string {
	s := nameSanitizer.ReplaceAllString(name, "_")
	if s == "" {
		s = "_"
	}
	return s
}

// Inbox is a single recipient's durable, ordered, append-only message
// log: newline-delimited JSON guarded by a sibling lock file.
type Inbox struct {
	path     string // teams/<team>/inbox.<sanitized-name>.jsonl
	lockPath string
	log      zlogger
}

// zlogger is the minimal logging surface teams needs from corelog, kept
// as an interface so tests can run without a configured logger.
type zlogger interface {
	Warn(msg string, fields map[string]any)
}

func newInbox(teamDir, recipientName string, log zlogger) *Inbox {
	path := filepath.Join(teamDir, fmt.Sprintf("inbox.%s.jsonl", sanitizeName(recipientName)))
	if log == nil {
		log = corelog.NoOp()
	}
	return &Inbox{path: path, lockPath: path + ".lock", log: log}
}

// append writes one message to the inbox under an exclusive lock,
// creating the file (and its parent directory) if it does not yet
// exist, so a broadcast to a never-written recipient still lands. An
// I/O failure is logged and retried once; a second failure surfaces to
// the caller.
func (ib *Inbox) append(msg Message) error {
	err := ib.appendOnce(msg)
	if err == nil {
		return nil
	}
	ib.log.Warn("inbox append failed, retrying", map[string]any{"path": ib.path, "error": err.Error()})
	return ib.appendOnce(msg)
}

func (ib *Inbox) appendOnce(msg Message) error {
	if err := os.MkdirAll(filepath.Dir(ib.path), 0o755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}

	lock := flock.New(ib.lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire inbox lock: %w", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(ib.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open inbox: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return f.Close()
}

// drain attempts a non-blocking atomic read-and-clear. When another
// holder has the lock it returns an empty slice immediately rather than
// waiting: concurrent drains must never deliver a message twice, and
// the caller retries on its next loop iteration anyway. Lock contention
// is not a failure; an actual I/O error is logged and retried once
// before surfacing.
func (ib *Inbox) drain() ([]Message, error) {
	msgs, err := ib.drainOnce()
	if err == nil {
		return msgs, nil
	}
	ib.log.Warn("inbox drain failed, retrying", map[string]any{"path": ib.path, "error": err.Error()})
	return ib.drainOnce()
}

func (ib *Inbox) drainOnce() ([]Message, error) {
	lock := flock.New(ib.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("try inbox lock: %w", err)
	}
	if !locked {
		return nil, nil
	}
	defer lock.Unlock()

	f, err := os.Open(ib.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open inbox: %w", err)
	}

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			ib.log.Warn("skipping corrupt inbox line", map[string]any{"path": ib.path, "error": err.Error()})
			continue
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		// A partial read must not truncate messages we never saw.
		f.Close()
		return nil, fmt.Errorf("read inbox: %w", err)
	}
	f.Close()

	if err := os.Truncate(ib.path, 0); err != nil {
		return nil, fmt.Errorf("truncate inbox: %w", err)
	}

	return messages, nil
}

// watch returns a channel that receives a signal whenever the inbox file
// is written to, for an idle teammate to block on cheaply instead of
// polling. The channel is closed
// when ctx is cancelled. A signal is only a hint: the receiver must still
// call drain and handle an empty/contended result.
func (ib *Inbox) watch(ctx context.Context) (<-chan struct{}, error) {
	if err := os.MkdirAll(filepath.Dir(ib.path), 0o755); err != nil {
		return nil, fmt.Errorf("create inbox directory: %w", err)
	}
	// Ensure the file exists so fsnotify has something to watch.
	if f, err := os.OpenFile(ib.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		f.Close()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(ib.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch inbox directory: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(ib.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}

// idleWaitTimeout bounds the fallback poll when no fsnotify signal arrives
// (covers platforms/containers where inotify watches misbehave).
const idleWaitTimeout = 2 * time.Second
