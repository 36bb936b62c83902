package teams

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// TaskStatus is the lifecycle state of a shared task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task is one work item on the shared Task Board.
type Task struct {
	ID        string          `json:"id"`
	Subject   string          `json:"subject"`
	Body      string          `json:"body,omitempty"`
	Status    TaskStatus      `json:"status"`
	Owner     string          `json:"owner,omitempty"`
	BlockedBy map[string]bool `json:"blockedBy,omitempty"`
	CreatedBy string          `json:"createdBy,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (t Task) clone() Task {
	cp := t
	if t.BlockedBy != nil {
		cp.BlockedBy = make(map[string]bool, len(t.BlockedBy))
		for k, v := range t.BlockedBy {
			cp.BlockedBy[k] = v
		}
	}
	return cp
}

func (t TaskStatus) isTerminal() bool {
	return t == TaskCompleted || t == TaskCancelled
}

// boardDoc is the on-disk serialization of a Board.
type boardDoc struct {
	NextID int             `json:"nextId"`
	Tasks  map[string]Task `json:"tasks"`
}

// Board is a durable, process-safe registry of work items. Every
// mutation is a read-modify-write of board.json under an advisory
// exclusive lock on board.json.lock, written via a temp-file-then-
// rename so the file on disk is always a complete, valid document
// even if the process dies mid-write.
type Board struct {
	path     string
	lockPath string
	log      zlogger
}

// NewBoard returns a Board backed by dir/board.json.
func NewBoard(dir string) *Board {
	return &Board{
		path:     filepath.Join(dir, "board.json"),
		lockPath: filepath.Join(dir, "board.json.lock"),
		log:      noopLogger{},
	}
}

// TaskUpdate describes the fields of Update that the caller wants to
// change; nil/unset pointers leave the corresponding field untouched.
type TaskUpdate struct {
	Status          *TaskStatus
	Owner           *string
	AddBlockedBy    []string
	RemoveBlockedBy []string
	Body            *string
}

// withLock runs fn as a locked read-modify-write of the board document.
// An I/O failure is logged and the whole cycle retried once (fn sees a
// freshly read document each attempt); domain errors from fn, like
// TaskNotFound, are returned as-is without a retry.
func (b *Board) withLock(fn func(doc *boardDoc) error) error {
	err := b.withLockOnce(fn)
	if err == nil || KindOf(err) != "" {
		return err
	}
	b.log.Warn("board write failed, retrying", map[string]any{"path": b.path, "error": err.Error()})
	return b.withLockOnce(fn)
}

func (b *Board) withLockOnce(fn func(doc *boardDoc) error) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create board directory: %w", err)
	}
	lock := flock.New(b.lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire board lock: %w", err)
	}
	defer lock.Unlock()

	doc, err := b.readLocked()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return b.writeLocked(doc)
}

// readRetry is the read-path counterpart of withLock's retry: one logged
// retry on failure, then the error surfaces.
func (b *Board) readRetry() (*boardDoc, error) {
	doc, err := b.readLocked()
	if err == nil {
		return doc, nil
	}
	b.log.Warn("board read failed, retrying", map[string]any{"path": b.path, "error": err.Error()})
	return b.readLocked()
}

func (b *Board) readLocked() (*boardDoc, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &boardDoc{NextID: 1, Tasks: map[string]Task{}}, nil
		}
		return nil, fmt.Errorf("read board: %w", err)
	}
	var doc boardDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	if doc.Tasks == nil {
		doc.Tasks = map[string]Task{}
	}
	if doc.NextID == 0 {
		doc.NextID = 1
	}
	return &doc, nil
}

func (b *Board) writeLocked(doc *boardDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write board temp file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("rename board temp file: %w", err)
	}
	return nil
}

// Create assigns the next integer id (starting at 1), persists a new
// pending task attributed to createdBy, and returns its id. createdBy
// is display metadata only; no invariant reads it.
func (b *Board) Create(subject, body, createdBy string) (string, error) {
	var id string
	err := b.withLock(func(doc *boardDoc) error {
		id = strconv.Itoa(doc.NextID)
		doc.NextID++
		now := time.Now()
		doc.Tasks[id] = Task{
			ID:        id,
			Subject:   subject,
			Body:      body,
			Status:    TaskPending,
			BlockedBy: map[string]bool{},
			CreatedBy: createdBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	})
	return id, err
}

// Get returns the task with the given id, or a TaskNotFound error.
func (b *Board) Get(id string) (Task, error) {
	doc, err := b.readRetry()
	if err != nil {
		return Task{}, err
	}
	t, ok := doc.Tasks[id]
	if !ok {
		return Task{}, newErr(ErrTaskNotFound, "no task with id %s", id)
	}
	return t.clone(), nil
}

// ListAll returns every task ordered by numeric id.
func (b *Board) ListAll() ([]Task, error) {
	doc, err := b.readRetry()
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		tasks = append(tasks, t.clone())
	}
	sort.Slice(tasks, func(i, j int) bool {
		ni, erri := strconv.Atoi(tasks[i].ID)
		nj, errj := strconv.Atoi(tasks[j].ID)
		if erri == nil && errj == nil {
			return ni < nj
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// Update mutates the fields named by u and returns the new task. When
// the status transitions to a terminal value the task is removed from
// every other task's blockedBy set, so nothing stays blocked on
// finished work. Returns TaskNotFound if id does not exist.
func (b *Board) Update(id string, u TaskUpdate) (Task, error) {
	var result Task
	err := b.withLock(func(doc *boardDoc) error {
		t, ok := doc.Tasks[id]
		if !ok {
			return newErr(ErrTaskNotFound, "no task with id %s", id)
		}

		becameTerminal := false
		if u.Status != nil {
			if !t.Status.isTerminal() && u.Status.isTerminal() {
				becameTerminal = true
			}
			t.Status = *u.Status
		}
		if u.Owner != nil {
			t.Owner = *u.Owner
		}
		if u.Body != nil {
			t.Body = *u.Body
		}
		if t.BlockedBy == nil {
			t.BlockedBy = map[string]bool{}
		}
		for _, dep := range u.AddBlockedBy {
			t.BlockedBy[dep] = true
		}
		for _, dep := range u.RemoveBlockedBy {
			delete(t.BlockedBy, dep)
		}
		t.UpdatedAt = time.Now()
		doc.Tasks[id] = t

		if becameTerminal {
			for otherID, other := range doc.Tasks {
				if otherID == id || other.BlockedBy == nil {
					continue
				}
				if other.BlockedBy[id] {
					delete(other.BlockedBy, id)
					other.UpdatedAt = time.Now()
					doc.Tasks[otherID] = other
				}
			}
		}

		result = doc.Tasks[id].clone()
		return nil
	})
	return result, err
}

// Unblocked returns pending, unowned tasks with an empty blockedBy set,
// the read half of the Claim composition.
func (b *Board) Unblocked() ([]Task, error) {
	all, err := b.ListAll()
	if err != nil {
		return nil, err
	}
	var out []Task
	for _, t := range all {
		if t.Status != TaskPending || t.Owner != "" {
			continue
		}
		if len(t.BlockedBy) == 0 {
			out = append(out, t)
		}
	}
	return out, nil
}

// Claim composes the unset-owner/unblocked/pending check with the
// owner+status update. It is not a board primitive: the board does not
// enforce at-most-one-owner under concurrent claims. Callers that need
// single-claim semantics must re-read after the call and compare the
// returned Owner against the agent id they supplied.
func (b *Board) Claim(id, agentID string) (Task, error) {
	current, err := b.Get(id)
	if err != nil {
		return Task{}, err
	}
	if current.Owner != "" || current.Status != TaskPending || len(current.BlockedBy) != 0 {
		return current, newErr(ErrInvalidInput, "task %s is not claimable", id)
	}
	status := TaskInProgress
	return b.Update(id, TaskUpdate{Status: &status, Owner: &agentID})
}
