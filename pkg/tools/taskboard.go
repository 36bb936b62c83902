package tools

import (
	"context"
	"fmt"
	"strings"
)

// BoardTask mirrors one task-board row as exposed to tool callers,
// independent of the teams package's own Task type.
type BoardTask struct {
	ID        string
	Subject   string
	Body      string
	Status    string
	Owner     string
	BlockedBy []string
	CreatedBy string
}

// BoardTaskUpdate describes the fields a TaskUpdate call wants to change.
type BoardTaskUpdate struct {
	Status          *string
	Owner           *string
	Body            *string
	AddBlockedBy    []string
	RemoveBlockedBy []string
}

// TaskBoardCoordinator is the interface for shared task-board operations.
// Implemented by teams.Board via a small adapter, mirroring the
// TeamCoordinator pattern.
type TaskBoardCoordinator interface {
	CreateTask(ctx context.Context, subject, body string) (BoardTask, error)
	GetTask(ctx context.Context, id string) (BoardTask, error)
	UpdateTask(ctx context.Context, id string, update BoardTaskUpdate) (BoardTask, error)
	ListTasks(ctx context.Context) ([]BoardTask, error)
}

// StubTaskBoardCoordinator returns not-configured errors.
type StubTaskBoardCoordinator struct{}

func (s *StubTaskBoardCoordinator) CreateTask(_ context.Context, _, _ string) (BoardTask, error) {
	return BoardTask{}, fmt.Errorf("task board not configured")
}
func (s *StubTaskBoardCoordinator) GetTask(_ context.Context, _ string) (BoardTask, error) {
	return BoardTask{}, fmt.Errorf("task board not configured")
}
func (s *StubTaskBoardCoordinator) UpdateTask(_ context.Context, _ string, _ BoardTaskUpdate) (BoardTask, error) {
	return BoardTask{}, fmt.Errorf("task board not configured")
}
func (s *StubTaskBoardCoordinator) ListTasks(_ context.Context) ([]BoardTask, error) {
	return nil, fmt.Errorf("task board not configured")
}

func boardCoordinatorOrStub(c TaskBoardCoordinator) TaskBoardCoordinator {
	if c == nil {
		return &StubTaskBoardCoordinator{}
	}
	return c
}

func formatBoardTask(t BoardTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s [%s]: %s", t.ID, t.Status, t.Subject)
	if t.Owner != "" {
		fmt.Fprintf(&b, " (owner: %s)", t.Owner)
	}
	if len(t.BlockedBy) > 0 {
		fmt.Fprintf(&b, " (blocked by: %s)", strings.Join(t.BlockedBy, ", "))
	}
	if t.CreatedBy != "" {
		fmt.Fprintf(&b, " (by %s)", t.CreatedBy)
	}
	return b.String()
}

// TaskCreateTool adds a new task to the shared board.
type TaskCreateTool struct {
	Coordinator TaskBoardCoordinator
}

func (t *TaskCreateTool) Name() string        { return "TaskCreate" }
func (t *TaskCreateTool) Description() string { return "Creates a new task on the shared task board." }
func (t *TaskCreateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subject": map[string]any{"type": "string", "description": "Short task title"},
			"body":    map[string]any{"type": "string", "description": "Task details"},
		},
		"required": []string{"subject"},
	}
}
func (t *TaskCreateTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TaskCreateTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	subject, ok := input["subject"].(string)
	if !ok || subject == "" {
		return ToolOutput{Content: "Error: InvalidInput: subject is required", IsError: true}, nil
	}
	body, _ := input["body"].(string)

	task, err := boardCoordinatorOrStub(t.Coordinator).CreateTask(ctx, subject, body)
	if err != nil {
		return ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	return ToolOutput{Content: formatBoardTask(task)}, nil
}

// TaskGetTool fetches a single task by id.
type TaskGetTool struct {
	Coordinator TaskBoardCoordinator
}

func (t *TaskGetTool) Name() string        { return "TaskGet" }
func (t *TaskGetTool) Description() string { return "Retrieves a task from the shared task board by id." }
func (t *TaskGetTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"task_id": map[string]any{"type": "string", "description": "The task id"}},
		"required":   []string{"task_id"},
	}
}
func (t *TaskGetTool) SideEffect() SideEffectType { return SideEffectNone }

func (t *TaskGetTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	id, ok := input["task_id"].(string)
	if !ok || id == "" {
		return ToolOutput{Content: "Error: InvalidInput: task_id is required", IsError: true}, nil
	}
	task, err := boardCoordinatorOrStub(t.Coordinator).GetTask(ctx, id)
	if err != nil {
		return ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	return ToolOutput{Content: formatBoardTask(task)}, nil
}

// TaskUpdateTool mutates a task's status, owner, body, or blockedBy set.
type TaskUpdateTool struct {
	Coordinator TaskBoardCoordinator
}

func (t *TaskUpdateTool) Name() string { return "TaskUpdate" }
func (t *TaskUpdateTool) Description() string {
	return "Updates a task's status, owner, body, or blockedBy set on the shared task board."
}
func (t *TaskUpdateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task_id": map[string]any{"type": "string", "description": "The task id"},
			"status": map[string]any{
				"type": "string", "enum": []string{"pending", "in_progress", "completed", "cancelled"},
				"description": "New status",
			},
			"owner":             map[string]any{"type": "string", "description": "New owner agent id"},
			"body":              map[string]any{"type": "string", "description": "New task body"},
			"add_blocked_by":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Task ids to add as blockers"},
			"remove_blocked_by": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Task ids to remove as blockers"},
		},
		"required": []string{"task_id"},
	}
}
func (t *TaskUpdateTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TaskUpdateTool) Execute(ctx context.Context, input map[string]any) (ToolOutput, error) {
	id, ok := input["task_id"].(string)
	if !ok || id == "" {
		return ToolOutput{Content: "Error: InvalidInput: task_id is required", IsError: true}, nil
	}

	var update BoardTaskUpdate
	if status, ok := input["status"].(string); ok && status != "" {
		update.Status = &status
	}
	if owner, ok := input["owner"].(string); ok {
		update.Owner = &owner
	}
	if body, ok := input["body"].(string); ok {
		update.Body = &body
	}
	update.AddBlockedBy = toStringSlice(input["add_blocked_by"])
	update.RemoveBlockedBy = toStringSlice(input["remove_blocked_by"])

	task, err := boardCoordinatorOrStub(t.Coordinator).UpdateTask(ctx, id, update)
	if err != nil {
		return ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	return ToolOutput{Content: formatBoardTask(task)}, nil
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// TaskListTool lists every task on the shared board.
type TaskListTool struct {
	Coordinator TaskBoardCoordinator
}

func (t *TaskListTool) Name() string        { return "TaskList" }
func (t *TaskListTool) Description() string { return "Lists every task on the shared task board." }
func (t *TaskListTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (t *TaskListTool) SideEffect() SideEffectType { return SideEffectNone }

func (t *TaskListTool) Execute(ctx context.Context, _ map[string]any) (ToolOutput, error) {
	tasks, err := boardCoordinatorOrStub(t.Coordinator).ListTasks(ctx)
	if err != nil {
		return ToolOutput{Content: fmt.Sprintf("Error: %s", err), IsError: true}, nil
	}
	if len(tasks) == 0 {
		return ToolOutput{Content: "No tasks."}, nil
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, formatBoardTask(t))
	}
	return ToolOutput{Content: strings.Join(lines, "\n")}, nil
}
