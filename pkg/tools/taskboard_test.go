package tools

import (
	"context"
	"testing"
)

type mockTaskBoardCoordinator struct {
	tasks    map[string]BoardTask
	createFn func(ctx context.Context, subject, body string) (BoardTask, error)
	getFn    func(ctx context.Context, id string) (BoardTask, error)
	updateFn func(ctx context.Context, id string, update BoardTaskUpdate) (BoardTask, error)
	listFn   func(ctx context.Context) ([]BoardTask, error)
}

func (m *mockTaskBoardCoordinator) CreateTask(ctx context.Context, subject, body string) (BoardTask, error) {
	if m.createFn != nil {
		return m.createFn(ctx, subject, body)
	}
	return BoardTask{ID: "1", Subject: subject, Body: body, Status: "pending"}, nil
}

func (m *mockTaskBoardCoordinator) GetTask(ctx context.Context, id string) (BoardTask, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	if t, ok := m.tasks[id]; ok {
		return t, nil
	}
	return BoardTask{}, errTaskNotFoundStub{id}
}

func (m *mockTaskBoardCoordinator) UpdateTask(ctx context.Context, id string, update BoardTaskUpdate) (BoardTask, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return BoardTask{ID: id, Status: "in_progress", Owner: "alice"}, nil
}

func (m *mockTaskBoardCoordinator) ListTasks(ctx context.Context) ([]BoardTask, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	out := make([]BoardTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

type errTaskNotFoundStub struct{ id string }

func (e errTaskNotFoundStub) Error() string { return "TaskNotFound: no task with id " + e.id }

func TestTaskCreateToolSuccess(t *testing.T) {
	tool := &TaskCreateTool{Coordinator: &mockTaskBoardCoordinator{}}

	output, err := tool.Execute(context.Background(), map[string]any{"subject": "write docs"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.IsError {
		t.Fatalf("unexpected error: %s", output.Content)
	}
	if output.Content == "" {
		t.Error("expected non-empty output")
	}
}

func TestTaskCreateToolMissingSubject(t *testing.T) {
	tool := &TaskCreateTool{Coordinator: &mockTaskBoardCoordinator{}}
	output, _ := tool.Execute(context.Background(), map[string]any{})
	if !output.IsError {
		t.Fatal("expected error for missing subject")
	}
}

func TestTaskCreateToolNilCoordinator(t *testing.T) {
	tool := &TaskCreateTool{}
	output, _ := tool.Execute(context.Background(), map[string]any{"subject": "x"})
	if !output.IsError {
		t.Fatal("expected error from stub coordinator")
	}
}

func TestTaskGetToolSuccess(t *testing.T) {
	tool := &TaskGetTool{Coordinator: &mockTaskBoardCoordinator{
		tasks: map[string]BoardTask{"1": {ID: "1", Subject: "write docs", Status: "pending"}},
	}}

	output, _ := tool.Execute(context.Background(), map[string]any{"task_id": "1"})
	if output.IsError {
		t.Fatalf("unexpected error: %s", output.Content)
	}
}

func TestTaskGetToolNotFound(t *testing.T) {
	tool := &TaskGetTool{Coordinator: &mockTaskBoardCoordinator{tasks: map[string]BoardTask{}}}
	output, _ := tool.Execute(context.Background(), map[string]any{"task_id": "missing"})
	if !output.IsError {
		t.Fatal("expected error for missing task")
	}
}

func TestTaskGetToolMissingID(t *testing.T) {
	tool := &TaskGetTool{Coordinator: &mockTaskBoardCoordinator{}}
	output, _ := tool.Execute(context.Background(), map[string]any{})
	if !output.IsError {
		t.Fatal("expected error for missing task_id")
	}
}

func TestTaskUpdateToolSuccess(t *testing.T) {
	var gotUpdate BoardTaskUpdate
	tool := &TaskUpdateTool{Coordinator: &mockTaskBoardCoordinator{
		updateFn: func(_ context.Context, id string, update BoardTaskUpdate) (BoardTask, error) {
			gotUpdate = update
			return BoardTask{ID: id, Status: "in_progress", Owner: "alice"}, nil
		},
	}}

	output, err := tool.Execute(context.Background(), map[string]any{
		"task_id":        "1",
		"status":         "in_progress",
		"owner":          "alice",
		"add_blocked_by": []any{"2", "3"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.IsError {
		t.Fatalf("unexpected error: %s", output.Content)
	}
	if gotUpdate.Status == nil || *gotUpdate.Status != "in_progress" {
		t.Errorf("expected status to be forwarded, got %v", gotUpdate.Status)
	}
	if len(gotUpdate.AddBlockedBy) != 2 {
		t.Errorf("expected 2 add_blocked_by entries, got %v", gotUpdate.AddBlockedBy)
	}
}

func TestTaskUpdateToolMissingID(t *testing.T) {
	tool := &TaskUpdateTool{Coordinator: &mockTaskBoardCoordinator{}}
	output, _ := tool.Execute(context.Background(), map[string]any{"status": "completed"})
	if !output.IsError {
		t.Fatal("expected error for missing task_id")
	}
}

func TestTaskUpdateToolCoordinatorError(t *testing.T) {
	tool := &TaskUpdateTool{Coordinator: &mockTaskBoardCoordinator{
		updateFn: func(_ context.Context, _ string, _ BoardTaskUpdate) (BoardTask, error) {
			return BoardTask{}, errTaskNotFoundStub{"1"}
		},
	}}
	output, _ := tool.Execute(context.Background(), map[string]any{"task_id": "1"})
	if !output.IsError {
		t.Fatal("expected error from coordinator")
	}
}

func TestTaskListToolEmpty(t *testing.T) {
	tool := &TaskListTool{Coordinator: &mockTaskBoardCoordinator{tasks: map[string]BoardTask{}}}
	output, _ := tool.Execute(context.Background(), map[string]any{})
	if output.IsError {
		t.Fatalf("unexpected error: %s", output.Content)
	}
	if output.Content != "No tasks." {
		t.Errorf("expected 'No tasks.', got %q", output.Content)
	}
}

func TestTaskListToolNonEmpty(t *testing.T) {
	tool := &TaskListTool{Coordinator: &mockTaskBoardCoordinator{
		tasks: map[string]BoardTask{"1": {ID: "1", Subject: "a", Status: "pending"}},
	}}
	output, _ := tool.Execute(context.Background(), map[string]any{})
	if output.IsError {
		t.Fatalf("unexpected error: %s", output.Content)
	}
	if output.Content == "No tasks." || output.Content == "" {
		t.Errorf("expected task listing, got %q", output.Content)
	}
}

func TestTaskToolNames(t *testing.T) {
	if (&TaskCreateTool{}).Name() != "TaskCreate" {
		t.Error("expected TaskCreate")
	}
	if (&TaskGetTool{}).Name() != "TaskGet" {
		t.Error("expected TaskGet")
	}
	if (&TaskUpdateTool{}).Name() != "TaskUpdate" {
		t.Error("expected TaskUpdate")
	}
	if (&TaskListTool{}).Name() != "TaskList" {
		t.Error("expected TaskList")
	}
}
