package teams

import (
	"context"

	"github.com/coderunner/teamcore/pkg/tools"
)

// BoardAdapter exposes a Board as a tools.TaskBoardCoordinator so the
// TaskCreate/TaskGet/TaskUpdate/TaskList tools can drive it without the
// tools package depending on teams directly.
type BoardAdapter struct {
	Board *Board

	// Actor is the agent name new tasks are attributed to ("lead" or a
	// teammate's own name), the same provenance treatment the file and
	// message tools carry.
	Actor string
}

func toBoardTask(t Task) tools.BoardTask {
	blocked := make([]string, 0, len(t.BlockedBy))
	for dep := range t.BlockedBy {
		blocked = append(blocked, dep)
	}
	return tools.BoardTask{
		ID:        t.ID,
		Subject:   t.Subject,
		Body:      t.Body,
		Status:    string(t.Status),
		Owner:     t.Owner,
		BlockedBy: blocked,
		CreatedBy: t.CreatedBy,
	}
}

func (a *BoardAdapter) CreateTask(_ context.Context, subject, body string) (tools.BoardTask, error) {
	id, err := a.Board.Create(subject, body, a.Actor)
	if err != nil {
		return tools.BoardTask{}, err
	}
	t, err := a.Board.Get(id)
	if err != nil {
		return tools.BoardTask{}, err
	}
	return toBoardTask(t), nil
}

func (a *BoardAdapter) GetTask(_ context.Context, id string) (tools.BoardTask, error) {
	t, err := a.Board.Get(id)
	if err != nil {
		return tools.BoardTask{}, err
	}
	return toBoardTask(t), nil
}

func (a *BoardAdapter) UpdateTask(_ context.Context, id string, u tools.BoardTaskUpdate) (tools.BoardTask, error) {
	var update TaskUpdate
	if u.Status != nil {
		status := TaskStatus(*u.Status)
		update.Status = &status
	}
	update.Owner = u.Owner
	update.Body = u.Body
	update.AddBlockedBy = u.AddBlockedBy
	update.RemoveBlockedBy = u.RemoveBlockedBy

	t, err := a.Board.Update(id, update)
	if err != nil {
		return tools.BoardTask{}, err
	}
	return toBoardTask(t), nil
}

func (a *BoardAdapter) ListTasks(_ context.Context) ([]tools.BoardTask, error) {
	all, err := a.Board.ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]tools.BoardTask, 0, len(all))
	for _, t := range all {
		out = append(out, toBoardTask(t))
	}
	return out, nil
}

var _ tools.TaskBoardCoordinator = (*BoardAdapter)(nil)
