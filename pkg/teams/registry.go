package teams

import (
	"context"
	"fmt"
	"sync"

	"github.com/coderunner/teamcore/pkg/corelog"
	"github.com/coderunner/teamcore/pkg/tools"
)

// Registry is the set of named teams known to this process, keyed by
// team name so the core can run several teams concurrently.
type Registry struct {
	mu      sync.RWMutex
	teams   map[string]*Team
	baseDir string
	bg      *tools.TaskManager
	log     *corelog.Logger
	shut    *shutdownTracker
}

// NewRegistry creates a Registry rooted at baseDir (e.g. ~/.claude),
// scheduling teammate loops through bg (the Background Executor) and
// logging through log.
func NewRegistry(baseDir string, bg *tools.TaskManager, log *corelog.Logger) *Registry {
	if log == nil {
		log = corelog.NoOp()
	}
	return &Registry{
		teams:   make(map[string]*Team),
		baseDir: baseDir,
		bg:      bg,
		log:     log,
		shut:    newShutdownTracker(),
	}
}

// CreateTeam registers a new, empty team and persists its config.json.
// Returns AlreadyExists if name is taken.
func (r *Registry) CreateTeam(_ context.Context, name string) (*Team, error) {
	if name == "" {
		return nil, newErr(ErrInvalidInput, "team name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.teams[name]; exists {
		return nil, newErr(ErrAlreadyExists, "team %s already exists", name)
	}

	team := newTeam(r.baseDir, name, r.log)
	if err := team.SaveConfig(); err != nil {
		return nil, fmt.Errorf("save initial config: %w", err)
	}

	r.teams[name] = team
	return team, nil
}

// Get returns the named team, or false if it is not registered.
func (r *Registry) Get(name string) (*Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.teams[name]
	return t, ok
}

// TeammateRunner is supplied by the caller to drive a spawned teammate's
// agentic loop; it blocks until the teammate shuts down.
type TeammateRunner func(ctx context.Context, team *Team, mate *Teammate, prompt string) (string, error)

// Spawn creates a new teammate under team, allocates it an inbox and
// color, launches its loop on the Background Executor (handle prefix
// "t"), and sends it the initial prompt. agentType selects the system
// prompt the teammate's loop assembles and carries no lifecycle
// meaning; empty means the default teammate prompt. Returns
// TeamNotFound if the team does not exist.
func (r *Registry) Spawn(ctx context.Context, teamName, name, agentType, prompt string, run TeammateRunner) (*Teammate, error) {
	team, ok := r.Get(teamName)
	if !ok {
		return nil, newErr(ErrTeamNotFound, "no team named %s", teamName)
	}

	mate, err := team.addMember(name)
	if err != nil {
		return nil, err
	}
	mate.AgentType = agentType

	if r.bg != nil && run != nil {
		r.bg.Run(ctx, "teammate", func(taskCtx context.Context) (string, error) {
			return run(taskCtx, team, mate, prompt)
		})
	}

	return mate, nil
}

// RequestShutdown sends a shutdown_request to the named teammate and
// returns the request_id the teammate's shutdown_response must echo.
func (r *Registry) RequestShutdown(_ context.Context, teamName, name string) (string, error) {
	team, ok := r.Get(teamName)
	if !ok {
		return "", newErr(ErrTeamNotFound, "no team named %s", teamName)
	}
	mate, ok := team.GetMember(name)
	if !ok {
		return "", newErr(ErrRecipientNotFound, "no teammate named %s in team %s", name, teamName)
	}
	if mate.GetStatus() == StatusShutdown {
		return "", newErr(ErrInvalidInput, "teammate %s is already shut down", name)
	}

	reqID := r.shut.issue(teamName, name)
	msg := Message{
		Type:      MessageKindShutdownRequest,
		Sender:    team.LeadAgentID,
		Recipient: name,
		Content:   "Shutdown requested by lead.",
		RequestID: reqID,
	}
	if err := team.inboxFor(name).append(msg); err != nil {
		return "", err
	}
	return reqID, nil
}

// AcknowledgeShutdownResponse is called by the controller when it observes
// a shutdown_response from a teammate, resolving the matching pending
// handshake. Unresolved handshakes are not an error: DeleteTeam will
// force every member's status to shutdown regardless.
func (r *Registry) AcknowledgeShutdownResponse(requestID string) {
	r.shut.resolve(requestID)
}

// DeleteTeam sends every member a shutdown_request and then force-flips
// its status to shutdown, irrespective of whether a shutdown_response is
// ever observed, before removing the team from the registry. The team's
// on-disk directory is left in place (it holds the final inbox state).
// Idempotent: deleting a team that is not registered is not an error.
func (r *Registry) DeleteTeam(ctx context.Context, name string) (string, error) {
	team, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf("team %s already deleted", name), nil
	}

	// Requests must go out while the team is still resolvable through the
	// registry; the map entry is removed only after every member has been
	// notified and flipped.
	for _, memberName := range team.MemberNames() {
		mate, found := team.GetMember(memberName)
		if !found || mate.GetStatus() == StatusShutdown {
			continue
		}
		_, _ = r.RequestShutdown(ctx, name, memberName)
		mate.SetStatus(StatusShutdown)
	}
	_ = team.SaveConfig()

	r.mu.Lock()
	delete(r.teams, name)
	r.mu.Unlock()

	return fmt.Sprintf("team %s deleted (%d members shut down)", name, len(team.MemberNames())), nil
}

// CompleteTask marks a task on teamName's board completed on behalf of
// the named member. Ownership is not enforced here: the board pushes
// compare-and-swap semantics to callers, and completion by a non-owner
// is a coordination choice, not a corruption.
func (r *Registry) CompleteTask(_ context.Context, teamName, taskID, memberName string) (Task, error) {
	team, ok := r.Get(teamName)
	if !ok {
		return Task{}, newErr(ErrTeamNotFound, "no team named %s", teamName)
	}
	status := TaskCompleted
	task, err := team.Board.Update(taskID, TaskUpdate{Status: &status})
	if err != nil {
		return Task{}, err
	}
	r.log.Info("task completed", map[string]any{"team": teamName, "task_id": taskID, "by": memberName})
	return task, nil
}

// Find looks up a teammate across every registered team, or within one
// named team if team is non-empty.
func (r *Registry) Find(team, name string) (*Teammate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if team != "" {
		t, ok := r.teams[team]
		if !ok {
			return nil, false
		}
		return t.GetMember(name)
	}
	for _, t := range r.teams {
		if m, ok := t.GetMember(name); ok {
			return m, true
		}
	}
	return nil, false
}

// Status returns a human-readable summary of registered teams. With no
// teams registered and none named, it returns the literal "No teams".
func (r *Registry) Status(team string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if team != "" {
		t, ok := r.teams[team]
		if !ok {
			return fmt.Sprintf("No team named %s", team)
		}
		return fmt.Sprintf("Team %s: %d member(s), created %s", t.Name, len(t.MemberNames()), t.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(r.teams) == 0 {
		return "No teams"
	}
	summary := ""
	for _, t := range r.teams {
		summary += fmt.Sprintf("%s (%d members); ", t.Name, len(t.MemberNames()))
	}
	return summary
}
