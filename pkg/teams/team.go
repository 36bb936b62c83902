package teams

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MemberStatus is the lifecycle state of a teammate.
type MemberStatus string

const (
	StatusActive   MemberStatus = "active"
	StatusIdle     MemberStatus = "idle"
	StatusShutdown MemberStatus = "shutdown"
)

// palette is the fixed color sequence cycled by spawn order. It is a
// plain data value carried in team config, not a terminal rendering
// concern.
var palette = []string{"red", "green", "yellow", "blue", "magenta", "cyan"}

// Teammate is one member of a Team: its identity, its inbox location, and
// its lifecycle status.
type Teammate struct {
	mu        sync.RWMutex
	Name      string
	TeamName  string
	AgentID   string // "<name>@<team>"
	AgentType string // selects the system prompt; no lifecycle meaning
	Color     string
	InboxPath string
	Status    MemberStatus
	cancel    func()
}

func makeAgentID(team, name string) string {
	return fmt.Sprintf("%s@%s", name, team)
}

// SetStatus updates the teammate's status. Valid transitions oscillate
// between active and idle any number of times before terminating at
// shutdown; this setter does not itself enforce that, callers do.
func (t *Teammate) SetStatus(s MemberStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = s
}

// GetStatus returns the teammate's current status.
func (t *Teammate) GetStatus() MemberStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// memberConfig is the on-disk serialization of one Teammate entry within
// a team's config.json.
type memberConfig struct {
	Name      string       `json:"name"`
	AgentID   string       `json:"agentId"`
	Status    MemberStatus `json:"status"`
	Color     string       `json:"color"`
	InboxPath string       `json:"inboxPath"`
}

// teamConfigDoc is the on-disk shape of teams/<team>/config.json.
type teamConfigDoc struct {
	Name        string         `json:"name"`
	LeadAgentID string         `json:"leadAgentId"`
	Members     []memberConfig `json:"members"`
}

// Team is one named group of cooperating agents: a shared Task Board,
// one Inbox per member, and a persisted roster.
type Team struct {
	mu          sync.RWMutex
	Name        string
	LeadAgentID string
	Members     map[string]*Teammate
	Board       *Board
	CreatedAt   time.Time // diagnostics only

	dir        string
	configPath string
	log        zlogger
	spawnCount int
}

func newTeam(baseDir, name string, log zlogger) *Team {
	dir := filepath.Join(baseDir, "teams", name)
	if log == nil {
		log = noopLogger{}
	}
	board := NewBoard(filepath.Join(baseDir, "tasks", name))
	board.log = log
	return &Team{
		Name:        name,
		LeadAgentID: makeAgentID(name, "lead"),
		Members:     make(map[string]*Teammate),
		Board:       board,
		CreatedAt:   time.Now(),
		dir:         dir,
		configPath:  filepath.Join(dir, "config.json"),
		log:         log,
	}
}

type noopLogger struct{}

func (noopLogger) Warn(string, map[string]any) {}

// Dir returns the team's on-disk directory (teams/<name>).
func (t *Team) Dir() string { return t.dir }

// nextColor returns the next palette entry by spawn order. Caller must
// hold t.mu.
func (t *Team) nextColor() string {
	c := palette[t.spawnCount%len(palette)]
	t.spawnCount++
	return c
}

// addMember registers a new teammate, allocates its inbox path and color,
// and persists the updated config. Returns AlreadyExists if the name is
// taken.
func (t *Team) addMember(name string) (*Teammate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.Members[name]; exists {
		return nil, newErr(ErrAlreadyExists, "teammate %s already exists in team %s", name, t.Name)
	}

	mate := &Teammate{
		Name:      name,
		TeamName:  t.Name,
		AgentID:   makeAgentID(t.Name, name),
		Color:     t.nextColor(),
		InboxPath: filepath.Join(t.dir, fmt.Sprintf("inbox.%s.jsonl", sanitizeName(name))),
		Status:    StatusActive,
	}
	t.Members[name] = mate

	if err := t.saveConfigLocked(); err != nil {
		delete(t.Members, name)
		return nil, err
	}
	return mate, nil
}

// GetMember returns a member by name.
func (t *Team) GetMember(name string) (*Teammate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.Members[name]
	return m, ok
}

// MemberNames returns every member name, excluding the lead.
func (t *Team) MemberNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.Members))
	for name := range t.Members {
		names = append(names, name)
	}
	return names
}

// HasActiveMembers returns true if any member is not yet shut down.
func (t *Team) HasActiveMembers() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.Members {
		if m.GetStatus() != StatusShutdown {
			return true
		}
	}
	return false
}

// inboxFor returns the Inbox for the named recipient within this team.
func (t *Team) inboxFor(name string) *Inbox {
	return newInbox(t.dir, name, t.log)
}

func (t *Team) saveConfigLocked() error {
	doc := teamConfigDoc{Name: t.Name, LeadAgentID: t.LeadAgentID}
	for _, m := range t.Members {
		doc.Members = append(doc.Members, memberConfig{
			Name:      m.Name,
			AgentID:   m.AgentID,
			Status:    m.GetStatus(),
			Color:     m.Color,
			InboxPath: m.InboxPath,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal team config: %w", err)
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("create team directory: %w", err)
	}
	tmp := t.configPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write team config temp file: %w", err)
	}
	return os.Rename(tmp, t.configPath)
}

// SaveConfig persists the team roster to teams/<name>/config.json.
func (t *Team) SaveConfig() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveConfigLocked()
}
