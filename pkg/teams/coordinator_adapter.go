package teams

import (
	"context"
	"fmt"

	"github.com/coderunner/teamcore/pkg/tools"
)

// RegistryAdapter wraps a *Registry to implement tools.TeamCoordinator,
// scoping every call to the team the wrapped process belongs to: the
// lead's own team for the core process, or a teammate's own team for a
// TeammateLoop. One team per adapter, any number of adapters per
// Registry.
type RegistryAdapter struct {
	Registry *Registry
	TeamName string

	// SpawnFunc launches a teammate's loop. If nil, SpawnTeammate returns
	// an error indicating spawning is not configured.
	SpawnFunc func(ctx context.Context, teamName, name, agentType, prompt string) (tools.TeamMemberInfo, error)
}

// CreateTeam creates a new team via the wrapped Registry. The adapter's
// own TeamName is not required to match: any lead may create sibling
// teams.
func (a *RegistryAdapter) CreateTeam(ctx context.Context, name string) (tools.TeamInfo, error) {
	team, err := a.Registry.CreateTeam(ctx, name)
	if err != nil {
		return tools.TeamInfo{}, err
	}
	return tools.TeamInfo{Name: team.Name, ConfigPath: team.configPath}, nil
}

// SpawnTeammate delegates to the configured SpawnFunc, scoped to this
// adapter's team.
func (a *RegistryAdapter) SpawnTeammate(ctx context.Context, name, agentType, prompt string) (tools.TeamMemberInfo, error) {
	if a.SpawnFunc == nil {
		return tools.TeamMemberInfo{}, fmt.Errorf("teammate spawning not configured")
	}
	return a.SpawnFunc(ctx, a.TeamName, name, agentType, prompt)
}

// RequestShutdown sends a shutdown_request to the named teammate in this
// adapter's team.
func (a *RegistryAdapter) RequestShutdown(ctx context.Context, name string) error {
	_, err := a.Registry.RequestShutdown(ctx, a.TeamName, name)
	return err
}

// SendMessage sends a message to a teammate's inbox within this team.
// The message type must belong to the closed taxonomy; anything else is
// rejected before it can be persisted.
func (a *RegistryAdapter) SendMessage(_ context.Context, msg tools.TeamMessage) error {
	if !MessageType(msg.Type).IsValid() {
		return newErr(ErrInvalidInput, "unknown message type %s", msg.Type)
	}
	team, ok := a.Registry.Get(a.TeamName)
	if !ok {
		return newErr(ErrTeamNotFound, "no team named %s", a.TeamName)
	}
	if _, ok := team.GetMember(msg.To); !ok && msg.To != "lead" {
		return newErr(ErrRecipientNotFound, "no teammate named %s", msg.To)
	}
	return team.inboxFor(msg.To).append(Message{
		Type:      normalizeOutboundType(MessageType(msg.Type)),
		Sender:    msg.From,
		Recipient: msg.To,
		Content:   msg.Content,
		RequestID: msg.RequestID,
	})
}

// Broadcast sends a message to every recipient except the sender; a
// sender never appears in its own expansion.
func (a *RegistryAdapter) Broadcast(_ context.Context, from, content string, recipients []string) error {
	team, ok := a.Registry.Get(a.TeamName)
	if !ok {
		return newErr(ErrTeamNotFound, "no team named %s", a.TeamName)
	}
	msg := Message{Type: MessageKindBroadcast, Sender: from, Content: content}
	for _, name := range recipients {
		if name == from {
			continue
		}
		m := msg
		m.Recipient = name
		if err := team.inboxFor(name).append(m); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup deletes this adapter's team via the Registry.
func (a *RegistryAdapter) Cleanup(ctx context.Context) error {
	_, err := a.Registry.DeleteTeam(ctx, a.TeamName)
	return err
}

// GetTeamName returns the adapter's bound team name.
func (a *RegistryAdapter) GetTeamName() string { return a.TeamName }

// GetMemberNames returns every member name in this adapter's team, the
// sender included; Broadcast is what skips the sender when it expands
// the list.
func (a *RegistryAdapter) GetMemberNames() []string {
	team, ok := a.Registry.Get(a.TeamName)
	if !ok {
		return nil
	}
	return team.MemberNames()
}

var _ tools.TeamCoordinator = (*RegistryAdapter)(nil)
