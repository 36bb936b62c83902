package tools

import (
	"context"
	"fmt"
)

// TeamDeleteTool cleans up the active team.
type TeamDeleteTool struct {
	Coordinator TeamCoordinator

	// IsTeammate marks this tool instance as wired into a teammate's own
	// loop; see TeamCreateTool.IsTeammate.
	IsTeammate bool
}

// SetIsTeammate implements roleAware; see TeamCreateTool.SetIsTeammate.
func (t *TeamDeleteTool) SetIsTeammate(v bool) { t.IsTeammate = v }

func (t *TeamDeleteTool) Name() string { return "TeamDelete" }

func (t *TeamDeleteTool) Description() string {
	return "Deletes the active agent team and cleans up resources."
}

func (t *TeamDeleteTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *TeamDeleteTool) SideEffect() SideEffectType { return SideEffectMutating }

func (t *TeamDeleteTool) Execute(ctx context.Context, _ map[string]any) (ToolOutput, error) {
	if t.IsTeammate {
		return ToolOutput{Content: "Error: InvalidInput: only the team lead may delete teams", IsError: true}, nil
	}

	coordinator := t.Coordinator
	if coordinator == nil {
		coordinator = &StubTeamCoordinator{}
	}

	teamName := coordinator.GetTeamName()
	if err := coordinator.Cleanup(ctx); err != nil {
		return ToolOutput{
			Content: fmt.Sprintf("Error: %s", err),
			IsError: true,
		}, nil
	}

	if teamName == "" {
		teamName = "unknown"
	}
	return ToolOutput{Content: fmt.Sprintf("Team '%s' deleted.", teamName)}, nil
}
