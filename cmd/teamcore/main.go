// Coordination core entry point: runs the lead agent loop. The team
// adapters it wires carry a SpawnFunc that starts teammate loops
// in-process as background goroutines under the same Background Executor
// that backs BashTool's long-running shells; none of the registered tools
// calls it (TeamCreate only creates the team).
//
// Usage:
//
//	source .env
//	go run ./cmd/teamcore -provider anthropic -team launch -prompt "Ship the thing"
//
// Flags:
//
//	-base-dir  Directory for team state (teams/<name>/...). Default ./teamcore-data
//	-team      Name of the lead's own team, created on startup.
//	-prompt    Initial prompt for the lead.
//	-max-turns Maximum lead agentic loop turns.
//	-delegate  Restrict the lead to coordination tools only.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/coderunner/teamcore/pkg/corelog"
	"github.com/coderunner/teamcore/pkg/llm"
	"github.com/coderunner/teamcore/pkg/teams"
	"github.com/coderunner/teamcore/pkg/tools"
	"github.com/rs/zerolog"
)

func main() {
	provider := flag.String("provider", "", "LLM provider: groq, openai, anthropic, litellm (or use -base-url)")
	baseURL := flag.String("base-url", "", "Custom base URL (overrides -provider)")
	apiKey := flag.String("api-key", "", "API key (overrides env var)")
	model := flag.String("model", "", "Model ID (overrides provider default)")
	promptFlag := flag.String("prompt", "", "Initial prompt for the lead (reads stdin if empty)")
	maxTurns := flag.Int("max-turns", 200, "Maximum lead agentic loop turns")
	baseDir := flag.String("base-dir", "./teamcore-data", "Directory for team state")
	teamName := flag.String("team", "lead-team", "Name of the lead's own team")
	teammate := flag.String("teammate", "", "Descriptive label for this session; this module spawns teammates in-process rather than re-executing, so this flag is logged only")
	delegate := flag.Bool("delegate", false, "Restrict the lead to coordination tools (teams, task board, messaging); all execution goes through teammates")
	jsonLogs := flag.Bool("json-logs", false, "Emit structured JSON logs instead of console format")
	envFile := flag.String("env", ".env", "Path to .env file (empty to skip)")
	flag.Parse()

	if *envFile != "" {
		loadEnvFile(*envFile)
	}

	rc, err := resolveConfig(*provider, *baseURL, *apiKey, *model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintln(os.Stderr, "Usage: source .env && go run ./cmd/teamcore -provider anthropic -team launch")
		os.Exit(1)
	}

	promptText := *promptFlag
	if promptText == "" {
		data, err := readAllStdinIfPiped()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %v\n", err)
			os.Exit(1)
		}
		promptText = data
	}
	if promptText == "" {
		fmt.Fprintln(os.Stderr, "error: no prompt provided (use -prompt flag or pipe to stdin)")
		os.Exit(1)
	}

	log := corelog.New(corelog.Config{Level: zerolog.InfoLevel, JSONOutput: *jsonLogs}, "teamcore")
	if *teammate != "" {
		log.Info("starting as teammate session", map[string]any{"teammate": *teammate, "team": *teamName})
	}

	cwd, _ := os.Getwd()
	client := llm.NewClient(rc.ClientConfig)

	bg := tools.NewTaskManager()
	registry := teams.NewRegistry(*baseDir, bg, log)

	if _, err := registry.CreateTeam(context.Background(), *teamName); err != nil {
		fmt.Fprintf(os.Stderr, "error creating team %q: %v\n", *teamName, err)
		os.Exit(1)
	}

	delegateMode := &teams.DelegateModeState{}
	if *delegate {
		delegateMode.Enable()
	}

	leadTools := buildLeadToolRegistry(registry, *teamName, cwd, bg, log, rc.ClientConfig, client, delegateMode)

	loopCfg := teams.LoopConfig{
		LLM:       client,
		Tools:     leadTools,
		Compactor: teams.NewCompactor(client, ""),
		Log:       log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	answer, err := teams.NewLeadLoop(registry, *teamName, loopCfg).Run(ctx, promptText, *maxTurns, printTurn)
	fmt.Println(strings.Repeat("-", 60))
	if err != nil {
		fmt.Printf("Exit: error (%v)\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n%s\n", answer)
}

func printTurn(t teams.Turn) {
	if t.Text != "" {
		fmt.Printf("\n%s\n", t.Text)
	}
	if len(t.ToolCalls) > 0 {
		fmt.Print(teams.RenderToolCalls(t.ToolCalls))
	}
}

// leadToolNames is the full tool surface a lead registry carries, in
// registration order.
var leadToolNames = []string{
	"Bash", "Read", "Write", "Edit",
	"TeamCreate", "TeamDelete", "SendMessage",
	"TaskCreate", "TaskGet", "TaskUpdate", "TaskList",
	"TaskOutput", "TaskStop",
}

// delegateDisabled returns the tool names delegate mode strips from the
// lead's registry: everything FilterTools would not let through. Nil
// when delegate mode is off.
func delegateDisabled(d *teams.DelegateModeState) []string {
	if d == nil || !d.IsActive() {
		return nil
	}
	allowed := make(map[string]bool)
	for _, n := range d.FilterTools(leadToolNames) {
		allowed[n] = true
	}
	var disabled []string
	for _, n := range leadToolNames {
		if !allowed[n] {
			disabled = append(disabled, n)
		}
	}
	return disabled
}

// buildLeadToolRegistry assembles the tool set the lead's own loop sees:
// the core filesystem/shell tools plus the full team-coordination
// surface (TeamCreate/TeamDelete unrestricted, task board, messaging).
// In delegate mode the execution tools are registered disabled, so the
// lead can only coordinate.
func buildLeadToolRegistry(registry *teams.Registry, teamName, cwd string, bg *tools.TaskManager, log *corelog.Logger, llmCfg llm.ClientConfig, client llm.Client, delegateMode *teams.DelegateModeState) *tools.Registry {
	adapter := &teams.RegistryAdapter{
		Registry: registry,
		TeamName: teamName,
		SpawnFunc: func(ctx context.Context, tn, name, agentType, prompt string) (tools.TeamMemberInfo, error) {
			return spawnTeammate(ctx, registry, tn, name, agentType, prompt, cwd, bg, log, llmCfg, client)
		},
	}

	team, _ := registry.Get(teamName)
	var board *teams.Board
	if team != nil {
		board = team.Board
	}

	opts := []tools.RegistryOption{tools.WithAllowed("Read", "TaskList", "TaskGet"), tools.WithRole(tools.RoleLead)}
	if disabled := delegateDisabled(delegateMode); len(disabled) > 0 {
		opts = append(opts, tools.WithDisabled(disabled...))
	}
	r := tools.NewRegistry(opts...)
	r.Register(&tools.BashTool{CWD: cwd, TaskManager: bg})
	r.Register(&tools.FileReadTool{Actor: "lead", Log: log, Root: cwd})
	r.Register(&tools.FileWriteTool{Actor: "lead", Log: log, Root: cwd})
	r.Register(&tools.FileEditTool{Actor: "lead", Log: log, Root: cwd})
	r.Register(&tools.TeamCreateTool{Coordinator: adapter})
	r.Register(&tools.TeamDeleteTool{Coordinator: adapter})
	r.Register(&tools.SendMessageTool{Coordinator: adapter, From: "lead"})
	r.Register(&tools.TaskCreateTool{Coordinator: &teams.BoardAdapter{Board: board, Actor: "lead"}})
	r.Register(&tools.TaskGetTool{Coordinator: &teams.BoardAdapter{Board: board}})
	r.Register(&tools.TaskUpdateTool{Coordinator: &teams.BoardAdapter{Board: board}})
	r.Register(&tools.TaskListTool{Coordinator: &teams.BoardAdapter{Board: board}})
	r.Register(&tools.TaskOutputTool{TaskManager: bg})
	r.Register(&tools.TaskStopTool{TaskManager: bg})
	return r
}

// buildTeammateToolRegistry mirrors buildLeadToolRegistry but, by
// constructing the registry with RoleTeammate, gets TeamCreate/TeamDelete
// refused automatically and tags file/message tools with this teammate's
// own name instead of "lead".
func buildTeammateToolRegistry(registry *teams.Registry, teamName, name, cwd string, bg *tools.TaskManager, log *corelog.Logger, llmCfg llm.ClientConfig, client llm.Client) *tools.Registry {
	adapter := &teams.RegistryAdapter{
		Registry: registry,
		TeamName: teamName,
		SpawnFunc: func(ctx context.Context, tn, childName, agentType, prompt string) (tools.TeamMemberInfo, error) {
			return spawnTeammate(ctx, registry, tn, childName, agentType, prompt, cwd, bg, log, llmCfg, client)
		},
	}

	team, _ := registry.Get(teamName)
	var board *teams.Board
	if team != nil {
		board = team.Board
	}

	r := tools.NewRegistry(tools.WithAllowed("Read", "TaskList", "TaskGet"), tools.WithRole(tools.RoleTeammate))
	r.Register(&tools.BashTool{CWD: cwd, TaskManager: bg})
	r.Register(&tools.FileReadTool{Actor: name, Log: log, Root: cwd})
	r.Register(&tools.FileWriteTool{Actor: name, Log: log, Root: cwd})
	r.Register(&tools.FileEditTool{Actor: name, Log: log, Root: cwd})
	r.Register(&tools.TeamCreateTool{Coordinator: adapter})
	r.Register(&tools.TeamDeleteTool{Coordinator: adapter})
	r.Register(&tools.SendMessageTool{Coordinator: adapter, From: name})
	r.Register(&tools.TaskCreateTool{Coordinator: &teams.BoardAdapter{Board: board, Actor: name}})
	r.Register(&tools.TaskGetTool{Coordinator: &teams.BoardAdapter{Board: board}})
	r.Register(&tools.TaskUpdateTool{Coordinator: &teams.BoardAdapter{Board: board}})
	r.Register(&tools.TaskListTool{Coordinator: &teams.BoardAdapter{Board: board}})
	r.Register(&tools.TaskOutputTool{TaskManager: bg})
	r.Register(&tools.TaskStopTool{TaskManager: bg})
	return r
}

// spawnTeammate starts a teammate's agentic cycle as a background task
// under the shared Background Executor, fulfilling teams.TeammateRunner.
func spawnTeammate(ctx context.Context, registry *teams.Registry, teamName, name, agentType, prompt, cwd string, bg *tools.TaskManager, log *corelog.Logger, llmCfg llm.ClientConfig, client llm.Client) (tools.TeamMemberInfo, error) {
	var info tools.TeamMemberInfo
	mateClient := llm.NewClient(llmCfg)

	mate, err := registry.Spawn(ctx, teamName, name, agentType, prompt, func(taskCtx context.Context, team *teams.Team, m *teams.Teammate, initialPrompt string) (string, error) {
		loopCfg := teams.LoopConfig{
			LLM:       mateClient,
			Tools:     buildTeammateToolRegistry(registry, teamName, name, cwd, bg, log, llmCfg, client),
			Compactor: teams.NewCompactor(mateClient, ""),
			Log:       log,
		}
		return teams.NewTeammateLoop(team, m, loopCfg).Run(taskCtx, initialPrompt)
	})
	if err != nil {
		return info, err
	}
	info.Name = mate.Name
	info.AgentID = mate.AgentID
	return info, nil
}

func readAllStdinIfPiped() (string, error) {
	info, err := os.Stdin.Stat()
	if err != nil || (info.Mode()&os.ModeCharDevice) != 0 {
		return "", nil
	}
	var b strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), scanner.Err()
}

// loadEnvFile reads a .env file and sets environment variables (won't overwrite existing).
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

type providerConfig struct {
	baseURL    string
	baseURLEnv string
	envKey     string
	envKeys    []string
	model      string
}

var providers = map[string]providerConfig{
	"groq": {
		baseURL:    "https://api.groq.com/openai/v1",
		baseURLEnv: "GROQ_API_BASE",
		envKey:     "GROQ_API_KEY",
		model:      "llama-3.3-70b-versatile",
	},
	"anthropic": {
		baseURL: "https://api.anthropic.com/v1",
		envKey:  "ANTHROPIC_API_KEY",
		model:   "claude-sonnet-4-5-20250929",
	},
	"openai": {
		baseURL: "https://api.openai.com/v1",
		envKey:  "OPENAI_API_KEY",
		model:   "gpt-4o-mini",
	},
	"litellm": {
		baseURL:    "http://localhost:4000/v1",
		baseURLEnv: "LITELLM_BASE_URL",
		envKey:     "EXECUTOR_LITELLM_KEY",
		envKeys:    []string{"LITELLM_MASTER_KEY", "LITELLM_API_KEY"},
		model:      "gpt-5-nano",
	},
}

type resolvedConfig struct {
	llm.ClientConfig
	Provider string
}

func resolveConfig(provider, baseURL, apiKey, model string) (resolvedConfig, error) {
	rc := resolvedConfig{}

	if baseURL != "" {
		rc.BaseURL = baseURL
		rc.APIKey = apiKey
		rc.Model = model
		rc.Provider = "custom"
		if rc.Model == "" {
			return rc, fmt.Errorf("-model is required when using -base-url")
		}
		return rc, nil
	}

	if provider == "" {
		for _, name := range []string{"groq", "openai", "anthropic", "litellm"} {
			pc := providers[name]
			if key := lookupKey(pc); key != "" {
				provider = name
				break
			}
		}
		if provider == "" {
			return rc, fmt.Errorf("no provider specified and no API key found in environment.\n" +
				"Set one of: GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, EXECUTOR_LITELLM_KEY")
		}
	}

	pc, ok := providers[provider]
	if !ok {
		return rc, fmt.Errorf("unknown provider %q (use: groq, openai, anthropic, litellm)", provider)
	}

	rc.Provider = provider
	rc.BaseURL = pc.baseURL
	if pc.baseURLEnv != "" {
		if envBase := os.Getenv(pc.baseURLEnv); envBase != "" {
			rc.BaseURL = envBase
		}
	}
	rc.Model = pc.model

	if apiKey != "" {
		rc.APIKey = apiKey
	} else {
		rc.APIKey = lookupKey(pc)
	}

	if rc.APIKey == "" {
		allKeys := append([]string{pc.envKey}, pc.envKeys...)
		return rc, fmt.Errorf("no API key: set one of %s or use -api-key", strings.Join(allKeys, ", "))
	}

	if model != "" {
		rc.Model = model
	}

	return rc, nil
}

func lookupKey(pc providerConfig) string {
	if v := os.Getenv(pc.envKey); v != "" {
		return v
	}
	for _, k := range pc.envKeys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
