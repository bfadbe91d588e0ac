package swarm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kadirpekel/swarm/agent"
	"github.com/kadirpekel/swarm/config"
	"github.com/kadirpekel/swarm/llms"
	"github.com/kadirpekel/swarm/logger"
	"github.com/kadirpekel/swarm/protocol"
	"github.com/kadirpekel/swarm/tools"
)

// ============================================================================
// SWARM
// ============================================================================

// Swarm assembles providers, tools and agents from configuration and
// runs user tasks over them.
type Swarm struct {
	cfg       *config.Config
	roster    *Roster
	providers *llms.ProviderRegistry
	tools     *tools.ToolRegistry
	logger    *slog.Logger

	mu    sync.Mutex
	tasks map[string]*Task
}

// New builds a swarm from configuration: providers first, then agents.
// Agents without an explicit card path are auto-resolved from their name
// under cards_dir.
func New(cfg *config.Config) (*Swarm, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Swarm{
		cfg:       cfg,
		roster:    NewRoster(),
		providers: llms.NewProviderRegistry(),
		tools:     tools.NewToolRegistry(),
		logger:    logger.With("swarm"),
		tasks:     make(map[string]*Task),
	}

	if err := s.tools.RegisterTool(tools.NewDateTimeTool()); err != nil {
		return nil, NewSwarmError("new", "registering built-in tools", err)
	}

	for name, pc := range cfg.Providers {
		if _, err := s.providers.RegisterFromConfig(name, pc); err != nil {
			return nil, NewSwarmError("new",
				fmt.Sprintf("building provider %q", name), err)
		}
	}

	for name, ac := range cfg.Agents {
		a, err := s.buildAgent(name, ac)
		if err != nil {
			return nil, NewSwarmError("new",
				fmt.Sprintf("building agent %q", name), err)
		}
		if err := s.roster.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// buildAgent assembles one agent from its configuration entry
func (s *Swarm) buildAgent(name string, ac config.AgentConfig) (*agent.Agent, error) {
	provider, ok := s.providers.Get(ac.Provider)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", ac.Provider)
	}

	opts := []agent.Option{}
	if ac.MaxFunctionCalls > 0 {
		opts = append(opts, agent.WithMaxFunctionCalls(ac.MaxFunctionCalls))
	}
	if len(ac.Tools) > 0 {
		opts = append(opts, agent.WithTools(s.tools, ac.Tools...))
	}

	if ac.Card == "" {
		dir := ac.CardsDir
		if dir == "" {
			dir = "."
		}
		return agent.Load(dir, name, provider, opts...)
	}

	card, err := agent.LoadCard(ac.Card)
	if err != nil {
		return nil, err
	}
	if ac.Prompt != "" {
		tmpl, err := agent.LoadPromptTemplate(ac.Prompt)
		if err != nil {
			return nil, err
		}
		opts = append(opts, agent.WithPromptTemplate(tmpl))
	}
	return agent.New(card, provider, opts...)
}

// RegisterAgent adds an agent to the roster, replacing any agent already
// registered under the same name.
func (s *Swarm) RegisterAgent(a *agent.Agent) error {
	return s.roster.Add(a)
}

// UnregisterAgent removes an agent from the roster
func (s *Swarm) UnregisterAgent(name string) error {
	if err := s.roster.Remove(name); err != nil {
		return NewSwarmError("unregister", fmt.Sprintf("agent %q", name), err)
	}
	return nil
}

// Agents returns the registered agent names in registration order
func (s *Swarm) Agents() []string { return s.roster.Names() }

// Roster returns the swarm's roster
func (s *Swarm) Roster() *Roster { return s.roster }

// Tools returns the shared tool registry for additional registrations
func (s *Swarm) Tools() *tools.ToolRegistry { return s.tools }

// Providers returns the provider registry
func (s *Swarm) Providers() *llms.ProviderRegistry { return s.providers }

// Invoke submits user content to the coordinator and pumps the task to
// completion, returning the terminal message. An empty taskID starts a
// fresh task; reusing a taskID continues its history.
func (s *Swarm) Invoke(ctx context.Context, taskID string, content any) (*protocol.Message, error) {
	if s.roster.Count() == 0 {
		return nil, NewSwarmError("invoke", "no agents registered", nil)
	}
	if _, ok := s.roster.Get(s.cfg.Swarm.Coordinator); !ok {
		return nil, NewSwarmError("invoke",
			fmt.Sprintf("coordinator %q is not registered", s.cfg.Swarm.Coordinator), nil)
	}

	task := s.taskFor(taskID)
	task.Submit(content)
	return task.Run(ctx)
}

// taskFor returns the running task for an ID, creating it on first use
func (s *Swarm) taskFor(taskID string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taskID == "" {
		taskID = uuid.NewString()
	}
	if task, ok := s.tasks[taskID]; ok {
		return task
	}
	task := NewTask(taskID, s.roster, s.cfg.Swarm)
	s.tasks[taskID] = task
	return task
}

// Task returns a previously started task by ID
func (s *Swarm) Task(taskID string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	return task, ok
}

// Close releases every provider
func (s *Swarm) Close() error {
	var errs []error
	for _, provider := range s.providers.List() {
		if err := provider.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
