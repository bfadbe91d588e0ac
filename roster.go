package swarm

import (
	"fmt"
	"log/slog"

	"github.com/kadirpekel/swarm/agent"
	"github.com/kadirpekel/swarm/logger"
	"github.com/kadirpekel/swarm/protocol"
	"github.com/kadirpekel/swarm/registry"
)

// ============================================================================
// ROSTER
// ============================================================================

// Roster holds the agents of a swarm keyed by name, in registration
// order. Re-registering a name replaces the agent in place.
type Roster struct {
	*registry.BaseRegistry[*agent.Agent]
	logger *slog.Logger
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{
		BaseRegistry: registry.NewBaseRegistry[*agent.Agent](),
		logger:       logger.With("roster"),
	}
}

// Add registers an agent under its card name. The reserved names "user"
// and "system" are rejected. An already registered name is replaced,
// keeping its position, with a warning.
func (r *Roster) Add(a *agent.Agent) error {
	name := a.Name()
	if name == protocol.UserName || name == protocol.SystemName {
		return NewSwarmError("register",
			fmt.Sprintf("agent name %q is reserved", name), nil)
	}

	if replaced := r.Set(name, a); replaced {
		r.logger.Warn("replacing registered agent", "agent", name)
	}
	return nil
}

// Entries projects the roster into routing entries, in registration order
func (r *Roster) Entries() []agent.RosterEntry {
	agents := r.List()
	entries := make([]agent.RosterEntry, 0, len(agents))
	for _, a := range agents {
		card := a.Card()
		entries = append(entries, agent.RosterEntry{
			Name:        card.Name,
			Role:        card.Role,
			Description: card.Description,
		})
	}
	return entries
}
