// Package persona manages the agent catalog and derives session
// instructions from a selected agent.
package persona

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Agent is an immutable catalog entry describing a persona.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog is a fixed set of agents keyed by id, preserving catalog order.
type Catalog struct {
	order  []string
	agents map[string]Agent
}

// NewCatalog builds a catalog from the given agents.
func NewCatalog(agents []Agent) *Catalog {
	c := &Catalog{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		if _, dup := c.agents[a.ID]; dup {
			continue
		}
		c.agents[a.ID] = a
		c.order = append(c.order, a.ID)
	}
	return c
}

// DefaultCatalog returns the built-in agent catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Agent{
		{
			ID:          "1",
			Name:        "Software Engineer",
			Description: "A software engineer is a professional who designs, develops, and maintains software systems.",
		},
		{
			ID:          "2",
			Name:        "Data Scientist",
			Description: "A data scientist is a professional who uses statistical and computational methods to analyze data and extract insights.",
		},
	})
}

// Get returns the agent with the given id.
func (c *Catalog) Get(id string) (Agent, bool) {
	a, ok := c.agents[id]
	return a, ok
}

// Agents returns all agents in catalog order.
func (c *Catalog) Agents() []Agent {
	out := make([]Agent, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.agents[id])
	}
	return out
}

// Greeting is the exact opening utterance the assistant must use once a
// persona is bound.
func Greeting(a Agent) string {
	return fmt.Sprintf("I am an AI agent and my profession is %s, how can I help you with my profession?", a.Name)
}

// Instructions deterministically builds the session instruction string for
// an agent: the persona description frames the assistant as an expert, and
// the greeting pins the exact opening utterance.
func Instructions(a Agent) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Description))
	b.WriteString(" The user knows you as an expert in this area.")
	b.WriteString(" When you start the conversation, open by saying: ")
	b.WriteString(Greeting(a))
	return b.String()
}

// DecodeDragPayload parses a drag-and-drop assignment payload. The payload
// is the JSON encoding of an Agent; only the id is trusted, the agent
// itself must still be resolved against a catalog.
func DecodeDragPayload(data []byte) (Agent, error) {
	var a Agent
	if err := json.Unmarshal(data, &a); err != nil {
		return Agent{}, fmt.Errorf("persona: malformed drag payload: %w", err)
	}
	if a.ID == "" {
		return Agent{}, fmt.Errorf("persona: drag payload missing agent id")
	}
	return a, nil
}
