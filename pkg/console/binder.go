package console

import (
	"github.com/vango-go/voice-console/pkg/console/persona"
	"github.com/vango-go/voice-console/pkg/realtime"
)

// SelectAgent binds the catalog agent with the given id to the session.
// An unknown id is a silent no-op. The empty id deselects: the local view
// is cleared but the remote session keeps the last pushed instructions
// (accepted asymmetry, flagged for product review).
func (s *Session) SelectAgent(id string) {
	if id == "" {
		s.mu.Lock()
		s.activeAgent = nil
		s.activeInstructions = ""
		s.mu.Unlock()
		return
	}

	agent, ok := s.catalog.Get(id)
	if !ok {
		return
	}
	s.bindAgent(agent, false)
}

// DropAgent handles a drag-and-drop persona assignment. Malformed payloads
// and unknown ids are logged without mutating session state. A valid drop
// binds the agent and additionally sends a user-role turn announcing the
// switch so the assistant responds in-persona right away.
func (s *Session) DropAgent(payload []byte) {
	dropped, err := persona.DecodeDragPayload(payload)
	if err != nil {
		s.logger.Warn("drop agent", "err", err)
		return
	}

	agent, ok := s.catalog.Get(dropped.ID)
	if !ok {
		s.logger.Warn("drop agent: unknown id", "id", dropped.ID)
		return
	}
	s.bindAgent(agent, true)
}

// bindAgent derives instructions from the agent, pushes them as a session
// update (takes effect on the next assistant turn), and optionally
// announces the switch with a synthetic user turn.
func (s *Session) bindAgent(agent persona.Agent, announce bool) {
	instructions := persona.Instructions(agent)

	s.mu.Lock()
	bound := agent
	s.activeAgent = &bound
	s.activeInstructions = instructions
	s.mu.Unlock()

	if err := s.client.UpdateSession(realtime.SessionUpdate{Instructions: &instructions}); err != nil {
		s.logger.Warn("update instructions", "agent", agent.ID, "err", err)
	}

	if announce {
		if err := s.client.SendUserMessageContent([]realtime.ContentPart{
			realtime.TextContent(persona.Greeting(agent)),
		}); err != nil {
			s.logger.Warn("announce persona", "agent", agent.ID, "err", err)
		}
	}
}
