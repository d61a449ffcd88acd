package realtime

import (
	"sync"

	"github.com/vango-go/voice-console/pkg/audio"
)

// Role identifies who produced a conversation item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ItemStatus is the lifecycle state of a conversation item.
type ItemStatus string

const (
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

// Item is one message/turn exchanged with the remote API.
type Item struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Status     ItemStatus  `json:"status"`
	Transcript string      `json:"transcript,omitempty"`
	Text       string      `json:"text,omitempty"`
	Audio      []byte      `json:"-"`
	File       *audio.File `json:"-"`
}

// DisplayText returns the best text representation for rendering: the
// transcript when present, the text otherwise, or a placeholder while the
// item is still streaming.
func (it Item) DisplayText() string {
	if it.Transcript != "" {
		return it.Transcript
	}
	if it.Text != "" {
		return it.Text
	}
	return "..."
}

// Delta describes what changed in a single update notification.
type Delta struct {
	Audio      []byte
	Transcript string
	Text       string
}

// Update is delivered to the Updated handler after the conversation store
// has been mutated. Item is a copy of the post-mutation state.
type Update struct {
	Item  Item
	Delta Delta
}

// Conversation is the authoritative ordered list of conversation items.
// All mutation happens here; readers take snapshots via Items.
type Conversation struct {
	mu    sync.Mutex
	order []string
	items map[string]*Item
}

// NewConversation creates an empty conversation store.
func NewConversation() *Conversation {
	return &Conversation{items: make(map[string]*Item)}
}

// Reset discards all items.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = c.order[:0]
	c.items = make(map[string]*Item)
}

// Items returns a snapshot of all items in arrival order.
func (c *Conversation) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// Get returns a copy of the item with the given id.
func (c *Conversation) Get(id string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Len returns the number of items.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// AttachFile attaches a decoded audio file to a completed item.
func (c *Conversation) AttachFile(id string, file *audio.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.items[id]; ok {
		it.File = file
	}
}

// ensure returns the item with the given id, creating it in arrival order
// if it does not exist yet. Caller must hold c.mu.
func (c *Conversation) ensure(id string) *Item {
	if it, ok := c.items[id]; ok {
		return it
	}
	it := &Item{ID: id, Status: ItemInProgress}
	c.items[id] = it
	c.order = append(c.order, id)
	return it
}

// applyCreated records a newly announced item.
func (c *Conversation) applyCreated(w *wireItem) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(w.ID)
	if w.Role != "" {
		it.Role = Role(w.Role)
	}
	if w.Status == string(ItemCompleted) {
		it.Status = ItemCompleted
	}
	for _, part := range w.Content {
		switch part.Type {
		case "text", "input_text":
			it.Text += part.Text
		case "audio", "input_audio":
			if part.Transcript != "" {
				it.Transcript += part.Transcript
			}
		}
	}
	return Update{Item: *it}
}

// applyTranscriptDelta appends streamed transcript text to an item.
func (c *Conversation) applyTranscriptDelta(id, delta string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(id)
	it.Transcript += delta
	return Update{Item: *it, Delta: Delta{Transcript: delta}}
}

// applyTextDelta appends streamed text to an item.
func (c *Conversation) applyTextDelta(id, delta string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(id)
	it.Text += delta
	return Update{Item: *it, Delta: Delta{Text: delta}}
}

// applyAudioDelta appends a streamed PCM chunk to an item.
func (c *Conversation) applyAudioDelta(id string, pcm []byte) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(id)
	it.Audio = append(it.Audio, pcm...)
	return Update{Item: *it, Delta: Delta{Audio: pcm}}
}

// applyInputTranscript sets the final transcript of a user audio item.
func (c *Conversation) applyInputTranscript(id, transcript string) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(id)
	it.Transcript = transcript
	return Update{Item: *it, Delta: Delta{Transcript: transcript}}
}

// applyCompleted marks an item as completed.
func (c *Conversation) applyCompleted(w *wireItem) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(w.ID)
	if w.Role != "" {
		it.Role = Role(w.Role)
	}
	it.Status = ItemCompleted
	return Update{Item: *it}
}

// applyTruncated trims an item's audio to the acknowledged cutoff so that
// audio the listener never heard is not retained or re-rendered.
func (c *Conversation) applyTruncated(id string, audioEndMs int, cfg audio.Config) Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := c.ensure(id)
	keep := cfg.BytesForDurationMs(audioEndMs)
	if keep < len(it.Audio) {
		it.Audio = it.Audio[:keep]
	}
	it.File = nil
	return Update{Item: *it}
}
