package realtime

import (
	"bytes"
	"testing"

	"github.com/vango-go/voice-console/pkg/audio"
)

func TestConversationItemLifecycle(t *testing.T) {
	c := NewConversation()

	c.applyCreated(&wireItem{ID: "item_1", Role: "assistant"})

	it, ok := c.Get("item_1")
	if !ok {
		t.Fatal("expected item_1 to exist")
	}
	if it.Role != RoleAssistant {
		t.Errorf("expected assistant role, got %q", it.Role)
	}
	if it.Status != ItemInProgress {
		t.Errorf("new item must start in progress, got %q", it.Status)
	}

	c.applyTranscriptDelta("item_1", "Hello")
	c.applyTranscriptDelta("item_1", " there")
	c.applyCompleted(&wireItem{ID: "item_1", Role: "assistant"})

	it, _ = c.Get("item_1")
	if it.Transcript != "Hello there" {
		t.Errorf("expected accumulated transcript, got %q", it.Transcript)
	}
	if it.Status != ItemCompleted {
		t.Errorf("expected completed status, got %q", it.Status)
	}
}

func TestConversationDeltaCreatesItem(t *testing.T) {
	c := NewConversation()

	// Deltas may arrive before the created notification.
	u := c.applyAudioDelta("item_x", []byte{1, 2, 3, 4})

	if c.Len() != 1 {
		t.Fatalf("expected implicit item creation, got %d items", c.Len())
	}
	if !bytes.Equal(u.Delta.Audio, []byte{1, 2, 3, 4}) {
		t.Errorf("update must carry the delta, got %v", u.Delta.Audio)
	}

	c.applyAudioDelta("item_x", []byte{5, 6})
	it, _ := c.Get("item_x")
	if !bytes.Equal(it.Audio, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("audio must accumulate, got %v", it.Audio)
	}
}

func TestConversationOrderIsArrivalOrder(t *testing.T) {
	c := NewConversation()
	c.applyCreated(&wireItem{ID: "a", Role: "user"})
	c.applyCreated(&wireItem{ID: "b", Role: "assistant"})
	c.applyTextDelta("c", "later")
	// Updating an earlier item must not move it.
	c.applyTextDelta("a", "edited")

	items := c.Items()
	want := []string{"a", "b", "c"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, items[i].ID, id)
		}
	}
}

func TestConversationCreatedWithContent(t *testing.T) {
	c := NewConversation()
	c.applyCreated(&wireItem{
		ID:     "u1",
		Role:   "user",
		Status: "completed",
		Content: []wirePart{
			{Type: "input_text", Text: "Hello!"},
		},
	})

	it, _ := c.Get("u1")
	if it.Text != "Hello!" {
		t.Errorf("expected text from content parts, got %q", it.Text)
	}
	if it.Status != ItemCompleted {
		t.Errorf("expected completed status, got %q", it.Status)
	}
}

func TestConversationInputTranscriptReplaces(t *testing.T) {
	c := NewConversation()
	c.applyInputTranscript("u1", "first pass")
	c.applyInputTranscript("u1", "final transcript")

	it, _ := c.Get("u1")
	if it.Transcript != "final transcript" {
		t.Errorf("input transcript must replace, got %q", it.Transcript)
	}
}

func TestConversationTruncateTrimsAudio(t *testing.T) {
	c := NewConversation()
	cfg := audio.DefaultConfig()

	// 100ms of audio at 24kHz mono 16-bit is 4800 bytes.
	pcm := make([]byte, 4800)
	c.applyAudioDelta("a1", pcm)
	c.AttachFile("a1", &audio.File{})

	c.applyTruncated("a1", 50, cfg)

	it, _ := c.Get("a1")
	if len(it.Audio) != 2400 {
		t.Errorf("expected audio trimmed to 2400 bytes, got %d", len(it.Audio))
	}
	if it.File != nil {
		t.Error("truncation must drop the decoded file")
	}
}

func TestConversationTruncateBeyondEndKeepsAll(t *testing.T) {
	c := NewConversation()
	cfg := audio.DefaultConfig()

	c.applyAudioDelta("a1", make([]byte, 1000))
	c.applyTruncated("a1", 10_000, cfg)

	it, _ := c.Get("a1")
	if len(it.Audio) != 1000 {
		t.Errorf("cutoff past the end must keep all audio, got %d bytes", len(it.Audio))
	}
}

func TestConversationAttachFile(t *testing.T) {
	c := NewConversation()
	c.applyAudioDelta("a1", make([]byte, 100))
	c.applyCompleted(&wireItem{ID: "a1", Role: "assistant"})

	file := &audio.File{SampleRate: 24000, Channels: 1}
	c.AttachFile("a1", file)

	it, _ := c.Get("a1")
	if it.File != file {
		t.Error("attached file must be visible on snapshots")
	}

	// Attaching to an unknown id must not create an item.
	c.AttachFile("ghost", file)
	if _, ok := c.Get("ghost"); ok {
		t.Error("AttachFile must not create items")
	}
}

func TestConversationResetDiscardsItems(t *testing.T) {
	c := NewConversation()
	c.applyCreated(&wireItem{ID: "a", Role: "user"})
	c.Reset()

	if c.Len() != 0 {
		t.Errorf("expected empty store after reset, got %d items", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("items must not survive reset")
	}
}

func TestConversationItemsAreCopies(t *testing.T) {
	c := NewConversation()
	c.applyTextDelta("a", "original")

	items := c.Items()
	items[0].Text = "mutated"

	it, _ := c.Get("a")
	if it.Text != "original" {
		t.Error("snapshot mutation must not leak into the store")
	}
}

func TestDisplayText(t *testing.T) {
	cases := []struct {
		item Item
		want string
	}{
		{Item{Transcript: "spoken", Text: "typed"}, "spoken"},
		{Item{Text: "typed"}, "typed"},
		{Item{}, "..."},
	}
	for _, tc := range cases {
		if got := tc.item.DisplayText(); got != tc.want {
			t.Errorf("DisplayText(%+v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}
