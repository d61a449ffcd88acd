package persona

import (
	"strings"
	"testing"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := DefaultCatalog()
	agents := c.Agents()
	if len(agents) != 2 {
		t.Fatalf("expected 2 built-in agents, got %d", len(agents))
	}
	if agents[0].Name != "Software Engineer" || agents[1].Name != "Data Scientist" {
		t.Errorf("unexpected catalog order: %q, %q", agents[0].Name, agents[1].Name)
	}
}

func TestCatalogGet(t *testing.T) {
	c := DefaultCatalog()

	a, ok := c.Get("1")
	if !ok {
		t.Fatal("expected agent 1 to exist")
	}
	if a.Name != "Software Engineer" {
		t.Errorf("expected Software Engineer, got %q", a.Name)
	}

	if _, ok := c.Get("999"); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestNewCatalogSkipsDuplicateIDs(t *testing.T) {
	c := NewCatalog([]Agent{
		{ID: "x", Name: "First"},
		{ID: "x", Name: "Second"},
	})
	agents := c.Agents()
	if len(agents) != 1 {
		t.Fatalf("expected duplicate id dropped, got %d agents", len(agents))
	}
	if agents[0].Name != "First" {
		t.Errorf("first registration must win, got %q", agents[0].Name)
	}
}

func TestGreeting(t *testing.T) {
	a := Agent{ID: "1", Name: "Software Engineer"}
	want := "I am an AI agent and my profession is Software Engineer, how can I help you with my profession?"
	if got := Greeting(a); got != want {
		t.Errorf("Greeting = %q, want %q", got, want)
	}
}

func TestInstructionsTemplate(t *testing.T) {
	a := Agent{
		ID:          "2",
		Name:        "Data Scientist",
		Description: "A data scientist analyzes data.",
	}

	got := Instructions(a)

	if !strings.HasPrefix(got, a.Description) {
		t.Errorf("instructions must start with the description, got %q", got)
	}
	if !strings.Contains(got, "The user knows you as an expert in this area.") {
		t.Errorf("instructions missing expert framing: %q", got)
	}
	if !strings.HasSuffix(got, Greeting(a)) {
		t.Errorf("instructions must end with the exact greeting, got %q", got)
	}
}

func TestInstructionsDeterministic(t *testing.T) {
	a, _ := DefaultCatalog().Get("1")
	if Instructions(a) != Instructions(a) {
		t.Error("instructions must be deterministic for the same agent")
	}
}

func TestDecodeDragPayload(t *testing.T) {
	a, err := DecodeDragPayload([]byte(`{"id":"2","name":"Data Scientist"}`))
	if err != nil {
		t.Fatalf("DecodeDragPayload: %v", err)
	}
	if a.ID != "2" {
		t.Errorf("expected id 2, got %q", a.ID)
	}
}

func TestDecodeDragPayloadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":   `drag me`,
		"empty":      ``,
		"missing id": `{"name":"Nameless"}`,
		"wrong type": `[1,2,3]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeDragPayload([]byte(payload)); err == nil {
				t.Errorf("expected error for payload %q", payload)
			}
		})
	}
}
