package entities

import (
	"fmt"
	"testing"
	"time"
)

func TestParseSetup(t *testing.T) {
	for _, s := range Setups {
		got, ok := ParseSetup(string(s))
		if !ok || got != s {
			t.Errorf("ParseSetup(%q) = %q, %v", s, got, ok)
		}
	}
	if _, ok := ParseSetup("advanced"); ok {
		t.Error("expected unknown setup to be rejected")
	}
}

func TestNewSession_StartsOnBasic(t *testing.T) {
	s := NewSession("abc")
	if s.ID != "abc" {
		t.Errorf("expected ID abc, got %s", s.ID)
	}
	if s.Setup != SetupBasic {
		t.Errorf("expected basic setup, got %s", s.Setup)
	}
}

func TestSession_AddDocumentOncePerName(t *testing.T) {
	s := NewSession("s1")

	if !s.AddDocument(Document{Name: "a.pdf", Content: "first"}) {
		t.Fatal("expected a.pdf to be added")
	}
	if !s.AddDocument(Document{Name: "b.pdf"}) {
		t.Fatal("expected b.pdf to be added")
	}
	if s.AddDocument(Document{Name: "a.pdf", Content: "second"}) {
		t.Error("expected duplicate a.pdf to be ignored")
	}

	if len(s.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(s.Documents))
	}
	if s.Documents[0].Name != "a.pdf" || s.Documents[0].Content != "first" {
		t.Errorf("unexpected first document: %+v", s.Documents[0])
	}
	if s.Documents[1].Name != "b.pdf" {
		t.Errorf("expected insertion order, got %s second", s.Documents[1].Name)
	}
}

func TestSession_RecordBoundsHistory(t *testing.T) {
	s := NewSession("s1")
	for i := 0; i < MaxHistory+5; i++ {
		s.Record(Exchange{Query: fmt.Sprintf("q%d", i), At: time.Now()})
	}

	if len(s.History) != MaxHistory {
		t.Fatalf("expected %d entries, got %d", MaxHistory, len(s.History))
	}
	if s.History[0].Query != "q5" {
		t.Errorf("expected oldest kept entry q5, got %s", s.History[0].Query)
	}
}

func TestRepository_FullName(t *testing.T) {
	r := Repository{Owner: "modelcontextprotocol", Name: "python-sdk"}
	if r.FullName() != "modelcontextprotocol/python-sdk" {
		t.Errorf("unexpected full name %s", r.FullName())
	}
}

func TestGenerationResult_Render(t *testing.T) {
	direct := GenerationResult{Text: "hello", Model: "m1", Requested: "m1"}
	if direct.Fallback() {
		t.Error("direct result should not be a fallback")
	}
	if direct.Render() != "hello" {
		t.Errorf("unexpected render %q", direct.Render())
	}

	fallback := GenerationResult{Text: "hello", Model: "m2", Requested: "m1"}
	if !fallback.Fallback() {
		t.Error("expected fallback")
	}
	if got := fallback.Render(); got != "[Using model: m2] hello" {
		t.Errorf("unexpected render %q", got)
	}
}
