// Package entities contains the core domain objects of the explorer.
// They carry no knowledge of storage, transport or providers.
package entities

import "time"

// Document is a named PDF and the plain text extracted from it.
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	Size      int64
	Source    DocumentSource
	CreatedAt time.Time
}

// DocumentSource tells where a document entered the system.
type DocumentSource string

const (
	SourceUpload DocumentSource = "upload"
	SourceInbox  DocumentSource = "inbox"
)

// TextChunk is a bounded piece of a document's text.
type TextChunk struct {
	Index   int
	Content string
}

// Setup is one of the four integration patterns the explorer demonstrates.
type Setup string

const (
	SetupBasic      Setup = "basic"
	SetupRAG        Setup = "rag"
	SetupAgentic    Setup = "agentic"
	SetupAgenticRAG Setup = "agentic_rag"
)

// Setups lists every setup in display order.
var Setups = []Setup{SetupBasic, SetupRAG, SetupAgentic, SetupAgenticRAG}

// ParseSetup returns the setup named s.
func ParseSetup(s string) (Setup, bool) {
	for _, setup := range Setups {
		if string(setup) == s {
			return setup, true
		}
	}
	return "", false
}

// Exchange is one question and the rendered answer shown to the user.
type Exchange struct {
	Setup    Setup
	Query    string
	Response string
	Model    string
	Failed   bool
	At       time.Time
}

// MaxHistory bounds Session.History.
const MaxHistory = 50

// Session is the state of one browser session.
type Session struct {
	ID    string
	Setup Setup
	// Model is the selected model. Empty means the configured default.
	Model string
	// RAGDocument is the single document used by the RAG setup.
	RAGDocument *Document
	// Documents are the agentic RAG uploads, in upload order.
	Documents []Document
	History   []Exchange
	UpdatedAt time.Time
}

// NewSession returns an empty session on the basic setup.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Setup:     SetupBasic,
		UpdatedAt: time.Now(),
	}
}

// HasDocument reports whether an agentic RAG document named name was added.
func (s *Session) HasDocument(name string) bool {
	for _, d := range s.Documents {
		if d.Name == name {
			return true
		}
	}
	return false
}

// AddDocument appends doc unless a document with the same name exists.
// It reports whether doc was added.
func (s *Session) AddDocument(doc Document) bool {
	if s.HasDocument(doc.Name) {
		return false
	}
	s.Documents = append(s.Documents, doc)
	return true
}

// Record appends e to the history, dropping the oldest entries past MaxHistory.
func (s *Session) Record(e Exchange) {
	s.History = append(s.History, e)
	if over := len(s.History) - MaxHistory; over > 0 {
		s.History = append([]Exchange(nil), s.History[over:]...)
	}
}

// Repository identifies a hosted source repository.
type Repository struct {
	Owner string
	Name  string
	URL   string
}

// FullName returns owner/name.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// Issue is a summary of a repository issue.
type Issue struct {
	Number    int
	Title     string
	State     string
	CreatedAt time.Time
	Body      string
}

// IssueDetail is an issue with its discussion metadata.
type IssueDetail struct {
	Issue
	Comments int
	Labels   []string
}

// ToolDescriptor describes a callable tool as it would be offered to a model.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  []string
}

// GenerationResult is a successful generation.
type GenerationResult struct {
	Text string
	// Model served the request.
	Model string
	// Requested is the model that was tried first.
	Requested string
}

// Fallback reports whether a model other than the requested one served the request.
func (r GenerationResult) Fallback() bool {
	return r.Model != r.Requested
}

// Render returns the text shown to the user.
// Fallback responses are prefixed with the serving model.
func (r GenerationResult) Render() string {
	if r.Fallback() {
		return "[Using model: " + r.Model + "] " + r.Text
	}
	return r.Text
}
