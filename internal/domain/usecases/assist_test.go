package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
)

const defaultRepo = "https://github.com/modelcontextprotocol/python-sdk"

type assistFixture struct {
	provider *stubProvider
	parser   *stubParser
	tracker  *stubTracker
	library  *stubLibrary
	asst     *Assistant
	sess     *entities.Session
}

func newAssistFixture(t *testing.T) *assistFixture {
	t.Helper()
	f := &assistFixture{
		provider: &stubProvider{replies: map[string]string{"gemini-1.5-pro": "answer"}},
		parser:   &stubParser{text: "Alpha\nBeta\n"},
		tracker: &stubTracker{
			issues: []entities.Issue{{Number: 465, Title: "Fix tests", State: "closed"}},
			tools:  []entities.ToolDescriptor{{Name: "github.list_issues"}},
		},
		library: &stubLibrary{},
		sess:    entities.NewSession("s1"),
	}
	gen, err := NewGenerator(f.provider, GeneratorConfig{Models: candidates})
	require.NoError(t, err)
	ing, err := NewIngestor(f.parser, nil, t.TempDir(), 1000, 200)
	require.NoError(t, err)
	f.asst = NewAssistant(gen, ing, f.tracker, f.library, defaultRepo)
	return f
}

func (f *assistFixture) lastPrompt() string {
	return f.provider.calls[len(f.provider.calls)-1].Prompt
}

func TestBasic(t *testing.T) {
	f := newAssistFixture(t)

	answer, err := f.asst.Basic(context.Background(), f.sess, "Hello?")
	require.NoError(t, err)
	assert.Equal(t, "answer", answer.Response)
	assert.Equal(t, "gemini-1.5-pro", answer.Model)
	assert.Equal(t, "Hello?", f.lastPrompt())
	require.Len(t, f.sess.History, 1)
	assert.Equal(t, entities.SetupBasic, f.sess.History[0].Setup)
}

func TestBasic_EmptyQuery(t *testing.T) {
	f := newAssistFixture(t)

	_, err := f.asst.Basic(context.Background(), f.sess, "   ")
	require.Error(t, err)
	assert.Equal(t, MsgEnterQuery, RenderError(err))
	assert.Empty(t, f.provider.calls)
}

func TestBasic_UsesSelectedModel(t *testing.T) {
	f := newAssistFixture(t)
	f.provider.replies["gemini-1.5-flash"] = "flash"
	f.sess.Model = "gemini-1.5-flash"

	answer, err := f.asst.Basic(context.Background(), f.sess, "q")
	require.NoError(t, err)
	assert.Equal(t, "flash", answer.Response)
	assert.False(t, answer.Fallback)
}

func TestBasic_GenerationFailureIsRendered(t *testing.T) {
	f := newAssistFixture(t)
	f.provider.errs = map[string]error{"gemini-1.5-pro": errors.New("permission denied")}

	answer, err := f.asst.Basic(context.Background(), f.sess, "q")
	require.NoError(t, err)
	assert.True(t, answer.Failed)
	assert.Contains(t, answer.Response, "Error generating response: permission denied")
	assert.True(t, f.sess.History[0].Failed)
}

func TestBasic_WithoutAPIKey(t *testing.T) {
	f := newAssistFixture(t)
	gen, err := NewGenerator(nil, GeneratorConfig{Models: candidates})
	require.NoError(t, err)
	f.asst.SetGenerator(gen)

	_, err = f.asst.Basic(context.Background(), f.sess, "q")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConfiguration))
	assert.Equal(t, MsgEnterAPIKey, RenderError(err))
}

func TestSetRAGDocument_ReprocessesOnlyOnNameChange(t *testing.T) {
	f := newAssistFixture(t)
	ctx := context.Background()

	_, processed, err := f.asst.SetRAGDocument(ctx, f.sess, "a.pdf", []byte("1"))
	require.NoError(t, err)
	assert.True(t, processed)

	_, processed, err = f.asst.SetRAGDocument(ctx, f.sess, "a.pdf", []byte("2"))
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, 1, f.parser.calls)

	doc, processed, err := f.asst.SetRAGDocument(ctx, f.sess, "b.pdf", []byte("3"))
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, "b.pdf", doc.Name)
	assert.Equal(t, "b.pdf", f.sess.RAGDocument.Name)
}

func TestAskRAG(t *testing.T) {
	f := newAssistFixture(t)
	ctx := context.Background()

	_, err := f.asst.AskRAG(ctx, f.sess, "What?")
	assert.Equal(t, MsgUploadDocument, RenderError(err))

	_, _, err = f.asst.SetRAGDocument(ctx, f.sess, "report.pdf", []byte("pdf"))
	require.NoError(t, err)

	_, err = f.asst.AskRAG(ctx, f.sess, "")
	assert.Equal(t, MsgEnterQuestion, RenderError(err))

	answer, err := f.asst.AskRAG(ctx, f.sess, "What is mentioned?")
	require.NoError(t, err)
	assert.Equal(t, []string{"report.pdf"}, answer.Documents)
	assert.Contains(t, f.lastPrompt(), "Alpha\nBeta\n")
	assert.Contains(t, f.lastPrompt(), "What is mentioned?")
}

func TestAgentic(t *testing.T) {
	f := newAssistFixture(t)

	answer, err := f.asst.Agentic(context.Background(), f.sess, "Recent issues?", "")
	require.NoError(t, err)
	require.NotNil(t, answer.Repository)
	assert.Equal(t, "modelcontextprotocol/python-sdk", answer.Repository.FullName())
	assert.Equal(t, "The user is asking about the GitHub repository: "+defaultRepo+". The query is: Recent issues?", f.lastPrompt())
	assert.Len(t, answer.Issues, 1)
	assert.Len(t, answer.Tools, 1)
	assert.Equal(t, "python-sdk", f.tracker.repos[0].Name)
}

func TestAgentic_CustomRepository(t *testing.T) {
	f := newAssistFixture(t)

	answer, err := f.asst.Agentic(context.Background(), f.sess, "q", "https://github.com/golang/go/")
	require.NoError(t, err)
	assert.Equal(t, "golang/go", answer.Repository.FullName())
}

func TestAgentic_InvalidRepository(t *testing.T) {
	f := newAssistFixture(t)

	_, err := f.asst.Agentic(context.Background(), f.sess, "q", "github.com/golang")
	require.Error(t, err)
	assert.Equal(t, MsgInvalidRepoURL, RenderError(err))
	assert.Empty(t, f.provider.calls)
}

func TestAgentic_IssueTrackerFailure(t *testing.T) {
	f := newAssistFixture(t)
	f.tracker.listErr = errors.New("rate limited")

	answer, err := f.asst.Agentic(context.Background(), f.sess, "q", "")
	require.NoError(t, err)
	assert.Equal(t, "Could not fetch issues: rate limited", answer.IssuesError)
	assert.Empty(t, answer.Issues)
}

func TestAddAgenticDocument_OncePerName(t *testing.T) {
	f := newAssistFixture(t)
	ctx := context.Background()

	_, added, err := f.asst.AddAgenticDocument(ctx, f.sess, "a.pdf", []byte("1"))
	require.NoError(t, err)
	assert.True(t, added)
	_, added, err = f.asst.AddAgenticDocument(ctx, f.sess, "a.pdf", []byte("1"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, f.sess.Documents, 1)
	assert.Equal(t, 1, f.parser.calls)
}

func TestAskAgenticRAG_WithoutDocuments(t *testing.T) {
	f := newAssistFixture(t)

	answer, err := f.asst.AskAgenticRAG(context.Background(), f.sess, "Anything new?")
	require.NoError(t, err)
	assert.Empty(t, answer.Documents)
	assert.Equal(t, "The user is asking about the GitHub repository: "+defaultRepo+". The query is: Anything new?", f.lastPrompt())
	assert.Len(t, answer.Issues, 1)
}

func TestAskAgenticRAG_CombinesSessionAndLibraryDocuments(t *testing.T) {
	f := newAssistFixture(t)
	f.sess.AddDocument(entities.Document{Name: "one.pdf", Content: "first"})
	f.sess.AddDocument(entities.Document{Name: "two.pdf", Content: "second"})
	f.library.docs = []entities.Document{
		{Name: "two.pdf", Content: "shadowed"},
		{Name: "inbox.pdf", Content: "shared"},
	}

	answer, err := f.asst.AskAgenticRAG(context.Background(), f.sess, "Summarize")
	require.NoError(t, err)
	assert.Equal(t, []string{"one.pdf", "two.pdf", "inbox.pdf"}, answer.Documents)

	sent := f.lastPrompt()
	assert.Contains(t, sent, "\n\n--- Document: one.pdf ---\nfirst\n\n--- Document: two.pdf ---\nsecond\n\n--- Document: inbox.pdf ---\nshared")
	assert.NotContains(t, sent, "shadowed")
	assert.Contains(t, sent, "and possibly the uploaded documents. The query is: Summarize")
}

func TestAskAgenticRAG_EmptyQuestion(t *testing.T) {
	f := newAssistFixture(t)
	_, err := f.asst.AskAgenticRAG(context.Background(), f.sess, "")
	assert.Equal(t, MsgEnterQuestion, RenderError(err))
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url     string
		owner   string
		name    string
		wantErr bool
	}{
		{"https://github.com/modelcontextprotocol/python-sdk", "modelcontextprotocol", "python-sdk", false},
		{"https://github.com/golang/go/", "golang", "go", false},
		{"  https://github.com/a/b  ", "a", "b", false},
		{"https://github.com/golang", "", "", true},
		{"not a url", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			repo, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParam))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, repo.Owner)
			assert.Equal(t, tt.name, repo.Name)
			assert.False(t, strings.HasSuffix(repo.URL, "/"))
		})
	}
}

func TestSetups(t *testing.T) {
	setups := Setups()
	require.Len(t, setups, 4)
	for i, s := range setups {
		assert.Equal(t, entities.Setups[i], s.Setup)
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Diagram)
		assert.NotEmpty(t, s.Workflow)
	}

	info, ok := LookupSetup(entities.SetupAgenticRAG)
	require.True(t, ok)
	assert.Equal(t, "Agentic RAG Integration", info.Title)
	assert.Len(t, info.Workflow, 9)
}
