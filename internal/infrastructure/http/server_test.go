package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/parser"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/session"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/adapters/tools"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/config"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/usecases"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/testutil"
)

const testKey = "valid-key"

var testModels = []string{"gemini-1.5-pro", "gemini-1.5-flash"}

// fakeProvider answers with a fixed reply and fails on the models in missing.
type fakeProvider struct {
	mu      sync.Mutex
	missing map[string]bool
	broken  bool
	prompts []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(ctx context.Context, model, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if p.broken || p.missing[model] {
		return "", errors.Join(ports.ErrModelUnavailable, errors.New("404 models/"+model+" is not found"))
	}
	return "reply from " + model, nil
}

func (p *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return testModels, nil
}

func (p *fakeProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

type testEnv struct {
	server   *Server
	provider *fakeProvider
	library  *session.MemoryLibrary
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "llm-evolution-explorer"
	cfg.App.Title = "LLM Evolution Explorer"
	cfg.Server.HTTP.MaxUploadBytes = 1 << 20
	cfg.LLM.Provider = config.ProviderGemini
	cfg.LLM.DefaultModel = testModels[0]
	cfg.LLM.Models = testModels
	cfg.Documents.TempDir = t.TempDir()
	cfg.Documents.ChunkSize = 6
	cfg.Documents.ChunkOverlap = 0
	cfg.Session.CookieName = "explorer_session"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	return cfg
}

// newTestEnv starts without an API key unless bound is set.
func newTestEnv(t *testing.T, bound bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	provider := &fakeProvider{missing: map[string]bool{}}

	var initial ports.LLMProvider
	if bound {
		initial = provider
	}
	gen, err := usecases.NewGenerator(initial, usecases.GeneratorConfig{Models: cfg.LLM.Candidates()})
	require.NoError(t, err)
	ing, err := usecases.NewIngestor(parser.NewNativePDFParser(), nil, cfg.Documents.TempDir,
		cfg.Documents.ChunkSize, cfg.Documents.ChunkOverlap)
	require.NoError(t, err)
	tracker, err := tools.NewStaticIssueTracker()
	require.NoError(t, err)
	library := session.NewMemoryLibrary()

	assistant := usecases.NewAssistant(gen, ing, tracker, library,
		"https://github.com/modelcontextprotocol/python-sdk")

	srv, err := NewServer(cfg, Deps{
		Assistant: assistant,
		Sessions:  session.NewMemoryStore(),
		Library:   library,
		Tracker:   tracker,
		Providers: func(ctx context.Context, apiKey string) (ports.LLMProvider, error) {
			if apiKey != testKey {
				return nil, errors.New("API key not valid")
			}
			return provider, nil
		},
	}, "")
	require.NoError(t, err)
	return &testEnv{server: srv, provider: provider, library: library}
}

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	env    *testEnv
	cookie *http.Cookie
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, env: e}
}

func (c *client) do(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.env.server.Engine().ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "explorer_session" {
			c.cookie = ck
		}
	}
	var body map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (c *client) json(method, path string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(path string, files map[string][]byte) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(c.t, err)
		_, err = part.Write(data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)
	c := env.client(t)

	w, body := c.json(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["ready"])

	w, _ = c.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "llm_explorer_http_requests_total")
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, false)
	w, _ := env.client(t).do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "LLM Evolution Explorer")
	assert.Contains(t, page, "Please enter your Gemini API key to continue.")
	assert.Contains(t, page, "Agentic RAG")
}

func TestBasic_RequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, false)
	w, body := env.client(t).json(http.MethodPost, "/api/basic", QueryRequest{Query: "hello"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, usecases.MsgEnterAPIKey, body["message"])
}

func TestAPIKey(t *testing.T) {
	env := newTestEnv(t, false)
	c := env.client(t)

	w, body := c.json(http.MethodPost, "/api/key", APIKeyRequest{APIKey: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, usecases.MsgEnterAPIKey, body["message"])

	w, body = c.json(http.MethodPost, "/api/key", APIKeyRequest{APIKey: "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgAPIKeyFailed, body["message"])

	w, body = c.json(http.MethodPost, "/api/key", APIKeyRequest{APIKey: testKey})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, msgAPIKeyAccepted, body["message"])
	assert.Equal(t, true, data(body)["ready"])

	w, body = c.json(http.MethodPost, "/api/basic", QueryRequest{Query: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reply from gemini-1.5-pro", data(body)["response"])
}

func TestBasic(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodPost, "/api/basic", QueryRequest{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, usecases.MsgEnterQuery, body["message"])

	w, body = c.json(http.MethodPost, "/api/basic", QueryRequest{Query: "What is an LLM?"})
	require.Equal(t, http.StatusOK, w.Code)
	d := data(body)
	assert.Equal(t, "basic", d["setup"])
	assert.Equal(t, "reply from gemini-1.5-pro", d["response"])
	assert.Equal(t, false, d["fallback"])
	assert.Equal(t, "What is an LLM?", env.provider.lastPrompt())
}

func TestBasic_Fallback(t *testing.T) {
	env := newTestEnv(t, true)
	env.provider.missing["gemini-1.5-pro"] = true

	w, body := env.client(t).json(http.MethodPost, "/api/basic", QueryRequest{Query: "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	d := data(body)
	assert.Equal(t, "[Using model: gemini-1.5-flash] reply from gemini-1.5-flash", d["response"])
	assert.Equal(t, true, d["fallback"])
	assert.Equal(t, "gemini-1.5-pro", d["requested_model"])
}

func TestBasic_AllModelsFail(t *testing.T) {
	env := newTestEnv(t, true)
	env.provider.broken = true

	w, body := env.client(t).json(http.MethodPost, "/api/basic", QueryRequest{Query: "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	d := data(body)
	assert.Equal(t, true, d["failed"])
	assert.Contains(t, d["response"], "Error generating response")
	assert.Contains(t, d["response"], "Please try a different model or check your API key.")
}

func TestModels(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gemini-1.5-pro", data(body)["selected"])

	w, body = c.json(http.MethodPut, "/api/session/model", ModelRequest{Model: "gpt-4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "gpt-4")

	w, body = c.json(http.MethodPut, "/api/session/model", ModelRequest{Model: "gemini-1.5-flash"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gemini-1.5-flash", data(body)["selected"])

	_, body = c.json(http.MethodPost, "/api/basic", QueryRequest{Query: "hi"})
	assert.Equal(t, "reply from gemini-1.5-flash", data(body)["response"])
}

func TestSetups(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodGet, "/api/setups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list, _ := body["data"].([]any)
	assert.Len(t, list, 4)

	w, _ = c.json(http.MethodPut, "/api/session/setup", SetupRequest{Setup: "fancy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = c.json(http.MethodPut, "/api/session/setup", SetupRequest{Setup: "rag"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RAG Integration", data(body)["title"])

	_, body = c.json(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "rag", data(body)["setup"])
}

func TestRAG(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodPost, "/api/rag/ask", QueryRequest{Query: "What is in it?"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, usecases.MsgUploadDocument, body["message"])

	pdf := testutil.BuildPDF("Alpha", "Beta")
	w, body = c.upload("/api/rag/document", map[string][]byte{"report.pdf": pdf})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Document 'report.pdf' processed successfully!", body["message"])
	assert.Equal(t, true, data(body)["processed"])

	w, body = c.upload("/api/rag/document", map[string][]byte{"report.pdf": pdf})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, data(body)["processed"])

	w, body = c.json(http.MethodPost, "/api/rag/ask", QueryRequest{Query: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, usecases.MsgEnterQuestion, body["message"])

	w, body = c.json(http.MethodPost, "/api/rag/ask", QueryRequest{Query: "What is in it?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"report.pdf"}, data(body)["documents"])
	prompt := env.provider.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "Context information:\nAlpha\nBeta\n"), prompt)
	assert.Contains(t, prompt, "What is in it?")

	w, body = c.json(http.MethodGet, "/api/documents/report.pdf/chunks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	chunks, _ := body["data"].([]any)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Alpha", chunks[0].(map[string]any)["content"])
	assert.Equal(t, "Beta", chunks[1].(map[string]any)["content"])
}

func TestRAG_Isolation(t *testing.T) {
	env := newTestEnv(t, true)
	first := env.client(t)
	w, _ := first.upload("/api/rag/document", map[string][]byte{"a.pdf": testutil.BuildPDF("A")})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.client(t).json(http.MethodPost, "/api/rag/ask", QueryRequest{Query: "q"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, usecases.MsgUploadDocument, body["message"])
}

func TestUpload_Rejects(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.upload("/api/rag/document", map[string][]byte{"notes.txt": []byte("x")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], msgUploadPDF)

	w, body = c.upload("/api/rag/document", map[string][]byte{"broken.pdf": []byte("not a pdf")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "Error extracting text from PDF")

	w, _ = c.upload("/api/rag/document", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgentic(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodPost, "/api/agentic", QueryRequest{Query: "open issues?", RepoURL: "not-a-url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, usecases.MsgInvalidRepoURL, body["message"])

	w, body = c.json(http.MethodPost, "/api/agentic", QueryRequest{Query: "open issues?"})
	require.Equal(t, http.StatusOK, w.Code)
	d := data(body)
	repo := d["repository"].(map[string]any)
	assert.Equal(t, "modelcontextprotocol", repo["owner"])
	assert.Equal(t, "python-sdk", repo["name"])
	assert.Len(t, d["issues"], 3)
	assert.Len(t, d["tools"], 3)
	assert.Equal(t,
		"The user is asking about the GitHub repository: https://github.com/modelcontextprotocol/python-sdk. The query is: open issues?",
		env.provider.lastPrompt())
}

func TestGetIssue(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodGet, "/api/issues/474", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := data(body)
	assert.Equal(t, float64(8), d["comments"])
	assert.Equal(t, []any{"enhancement", "api"}, d["labels"])

	w, body = c.json(http.MethodGet, "/api/issues/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Issue #999 not found", body["message"])

	w, _ = c.json(http.MethodGet, "/api/issues/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAgenticRAG(t *testing.T) {
	env := newTestEnv(t, true)
	c := env.client(t)

	w, body := c.json(http.MethodPost, "/api/agentic-rag/ask", QueryRequest{Query: "summary?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, data(body)["documents"])
	assert.NotContains(t, env.provider.lastPrompt(), "--- Document:")

	w, body = c.upload("/api/agentic-rag/documents", map[string][]byte{"one.pdf": testutil.BuildPDF("One")})
	require.Equal(t, http.StatusOK, w.Code)
	w, body = c.upload("/api/agentic-rag/documents", map[string][]byte{"one.pdf": testutil.BuildPDF("Other")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Document 'one.pdf' is already loaded.", body["message"])

	require.NoError(t, env.library.Put(context.Background(), entities.Document{
		Path: "/inbox/two.pdf", Name: "two.pdf", Content: "Two\n", Source: entities.SourceInbox,
	}))

	w, body = c.json(http.MethodPost, "/api/agentic-rag/ask", QueryRequest{Query: "summary?"})
	require.Equal(t, http.StatusOK, w.Code)
	d := data(body)
	assert.Equal(t, []any{"one.pdf", "two.pdf"}, d["documents"])
	assert.Len(t, d["issues"], 3)
	prompt := env.provider.lastPrompt()
	assert.Contains(t, prompt, "--- Document: one.pdf ---\nOne\n")
	assert.Contains(t, prompt, "--- Document: two.pdf ---\nTwo\n")
	assert.NotContains(t, prompt, "Other")

	_, body = c.json(http.MethodGet, "/api/session", nil)
	sess := data(body)
	assert.Len(t, sess["documents"], 1)
	assert.Len(t, sess["library"], 1)
	assert.Len(t, sess["history"], 2)
}

func TestDocumentChunks_NotFound(t *testing.T) {
	env := newTestEnv(t, true)
	w, _ := env.client(t).json(http.MethodGet, "/api/documents/missing.pdf/chunks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, true)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w, _ := env.client(t).do(req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w, _ = env.client(t).do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
