package http

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/usecases"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
)

const (
	msgAPIKeyAccepted = "API key submitted successfully!"
	msgAPIKeyFailed   = "Failed to initialize Gemini API. Please check your API key."
	msgUploadPDF      = "Please upload a PDF document."
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ready":  s.generator().Ready(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	setups := make([]SetupResponse, 0, len(entities.Setups))
	for _, info := range usecases.Setups() {
		setups = append(setups, toSetupResponse(info))
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":       s.cfg.App.Title,
		"Description": s.cfg.App.Description,
		"Setups":      setups,
		"Selected":    string(sessionFrom(c).Setup),
		"Ready":       s.generator().Ready(),
		"NeedsKey":    s.cfg.LLM.RequiresAPIKey(),
		"DefaultRepo": s.deps.Assistant.DefaultRepository(),
	})
}

func (s *Server) handleAPIKey(c *gin.Context) {
	var req APIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		badRequest(c, usecases.MsgEnterAPIKey)
		return
	}
	if s.deps.Providers == nil {
		renderError(c, apperrors.New(apperrors.CodeConfiguration, "no provider factory configured"))
		return
	}

	ctx := c.Request.Context()
	provider, err := s.deps.Providers(ctx, key)
	if err == nil {
		_, err = provider.ListModels(ctx)
	}
	if err != nil {
		logger.Warn(ctx, "api key rejected", "error", err.Error())
		renderError(c, apperrors.Wrap(err, apperrors.CodeInvalidParam, msgAPIKeyFailed))
		return
	}

	gen, err := usecases.NewGenerator(provider, s.genCfg)
	if err != nil {
		renderError(c, err)
		return
	}
	s.deps.Assistant.SetGenerator(gen)
	logger.Info(ctx, "api key accepted", "provider", provider.Name())

	success(c, msgAPIKeyAccepted, s.modelsResponse(c))
}

func (s *Server) handleListModels(c *gin.Context) {
	success(c, "", s.modelsResponse(c))
}

func (s *Server) modelsResponse(c *gin.Context) ModelsResponse {
	gen := s.generator()
	selected := sessionFrom(c).Model
	if selected == "" {
		selected = gen.DefaultModel()
	}
	return ModelsResponse{
		Models:   gen.AvailableModels(c.Request.Context()),
		Default:  gen.DefaultModel(),
		Selected: selected,
		Ready:    gen.Ready(),
	}
}

func (s *Server) handleSelectModel(c *gin.Context) {
	var req ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	sess := sessionFrom(c)
	model := strings.TrimSpace(req.Model)
	if model != "" {
		gen := s.generator()
		if !slices.Contains(gen.Models(), model) && !slices.Contains(gen.AvailableModels(c.Request.Context()), model) {
			badRequest(c, fmt.Sprintf("Unknown model %q.", model))
			return
		}
	}
	sess.Model = model
	success(c, "", s.modelsResponse(c))
}

func (s *Server) handleListSetups(c *gin.Context) {
	out := make([]SetupResponse, 0, len(entities.Setups))
	for _, info := range usecases.Setups() {
		out = append(out, toSetupResponse(info))
	}
	success(c, "", out)
}

func (s *Server) handleSelectSetup(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	setup, ok := entities.ParseSetup(req.Setup)
	if !ok {
		badRequest(c, fmt.Sprintf("Unknown setup %q.", req.Setup))
		return
	}
	sessionFrom(c).Setup = setup
	info, _ := usecases.LookupSetup(setup)
	success(c, "", toSetupResponse(info))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess := sessionFrom(c)
	model := sess.Model
	if model == "" {
		model = s.generator().DefaultModel()
	}
	resp := SessionResponse{
		ID:        sess.ID,
		Setup:     string(sess.Setup),
		Model:     model,
		Documents: make([]DocumentResponse, 0, len(sess.Documents)),
		Library:   []DocumentResponse{},
		History:   make([]ExchangeResponse, 0, len(sess.History)),
		Ready:     s.generator().Ready(),
	}
	if sess.RAGDocument != nil {
		doc := toDocumentResponse(sess.RAGDocument, true)
		resp.RAGDocument = &doc
	}
	for i := range sess.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(&sess.Documents[i], true))
	}
	if s.deps.Library != nil {
		docs, err := s.deps.Library.List(c.Request.Context())
		if err != nil {
			logger.Error(c.Request.Context(), "listing library failed", err)
		}
		for i := range docs {
			resp.Library = append(resp.Library, toDocumentResponse(&docs[i], true))
		}
	}
	for _, e := range sess.History {
		resp.History = append(resp.History, ExchangeResponse{
			Setup:    string(e.Setup),
			Query:    e.Query,
			Response: e.Response,
			Model:    e.Model,
			Failed:   e.Failed,
			At:       e.At,
		})
	}
	success(c, "", resp)
}

func (s *Server) handleBasic(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	answer, err := s.deps.Assistant.Basic(c.Request.Context(), sessionFrom(c), req.Query)
	s.respondAnswer(c, answer, err)
}

func (s *Server) handleRAGDocument(c *gin.Context) {
	uploads, err := s.readUploads(c)
	if err != nil {
		renderError(c, err)
		return
	}
	up := uploads[0]
	doc, processed, err := s.deps.Assistant.SetRAGDocument(c.Request.Context(), sessionFrom(c), up.name, up.data)
	if err != nil {
		renderError(c, err)
		return
	}
	success(c, uploadMessage(doc.Name, processed), toDocumentResponse(doc, processed))
}

func (s *Server) handleRAGAsk(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	answer, err := s.deps.Assistant.AskRAG(c.Request.Context(), sessionFrom(c), req.Query)
	s.respondAnswer(c, answer, err)
}

func (s *Server) handleAgentic(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	answer, err := s.deps.Assistant.Agentic(c.Request.Context(), sessionFrom(c), req.Query, req.RepoURL)
	s.respondAnswer(c, answer, err)
}

func (s *Server) handleGetIssue(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		badRequest(c, fmt.Sprintf("Invalid issue number %q.", c.Param("number")))
		return
	}
	repoURL := c.Query("repo_url")
	if repoURL == "" {
		repoURL = s.deps.Assistant.DefaultRepository()
	}
	repo, err := usecases.ParseRepoURL(repoURL)
	if err != nil {
		renderError(c, err)
		return
	}
	detail, err := s.deps.Tracker.GetIssue(c.Request.Context(), repo, number)
	if err != nil {
		renderError(c, err)
		return
	}
	resp := toIssueResponse(detail.Issue)
	resp.Comments = &detail.Comments
	resp.Labels = detail.Labels
	success(c, "", resp)
}

func (s *Server) handleAgenticRAGDocuments(c *gin.Context) {
	uploads, err := s.readUploads(c)
	if err != nil {
		renderError(c, err)
		return
	}
	sess := sessionFrom(c)
	out := make([]DocumentResponse, 0, len(uploads))
	messages := make([]string, 0, len(uploads))
	for _, up := range uploads {
		doc, added, err := s.deps.Assistant.AddAgenticDocument(c.Request.Context(), sess, up.name, up.data)
		if err != nil {
			renderError(c, err)
			return
		}
		out = append(out, toDocumentResponse(doc, added))
		messages = append(messages, uploadMessage(doc.Name, added))
	}
	success(c, strings.Join(messages, " "), out)
}

func (s *Server) handleAgenticRAGAsk(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	answer, err := s.deps.Assistant.AskAgenticRAG(c.Request.Context(), sessionFrom(c), req.Query)
	s.respondAnswer(c, answer, err)
}

func (s *Server) handleDocumentChunks(c *gin.Context) {
	name := c.Param("name")
	doc := s.findDocument(c, name)
	if doc == nil {
		renderError(c, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("Document %q not found.", name)))
		return
	}
	chunks := []ChunkResponse{}
	for chunk := range s.deps.Assistant.Ingestor().SplitText(doc.Content) {
		chunks = append(chunks, ChunkResponse{
			Index:   chunk.Index,
			Length:  len([]rune(chunk.Content)),
			Content: chunk.Content,
		})
	}
	success(c, "", chunks)
}

// findDocument looks name up in the session, then in the shared library.
func (s *Server) findDocument(c *gin.Context, name string) *entities.Document {
	sess := sessionFrom(c)
	if sess.RAGDocument != nil && sess.RAGDocument.Name == name {
		return sess.RAGDocument
	}
	for i := range sess.Documents {
		if sess.Documents[i].Name == name {
			return &sess.Documents[i]
		}
	}
	if s.deps.Library == nil {
		return nil
	}
	docs, err := s.deps.Library.List(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "listing library failed", err)
		return nil
	}
	for i := range docs {
		if docs[i].Name == name {
			return &docs[i]
		}
	}
	return nil
}

func (s *Server) respondAnswer(c *gin.Context, answer *usecases.Answer, err error) {
	if err != nil {
		renderError(c, err)
		return
	}
	success(c, "", toAnswerResponse(answer))
}

// generator returns the current generator, or an unbound one.
func (s *Server) generator() *usecases.Generator {
	if g := s.deps.Assistant.Generator(); g != nil {
		return g
	}
	return s.unbound
}

type upload struct {
	name string
	data []byte
}

// readUploads reads the PDF parts of the multipart field "file".
func (s *Server) readUploads(c *gin.Context) ([]upload, error) {
	if limit := s.cfg.Server.HTTP.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidParam, msgUploadPDF)
	}
	files := form.File["file"]
	if len(files) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, msgUploadPDF)
	}

	uploads := make([]upload, 0, len(files))
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			return nil, apperrors.New(apperrors.CodeInvalidParam,
				fmt.Sprintf("Unsupported file %q. %s", name, msgUploadPDF))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidParam, msgUploadPDF)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidParam, msgUploadPDF)
		}
		uploads = append(uploads, upload{name: name, data: data})
	}
	return uploads, nil
}

func uploadMessage(name string, processed bool) string {
	if processed {
		return fmt.Sprintf("Document '%s' processed successfully!", name)
	}
	return fmt.Sprintf("Document '%s' is already loaded.", name)
}
