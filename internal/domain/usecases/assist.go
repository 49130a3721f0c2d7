package usecases

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/ports"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
	"github.com/0xcro3dile/llm-evolution-explorer/pkg/logger"
)

// User facing validation messages.
const (
	MsgEnterQuery     = "Please enter a query."
	MsgEnterQuestion  = "Please enter a question."
	MsgUploadDocument = "Please upload a document first."
	MsgEnterAPIKey    = "Please enter an API key."
	MsgInvalidRepoURL = "Invalid repository URL format. Please use the format: https://github.com/username/repository"
)

// Answer is the outcome of one setup flow. A failed generation still yields an
// Answer whose Response explains the failure.
type Answer struct {
	Setup     entities.Setup
	Query     string
	Response  string
	Model     string
	Requested string
	Fallback  bool
	Failed    bool

	Repository *entities.Repository
	Issues     []entities.Issue
	Tools      []entities.ToolDescriptor
	// IssuesError is set when the issue tracker could not be read.
	IssuesError string
	// Documents names the documents given to the model as context.
	Documents []string
}

// Assistant runs the four setup flows against a session.
type Assistant struct {
	generator   atomic.Pointer[Generator]
	ingestor    *Ingestor
	tracker     ports.IssueTracker
	library     ports.DocumentLibrary
	defaultRepo string
}

// NewAssistant wires the flows. library may be nil.
func NewAssistant(
	generator *Generator,
	ingestor *Ingestor,
	tracker ports.IssueTracker,
	library ports.DocumentLibrary,
	defaultRepo string,
) *Assistant {
	a := &Assistant{
		ingestor:    ingestor,
		tracker:     tracker,
		library:     library,
		defaultRepo: defaultRepo,
	}
	a.generator.Store(generator)
	return a
}

// Generator returns the current generator.
func (a *Assistant) Generator() *Generator {
	return a.generator.Load()
}

// SetGenerator replaces the generator, e.g. once an API key was submitted.
func (a *Assistant) SetGenerator(g *Generator) {
	a.generator.Store(g)
}

// Ingestor returns the document ingestor.
func (a *Assistant) Ingestor() *Ingestor {
	return a.ingestor
}

// DefaultRepository returns the repository URL used when none is given.
func (a *Assistant) DefaultRepository() string {
	return a.defaultRepo
}

// Basic sends query to the selected model.
func (a *Assistant) Basic(ctx context.Context, sess *entities.Session, query string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, MsgEnterQuery)
	}
	answer := &Answer{Setup: entities.SetupBasic, Query: query}
	if err := a.generate(ctx, sess, answer, query, ""); err != nil {
		return nil, err
	}
	a.record(sess, answer)
	return answer, nil
}

// SetRAGDocument ingests the RAG upload unless a document with the same name
// is already loaded. It reports whether the upload was processed.
func (a *Assistant) SetRAGDocument(ctx context.Context, sess *entities.Session, name string, data []byte) (*entities.Document, bool, error) {
	if sess.RAGDocument != nil && sess.RAGDocument.Name == name {
		return sess.RAGDocument, false, nil
	}
	doc, err := a.ingestor.IngestUpload(ctx, name, data)
	if err != nil {
		return nil, false, err
	}
	sess.RAGDocument = doc
	return doc, true, nil
}

// AskRAG answers question using the session's RAG document as context.
func (a *Assistant) AskRAG(ctx context.Context, sess *entities.Session, question string) (*Answer, error) {
	if sess.RAGDocument == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, MsgUploadDocument)
	}
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, MsgEnterQuestion)
	}

	answer := &Answer{
		Setup:     entities.SetupRAG,
		Query:     question,
		Documents: []string{sess.RAGDocument.Name},
	}
	if err := a.generate(ctx, sess, answer, question, sess.RAGDocument.Content); err != nil {
		return nil, err
	}
	a.record(sess, answer)
	return answer, nil
}

// Agentic asks about a repository and attaches its issues and the tool list.
// An empty repoURL selects the default repository.
func (a *Assistant) Agentic(ctx context.Context, sess *entities.Session, query, repoURL string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, MsgEnterQuery)
	}
	if strings.TrimSpace(repoURL) == "" {
		repoURL = a.defaultRepo
	}
	repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	answer := &Answer{Setup: entities.SetupAgentic, Query: query, Repository: &repo}
	if err := a.generate(ctx, sess, answer, BuildAgenticPrompt(repo.URL, query), ""); err != nil {
		return nil, err
	}

	a.attachIssues(ctx, answer, repo)
	tools, err := a.tracker.DiscoverTools(ctx)
	if err != nil {
		logger.Warn(ctx, "discovering tools failed", "error", err.Error())
	}
	answer.Tools = tools

	a.record(sess, answer)
	return answer, nil
}

// AddAgenticDocument ingests an agentic RAG upload once per name.
// It reports whether the upload was added.
func (a *Assistant) AddAgenticDocument(ctx context.Context, sess *entities.Session, name string, data []byte) (*entities.Document, bool, error) {
	for i := range sess.Documents {
		if sess.Documents[i].Name == name {
			return &sess.Documents[i], false, nil
		}
	}
	doc, err := a.ingestor.IngestUpload(ctx, name, data)
	if err != nil {
		return nil, false, err
	}
	sess.AddDocument(*doc)
	return doc, true, nil
}

// AskAgenticRAG answers question about the default repository using the
// session documents and the shared library as context, when there are any.
func (a *Assistant) AskAgenticRAG(ctx context.Context, sess *entities.Session, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, MsgEnterQuestion)
	}
	repo, err := ParseRepoURL(a.defaultRepo)
	if err != nil {
		return nil, err
	}

	docs := a.contextDocuments(ctx, sess)
	answer := &Answer{Setup: entities.SetupAgenticRAG, Query: question, Repository: &repo}
	if len(docs) > 0 {
		for _, d := range docs {
			answer.Documents = append(answer.Documents, d.Name)
		}
		err = a.generate(ctx, sess, answer, BuildAgenticRAGPrompt(repo.URL, question), CombineDocuments(docs))
	} else {
		err = a.generate(ctx, sess, answer, BuildAgenticPrompt(repo.URL, question), "")
	}
	if err != nil {
		return nil, err
	}

	a.attachIssues(ctx, answer, repo)
	a.record(sess, answer)
	return answer, nil
}

// contextDocuments returns the session documents followed by library
// documents whose names the session does not already use.
func (a *Assistant) contextDocuments(ctx context.Context, sess *entities.Session) []entities.Document {
	docs := append([]entities.Document(nil), sess.Documents...)
	if a.library == nil {
		return docs
	}
	shared, err := a.library.List(ctx)
	if err != nil {
		logger.Warn(ctx, "listing library documents failed", "error", err.Error())
		return docs
	}
	for _, d := range shared {
		if !sess.HasDocument(d.Name) {
			docs = append(docs, d)
		}
	}
	return docs
}

// generate fills answer from a generation. Generation failures are rendered
// into the answer; only configuration failures are returned.
func (a *Assistant) generate(ctx context.Context, sess *entities.Session, answer *Answer, prompt, docContext string) error {
	g := a.Generator()
	if g == nil || !g.Ready() {
		return apperrors.New(apperrors.CodeConfiguration, "no API key configured").WithDetail(MsgEnterAPIKey)
	}

	var (
		result entities.GenerationResult
		err    error
	)
	if docContext != "" {
		result, err = g.GenerateWithContext(ctx, prompt, docContext, sess.Model)
	} else {
		result, err = g.Generate(ctx, prompt, sess.Model)
	}
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConfiguration) {
			return err
		}
		logger.Error(ctx, "generation failed", err, "setup", string(answer.Setup))
		answer.Failed = true
		answer.Response = RenderError(err)
		answer.Requested = sess.Model
		if answer.Requested == "" {
			answer.Requested = g.DefaultModel()
		}
		return nil
	}

	answer.Response = result.Render()
	answer.Model = result.Model
	answer.Requested = result.Requested
	answer.Fallback = result.Fallback()
	return nil
}

func (a *Assistant) attachIssues(ctx context.Context, answer *Answer, repo entities.Repository) {
	issues, err := a.tracker.ListIssues(ctx, repo)
	if err != nil {
		logger.Warn(ctx, "listing issues failed", "repository", repo.FullName(), "error", err.Error())
		answer.IssuesError = "Could not fetch issues: " + apperrors.AsAppError(err).Cause()
		return
	}
	answer.Issues = issues
}

func (a *Assistant) record(sess *entities.Session, answer *Answer) {
	sess.Record(entities.Exchange{
		Setup:    answer.Setup,
		Query:    answer.Query,
		Response: answer.Response,
		Model:    answer.Model,
		Failed:   answer.Failed,
		At:       time.Now(),
	})
}

// ParseRepoURL extracts owner and name from https://github.com/<owner>/<repo>.
func ParseRepoURL(url string) (entities.Repository, error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	parts := strings.Split(url, "/")
	if len(parts) < 5 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return entities.Repository{}, apperrors.New(apperrors.CodeInvalidParam, MsgInvalidRepoURL)
	}
	return entities.Repository{
		Owner: parts[len(parts)-2],
		Name:  parts[len(parts)-1],
		URL:   url,
	}, nil
}
