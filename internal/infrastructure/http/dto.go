package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"
	"github.com/0xcro3dile/llm-evolution-explorer/internal/domain/usecases"
	apperrors "github.com/0xcro3dile/llm-evolution-explorer/pkg/errors"
)

// Response wraps every successful JSON body.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse wraps every failed JSON body. Message is meant for the user.
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func success[T any](c *gin.Context, message string, data T) {
	if message == "" {
		message = "success"
	}
	c.JSON(http.StatusOK, Response[T]{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
		TraceID: c.GetString("trace_id"),
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
		Error:   &ErrorDetail{ErrorCode: string(apperrors.CodeInvalidParam)},
		TraceID: c.GetString("trace_id"),
	})
}

// renderError maps err to its HTTP status and a readable message.
func renderError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorResponse{
		Code:    status,
		Message: usecases.RenderError(err),
		Error:   &ErrorDetail{ErrorCode: string(appErr.Code), Details: appErr.Detail},
		TraceID: c.GetString("trace_id"),
	})
}

type QueryRequest struct {
	Query string `json:"query"`
	// RepoURL overrides the default repository in the agentic setup.
	RepoURL string `json:"repo_url,omitempty"`
}

type APIKeyRequest struct {
	APIKey string `json:"api_key"`
}

type ModelRequest struct {
	Model string `json:"model"`
}

type SetupRequest struct {
	Setup string `json:"setup"`
}

type SetupResponse struct {
	Setup        string   `json:"setup"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Diagram      string   `json:"diagram"`
	Architecture string   `json:"architecture"`
	Workflow     []string `json:"workflow"`
}

func toSetupResponse(info usecases.SetupInfo) SetupResponse {
	return SetupResponse{
		Setup:        string(info.Setup),
		Title:        info.Title,
		Description:  info.Description,
		Diagram:      info.Diagram,
		Architecture: info.Architecture,
		Workflow:     info.Workflow,
	}
}

type ModelsResponse struct {
	Models   []string `json:"models"`
	Default  string   `json:"default"`
	Selected string   `json:"selected"`
	Ready    bool     `json:"ready"`
}

type DocumentResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Source     string    `json:"source"`
	Characters int       `json:"characters"`
	Processed  bool      `json:"processed"`
	CreatedAt  time.Time `json:"created_at"`
}

func toDocumentResponse(doc *entities.Document, processed bool) DocumentResponse {
	return DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		Size:       doc.Size,
		Source:     string(doc.Source),
		Characters: len([]rune(doc.Content)),
		Processed:  processed,
		CreatedAt:  doc.CreatedAt,
	}
}

type ChunkResponse struct {
	Index   int    `json:"index"`
	Length  int    `json:"length"`
	Content string `json:"content"`
}

type RepositoryResponse struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

type IssueResponse struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
	Comments  *int      `json:"comments,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
}

func toIssueResponse(is entities.Issue) IssueResponse {
	return IssueResponse{
		Number:    is.Number,
		Title:     is.Title,
		State:     is.State,
		CreatedAt: is.CreatedAt,
		Body:      is.Body,
	}
}

type ToolResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

type AnswerResponse struct {
	Setup          string              `json:"setup"`
	Query          string              `json:"query"`
	Response       string              `json:"response"`
	Model          string              `json:"model,omitempty"`
	RequestedModel string              `json:"requested_model,omitempty"`
	Fallback       bool                `json:"fallback"`
	Failed         bool                `json:"failed"`
	Repository     *RepositoryResponse `json:"repository,omitempty"`
	Issues         []IssueResponse     `json:"issues,omitempty"`
	IssuesError    string              `json:"issues_error,omitempty"`
	Tools          []ToolResponse      `json:"tools,omitempty"`
	Documents      []string            `json:"documents,omitempty"`
}

func toAnswerResponse(a *usecases.Answer) AnswerResponse {
	resp := AnswerResponse{
		Setup:          string(a.Setup),
		Query:          a.Query,
		Response:       a.Response,
		Model:          a.Model,
		RequestedModel: a.Requested,
		Fallback:       a.Fallback,
		Failed:         a.Failed,
		IssuesError:    a.IssuesError,
		Documents:      a.Documents,
	}
	if a.Repository != nil {
		resp.Repository = &RepositoryResponse{Owner: a.Repository.Owner, Name: a.Repository.Name, URL: a.Repository.URL}
	}
	for _, is := range a.Issues {
		resp.Issues = append(resp.Issues, toIssueResponse(is))
	}
	for _, t := range a.Tools {
		resp.Tools = append(resp.Tools, ToolResponse{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	return resp
}

type ExchangeResponse struct {
	Setup    string    `json:"setup"`
	Query    string    `json:"query"`
	Response string    `json:"response"`
	Model    string    `json:"model,omitempty"`
	Failed   bool      `json:"failed"`
	At       time.Time `json:"at"`
}

type SessionResponse struct {
	ID          string             `json:"id"`
	Setup       string             `json:"setup"`
	Model       string             `json:"model"`
	RAGDocument *DocumentResponse  `json:"rag_document,omitempty"`
	Documents   []DocumentResponse `json:"documents"`
	Library     []DocumentResponse `json:"library"`
	History     []ExchangeResponse `json:"history"`
	Ready       bool               `json:"ready"`
}
