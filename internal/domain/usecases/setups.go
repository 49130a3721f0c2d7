package usecases

import "github.com/0xcro3dile/llm-evolution-explorer/internal/domain/entities"

// SetupInfo describes a setup for display.
type SetupInfo struct {
	Setup        entities.Setup
	Title        string
	Description  string
	Diagram      string
	Architecture string
	Workflow     []string
}

var setupCatalog = map[entities.Setup]SetupInfo{
	entities.SetupBasic: {
		Setup:       entities.SetupBasic,
		Title:       "Basic LLM Query",
		Description: "Simple query-response interaction with the LLM.",
		Diagram:     "User Query → Gemini API → Response",
		Architecture: "In this basic setup, user queries are sent directly to the Gemini API, " +
			"which processes the input and returns a response based on its pre-trained knowledge.",
		Workflow: []string{
			"User submits a query",
			"Query is sent to Gemini API",
			"Gemini processes the query using its pre-trained knowledge",
			"Response is returned to the user",
		},
	},
	entities.SetupRAG: {
		Setup:       entities.SetupRAG,
		Title:       "RAG Integration",
		Description: "Retrieval-Augmented Generation using document context.",
		Diagram: `Document → Text Extraction → Context Storage
                                ↓
User Query → Query Processing → Gemini API → Response
                                ↑
                            Context Retrieval`,
		Architecture: "In the RAG setup, documents are processed to extract text, which is stored as context. " +
			"When a user submits a query, relevant context is retrieved and combined with the query before " +
			"being sent to the Gemini API, enhancing the response with document-specific information.",
		Workflow: []string{
			"User uploads a document",
			"Document text is extracted and processed",
			"User submits a query related to the document",
			"Query and relevant document context are sent to Gemini API",
			"Gemini generates a response incorporating document information",
			"Response with citations is returned to the user",
		},
	},
	entities.SetupAgentic: {
		Setup:       entities.SetupAgentic,
		Title:       "Simple Agentic Tool Use",
		Description: "LLM with tool-use capabilities for GitHub integration.",
		Diagram: `User Query → Query Analysis → Gemini API ⟷ Tool Selection → GitHub Tool → GitHub API
                                ↓
                             Response`,
		Architecture: "In the agentic setup, the LLM analyzes the user query and determines if it needs to use tools " +
			"to fulfill the request. It can interact with the GitHub tool to retrieve repository information, " +
			"which is then incorporated into the response.",
		Workflow: []string{
			"User submits a query related to GitHub repositories",
			"Query is analyzed to determine if tool use is needed",
			"If needed, the GitHub tool is called to retrieve repository information",
			"Information from the tool is incorporated into the context",
			"Gemini generates a response using the enhanced context",
			"Response is returned to the user",
		},
	},
	entities.SetupAgenticRAG: {
		Setup:       entities.SetupAgenticRAG,
		Title:       "Agentic RAG Integration",
		Description: "Advanced integration combining agentic capabilities with RAG.",
		Diagram: `Documents → Text Extraction → Context Storage
                                ↓
User Query → Query Analysis → Gemini API ⟷ Tool Selection → GitHub Tool → GitHub API
                                ↑               ↓
                            Context Retrieval   Other Tools
                                ↓
                             Response`,
		Architecture: "The agentic RAG setup combines both approaches. The LLM has access to document context " +
			"through RAG and can also use tools like the GitHub integration. It intelligently decides which " +
			"sources and tools to use based on the query, providing comprehensive responses with citations.",
		Workflow: []string{
			"User uploads multiple documents",
			"Document texts are extracted and processed",
			"User submits a query",
			"Query is analyzed to determine needed context and tools",
			"Relevant document context is retrieved",
			"If needed, tools like GitHub integration are called",
			"All information is combined into an enhanced context",
			"Gemini generates a comprehensive response with citations",
			"Response is returned to the user",
		},
	},
}

// Setups returns the catalog in display order.
func Setups() []SetupInfo {
	out := make([]SetupInfo, 0, len(entities.Setups))
	for _, s := range entities.Setups {
		out = append(out, setupCatalog[s])
	}
	return out
}

// LookupSetup returns the catalog entry of s.
func LookupSetup(s entities.Setup) (SetupInfo, bool) {
	info, ok := setupCatalog[s]
	return info, ok
}
