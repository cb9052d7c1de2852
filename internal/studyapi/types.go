package studyapi

import (
	"context"
	"encoding/json"
)

// UploadMessage is the acknowledgment returned for every accepted upload.
const UploadMessage = "Upload received. Processing will start shortly."

// UploadResult acknowledges an accepted upload.
type UploadResult struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// QAPair is a single question/answer pair. The backend uses it both for the
// Q&A section of a summary and for flashcards.
type QAPair struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

type SummaryResult struct {
	SummaryPoints []string `json:"summaryPoints"`
	QA            []QAPair `json:"qa"`
}

type FlashcardResult struct {
	Flashcards []QAPair `json:"flashcards"`
}

// QueryResult is the raw RAG answer. Sources and trace entries are passed
// through untouched.
type QueryResult struct {
	Answer  string                       `json:"answer"`
	Sources []map[string]json.RawMessage `json:"sources"`
	Trace   []map[string]json.RawMessage `json:"trace"`
}

// MessageResult is returned by endpoints that only acknowledge.
type MessageResult struct {
	Message string `json:"message"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// API is the set of backend operations. *Client implements it; the gateway
// depends on this interface so tests can substitute a fake.
type API interface {
	Summary(ctx context.Context, query string, topK int) (*SummaryResult, error)
	Flashcards(ctx context.Context, jobID string) (*FlashcardResult, error)
	Query(ctx context.Context, query string, topK int) (*QueryResult, error)
	RebuildIndex(ctx context.Context) (*MessageResult, error)
	Ping(ctx context.Context) (*MessageResult, error)
}
