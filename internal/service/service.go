package service

import (
	"context"

	"github.com/xxxsen/legalqa/internal/model"
)

// SummaryQuery is the fixed retrieval query used to pick the chunks a
// document summary is generated from.
const SummaryQuery = "Summarize the detailed overview of the document."

const (
	MsgOnlyPDF          = "Only PDF files are allowed."
	MsgNoSummaryChunks  = "No relevant chunks found for summary."
	MsgSummaryFailed    = "Failed to generate summary."
	MsgResponseFailed   = "Failed to generate response."
	MsgSessionInvalid   = "Session expired or invalid."
	MsgQueryRequired    = "Query is required."
	MsgNoRelevantChunks = "No relevant chunks found."
)

type ChunkStore interface {
	InsertBatch(ctx context.Context, chunks []*model.Chunk) error
	Search(ctx context.Context, userID, documentID string, queryVec []float32, limit int) ([]model.ScoredChunk, error)
	DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error)
	DeleteDocuments(ctx context.Context, userID string, documentIDs []string) (int64, error)
	Stat(ctx context.Context, userID, documentID string) (*model.DocumentStat, error)
	ListExpiredDocuments(ctx context.Context, cutoff int64, limit int) ([]model.DocumentStat, error)
}

type PageExtractor interface {
	ExtractPages(path string) ([]string, error)
}

type TextSplitter interface {
	SplitPages(pages []string) []string
}

// Assistant is the language model surface the pipelines need. *ai.Manager
// satisfies it.
type Assistant interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	Summarize(ctx context.Context, contextText string) (string, error)
	Answer(ctx context.Context, contextText string, question string) (string, error)
}
